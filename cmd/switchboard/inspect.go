package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ahrav/go-switchboard/internal/topology"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Print topology shapes without calling the completion service",
	Long: `inspect builds each configured topology from the domain registry and
prints its shape: root identifier, node and leaf counts, maximum fan-out,
and depth. No completion requests are made.`,
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	config, err := resolveExperimentConfig(cmd)
	if err != nil {
		return err
	}
	kinds, err := config.Kinds()
	if err != nil {
		return err
	}

	registry, err := loadRegistry()
	if err != nil {
		return err
	}
	builder, err := topology.NewBuilder(registry, nil)
	if err != nil {
		return err
	}

	fmt.Printf("Registry: %d domains, %d leaf handlers\n\n", registry.Len(), registry.TotalLeafHandlers())

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TOPOLOGY\tROOT\tNODES\tLEAVES\tMAX FAN-OUT\tDEPTH")
	for _, kind := range kinds {
		root, err := builder.Build(kind)
		if err != nil {
			return fmt.Errorf("build %s: %w", kind, err)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\n",
			kind, root.ID, root.NodeCount(), root.LeafCount(), root.MaxFanOut(), root.Depth())
	}
	return w.Flush()
}
