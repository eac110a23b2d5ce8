package application

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/ahrav/go-switchboard/internal/domain"
	"github.com/ahrav/go-switchboard/internal/topology"
)

var experimentValidator = newExperimentValidator()

func newExperimentValidator() *validator.Validate {
	v := validator.New()
	if err := RegisterExperimentValidators(v); err != nil {
		panic(fmt.Sprintf("register experiment validators: %v", err))
	}
	return v
}

// RegistryConfig defines the complete specification for a domain registry
// and serves as the schema for registry YAML files.
// Use RegistryConfig when declaring the organizational domains and leaf
// handlers that topology trees are built from.
type RegistryConfig struct {
	// Version specifies the configuration schema version using semantic
	// versioning to ensure compatibility across system updates.
	Version string `yaml:"version" validate:"required,semver"`
	// Metadata contains descriptive information about the registry
	// for organization and discovery.
	Metadata RegistryMetadata `yaml:"metadata" validate:"required"`
	// Domains defines the routable domains, each with its description,
	// keywords, sample queries, and optional leaf handlers.
	Domains []domain.DomainRecord `yaml:"domains" validate:"required,min=1,dive"`
	// SharedHandlers maps leaf-handler names to descriptions shared across
	// domains. A domain's own Handlers entries override these per name, so
	// two domains reusing a handler name can still carry distinct text.
	SharedHandlers map[string]string `yaml:"shared_handlers"`
}

// RegistryMetadata provides descriptive information about a registry file
// to support organization and operational management.
type RegistryMetadata struct {
	// Name is the human-readable identifier for this registry.
	Name string `yaml:"name" validate:"required,min=1,max=255"`
	// Description explains the registry's purpose and scope.
	Description string `yaml:"description" validate:"max=1000"`
}

// ExperimentConfig defines a full topology comparison: which topologies to
// evaluate, how many times, over which queries, and against which
// completion service.
// Use ExperimentConfig as the single entry point for configuring comparison
// runs from the CLI or from YAML.
type ExperimentConfig struct {
	// Topologies lists the topology kinds under comparison, in the order
	// they appear in reports and exports.
	Topologies []string `yaml:"topologies" validate:"required,min=1,dive,topologykind"`
	// Runs is the number of evaluation passes per topology. Statistics
	// are computed across runs, so more runs smooth out model variance.
	Runs int `yaml:"runs" validate:"required,min=1,max=100"`
	// QueryLimit truncates the query fixture set when positive,
	// supporting fast smoke runs. Zero uses every fixture.
	QueryLimit int `yaml:"query_limit" validate:"min=0"`
	// Concurrency caps in-flight queries within one run. Values below
	// two keep runs sequential, matching the service's rate expectations.
	Concurrency int `yaml:"concurrency" validate:"min=0,max=64"`
	// QueryTimeoutSeconds bounds a single query dispatch end to end.
	QueryTimeoutSeconds int `yaml:"query_timeout_seconds" validate:"min=0,max=3600"`
	// Provider selects the completion service backend.
	Provider string `yaml:"provider" validate:"omitempty,oneof=google openai anthropic"`
	// Model overrides the provider's default model when non-empty.
	Model string `yaml:"model"`
	// OutputDir receives CSV exports and experiment logs.
	OutputDir string `yaml:"output_dir"`
	// SessionSeed prefixes dispatch session identifiers so one comparison
	// invocation can be traced through service-side logs.
	SessionSeed string `yaml:"session_seed" validate:"max=64"`
}

// DefaultExperimentConfig returns the configuration used when no overrides
// are supplied: one run of all three topologies over the full query set,
// sequentially, against the default provider.
func DefaultExperimentConfig() ExperimentConfig {
	return ExperimentConfig{
		Topologies:          []string{string(topology.FlatDomain), string(topology.TwoLevel), string(topology.FlatLeaf)},
		Runs:                1,
		Concurrency:         1,
		QueryTimeoutSeconds: 120,
		Provider:            "google",
		OutputDir:           "results",
	}
}

// LoadExperimentConfigFromFile reads an experiment configuration from a
// YAML file, overlaying it on the defaults so absent keys keep their
// default values. Unknown fields are rejected.
func LoadExperimentConfigFromFile(path string) (ExperimentConfig, error) {
	cleanPath := filepath.Clean(path)

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return ExperimentConfig{}, fmt.Errorf("failed to read file: %w", err)
	}

	config := DefaultExperimentConfig()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	if err := decoder.Decode(&config); err != nil {
		return ExperimentConfig{}, fmt.Errorf("YAML decode failed: %w", err)
	}

	return config, nil
}

// Validate checks the configuration against its struct rules, including
// the custom topology-kind validator.
func (c ExperimentConfig) Validate() error {
	if err := experimentValidator.Struct(c); err != nil {
		return fmt.Errorf("experiment config validation failed: %w", err)
	}
	return nil
}

// QueryTimeout returns the per-query timeout as a duration, falling back
// to two minutes when unset.
func (c ExperimentConfig) QueryTimeout() time.Duration {
	if c.QueryTimeoutSeconds <= 0 {
		return 120 * time.Second
	}
	return time.Duration(c.QueryTimeoutSeconds) * time.Second
}

// Kinds parses the configured topology names into kinds.
// Validation has already established they parse; unknown names still
// surface as errors for callers that skip validation.
func (c ExperimentConfig) Kinds() ([]topology.Kind, error) {
	kinds := make([]topology.Kind, 0, len(c.Topologies))
	for _, name := range c.Topologies {
		kind, err := topology.ParseKind(name)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, kind)
	}
	return kinds, nil
}
