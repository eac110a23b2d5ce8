package topology

import (
	"fmt"

	"github.com/ahrav/go-switchboard/internal/domain"
)

// Builder constructs delegation trees for every supported kind from one
// registry. A Builder is immutable and safe for concurrent use; each Build
// call produces a fresh tree so runs never share node state.
type Builder struct {
	reg   *domain.Registry
	hints []RoutingHint
}

// NewBuilder creates a Builder over the registry. A nil hints slice selects
// DefaultRoutingHints; pass an empty non-nil slice to disable hints.
// Returns ErrEmptyRegistry when the registry is nil or has no domains.
func NewBuilder(reg *domain.Registry, hints []RoutingHint) (*Builder, error) {
	if reg == nil || reg.Len() == 0 {
		return nil, domain.ErrEmptyRegistry
	}
	if hints == nil {
		hints = DefaultRoutingHints()
	}
	return &Builder{reg: reg, hints: hints}, nil
}

// Build constructs the delegation tree for the given kind. Building the same
// kind twice yields structurally identical trees.
func (b *Builder) Build(kind Kind) (*domain.DispatchNode, error) {
	switch kind {
	case FlatDomain:
		return b.buildFlatDomain()
	case TwoLevel:
		return b.buildTwoLevel()
	case FlatLeaf:
		return b.buildFlatLeaf()
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownTopology, kind)
	}
}

// Build is the package-level convenience form using default hints.
func Build(reg *domain.Registry, kind Kind) (*domain.DispatchNode, error) {
	b, err := NewBuilder(reg, nil)
	if err != nil {
		return nil, err
	}
	return b.Build(kind)
}

// buildFlatDomain wires one leaf per domain under a single coordinator.
func (b *Builder) buildFlatDomain() (*domain.DispatchNode, error) {
	domains := b.reg.Domains()
	children := make([]*domain.DispatchNode, 0, len(domains))
	roster := make([]string, 0, len(domains))

	for _, rec := range domains {
		leaf, err := b.domainAgentLeaf(rec)
		if err != nil {
			return nil, err
		}
		children = append(children, leaf)
		roster = append(roster, fmt.Sprintf("- **%s**: %s", rec.Name, truncateDescription(rec.Description, rosterTruncateLen)))
	}

	instruction, err := render(tmplCentralRoot, rootData{
		Count:  len(children),
		Roster: roster,
		Hints:  renderHints(b.hints, b.reg, FlatDomain),
	})
	if err != nil {
		return nil, err
	}

	return &domain.DispatchNode{
		ID:          CentralCoordinatorID,
		Role:        domain.RoleDispatcher,
		Description: "Central coordinator routing queries across all domain agents",
		Instruction: instruction,
		Children:    children,
	}, nil
}

// buildTwoLevel wires per-domain dispatchers under the root, each fanning
// out to its own leaf handlers. Domains without handlers become leaves at
// the domain layer.
func (b *Builder) buildTwoLevel() (*domain.DispatchNode, error) {
	domains := b.reg.Domains()
	children := make([]*domain.DispatchNode, 0, len(domains))
	roster := make([]string, 0, len(domains))

	for _, rec := range domains {
		node, err := b.domainNode(rec)
		if err != nil {
			return nil, err
		}
		children = append(children, node)
		roster = append(roster, fmt.Sprintf("- %s: %s", node.ID, truncateDescription(rec.Description, rosterTruncateLen)))
	}

	instruction, err := render(tmplDistributedRoot, rootData{
		Count:  len(children),
		Roster: roster,
		Hints:  renderHints(b.hints, b.reg, TwoLevel),
	})
	if err != nil {
		return nil, err
	}

	return &domain.DispatchNode{
		ID:          DistributedCoordinatorID,
		Role:        domain.RoleDispatcher,
		Description: "Root coordinator routing queries to domain dispatchers",
		Instruction: instruction,
		Children:    children,
	}, nil
}

// buildFlatLeaf wires every namespaced leaf handler directly under the
// root, falling back to one domain-wide leaf for handlerless domains.
func (b *Builder) buildFlatLeaf() (*domain.DispatchNode, error) {
	domains := b.reg.Domains()
	var (
		children []*domain.DispatchNode
		roster   []string
	)

	for _, rec := range domains {
		if len(rec.LeafHandlers) == 0 {
			leaf, err := b.domainAgentLeaf(rec)
			if err != nil {
				return nil, err
			}
			children = append(children, leaf)
			roster = append(roster, fmt.Sprintf("- %s: %s", leaf.ID, truncateDescription(rec.Description, rosterTruncateLen)))
			continue
		}

		for _, handler := range rec.LeafHandlers {
			leaf, err := b.leafHandlerNode(rec.Name, handler)
			if err != nil {
				return nil, err
			}
			children = append(children, leaf)
			roster = append(roster, fmt.Sprintf("- %s: %s", leaf.ID, truncateDescription(leaf.Description, rosterTruncateLen)))
		}
	}

	instruction, err := render(tmplDirectRoot, rootData{
		Count:  len(children),
		Roster: roster,
		Hints:  renderHints(b.hints, b.reg, FlatLeaf),
	})
	if err != nil {
		return nil, err
	}

	return &domain.DispatchNode{
		ID:          DirectCoordinatorID,
		Role:        domain.RoleDispatcher,
		Description: "Direct coordinator routing queries across all specialist handlers",
		Instruction: instruction,
		Children:    children,
	}, nil
}

// domainAgentLeaf builds the flat-topology leaf covering a whole domain.
func (b *Builder) domainAgentLeaf(rec domain.DomainRecord) (*domain.DispatchNode, error) {
	samples := rec.SampleQueries
	if len(samples) > maxSampleQueries {
		samples = samples[:maxSampleQueries]
	}

	fullDescription, err := render(tmplDomainDescription, domainDescriptionData{
		Description: rec.Description,
		Keywords:    rec.Keywords,
		Samples:     samples,
	})
	if err != nil {
		return nil, err
	}

	id := rec.Name + "_agent"
	instruction, err := render(tmplDomainAgent, domainAgentData{
		ID:              id,
		Domain:          rec.Name,
		FullDescription: fullDescription,
	})
	if err != nil {
		return nil, err
	}

	return &domain.DispatchNode{
		ID:          id,
		Role:        domain.RoleLeaf,
		Description: fullDescription,
		Instruction: instruction,
	}, nil
}

// domainNode builds the two-level node for one domain: a dispatcher over
// its leaf handlers, or a direct-answering leaf when it has none.
func (b *Builder) domainNode(rec domain.DomainRecord) (*domain.DispatchNode, error) {
	id := rec.Name + "_domain"

	if len(rec.LeafHandlers) == 0 {
		instruction, err := render(tmplDomainDirect, domainDispatcherData{
			ID:          id,
			Domain:      rec.Name,
			Description: rec.Description,
			Keywords:    rec.Keywords,
		})
		if err != nil {
			return nil, err
		}
		return &domain.DispatchNode{
			ID:          id,
			Role:        domain.RoleLeaf,
			Description: rec.Description,
			Instruction: instruction,
		}, nil
	}

	leaves := make([]*domain.DispatchNode, 0, len(rec.LeafHandlers))
	roster := make([]string, 0, len(rec.LeafHandlers))
	for _, handler := range rec.LeafHandlers {
		leaf, err := b.leafHandlerNode(rec.Name, handler)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, leaf)
		roster = append(roster, fmt.Sprintf("- %s: %s", leaf.ID, truncateDescription(leaf.Description, rosterTruncateLen)))
	}

	instruction, err := render(tmplDomainDispatcher, domainDispatcherData{
		ID:          id,
		Domain:      rec.Name,
		Description: rec.Description,
		Keywords:    rec.Keywords,
		Roster:      roster,
	})
	if err != nil {
		return nil, err
	}

	return &domain.DispatchNode{
		ID:          id,
		Role:        domain.RoleDispatcher,
		Description: rec.Description,
		Instruction: instruction,
		Children:    leaves,
	}, nil
}

// leafHandlerNode builds one namespaced leaf handler, resolving its
// description through the (domain, leaf) scoped lookup.
func (b *Builder) leafHandlerNode(domainName, handler string) (*domain.DispatchNode, error) {
	id := domainName + "_" + handler
	description := b.reg.HandlerDescription(domainName, handler)

	instruction, err := render(tmplLeafHandler, leafHandlerData{
		ID:          id,
		Domain:      domainName,
		Name:        handler,
		Description: description,
	})
	if err != nil {
		return nil, err
	}

	return &domain.DispatchNode{
		ID:          id,
		Role:        domain.RoleLeaf,
		Description: fmt.Sprintf("%s: %s", handler, description),
		Instruction: instruction,
	}, nil
}
