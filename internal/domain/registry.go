package domain

import (
	"fmt"
	"sort"
)

// DomainRecord describes one routable domain: its identity, the descriptive
// text and keywords used to render dispatcher instructions, and the leaf
// handlers the domain fans out to in hierarchical topologies.
// Records are immutable once loaded and live for the whole process.
type DomainRecord struct {
	// Name is the unique lowercase snake_case identifier of the domain.
	Name string `yaml:"name" json:"name" validate:"required,snakecase"`

	// Description is free text summarizing what the domain handles.
	Description string `yaml:"description" json:"description" validate:"required"`

	// Keywords enrich dispatcher instructions; their order is irrelevant.
	Keywords []string `yaml:"keywords" json:"keywords,omitempty"`

	// LeafHandlers lists the domain's leaf-handler names, possibly empty.
	// A domain with no leaf handlers answers queries itself in hierarchical
	// topologies.
	LeafHandlers []string `yaml:"leaf_handlers" json:"leaf_handlers,omitempty" validate:"dive,snakecase"`

	// SampleQueries are example requests embedded into instructions to give
	// the model concrete routing anchors. At most three are used.
	SampleQueries []string `yaml:"sample_queries" json:"sample_queries,omitempty"`

	// Handlers optionally overrides leaf-handler descriptions for this
	// domain only. It takes precedence over the shared description map, so
	// two domains reusing a handler name (such as "reporting") can each
	// carry their own text.
	Handlers map[string]string `yaml:"handlers" json:"handlers,omitempty"`
}

// LeafHandlerRecord is one leaf handler resolved within its owning domain.
// Handler names are only unique per domain, never globally.
type LeafHandlerRecord struct {
	// Domain is the name of the owning DomainRecord.
	Domain string `json:"domain"`

	// Name is the handler's bare name, unique within its domain.
	Name string `json:"name"`

	// Description is the resolved descriptive text for the handler.
	Description string `json:"description"`
}

// HandlerKey scopes a leaf-handler lookup to its owning domain.
type HandlerKey struct {
	Domain string
	Leaf   string
}

// PlaceholderHandlerDescription is the text substituted for a leaf handler
// that has no description in either the domain override map or the shared
// map. Construction never fails on a missing description.
func PlaceholderHandlerDescription(name string) string {
	return fmt.Sprintf("Handles %s tasks", name)
}

// Registry is the read-only set of domain records plus a (domain, leaf)
// scoped description index for leaf handlers. It is safe for concurrent use
// once constructed because nothing mutates it afterwards.
type Registry struct {
	domains  []DomainRecord
	handlers map[HandlerKey]LeafHandlerRecord
}

// NewRegistry builds a Registry from domain records and a shared leaf-handler
// description map. Per-domain Handlers overrides win over the shared map;
// names missing from both resolve to a placeholder description.
// Returns ErrEmptyRegistry when no domains are given and ErrDuplicateDomain
// when two records share a name.
func NewRegistry(domains []DomainRecord, sharedHandlers map[string]string) (*Registry, error) {
	if len(domains) == 0 {
		return nil, ErrEmptyRegistry
	}

	seen := make(map[string]struct{}, len(domains))
	handlers := make(map[HandlerKey]LeafHandlerRecord)

	for _, rec := range domains {
		if _, dup := seen[rec.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateDomain, rec.Name)
		}
		seen[rec.Name] = struct{}{}

		for _, leaf := range rec.LeafHandlers {
			desc, ok := rec.Handlers[leaf]
			if !ok {
				desc, ok = sharedHandlers[leaf]
			}
			if !ok {
				desc = PlaceholderHandlerDescription(leaf)
			}
			handlers[HandlerKey{Domain: rec.Name, Leaf: leaf}] = LeafHandlerRecord{
				Domain:      rec.Name,
				Name:        leaf,
				Description: desc,
			}
		}
	}

	return &Registry{domains: domains, handlers: handlers}, nil
}

// Domains returns the ordered domain records. The returned slice is shared;
// callers must treat it as read-only.
func (r *Registry) Domains() []DomainRecord { return r.domains }

// Len returns the number of domain records.
func (r *Registry) Len() int { return len(r.domains) }

// Domain returns the record with the given name.
func (r *Registry) Domain(name string) (DomainRecord, bool) {
	for _, rec := range r.domains {
		if rec.Name == name {
			return rec, true
		}
	}
	return DomainRecord{}, false
}

// LeafHandler resolves a handler within its owning domain. The boolean
// reports whether the (domain, leaf) pair is registered at all; registered
// handlers always carry a non-empty description, placeholder or otherwise.
func (r *Registry) LeafHandler(domain, leaf string) (LeafHandlerRecord, bool) {
	rec, ok := r.handlers[HandlerKey{Domain: domain, Leaf: leaf}]
	return rec, ok
}

// HandlerDescription returns the resolved description for a (domain, leaf)
// pair, substituting the placeholder for unregistered names so instruction
// rendering never fails on incomplete configuration.
func (r *Registry) HandlerDescription(domain, leaf string) string {
	if rec, ok := r.handlers[HandlerKey{Domain: domain, Leaf: leaf}]; ok {
		return rec.Description
	}
	return PlaceholderHandlerDescription(leaf)
}

// TotalLeafHandlers returns the number of leaf handlers across all domains.
func (r *Registry) TotalLeafHandlers() int {
	n := 0
	for _, rec := range r.domains {
		n += len(rec.LeafHandlers)
	}
	return n
}

// DomainNames returns the sorted set of domain names, used for deterministic
// reporting.
func (r *Registry) DomainNames() []string {
	names := make([]string, 0, len(r.domains))
	for _, rec := range r.domains {
		names = append(names, rec.Name)
	}
	sort.Strings(names)
	return names
}
