// Package topology constructs delegation trees from a domain registry.
// One parameterized builder covers all compared hierarchy shapes; the
// returned trees are plain immutable data driven by the dispatch executor.
package topology

import (
	"fmt"

	"github.com/ahrav/go-switchboard/internal/domain"
)

// Kind selects one of the delegation-tree shapes under comparison.
type Kind string

const (
	// FlatDomain is one root dispatcher with a leaf per registry domain.
	FlatDomain Kind = "flat_domain"

	// TwoLevel is a root dispatcher over per-domain dispatchers, each
	// fanning out to its own leaf handlers. Domains without leaf handlers
	// collapse into leaves at the domain layer.
	TwoLevel Kind = "two_level"

	// FlatLeaf is one root dispatcher over the full namespaced
	// leaf-handler set, with no intermediate domain layer.
	FlatLeaf Kind = "flat_leaf"
)

// Root node identifiers per kind. They all contain "coordinator" so the
// marker parser's trace fallback skips them.
const (
	CentralCoordinatorID     = "central_coordinator"
	DistributedCoordinatorID = "distributed_coordinator"
	DirectCoordinatorID      = "direct_coordinator"
)

// AllKinds returns every supported kind in comparison order.
func AllKinds() []Kind { return []Kind{FlatDomain, TwoLevel, FlatLeaf} }

// ParseKind converts a configuration string into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case FlatDomain, TwoLevel, FlatLeaf:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownTopology, s)
	}
}

// String returns the kind's configuration name.
func (k Kind) String() string { return string(k) }
