package topology

import (
	"fmt"
	"strings"

	"github.com/ahrav/go-switchboard/internal/domain"
)

// RoutingHint is a static phrase-set → domain override compensating for
// known-ambiguous phrasings in the domain taxonomy. Hints are configuration
// constants, not derived logic; dispatchers receive them rendered in their
// topology's identifier scheme.
type RoutingHint struct {
	// Phrases are the ambiguous formulations the hint covers.
	Phrases []string `yaml:"phrases" json:"phrases" validate:"required,min=1"`

	// Domain is the registry domain the phrases should resolve to.
	Domain string `yaml:"domain" json:"domain" validate:"required"`

	// Note optionally clarifies the disambiguation for the model, such as
	// naming the domain the phrasing should NOT go to.
	Note string `yaml:"note" json:"note,omitempty"`
}

// DefaultRoutingHints covers the taxonomy's known ambiguity hot spots:
// payroll phrasing reads financial but belongs to HR, training enrollment
// goes to HR rather than learning_development, and order/refund phrasing
// belongs to customer service rather than sales or billing.
func DefaultRoutingHints() []RoutingHint {
	return []RoutingHint{
		{Phrases: []string{"expense", "payment", "spending", "report cost"}, Domain: "finance"},
		{Phrases: []string{"when do I get paid", "paycheck", "salary inquiry"}, Domain: "hr"},
		{Phrases: []string{"training", "enroll in course", "enroll in program"}, Domain: "hr", Note: "not learning_development"},
		{Phrases: []string{"travel", "flight", "hotel", "vacation", "trip"}, Domain: "travel"},
		{Phrases: []string{"order", "return", "refund", "delivery"}, Domain: "customer_service"},
		{Phrases: []string{"pay my bill", "billing question", "invoice dispute"}, Domain: "billing"},
	}
}

// renderHints formats the hints that reference registry domains into roster
// lines, spelling each target in the given kind's identifier scheme. Hints
// for domains absent from the registry are dropped so small fixture
// registries never advertise unreachable targets.
func renderHints(hints []RoutingHint, reg *domain.Registry, kind Kind) []string {
	lines := make([]string, 0, len(hints))
	for _, hint := range hints {
		if _, ok := reg.Domain(hint.Domain); !ok {
			continue
		}
		quoted := make([]string, len(hint.Phrases))
		for i, p := range hint.Phrases {
			quoted[i] = fmt.Sprintf("%q", p)
		}
		line := fmt.Sprintf("- %s -> %s", strings.Join(quoted, ", "), hintTarget(hint.Domain, kind))
		if hint.Note != "" {
			line += fmt.Sprintf(" (%s)", hint.Note)
		}
		lines = append(lines, line)
	}
	return lines
}

// hintTarget spells a domain in the identifier scheme of the given kind.
func hintTarget(domainName string, kind Kind) string {
	switch kind {
	case TwoLevel:
		return domainName + "_domain"
	case FlatLeaf:
		return "one of the " + domainName + "_* handlers"
	default:
		return domainName + "_agent"
	}
}
