package application

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/ahrav/go-switchboard/internal/domain"
)

// Misroute is one incorrectly routed query with a diagnosis of what went
// wrong, supporting the error analysis that follows a comparison run.
type Misroute struct {
	// Topology names the topology kind the query ran under.
	Topology string `json:"topology"`

	// Run is the 1-based run number the misroute occurred in.
	Run int `json:"run"`

	// Query is the misrouted query text.
	Query string `json:"query"`

	// ExpectedDomain is where the query should have landed.
	ExpectedDomain string `json:"expected_domain"`

	// RoutedTo is the identifier the dispatch actually resolved to.
	RoutedTo string `json:"routed_to"`

	// Reason classifies the failure: a transport error, an unresolvable
	// trace, a claim by another domain, or an identifier that matches
	// nothing in the tree.
	Reason string `json:"reason"`

	// NearestID is the tree identifier closest to RoutedTo by edit
	// distance when RoutedTo matches no identifier exactly. Empty
	// otherwise.
	NearestID string `json:"nearest_id,omitempty"`
}

// Misroutes extracts and diagnoses every incorrectly routed query across
// all topologies and runs of a comparison, in stable topology/run/query
// order.
func (o *ComparisonOutcome) Misroutes() []Misroute {
	var misroutes []Misroute

	for _, outcome := range o.Outcomes {
		for runIdx, run := range outcome.Runs {
			for _, result := range run.Results {
				if domain.IsCorrectRoute(result.RoutedTo, result.ExpectedDomain) {
					continue
				}
				misroutes = append(misroutes, diagnose(outcome, runIdx+1, result))
			}
		}
	}

	return misroutes
}

// diagnose classifies a single misrouted result against the topology's
// identifier set.
func diagnose(outcome TopologyOutcome, run int, result domain.RoutingResult) Misroute {
	m := Misroute{
		Topology:       string(outcome.Kind),
		Run:            run,
		Query:          result.Query,
		ExpectedDomain: result.ExpectedDomain,
		RoutedTo:       result.RoutedTo,
	}

	switch {
	case result.Failed():
		m.Reason = fmt.Sprintf("dispatch failed: %s", result.Err)
	case result.RoutedTo == domain.UnknownRoute:
		m.Reason = "no marker found and trace fallback was empty"
	case containsIdentifier(outcome.Identifiers, result.RoutedTo):
		m.Reason = fmt.Sprintf("claimed by %s instead of %s",
			identifierOwner(result.RoutedTo), result.ExpectedDomain)
	default:
		nearest, distance := nearestIdentifier(outcome.Identifiers, result.RoutedTo)
		m.NearestID = nearest
		m.Reason = fmt.Sprintf("identifier not in tree; nearest is %q (edit distance %d)", nearest, distance)
	}

	return m
}

func containsIdentifier(identifiers []string, id string) bool {
	for _, candidate := range identifiers {
		if candidate == id {
			return true
		}
	}
	return false
}

// identifierOwner extracts the owning domain from a node identifier by
// stripping the trailing role suffix, so finance_agent and
// finance_banking both report finance.
func identifierOwner(id string) string {
	if idx := strings.LastIndex(id, "_"); idx > 0 {
		return id[:idx]
	}
	return id
}

// nearestIdentifier returns the tree identifier with the smallest
// Levenshtein distance to the routed identifier, for diagnosing model
// output that almost names a real node.
func nearestIdentifier(identifiers []string, routedTo string) (string, int) {
	best := ""
	bestDistance := -1

	for _, candidate := range identifiers {
		distance := levenshtein.ComputeDistance(routedTo, candidate)
		if bestDistance < 0 || distance < bestDistance {
			best = candidate
			bestDistance = distance
		}
	}

	return best, bestDistance
}
