package testutils

import (
	"fmt"

	"github.com/ahrav/go-switchboard/internal/domain"
)

// FixtureRegistry returns a small registry exercising every structural
// shape: a domain with handlers, one without, and a handler name that
// collides across domains with distinct descriptions.
func FixtureRegistry() *domain.Registry {
	reg, err := domain.NewRegistry([]domain.DomainRecord{
		{
			Name:          "finance",
			Description:   "Financial operations, accounting, and budgeting",
			Keywords:      []string{"expense", "budget", "invoice", "banking"},
			LeafHandlers:  []string{"banking", "expenses", "reporting"},
			SampleQueries: []string{"Check my bank balance", "Report an expense", "Show my financial report"},
			Handlers: map[string]string{
				"reporting": "Prepares financial statements and filings",
			},
		},
		{
			Name:          "hr",
			Description:   "People operations, payroll, benefits, and time off",
			Keywords:      []string{"payroll", "benefits", "vacation", "paycheck"},
			SampleQueries: []string{"Request time off", "When do I get paid?"},
		},
		{
			Name:          "travel",
			Description:   "Business travel booking and itineraries",
			Keywords:      []string{"flight", "hotel", "trip"},
			LeafHandlers:  []string{"flights", "hotels", "reporting"},
			SampleQueries: []string{"Book a flight to Tokyo", "Find me a hotel in Paris"},
		},
	}, map[string]string{
		"banking":   "Handles bank accounts and transfers",
		"flights":   "Books and changes flights",
		"hotels":    "Reserves hotels and lodging",
		"reporting": "Summarizes travel spend per trip",
	})
	if err != nil {
		panic(fmt.Sprintf("fixture registry is invalid: %v", err))
	}
	return reg
}

// FixtureQueries returns query cases covering each fixture domain plus an
// ambiguous payroll phrasing.
func FixtureQueries() []domain.QueryCase {
	return []domain.QueryCase{
		{Text: "I need to book a flight to Tokyo", ExpectedDomain: "travel"},
		{Text: "Check my bank balance", ExpectedDomain: "finance"},
		{Text: "Request time off for next week", ExpectedDomain: "hr"},
		{Text: "When do I get paid?", ExpectedDomain: "hr"},
	}
}
