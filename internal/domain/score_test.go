package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCorrectRoute(t *testing.T) {
	tests := []struct {
		name     string
		routedTo string
		expected string
		want     bool
	}{
		{name: "suffixed identifier matches", routedTo: "finance_agent", expected: "finance", want: true},
		{name: "exact bare identifier matches", routedTo: "finance", expected: "finance", want: true},
		{name: "namespaced leaf matches", routedTo: "finance_banking", expected: "finance", want: true},
		{name: "nonexistent leaf still matches the domain", routedTo: "finance_escrow", expected: "finance", want: true},
		{name: "missing underscore boundary fails", routedTo: "financehandler", expected: "finance", want: false},
		{name: "different domain fails", routedTo: "hr_agent", expected: "finance", want: false},
		{name: "prefix domain does not bleed across boundary", routedTo: "customer_success_onboarding", expected: "customer_service", want: false},
		{name: "unknown never matches", routedTo: UnknownRoute, expected: "finance", want: false},
		{name: "empty expected never matches", routedTo: "finance_agent", expected: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCorrectRoute(tt.routedTo, tt.expected))
		})
	}
}

func TestSummarize(t *testing.T) {
	results := []RoutingResult{
		{
			Query:          "I need to book a flight",
			ExpectedDomain: "travel",
			RoutedTo:       "travel_agent",
			HopCount:       2,
			LatencyMs:      1500,
		},
		{
			Query:          "When do I get paid?",
			ExpectedDomain: "hr",
			RoutedTo:       "finance_agent",
			HopCount:       2,
			LatencyMs:      2500,
		},
		{
			Query:          "Reset my password",
			ExpectedDomain: "it_support",
			RoutedTo:       "it_support_agent",
			HopCount:       2,
			LatencyMs:      2000,
		},
	}

	metrics := Summarize(results)

	assert.InDelta(t, 66.666, metrics.Accuracy, 0.01, "two of three routes are correct")
	assert.InDelta(t, 2.0, metrics.AvgLatency, 0.0001, "mean latency in seconds")
	assert.InDelta(t, 2.0, metrics.AvgHops, 0.0001, "mean hop count")
	assert.Equal(t, 2, metrics.Correct)
	assert.Equal(t, 3, metrics.Total, "total must equal batch size")
}

func TestSummarizeEmptyBatch(t *testing.T) {
	assert.Equal(t, RunMetrics{}, Summarize(nil), "empty batch yields zero-valued metrics")
	assert.Equal(t, RunMetrics{}, Summarize([]RoutingResult{}), "empty slice yields zero-valued metrics")
}

func TestSummarizeCountsFailuresInTotal(t *testing.T) {
	results := []RoutingResult{
		{Query: "q1", ExpectedDomain: "hr", RoutedTo: "hr_agent", HopCount: 2, LatencyMs: 1000},
		{Query: "q2", ExpectedDomain: "hr", RoutedTo: UnknownRoute, LatencyMs: 30000, Err: "dispatch timed out"},
	}

	metrics := Summarize(results)

	assert.Equal(t, 2, metrics.Total, "failed query stays in the denominator")
	assert.Equal(t, 1, metrics.Correct, "failed query never counts as correct")
	assert.InDelta(t, 50.0, metrics.Accuracy, 0.0001)
	assert.InDelta(t, 15.5, metrics.AvgLatency, 0.0001, "failure latency is included in the mean")
}
