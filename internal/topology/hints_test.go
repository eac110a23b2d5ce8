package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-switchboard/internal/domain"
)

func TestRenderHintsPerKind(t *testing.T) {
	reg, err := domain.NewRegistry([]domain.DomainRecord{
		{Name: "hr", Description: "People operations"},
		{Name: "finance", Description: "Money things"},
	}, nil)
	require.NoError(t, err)

	hints := []RoutingHint{
		{Phrases: []string{"paycheck", "salary inquiry"}, Domain: "hr", Note: "not finance"},
		{Phrases: []string{"refund"}, Domain: "customer_service"},
	}

	t.Run("flat domain targets agents", func(t *testing.T) {
		lines := renderHints(hints, reg, FlatDomain)
		require.Len(t, lines, 1, "hints for absent domains are dropped")
		assert.Equal(t, `- "paycheck", "salary inquiry" -> hr_agent (not finance)`, lines[0])
	})

	t.Run("two level targets domain dispatchers", func(t *testing.T) {
		lines := renderHints(hints, reg, TwoLevel)
		require.Len(t, lines, 1)
		assert.Contains(t, lines[0], "-> hr_domain")
	})

	t.Run("flat leaf targets the namespaced handler group", func(t *testing.T) {
		lines := renderHints(hints, reg, FlatLeaf)
		require.Len(t, lines, 1)
		assert.Contains(t, lines[0], "-> one of the hr_* handlers")
	})
}

func TestDefaultRoutingHintsCoverKnownAmbiguities(t *testing.T) {
	domains := make(map[string]bool)
	for _, hint := range DefaultRoutingHints() {
		require.NotEmpty(t, hint.Phrases)
		domains[hint.Domain] = true
	}

	// Payroll phrasing must resolve to HR, not finance; order phrasing to
	// customer service.
	assert.True(t, domains["hr"], "payroll ambiguity hint missing")
	assert.True(t, domains["customer_service"], "order ambiguity hint missing")
}

func TestTruncateDescription(t *testing.T) {
	assert.Equal(t, "", truncateDescription("anything", 0))
	assert.Equal(t, "short", truncateDescription("short", 80))
	assert.Equal(t, "abc...", truncateDescription("abcdef", 3))

	long := truncateDescription("Financial operations, accounting, budgeting, and expense management for the whole company", 40)
	assert.Len(t, []rune(long), 43, "truncation keeps 40 runes plus ellipsis")
	assert.True(t, len(long) > 0)
}
