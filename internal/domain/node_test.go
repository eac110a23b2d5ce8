package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTree() *DispatchNode {
	return &DispatchNode{
		ID:   "distributed_coordinator",
		Role: RoleDispatcher,
		Children: []*DispatchNode{
			{
				ID:   "finance_domain",
				Role: RoleDispatcher,
				Children: []*DispatchNode{
					{ID: "finance_banking", Role: RoleLeaf},
					{ID: "finance_expenses", Role: RoleLeaf},
				},
			},
			{ID: "hr_domain", Role: RoleLeaf},
		},
	}
}

func TestDispatchNodeShape(t *testing.T) {
	root := testTree()

	assert.Equal(t, 5, root.NodeCount())
	assert.Equal(t, 3, root.LeafCount())
	assert.Equal(t, 2, root.MaxFanOut())
	assert.Equal(t, 3, root.Depth())
	assert.False(t, root.IsLeaf())

	ids := root.Identifiers()
	assert.Equal(t,
		[]string{"distributed_coordinator", "finance_domain", "finance_banking", "finance_expenses", "hr_domain"},
		ids, "identifiers are collected in pre-order")
}

func TestDispatchNodeChild(t *testing.T) {
	root := testTree()

	finance, ok := root.Child("finance_domain")
	require.True(t, ok)
	assert.Equal(t, RoleDispatcher, finance.Role)

	leaf, ok := finance.Child("finance_banking")
	require.True(t, ok)
	assert.True(t, leaf.IsLeaf())

	_, ok = root.Child("finance_banking")
	assert.False(t, ok, "lookup is direct children only")

	_, ok = root.Child("missing")
	assert.False(t, ok)
}
