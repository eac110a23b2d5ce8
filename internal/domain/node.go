package domain

// NodeRole distinguishes nodes that forward requests from nodes that answer
// them.
type NodeRole string

const (
	// RoleDispatcher marks a node that delegates each request to exactly one
	// of its children rather than answering directly.
	RoleDispatcher NodeRole = "dispatcher"

	// RoleLeaf marks a terminal handler that answers a request and stops
	// further delegation.
	RoleLeaf NodeRole = "leaf"
)

// DispatchNode is one node in a delegation tree. The tree's root is always a
// Dispatcher. Nodes are never mutated after construction; topologies are
// rebuilt fresh per run so completed runs cannot leak state into later ones,
// and a built tree may be shared across goroutines without locking.
type DispatchNode struct {
	// ID is the node identifier, unique within its tree. It is the value
	// models emit through the marker protocol and the value recorded in
	// dispatch traces.
	ID string `json:"id"`

	// Role reports whether the node dispatches or answers.
	Role NodeRole `json:"role"`

	// Description is the short human-readable summary shown to parent
	// dispatchers when they choose among children.
	Description string `json:"description,omitempty"`

	// Instruction is the fully rendered natural-language text the completion
	// service is conditioned on when this node speaks.
	Instruction string `json:"instruction,omitempty"`

	// Children are the node's delegation targets in roster order. Empty for
	// leaves.
	Children []*DispatchNode `json:"children,omitempty"`
}

// IsLeaf reports whether the node answers requests itself.
func (n *DispatchNode) IsLeaf() bool { return n.Role == RoleLeaf }

// Child returns the direct child with the given identifier.
func (n *DispatchNode) Child(id string) (*DispatchNode, bool) {
	for _, c := range n.Children {
		if c.ID == id {
			return c, true
		}
	}
	return nil, false
}

// Walk visits the node and every descendant in pre-order.
func (n *DispatchNode) Walk(visit func(*DispatchNode)) {
	if n == nil {
		return
	}
	visit(n)
	for _, c := range n.Children {
		c.Walk(visit)
	}
}

// Identifiers returns every node identifier in the tree in pre-order.
func (n *DispatchNode) Identifiers() []string {
	var ids []string
	n.Walk(func(node *DispatchNode) { ids = append(ids, node.ID) })
	return ids
}

// NodeCount returns the number of nodes in the tree, including the receiver.
func (n *DispatchNode) NodeCount() int {
	count := 0
	n.Walk(func(*DispatchNode) { count++ })
	return count
}

// LeafCount returns the number of leaf nodes in the tree.
func (n *DispatchNode) LeafCount() int {
	count := 0
	n.Walk(func(node *DispatchNode) {
		if node.IsLeaf() {
			count++
		}
	})
	return count
}

// MaxFanOut returns the largest child count at any node in the tree, the
// structural property the topology comparison exercises.
func (n *DispatchNode) MaxFanOut() int {
	max := 0
	n.Walk(func(node *DispatchNode) {
		if len(node.Children) > max {
			max = len(node.Children)
		}
	})
	return max
}

// Depth returns the length of the longest root-to-leaf path, counting nodes.
func (n *DispatchNode) Depth() int {
	if n == nil {
		return 0
	}
	deepest := 0
	for _, c := range n.Children {
		if d := c.Depth(); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}
