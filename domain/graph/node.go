package graph

// Node is a variable in a causal graph. Nodes are compared by identity:
// two nodes with the same name are distinct unless they are the same pointer.
type Node struct {
	name string
}

// NewNode creates a node with a display name.
func NewNode(name string) *Node {
	return &Node{name: name}
}

// Name returns the display name.
func (n *Node) Name() string {
	return n.name
}

func (n *Node) String() string {
	return n.name
}

// NodeNames renders a node slice as names, preserving order.
func NodeNames(nodes []*Node) []string {
	names := make([]string, len(nodes))
	for i, n := range nodes {
		names[i] = n.Name()
	}
	return names
}
