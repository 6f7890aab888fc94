package graph

import "fmt"

// Endpoint is the mark at one end of an edge.
type Endpoint int

const (
	// Tail is a plain (unmarked) endpoint.
	Tail Endpoint = iota
	// Arrow is an arrowhead endpoint.
	Arrow
)

func (e Endpoint) String() string {
	switch e {
	case Tail:
		return "-"
	case Arrow:
		return ">"
	default:
		return "?"
	}
}

// Edge is a snapshot of one edge: the two nodes and the mark at each.
// X always has the lower node index in the owning graph, so edge listings
// are stable across runs.
type Edge struct {
	X, Y     *Node
	AtX, AtY Endpoint
}

// IsUndirected reports a tail at both ends.
func (e Edge) IsUndirected() bool {
	return e.AtX == Tail && e.AtY == Tail
}

// IsDirected reports exactly one arrowhead.
func (e Edge) IsDirected() bool {
	return (e.AtX == Arrow) != (e.AtY == Arrow)
}

// IsBidirected reports an arrowhead at both ends.
func (e Edge) IsBidirected() bool {
	return e.AtX == Arrow && e.AtY == Arrow
}

// TailNode returns the tail of a directed edge, nil otherwise.
func (e Edge) TailNode() *Node {
	if !e.IsDirected() {
		return nil
	}
	if e.AtY == Arrow {
		return e.X
	}
	return e.Y
}

// HeadNode returns the head of a directed edge, nil otherwise.
func (e Edge) HeadNode() *Node {
	if !e.IsDirected() {
		return nil
	}
	if e.AtY == Arrow {
		return e.Y
	}
	return e.X
}

func (e Edge) String() string {
	left := "-"
	if e.AtX == Arrow {
		left = "<"
	}
	right := "-"
	if e.AtY == Arrow {
		right = ">"
	}
	return fmt.Sprintf("%s %s-%s %s", e.X.Name(), left, right, e.Y.Name())
}
