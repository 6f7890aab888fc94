package graph

import (
	"fmt"
	"strings"

	"gocausal/domain/core"
)

// Graph is a mixed graph over a fixed node set. Each unordered pair carries
// at most one edge, described by an endpoint mark at either end. All listing
// methods iterate in node-index order so results are deterministic.
type Graph struct {
	nodes []*Node
	index map[*Node]int

	// endAt[a][b] is the mark at the b end of the edge between a and b.
	// An edge exists iff both orderings are present.
	endAt map[*Node]map[*Node]Endpoint
}

// New creates a graph over the given nodes with no edges. Node order is
// preserved and becomes the canonical iteration order.
func New(nodes []*Node) *Graph {
	g := &Graph{
		nodes: make([]*Node, 0, len(nodes)),
		index: make(map[*Node]int, len(nodes)),
		endAt: make(map[*Node]map[*Node]Endpoint, len(nodes)),
	}
	for _, n := range nodes {
		g.AddNode(n)
	}
	return g
}

// NewComplete creates a graph with an undirected edge between every pair.
func NewComplete(nodes []*Node) *Graph {
	g := New(nodes)
	for i := 0; i < len(g.nodes); i++ {
		for j := i + 1; j < len(g.nodes); j++ {
			g.AddUndirected(g.nodes[i], g.nodes[j])
		}
	}
	return g
}

// AddNode appends a node. Re-adding a known node is a no-op.
func (g *Graph) AddNode(n *Node) {
	if _, ok := g.index[n]; ok {
		return
	}
	g.index[n] = len(g.nodes)
	g.nodes = append(g.nodes, n)
	g.endAt[n] = make(map[*Node]Endpoint)
}

// Nodes returns the nodes in canonical order. The slice is a copy.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// NumNodes returns the node count.
func (g *Graph) NumNodes() int {
	return len(g.nodes)
}

// Index returns the canonical position of a node, or -1 if unknown.
func (g *Graph) Index(n *Node) int {
	i, ok := g.index[n]
	if !ok {
		return -1
	}
	return i
}

// Contains reports whether the node belongs to this graph.
func (g *Graph) Contains(n *Node) bool {
	_, ok := g.index[n]
	return ok
}

func (g *Graph) checkNodes(ns ...*Node) error {
	for _, n := range ns {
		if !g.Contains(n) {
			return fmt.Errorf("%w: %s", core.ErrUnknownNode, n.Name())
		}
	}
	return nil
}

// AddUndirected adds x --- y.
func (g *Graph) AddUndirected(x, y *Node) error {
	return g.addEdge(x, y, Tail, Tail)
}

// AddDirected adds x --> y.
func (g *Graph) AddDirected(x, y *Node) error {
	return g.addEdge(x, y, Tail, Arrow)
}

// AddBidirected adds x <-> y.
func (g *Graph) AddBidirected(x, y *Node) error {
	return g.addEdge(x, y, Arrow, Arrow)
}

func (g *Graph) addEdge(x, y *Node, atX, atY Endpoint) error {
	if err := g.checkNodes(x, y); err != nil {
		return err
	}
	if x == y {
		return core.NewValidationError("edge", "self loops are not allowed")
	}
	if g.IsAdjacent(x, y) {
		return fmt.Errorf("%w: %s, %s", core.ErrDuplicateEdge, x.Name(), y.Name())
	}
	g.endAt[x][y] = atY
	g.endAt[y][x] = atX
	return nil
}

// RemoveEdge removes the edge between x and y, if any.
func (g *Graph) RemoveEdge(x, y *Node) {
	if m, ok := g.endAt[x]; ok {
		delete(m, y)
	}
	if m, ok := g.endAt[y]; ok {
		delete(m, x)
	}
}

// IsAdjacent reports whether any edge joins x and y.
func (g *Graph) IsAdjacent(x, y *Node) bool {
	if m, ok := g.endAt[x]; ok {
		_, ok2 := m[y]
		return ok2
	}
	return false
}

// Endpoint returns the mark at the y end of the x-y edge.
func (g *Graph) Endpoint(x, y *Node) (Endpoint, bool) {
	m, ok := g.endAt[x]
	if !ok {
		return Tail, false
	}
	e, ok := m[y]
	return e, ok
}

// SetEndpoint sets the mark at the y end of the x-y edge. The edge must
// already exist.
func (g *Graph) SetEndpoint(x, y *Node, e Endpoint) error {
	if !g.IsAdjacent(x, y) {
		return fmt.Errorf("set endpoint: no edge between %s and %s", x.Name(), y.Name())
	}
	g.endAt[x][y] = e
	return nil
}

// Undirect resets both marks of the x-y edge to tails. No-op without an edge.
func (g *Graph) Undirect(x, y *Node) {
	if !g.IsAdjacent(x, y) {
		return
	}
	g.endAt[x][y] = Tail
	g.endAt[y][x] = Tail
}

// IsDirected reports x --> y.
func (g *Graph) IsDirected(x, y *Node) bool {
	atY, ok := g.Endpoint(x, y)
	if !ok {
		return false
	}
	atX, _ := g.Endpoint(y, x)
	return atX == Tail && atY == Arrow
}

// IsUndirected reports x --- y.
func (g *Graph) IsUndirected(x, y *Node) bool {
	atY, ok := g.Endpoint(x, y)
	if !ok {
		return false
	}
	atX, _ := g.Endpoint(y, x)
	return atX == Tail && atY == Tail
}

// IsBidirected reports x <-> y.
func (g *Graph) IsBidirected(x, y *Node) bool {
	atY, ok := g.Endpoint(x, y)
	if !ok {
		return false
	}
	atX, _ := g.Endpoint(y, x)
	return atX == Arrow && atY == Arrow
}

// AdjacentNodes returns the neighbors of x in canonical order.
func (g *Graph) AdjacentNodes(x *Node) []*Node {
	var out []*Node
	for _, n := range g.nodes {
		if n != x && g.IsAdjacent(x, n) {
			out = append(out, n)
		}
	}
	return out
}

// NodesInto returns the nodes w adjacent to x whose edge carries the given
// mark at the x end, in canonical order. NodesInto(x, Arrow) is the set of
// nodes with an arrowhead pointing into x.
func (g *Graph) NodesInto(x *Node, e Endpoint) []*Node {
	var out []*Node
	for _, w := range g.nodes {
		if w == x {
			continue
		}
		at, ok := g.Endpoint(w, x)
		if ok && at == e {
			out = append(out, w)
		}
	}
	return out
}

// Parents returns the nodes p with p --> x, in canonical order.
func (g *Graph) Parents(x *Node) []*Node {
	var out []*Node
	for _, p := range g.nodes {
		if p != x && g.IsDirected(p, x) {
			out = append(out, p)
		}
	}
	return out
}

// Children returns the nodes c with x --> c, in canonical order.
func (g *Graph) Children(x *Node) []*Node {
	var out []*Node
	for _, c := range g.nodes {
		if c != x && g.IsDirected(x, c) {
			out = append(out, c)
		}
	}
	return out
}

// Degree returns the number of edges at x.
func (g *Graph) Degree(x *Node) int {
	return len(g.endAt[x])
}

// MaxDegree returns the largest degree over all nodes.
func (g *Graph) MaxDegree() int {
	max := 0
	for _, n := range g.nodes {
		if d := g.Degree(n); d > max {
			max = d
		}
	}
	return max
}

// Edges returns all edges with X ordered before Y by node index.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for i, x := range g.nodes {
		for j := i + 1; j < len(g.nodes); j++ {
			y := g.nodes[j]
			atY, ok := g.Endpoint(x, y)
			if !ok {
				continue
			}
			atX, _ := g.Endpoint(y, x)
			out = append(out, Edge{X: x, Y: y, AtX: atX, AtY: atY})
		}
	}
	return out
}

// NumEdges returns the edge count.
func (g *Graph) NumEdges() int {
	total := 0
	for _, m := range g.endAt {
		total += len(m)
	}
	return total / 2
}

// Copy returns a graph with the same nodes (shared pointers) and a deep copy
// of the edge marks.
func (g *Graph) Copy() *Graph {
	c := New(g.nodes)
	for a, m := range g.endAt {
		for b, e := range m {
			c.endAt[a][b] = e
		}
	}
	return c
}

func (g *Graph) String() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("graph over %d nodes:\n", len(g.nodes)))
	for _, e := range g.Edges() {
		b.WriteString("  ")
		b.WriteString(e.String())
		b.WriteString("\n")
	}
	return b.String()
}
