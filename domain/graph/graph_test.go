package graph

import (
	"testing"
)

func nodes(names ...string) []*Node {
	out := make([]*Node, len(names))
	for i, name := range names {
		out[i] = NewNode(name)
	}
	return out
}

func TestNodeIdentity(t *testing.T) {
	a1 := NewNode("A")
	a2 := NewNode("A")
	if a1 == a2 {
		t.Fatal("distinct nodes with equal names must not be identical")
	}

	g := New([]*Node{a1})
	if g.Contains(a2) {
		t.Error("graph should not contain a different node with the same name")
	}
}

func TestCompleteGraph(t *testing.T) {
	ns := nodes("A", "B", "C", "D")
	g := NewComplete(ns)

	if got := g.NumEdges(); got != 6 {
		t.Fatalf("complete graph over 4 nodes should have 6 edges, got %d", got)
	}
	for i := range ns {
		for j := range ns {
			if i != j && !g.IsAdjacent(ns[i], ns[j]) {
				t.Errorf("%s and %s should be adjacent", ns[i], ns[j])
			}
		}
	}
	if g.MaxDegree() != 3 {
		t.Errorf("expected max degree 3, got %d", g.MaxDegree())
	}
}

func TestEdgeMarks(t *testing.T) {
	ns := nodes("A", "B", "C")
	a, b, c := ns[0], ns[1], ns[2]
	g := New(ns)

	if err := g.AddDirected(a, b); err != nil {
		t.Fatalf("add directed: %v", err)
	}
	if err := g.AddUndirected(b, c); err != nil {
		t.Fatalf("add undirected: %v", err)
	}

	if !g.IsDirected(a, b) || g.IsDirected(b, a) {
		t.Error("expected a --> b only")
	}
	if !g.IsUndirected(b, c) {
		t.Error("expected b --- c")
	}

	// Orienting into an existing arrowhead produces a bidirected edge.
	if err := g.SetEndpoint(b, a, Arrow); err != nil {
		t.Fatalf("set endpoint: %v", err)
	}
	if !g.IsBidirected(a, b) {
		t.Error("expected a <-> b after arrowheads at both ends")
	}

	g.Undirect(a, b)
	if !g.IsUndirected(a, b) {
		t.Error("expected a --- b after undirect")
	}
}

func TestDuplicateEdgeRejected(t *testing.T) {
	ns := nodes("A", "B")
	g := New(ns)
	if err := g.AddUndirected(ns[0], ns[1]); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := g.AddDirected(ns[0], ns[1]); err == nil {
		t.Error("second edge on the same pair should be rejected")
	}
}

func TestNodesInto(t *testing.T) {
	ns := nodes("A", "B", "C", "D")
	a, b, c, d := ns[0], ns[1], ns[2], ns[3]
	g := New(ns)
	g.AddDirected(a, c)
	g.AddDirected(b, c)
	g.AddUndirected(c, d)

	into := g.NodesInto(c, Arrow)
	if len(into) != 2 || into[0] != a || into[1] != b {
		t.Fatalf("expected [A B] into C, got %v", NodeNames(into))
	}
	if got := g.NodesInto(c, Tail); len(got) != 1 || got[0] != d {
		t.Fatalf("expected [D] with tail at C, got %v", NodeNames(got))
	}
}

func TestAdjacencyOrderIsCanonical(t *testing.T) {
	ns := nodes("E", "A", "C", "B", "D")
	g := NewComplete(ns)

	adj := g.AdjacentNodes(ns[2])
	want := []string{"E", "A", "B", "D"}
	got := NodeNames(adj)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestCopyIsIndependent(t *testing.T) {
	ns := nodes("A", "B", "C")
	g := New(ns)
	g.AddDirected(ns[0], ns[1])
	g.AddUndirected(ns[1], ns[2])

	c := g.Copy()
	c.RemoveEdge(ns[0], ns[1])
	c.SetEndpoint(ns[1], ns[2], Arrow)

	if !g.IsDirected(ns[0], ns[1]) {
		t.Error("removing from the copy must not touch the original")
	}
	if !g.IsUndirected(ns[1], ns[2]) {
		t.Error("re-marking the copy must not touch the original")
	}
	if c.Index(ns[0]) != g.Index(ns[0]) {
		t.Error("copy must preserve node order")
	}
}

func TestEdgesListing(t *testing.T) {
	ns := nodes("A", "B", "C")
	g := New(ns)
	g.AddDirected(ns[1], ns[0]) // B --> A
	g.AddUndirected(ns[1], ns[2])

	edges := g.Edges()
	if len(edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(edges))
	}
	// First edge pairs A (index 0) with B (index 1); the arrow sits at A.
	e := edges[0]
	if e.X != ns[0] || e.Y != ns[1] {
		t.Fatalf("expected first edge A-B, got %s", e)
	}
	if !e.IsDirected() || e.TailNode() != ns[1] || e.HeadNode() != ns[0] {
		t.Errorf("expected B --> A, got %s", e)
	}
	if !edges[1].IsUndirected() {
		t.Errorf("expected B --- C undirected, got %s", edges[1])
	}
}
