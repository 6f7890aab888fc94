package discovery

import (
	"testing"

	"gocausal/domain/graph"
	"gocausal/ports"
)

// stubOracle satisfies the oracle interface for tests that drive individual
// phases on prepared state and never expect a live query.
type stubOracle struct {
	nodes []*graph.Node
}

func (o *stubOracle) Test(x, y *graph.Node, cond []*graph.Node) (bool, float64) {
	return false, 0
}

func (o *stubOracle) Alpha() float64           { return 0.05 }
func (o *stubOracle) Variables() []*graph.Node { return o.nodes }

func newTestSearch(t *testing.T, oracle ports.IndependenceOracle) *search {
	t.Helper()
	s, err := New(oracle, DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return newSearch(s)
}

func TestBuildSkeletonChain(t *testing.T) {
	nodes := namedNodes("A", "B", "C", "D")
	dag := graph.New(nodes)
	for i := 0; i+1 < len(nodes); i++ {
		mustEdge(t, dag.AddDirected(nodes[i], nodes[i+1]))
	}
	st := newTestSearch(t, &truthOracle{dag: dag, alpha: 0.05})

	g1, err := st.buildSkeleton()
	if err != nil {
		t.Fatalf("buildSkeleton: %v", err)
	}

	if g1.NumEdges() != 3 {
		t.Fatalf("edges = %d, want 3\n%s", g1.NumEdges(), g1)
	}
	for i := 0; i+1 < len(nodes); i++ {
		if !g1.IsAdjacent(nodes[i], nodes[i+1]) {
			t.Errorf("chain edge %s-%s missing", nodes[i], nodes[i+1])
		}
	}

	sep, ok := st.sepsets[Pair{nodes[0], nodes[2]}]
	if !ok || !sep.has(nodes[1]) {
		t.Error("separating set for A, C should contain B")
	}
	if _, ok := st.sepsets[Pair{nodes[2], nodes[0]}]; !ok {
		t.Error("separating sets are recorded under both orderings")
	}

	if v, ok := st.p1[Pair{nodes[0], nodes[1]}]; !ok || v != 0.001 {
		t.Errorf("p1(A, B) = %v, %v; want the dependence p-value", v, ok)
	}
	if _, ok := st.p1[Pair{nodes[0], nodes[2]}]; ok {
		t.Error("separated pairs carry no dependence evidence forward")
	}
}

func TestBuildSkeletonRescueFoldsAfterExtraction(t *testing.T) {
	// Collider A -> C <- B: the outer pair separates marginally, then the
	// rescue pass revisits it. The folded p-value lands in the raw evidence
	// but must not revive the cleared p1 entry.
	nodes := namedNodes("A", "B", "C")
	a, b, c := nodes[0], nodes[1], nodes[2]
	dag := graph.New(nodes)
	mustEdge(t, dag.AddDirected(a, c))
	mustEdge(t, dag.AddDirected(b, c))
	st := newTestSearch(t, &truthOracle{dag: dag, alpha: 0.05})

	g1, err := st.buildSkeleton()
	if err != nil {
		t.Fatalf("buildSkeleton: %v", err)
	}

	if g1.IsAdjacent(a, b) {
		t.Fatal("A and B should separate")
	}
	sep, ok := st.sepsets[Pair{a, b}]
	if !ok {
		t.Fatal("no separating set recorded for A, B")
	}
	if sep.has(c) {
		t.Error("the empty set separates A, B; C should not be recorded")
	}

	if len(st.v[Pair{a, b}]) != 1 {
		t.Errorf("rescue evidence for A, B = %v, want exactly the rescued p-value", st.v[Pair{a, b}])
	}
	if _, ok := st.p1[Pair{a, b}]; ok {
		t.Error("rescued evidence must not feed p1")
	}
}

func TestCandidateSetsBothNeighborhoods(t *testing.T) {
	nodes := namedNodes("A", "B", "C")
	a, b, c := nodes[0], nodes[1], nodes[2]
	g := graph.New(nodes)
	mustEdge(t, g.AddUndirected(a, b))
	mustEdge(t, g.AddUndirected(b, c))
	st := newTestSearch(t, &stubOracle{nodes: nodes})

	sets := st.candidateSets(g, a, c, nil, 3)
	if len(sets) != 4 {
		t.Fatalf("got %d sets, want empty and {B} from each side", len(sets))
	}

	sets = st.candidateSets(g, a, c, b, -1)
	if len(sets) != 2 {
		t.Fatalf("got %d sets containing B, want 2", len(sets))
	}
	for _, cond := range sets {
		if !containsNode(cond, b) {
			t.Errorf("set %v should contain B", graph.NodeNames(cond))
		}
	}

	sets = st.candidateSets(g, a, c, nil, 0)
	if len(sets) != 2 {
		t.Fatalf("got %d sets at size 0, want 2", len(sets))
	}
	for _, cond := range sets {
		if len(cond) != 0 {
			t.Errorf("set %v should be empty", graph.NodeNames(cond))
		}
	}
}
