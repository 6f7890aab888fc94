package discovery

import (
	"math"
	"testing"

	"gocausal/domain/core"
	"gocausal/domain/graph"
)

func TestBuildEvidenceMapsRecordsToEdges(t *testing.T) {
	nodes := namedNodes("X", "Y", "Z", "W")
	x, y, z, w := nodes[0], nodes[1], nodes[2], nodes[3]
	st := newTestSearch(t, &stubOracle{nodes: nodes})
	st.addR0(triple{x, y, z})
	st.addR1(triple{x, y, z})
	st.addR2(triple{x, y, z})
	st.addR3(quad{x, y, z, w})

	st.buildEvidence()

	if !st.e0[Pair{z, y}].has(Pair{x, z}) {
		t.Error("collider leg Z -> Y should cite the outer pair (X, Z)")
	}
	if !st.e1[Pair{y, z}].has(Pair{x, y}) {
		t.Error("derived edge Y -> Z should cite its premise X -> Y")
	}
	for _, cited := range []Pair{{x, y}, {y, z}} {
		if !st.e2[Pair{x, z}].has(cited) {
			t.Errorf("triangle edge X -> Z should cite %s -> %s", cited.X, cited.Y)
		}
	}
	for _, cited := range []Pair{{x, y}, {x, z}, {y, w}, {z, w}} {
		if !st.e3[Pair{x, w}].has(cited) {
			t.Errorf("kite edge X -> W should cite %s-%s", cited.X, cited.Y)
		}
	}
}

func TestRetractionFollowsJustificationChain(t *testing.T) {
	nodes := namedNodes("W", "X", "Y", "Z")
	w, x, y, z := nodes[0], nodes[1], nodes[2], nodes[3]
	g2 := graph.New(nodes)
	mustEdge(t, g2.AddDirected(w, x))
	mustEdge(t, g2.AddDirected(x, y))
	mustEdge(t, g2.AddBidirected(y, z))
	g3 := g2.Copy()

	st := newTestSearch(t, &stubOracle{nodes: nodes})
	eAll := make(evidenceMap)
	eAll.add(Pair{y, z}, Pair{x, y})
	eAll.add(Pair{x, y}, Pair{w, x})

	st.retractInvalidated(g2, g3, eAll)

	for _, pair := range []Pair{{w, x}, {x, y}, {y, z}} {
		if !g3.IsUndirected(pair.X, pair.Y) {
			t.Errorf("%s-%s should be undirected; the retraction is transitive", pair.X, pair.Y)
		}
		if !st.amb.has(pair) || !st.amb.has(pair.reversed()) {
			t.Errorf("%s-%s should be marked ambiguous", pair.X, pair.Y)
		}
	}
}

func TestRetractionMarksNonEdgeEvidence(t *testing.T) {
	nodes := namedNodes("A", "B", "Y", "Z")
	a, b, y, z := nodes[0], nodes[1], nodes[2], nodes[3]
	g2 := graph.New(nodes)
	mustEdge(t, g2.AddBidirected(y, z))
	g3 := g2.Copy()

	st := newTestSearch(t, &stubOracle{nodes: nodes})
	eAll := make(evidenceMap)
	eAll.add(Pair{y, z}, Pair{a, b})

	st.retractInvalidated(g2, g3, eAll)

	if !st.amb.has(Pair{a, b}) || !st.amb.has(Pair{b, a}) {
		t.Error("cited non-edge pair should pick up the ambiguity mark")
	}
	if g3.IsAdjacent(a, b) {
		t.Error("retraction must never create an edge")
	}
	if !g3.IsUndirected(y, z) {
		t.Errorf("Y-Z should be undirected:\n%s", g3)
	}
}

func TestScoreSumsDistinctWitnesses(t *testing.T) {
	nodes := namedNodes("A", "B", "Y", "Z")
	a, b, y, z := nodes[0], nodes[1], nodes[2], nodes[3]
	st := newTestSearch(t, &stubOracle{nodes: nodes})
	st.addR1(triple{a, y, z})
	st.addR1(triple{b, y, z})
	st.p1[Pair{a, y}] = 0.3
	st.p1[Pair{b, y}] = 0.4

	trail := make(pairSet)
	got := st.score(Pair{y, z}, trail)

	if math.Abs(got-0.7) > 1e-12 {
		t.Errorf("score = %g, want the premises summed", got)
	}
	if v, ok := st.p3[Pair{y, z}]; !ok || v != got {
		t.Error("score should memoize its result")
	}
	if len(trail) != 0 {
		t.Errorf("trail = %v, want empty after the call", trail)
	}
}

func TestScoreCollapsesEqualWitnesses(t *testing.T) {
	nodes := namedNodes("A", "B", "Y", "Z")
	a, b, y, z := nodes[0], nodes[1], nodes[2], nodes[3]
	st := newTestSearch(t, &stubOracle{nodes: nodes})
	st.addR1(triple{a, y, z})
	st.addR1(triple{b, y, z})
	st.p1[Pair{a, y}] = 0.3
	st.p1[Pair{b, y}] = 0.3

	got := st.score(Pair{y, z}, make(pairSet))
	if got != 0.3 {
		t.Errorf("score = %g, want 0.3; equal witness strengths count once", got)
	}
}

func TestScoreBreaksJustificationCycles(t *testing.T) {
	nodes := namedNodes("A", "B", "C")
	a, b, c := nodes[0], nodes[1], nodes[2]
	st := newTestSearch(t, &stubOracle{nodes: nodes})
	st.addR1(triple{c, a, b})
	st.addR1(triple{b, c, a})
	st.addR1(triple{a, b, c})
	st.p1[Pair{a, b}] = 0.2
	st.p1[Pair{c, a}] = 0.2
	st.p1[Pair{b, c}] = 0.2

	got := st.score(Pair{a, b}, make(pairSet))
	if got != 0.2 {
		t.Errorf("score = %g, want 0.2", got)
	}
}

func TestAddWitnessSkipsTrailedPremises(t *testing.T) {
	nodes := namedNodes("A", "B", "C", "D")
	a, b, c, d := nodes[0], nodes[1], nodes[2], nodes[3]
	st := newTestSearch(t, &stubOracle{nodes: nodes})
	st.p1[Pair{a, b}] = 0.3
	st.p1[Pair{c, d}] = 0.5

	u := make(floatSet)
	trail := make(pairSet)
	trail.add(Pair{c, d})
	st.addWitness(u, trail, Pair{a, b}, Pair{c, d})
	if v, ok := u.max(); !ok || v != 0.3 {
		t.Errorf("witness = %v, %v; want the score of the free premise", v, ok)
	}

	u = make(floatSet)
	trail.add(Pair{a, b})
	st.addWitness(u, trail, Pair{a, b}, Pair{c, d})
	if len(u) != 0 {
		t.Errorf("witness set = %v, want nothing when every premise is suspended", u)
	}
}

func TestScoreMonotonicUnderJustificationRemoval(t *testing.T) {
	nodes := namedNodes("A", "X", "B", "W", "Y", "Z")
	a, x, b, w, y, z := nodes[0], nodes[1], nodes[2], nodes[3], nodes[4], nodes[5]

	// Y -> Z justified three ways, one record per rule, each contributing a
	// distinct witness strength. The mask drops one record at a time.
	scoreWith := func(keepR1, keepR2, keepR3 bool) float64 {
		st := newTestSearch(t, &stubOracle{nodes: nodes})
		if keepR1 {
			st.addR1(triple{a, y, z})
		}
		if keepR2 {
			st.addR2(triple{y, x, z})
		}
		if keepR3 {
			st.addR3(quad{y, b, w, z})
		}
		st.p1[Pair{a, y}] = 0.3
		st.p1[Pair{y, x}] = 0.2
		st.p1[Pair{x, z}] = 0.45
		st.p1[Pair{y, b}] = 0.15
		st.p1[Pair{y, w}] = 0.1
		st.p1[Pair{b, z}] = 0.35
		st.p1[Pair{w, z}] = 0.4
		return st.score(Pair{y, z}, make(pairSet))
	}

	full := scoreWith(true, true, true)
	if math.Abs(full-1.15) > 1e-12 {
		t.Fatalf("full score = %g, want 0.3 + 0.45 + 0.4", full)
	}

	cases := []struct {
		name       string
		r1, r2, r3 bool
	}{
		{name: "without the away-from-collider record", r2: true, r3: true},
		{name: "without the triangle record", r1: true, r3: true},
		{name: "without the kite record", r1: true, r2: true},
	}
	for _, tc := range cases {
		got := scoreWith(tc.r1, tc.r2, tc.r3)
		if got > full {
			t.Errorf("%s: score = %g, exceeds %g with every justification", tc.name, got, full)
		}
	}
}

func TestColliderSiblingRequiresRecord(t *testing.T) {
	nodes := namedNodes("A", "B")
	st := newTestSearch(t, &stubOracle{nodes: nodes})

	if _, err := st.colliderSibling(Pair{nodes[0], nodes[1]}); !core.IsInvariantError(err) {
		t.Errorf("err = %v, want an invariant error", err)
	}
}

func TestAggregateScoresOneColliderLegOnce(t *testing.T) {
	nodes := namedNodes("A", "B", "C")
	a, b, c := nodes[0], nodes[1], nodes[2]
	g2 := graph.New(nodes)
	mustEdge(t, g2.AddDirected(a, c))
	mustEdge(t, g2.AddDirected(b, c))

	st := newTestSearch(t, &stubOracle{nodes: nodes})
	st.addR0(triple{a, c, b})
	st.addR0(triple{b, c, a})
	st.p1[Pair{a, c}] = 0.01
	st.p1[Pair{b, c}] = 0.01

	if _, err := st.aggregate(g2); err != nil {
		t.Fatalf("aggregate: %v", err)
	}

	if !st.dup.has(Pair{b, c}) {
		t.Error("the second leg should be marked duplicate")
	}
	if st.dup.has(Pair{a, c}) {
		t.Error("the first leg should stay rankable")
	}
	if _, ok := st.p3[Pair{a, c}]; !ok {
		t.Error("p3(A, C) missing")
	}
	if _, ok := st.p3[Pair{b, c}]; !ok {
		t.Error("p3(B, C) missing; duplicates still score")
	}
}
