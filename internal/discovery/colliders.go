package discovery

import (
	"fmt"
	"math"

	"gocausal/domain/core"
	"gocausal/domain/graph"
)

// orientColliders points both edges of an unshielded triple into the middle
// node whenever the middle node is absent from the recorded separating set of
// the outer pair. Each collider also contributes confidence evidence for its
// two directed legs. Afterwards, orientations contradicted by a bidirected
// edge are retracted and the contested pairs marked ambiguous.
func (st *search) orientColliders(g1 *graph.Graph) (*graph.Graph, error) {
	st.ut = unshieldedTriples(g1)

	for _, t := range st.ut {
		x, y, z := t.A, t.B, t.C
		if g1.IsAdjacent(x, z) {
			continue
		}

		sep, ok := st.sepsets[Pair{x, z}]
		if !ok {
			return nil, core.NewInvariantError("collider orientation",
				fmt.Sprintf("no separating set recorded for non-adjacent pair %s, %s", x.Name(), z.Name()))
		}
		if sep.has(y) {
			continue
		}

		if err := arrow(g1, x, y); err != nil {
			return nil, err
		}
		if err := arrow(g1, z, y); err != nil {
			return nil, err
		}
		st.addR0(triple{x, y, z})
		st.addR0(triple{z, y, x})

		// Every sepset candidate containing y feeds the shared pool of
		// separation p-values; the pool only grows across triples.
		for _, cond := range st.candidateSets(g1, x, z, y, -1) {
			p := st.pvalue(x, z, cond)
			if !math.IsNaN(p) {
				st.t.add(p)
			}
		}

		st.addTp(z, y, x)
		st.addTp(x, y, z)
	}

	g2 := st.retractBidirected(g1)
	st.sumEdgeEvidence(g1)
	return g2, nil
}

// addTp folds one collider's contribution into the evidence for the directed
// edge tail -> head: the larger of the opposite leg's surviving dependence
// evidence and the strongest separation p-value pooled so far. A collider
// with neither is recorded nowhere.
func (st *search) addTp(tail, head, otherTail *graph.Node) {
	best := math.Inf(-1)
	found := false
	if v, ok := st.p1[Pair{otherTail, head}]; ok {
		best = v
		found = true
	}
	if v, ok := st.t.max(); ok {
		if !found || v > best {
			best = v
		}
		found = true
	}
	if found {
		addValue(st.tp, Pair{tail, head}, best)
	}
}

// retractBidirected copies g1 and, for every bidirected edge, undirects every
// edge carrying an arrowhead into either endpoint, marking those pairs
// ambiguous. The bidirected edge itself is among them.
func (st *search) retractBidirected(g1 *graph.Graph) *graph.Graph {
	g2 := g1.Copy()

	for _, e := range g1.Edges() {
		if !e.IsBidirected() {
			continue
		}
		for _, end := range [2]*graph.Node{e.X, e.Y} {
			for _, w := range g1.NodesInto(end, graph.Arrow) {
				g2.Undirect(end, w)
				st.amb.addBoth(w, end)
			}
		}
	}
	return g2
}

// sumEdgeEvidence totals the per-collider contributions for every edge still
// directed in g1. Edges with no contributions get no entry.
func (st *search) sumEdgeEvidence(g1 *graph.Graph) {
	for _, x := range st.nodes {
		for _, y := range st.nodes {
			if x == y || !g1.IsDirected(x, y) {
				continue
			}
			if set, ok := st.tp[Pair{x, y}]; ok && len(set) > 0 {
				st.p2[Pair{x, y}] = set.sum()
			}
		}
	}
}
