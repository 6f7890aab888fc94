package discovery

import (
	"math"

	"gocausal/domain/graph"
	"gocausal/internal/choice"
)

// rescueDepth caps the conditioning sets tried when revisiting unshielded
// triples after the skeleton settles.
const rescueDepth = 3

// buildSkeleton recovers the adjacency structure. Starting from the complete
// graph, conditioning sets of increasing size are tried for every adjacent
// pair. An independent verdict marks the edge for removal and records the
// separating set; a dependent one accumulates the p-value as evidence that
// the edge is real. Removals are deferred to the end of each size round so
// adjacency stays stable within the round.
func (st *search) buildSkeleton() (*graph.Graph, error) {
	g1 := graph.NewComplete(st.nodes)

	l := -1
	for g1.MaxDegree()-1 > l {
		l++

		var del []Pair
		for _, x := range st.nodes {
			adjx := g1.AdjacentNodes(x)

			for _, y := range adjx {
				rest := without(adjx, y)
				if len(rest) < l {
					continue
				}

				gen := choice.NewGenerator(len(rest), l)
				for idx := gen.Next(); idx != nil; idx = gen.Next() {
					cond := pick(rest, idx)

					independent, p := st.test(x, y, cond)
					if math.IsNaN(p) {
						continue
					}

					if independent {
						del = append(del, Pair{x, y})
						st.recordSepset(x, y, cond)
						st.v[Pair{x, y}] = make(floatSet)
						st.v[Pair{y, x}] = make(floatSet)
						break
					}

					addValue(st.v, Pair{x, y}, p)
					addValue(st.v, Pair{y, x}, p)
				}
			}
		}

		for _, pair := range del {
			g1.RemoveEdge(pair.X, pair.Y)
		}
	}

	// The strongest dependence evidence per pair survives; pairs whose
	// evidence was cleared by a separation carry nothing forward.
	for pair, set := range st.v {
		if v, ok := set.max(); ok {
			st.p1[pair] = v
		}
	}

	st.rescueSepsets(g1)
	return g1, nil
}

// rescueSepsets revisits every unshielded triple and retests its outer pair
// against small conditioning sets drawn from either endpoint's neighborhood.
// The best p-value found is folded into the evidence for the pair and its set
// into the recorded separating sets. This recovers separating information for
// triples whose true separator was never tried while the skeleton was still
// dense; for a genuine collider the winning set excludes the middle node, so
// no spurious sepset entry blocks the orientation pass.
func (st *search) rescueSepsets(g1 *graph.Graph) {
	for _, t := range unshieldedTriples(g1) {
		x, z := t.A, t.C
		if g1.IsAdjacent(x, z) {
			continue
		}

		pMax := math.Inf(-1)
		var sMax []*graph.Node

		for _, cond := range st.candidateSets(g1, x, z, nil, rescueDepth) {
			p := st.pvalue(x, z, cond)
			if math.IsNaN(p) {
				continue
			}
			if p > pMax {
				pMax = p
				sMax = cond
			}
		}

		if !math.IsInf(pMax, -1) {
			addValue(st.v, Pair{x, z}, pMax)
			addValue(st.v, Pair{z, x}, pMax)
			st.recordSepsetOrdered(Pair{x, z}, sMax)
		}
	}
}
