package discovery

import (
	"fmt"
	"math"
	"sort"

	"gocausal/domain/core"
	"gocausal/domain/graph"
)

// prune ranks every scored edge by aggregate p-value ascending and removes
// those ranked past the largest rank still under the independence threshold,
// the Benjamini-Yekutieli correction under arbitrary dependence. It returns
// the pruned graph, the estimated false discovery rate of the retained set,
// the selected alpha-star threshold, the removed edges, and the ranked table.
// With nothing to rank the graph passes through and the rates are NaN.
func (st *search) prune(g3 *graph.Graph) (*graph.Graph, float64, float64, []graph.Edge, []EdgeScore, error) {
	pp := make([]Pair, 0, len(st.p3))
	for pair := range st.p3 {
		if !st.dup.has(pair) {
			pp = append(pp, pair)
		}
	}
	m := len(pp)
	if m == 0 {
		return g3, math.NaN(), math.NaN(), nil, nil, nil
	}

	// Canonical order first so equal p-values rank the same way every run.
	sortPairs(pp, g3)
	sort.SliceStable(pp, func(i, j int) bool {
		return st.p3[pp[i]] < st.p3[pp[j]]
	})

	harmonic := 0.0
	for i := 1; i <= m; i++ {
		harmonic += 1.0 / float64(i)
	}

	rank := 1
	for i := 1; i <= m; i++ {
		if st.p3[pp[i-1]] < st.alpha {
			rank = i
		}
	}

	fdr := float64(m) * st.alpha * harmonic / float64(rank)

	// Adjusted p-values: keep the latest rank whose adjusted value is
	// maximal without exceeding the configured bound.
	maxQ := 0.0
	j := 1
	for k := 1; k <= m; k++ {
		qk := float64(m) * st.p3[pp[k-1]] * harmonic / float64(k)
		if qk >= maxQ && qk <= st.q {
			maxQ = qk
			j = k
		}
	}
	alphaStar := st.p3[pp[j-1]]

	gStar := g3.Copy()
	var removed []graph.Edge
	for s := rank + 1; s <= m; s++ {
		pair := pp[s-1]
		e, ok := edgeBetween(gStar, pair.X, pair.Y)
		if !ok {
			return nil, 0, 0, nil, nil, core.NewInvariantError("pruning",
				fmt.Sprintf("ranked pair %s, %s has no edge", pair.X.Name(), pair.Y.Name()))
		}
		removed = append(removed, e)
		gStar.RemoveEdge(pair.X, pair.Y)
	}
	sortEdges(removed, gStar)

	table := make([]EdgeScore, 0, m)
	for _, pair := range pp {
		table = append(table, EdgeScore{X: pair.X, Y: pair.Y, P: st.p3[pair]})
	}
	return gStar, fdr, alphaStar, removed, table, nil
}

func sortEdges(edges []graph.Edge, g *graph.Graph) {
	sort.Slice(edges, func(i, j int) bool {
		if a, b := g.Index(edges[i].X), g.Index(edges[j].X); a != b {
			return a < b
		}
		return g.Index(edges[i].Y) < g.Index(edges[j].Y)
	})
}
