package discovery

import (
	"fmt"
	"math"

	"gocausal/domain/core"
	"gocausal/domain/graph"
)

// buildEvidence maps every oriented edge to the set of pairs whose standing
// justified its orientation, one map per rule.
func (st *search) buildEvidence() {
	for _, r := range st.r0 {
		// Collider x -> y <- z: the leg z -> y rests on the outer pair
		// (x, z) having separated without y.
		st.e0.add(Pair{r.C, r.B}, Pair{r.A, r.C})
	}
	for _, r := range st.r1 {
		// (x, y, z): y -> z rests on x -> y.
		st.e1.add(Pair{r.B, r.C}, Pair{r.A, r.B})
	}
	for _, r := range st.r2 {
		// (y, x, z): y -> z rests on y -> x and x -> z.
		st.e2.add(Pair{r.A, r.C}, Pair{r.A, r.B})
		st.e2.add(Pair{r.A, r.C}, Pair{r.B, r.C})
	}
	for _, r := range st.r3 {
		// (y, x, w, z): y -> z rests on all four kite edges.
		key := Pair{r.A, r.D}
		st.e3.add(key, Pair{r.A, r.B})
		st.e3.add(key, Pair{r.A, r.C})
		st.e3.add(key, Pair{r.B, r.D})
		st.e3.add(key, Pair{r.C, r.D})
	}
}

// aggregate retracts every orientation whose justification chain collapsed,
// then computes the aggregate confidence P3 for each surviving edge.
func (st *search) aggregate(g2 *graph.Graph) (*graph.Graph, error) {
	st.buildEvidence()
	eAll := mergeEvidence(st.e0, st.e1, st.e2, st.e3)
	e123 := mergeEvidence(st.e1, st.e2, st.e3)

	g3 := g2.Copy()
	st.retractInvalidated(g2, g3, eAll)

	directed, undirected := st.orientedPairs(g3)

	// Undirected edges that were never contested score their surviving
	// skeleton dependence evidence directly.
	for _, pair := range undirected {
		if st.amb.has(pair) {
			continue
		}
		if v, ok := st.p1[pair]; ok {
			st.p3[pair] = v
		}
	}

	// A collider justifies both of its legs with the same separation fact.
	// When both legs stand on that one fact alone, score only one of them.
	for _, pair := range directed {
		evid, ok := st.e0[pair]
		if !ok {
			continue
		}
		if _, ruled := e123[pair]; ruled {
			continue
		}
		if len(evid) != 1 || st.dup.has(pair) {
			continue
		}
		sibling, err := st.colliderSibling(pair)
		if err != nil {
			return nil, err
		}
		other := Pair{sibling, pair.Y}
		if evid2, ok := st.e0[other]; ok && len(evid2) == 1 {
			st.dup.add(other)
		}
	}

	trail := make(pairSet)
	for _, pair := range directed {
		st.score(pair, trail)
	}

	// One ordering per undirected edge is enough for the ranking.
	for _, pair := range undirected {
		if !st.dup.has(pair) {
			st.dup.add(pair.reversed())
		}
	}
	return g3, nil
}

// retractInvalidated converts every edge left bidirected by propagation into
// an undirected ambiguous edge in g3, then pushes the ambiguity through the
// justification maps: a pair cited as evidence for a retracted orientation is
// retracted as well, transitively. Evidence pairs that are not edges (a
// collider's outer pair) only pick up the ambiguity mark.
func (st *search) retractInvalidated(g2, g3 *graph.Graph, eAll evidenceMap) {
	seen := make(pairSet)
	var queue []Pair

	for _, e := range g2.Edges() {
		if e.IsBidirected() {
			queue = append(queue, Pair{e.X, e.Y})
		}
	}

	for len(queue) > 0 {
		pair := queue[0]
		queue = queue[1:]
		if seen.has(pair) || seen.has(pair.reversed()) {
			continue
		}
		seen.add(pair)

		g3.Undirect(pair.X, pair.Y)
		st.amb.addBoth(pair.X, pair.Y)

		next := make(pairSet)
		for p := range eAll[pair] {
			next.add(p)
		}
		for p := range eAll[pair.reversed()] {
			next.add(p)
		}
		for _, p := range sortedPairs(next, g3) {
			if !seen.has(p) && !seen.has(p.reversed()) {
				queue = append(queue, p)
			}
		}
	}
}

// orientedPairs lists the ordered pairs carrying a directed edge and those
// carrying an undirected edge, in canonical order. An undirected edge appears
// under both orderings.
func (st *search) orientedPairs(g *graph.Graph) (directed, undirected []Pair) {
	for _, y := range st.nodes {
		for _, z := range st.nodes {
			if y == z {
				continue
			}
			if g.IsDirected(y, z) {
				directed = append(directed, Pair{y, z})
			}
			if g.IsUndirected(y, z) {
				undirected = append(undirected, Pair{y, z})
			}
		}
	}
	return directed, undirected
}

// colliderSibling finds the other parent recorded alongside the directed
// collider leg pair.X -> pair.Y.
func (st *search) colliderSibling(pair Pair) (*graph.Node, error) {
	for _, r := range st.r0 {
		if r.B == pair.Y && r.C == pair.X {
			return r.A, nil
		}
	}
	return nil, core.NewInvariantError("evidence aggregation",
		fmt.Sprintf("no collider record behind directed edge %s -> %s", pair.X.Name(), pair.Y.Name()))
}

// score computes the aggregate confidence of one oriented pair: the sum of
// the distinct strengths of its alternative justifications, floored by the
// pair's own skeleton and collider evidence. A justification is only as
// strong as its most doubtful cited pair, so each witness is a maximum of
// scores; pairs still being expanded higher up the recursion are skipped,
// which breaks cycles in the justification graph.
func (st *search) score(pair Pair, trail pairSet) float64 {
	if v, ok := st.p3[pair]; ok {
		return v
	}
	trail.add(pair)

	u := make(floatSet)
	y, z := pair.X, pair.Y

	for _, r := range st.r1 {
		if r.B != y || r.C != z {
			continue
		}
		premise := Pair{r.A, r.B}
		if trail.has(premise) {
			continue
		}
		u.add(st.score(premise, trail))
	}

	for _, r := range st.r2 {
		if r.A != y || r.C != z {
			continue
		}
		st.addWitness(u, trail, Pair{r.A, r.B}, Pair{r.B, r.C})
	}

	for _, r := range st.r3 {
		if r.A != y || r.D != z {
			continue
		}
		st.addWitness(u, trail, Pair{r.A, r.B}, Pair{r.A, r.C}, Pair{r.B, r.D}, Pair{r.C, r.D})
	}

	floor := 0.0
	if v, ok := st.p1[pair]; ok && v > floor {
		floor = v
	}
	if v, ok := st.p2[pair]; ok && v > floor {
		floor = v
	}

	val := math.Max(u.sum(), floor)
	st.p3[pair] = val
	delete(trail, pair)
	return val
}

// addWitness folds one justification's witness into the alternatives: the
// largest score among its cited pairs, skipping pairs on the trail. A
// justification whose every cited pair is on the trail contributes nothing.
func (st *search) addWitness(u floatSet, trail pairSet, premises ...Pair) {
	best := math.Inf(-1)
	found := false
	for _, p := range premises {
		if trail.has(p) {
			continue
		}
		v := st.score(p, trail)
		if !found || v > best {
			best = v
		}
		found = true
	}
	if found {
		u.add(best)
	}
}
