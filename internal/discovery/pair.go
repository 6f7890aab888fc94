package discovery

import (
	"sort"

	"gocausal/domain/graph"
)

// Pair is an ordered node pair used as a map key. (X,Y) and (Y,X) are
// distinct keys; symmetric facts are stored under both orderings.
type Pair struct {
	X, Y *graph.Node
}

func (p Pair) reversed() Pair {
	return Pair{X: p.Y, Y: p.X}
}

// triple records a three-node motif, ordered.
type triple struct {
	A, B, C *graph.Node
}

// quad records a four-node kite motif, ordered.
type quad struct {
	A, B, C, D *graph.Node
}

// nodeSet is an identity set of nodes.
type nodeSet map[*graph.Node]struct{}

func (s nodeSet) add(nodes ...*graph.Node) {
	for _, n := range nodes {
		s[n] = struct{}{}
	}
}

func (s nodeSet) has(n *graph.Node) bool {
	_, ok := s[n]
	return ok
}

// floatSet collects distinct float64 values. Duplicate values collapse, so
// sums range over distinct evidence only.
type floatSet map[float64]struct{}

func (s floatSet) add(v float64) {
	s[v] = struct{}{}
}

// max returns the largest member, or ok=false when empty.
func (s floatSet) max() (float64, bool) {
	found := false
	best := 0.0
	for v := range s {
		if !found || v > best {
			best = v
			found = true
		}
	}
	return best, found
}

// sum adds the members in ascending order so the result does not depend on
// map iteration order.
func (s floatSet) sum() float64 {
	vals := make([]float64, 0, len(s))
	for v := range s {
		vals = append(vals, v)
	}
	sort.Float64s(vals)
	total := 0.0
	for _, v := range vals {
		total += v
	}
	return total
}

// pairSet is a set of ordered pairs.
type pairSet map[Pair]struct{}

func (s pairSet) add(p Pair) {
	s[p] = struct{}{}
}

func (s pairSet) has(p Pair) bool {
	_, ok := s[p]
	return ok
}

// addBoth marks both orderings of a pair.
func (s pairSet) addBoth(x, y *graph.Node) {
	s.add(Pair{x, y})
	s.add(Pair{y, x})
}

// evidenceMap maps an oriented edge to the set of pairs that justified it.
type evidenceMap map[Pair]pairSet

func (m evidenceMap) add(key, value Pair) {
	set, ok := m[key]
	if !ok {
		set = make(pairSet)
		m[key] = set
	}
	set.add(value)
}

// mergeEvidence unions evidence maps into a fresh one.
func mergeEvidence(maps ...evidenceMap) evidenceMap {
	out := make(evidenceMap)
	for _, m := range maps {
		for key, set := range m {
			for value := range set {
				out.add(key, value)
			}
		}
	}
	return out
}

// sortPairs orders pairs by node index, first component then second.
func sortPairs(pairs []Pair, g *graph.Graph) {
	sort.Slice(pairs, func(i, j int) bool {
		if a, b := g.Index(pairs[i].X), g.Index(pairs[j].X); a != b {
			return a < b
		}
		return g.Index(pairs[i].Y) < g.Index(pairs[j].Y)
	})
}

// sortedPairs returns the keys of a pair set in canonical order.
func sortedPairs(s pairSet, g *graph.Graph) []Pair {
	out := make([]Pair, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	sortPairs(out, g)
	return out
}
