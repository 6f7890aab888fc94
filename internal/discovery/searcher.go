package discovery

import (
	"math"
	"sync"
	"time"

	"gocausal/domain/core"
	"gocausal/domain/graph"
	"gocausal/internal/choice"
	"gocausal/ports"
)

// Searcher runs the five-phase constraint-based search against an
// independence oracle. Oracle calls are serialized under an internal lock
// because implementations may keep state between the decision and the
// reported p-value.
type Searcher struct {
	oracle ports.IndependenceOracle
	opts   Options
	mu     sync.Mutex
}

// New validates the options and returns a ready Searcher.
func New(oracle ports.IndependenceOracle, opts Options) (*Searcher, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Searcher{oracle: oracle, opts: opts}, nil
}

// Search executes the full pipeline: skeleton recovery, collider orientation
// with conflict retraction, orientation propagation, evidence aggregation,
// and FDR pruning. The returned graph shares node identity with
// oracle.Variables(). Every run over the same oracle answers produces the
// same result; all internal iteration follows the node order the oracle
// reports.
func (s *Searcher) Search() (*Result, error) {
	start := time.Now()
	st := newSearch(s)

	g1, err := st.buildSkeleton()
	if err != nil {
		return nil, err
	}
	g2, err := st.orientColliders(g1)
	if err != nil {
		return nil, err
	}
	if s.opts.ColliderOnly {
		return st.finish(g2, math.NaN(), math.NaN(), nil, nil, start), nil
	}
	if err := st.propagate(g1, g2); err != nil {
		return nil, err
	}
	g3, err := st.aggregate(g2)
	if err != nil {
		return nil, err
	}
	gStar, fdr, alphaStar, removed, table, err := st.prune(g3)
	if err != nil {
		return nil, err
	}
	return st.finish(gStar, fdr, alphaStar, removed, table, start), nil
}

// search carries the working state of one Search call.
type search struct {
	owner *Searcher
	alpha float64
	q     float64
	nodes []*graph.Node

	// sepsets accumulates, for each non-adjacent ordered pair, the union of
	// conditioning sets that separated it.
	sepsets map[Pair]nodeSet

	// v collects the p-values of separating tests per ordered pair; p1 keeps
	// the maximum per pair that survives the skeleton phase.
	v  map[Pair]floatSet
	p1 map[Pair]float64

	// t accumulates sepset-test p-values across all collider checks; tp
	// collects per-edge contributions and p2 their sums.
	t  floatSet
	tp map[Pair]floatSet
	p2 map[Pair]float64

	// p3 memoizes the aggregate confidence per oriented or undirected pair.
	p3 map[Pair]float64

	amb pairSet
	dup pairSet

	// Motifs of the skeleton, in enumeration order.
	ut []triple

	// Orientation records, kept in insertion order for repeatable recursion,
	// with membership sets alongside.
	r0     []triple
	r0seen map[triple]struct{}
	r1     []triple
	r1seen map[triple]struct{}
	r2     []triple
	r2seen map[triple]struct{}
	r3     []quad
	r3seen map[quad]struct{}

	e0, e1, e2, e3 evidenceMap
}

func newSearch(s *Searcher) *search {
	return &search{
		owner:   s,
		alpha:   s.oracle.Alpha(),
		q:       s.opts.Q,
		nodes:   s.oracle.Variables(),
		sepsets: make(map[Pair]nodeSet),
		v:       make(map[Pair]floatSet),
		p1:      make(map[Pair]float64),
		t:       make(floatSet),
		tp:      make(map[Pair]floatSet),
		p2:      make(map[Pair]float64),
		p3:      make(map[Pair]float64),
		amb:     make(pairSet),
		dup:     make(pairSet),
		r0seen:  make(map[triple]struct{}),
		r1seen:  make(map[triple]struct{}),
		r2seen:  make(map[triple]struct{}),
		r3seen:  make(map[quad]struct{}),
		e0:      make(evidenceMap),
		e1:      make(evidenceMap),
		e2:      make(evidenceMap),
		e3:      make(evidenceMap),
	}
}

func (st *search) addR0(t triple) {
	if _, ok := st.r0seen[t]; ok {
		return
	}
	st.r0seen[t] = struct{}{}
	st.r0 = append(st.r0, t)
}

func (st *search) hasR0(t triple) bool {
	_, ok := st.r0seen[t]
	return ok
}

func (st *search) addR1(t triple) {
	if _, ok := st.r1seen[t]; ok {
		return
	}
	st.r1seen[t] = struct{}{}
	st.r1 = append(st.r1, t)
}

func (st *search) hasR1(t triple) bool {
	_, ok := st.r1seen[t]
	return ok
}

func (st *search) addR2(t triple) {
	if _, ok := st.r2seen[t]; ok {
		return
	}
	st.r2seen[t] = struct{}{}
	st.r2 = append(st.r2, t)
}

func (st *search) hasR2(t triple) bool {
	_, ok := st.r2seen[t]
	return ok
}

func (st *search) addR3(q quad) {
	if _, ok := st.r3seen[q]; ok {
		return
	}
	st.r3seen[q] = struct{}{}
	st.r3 = append(st.r3, q)
}

func (st *search) hasR3(q quad) bool {
	_, ok := st.r3seen[q]
	return ok
}

// arrow points the x-y edge into y. A missing edge is an internal fault:
// every caller derives the pair from a motif of the current skeleton.
func arrow(g *graph.Graph, x, y *graph.Node) error {
	if err := g.SetEndpoint(x, y, graph.Arrow); err != nil {
		return core.NewInvariantError("orientation", err.Error())
	}
	return nil
}

// test asks the oracle for an independence decision under the searcher lock.
func (st *search) test(x, y *graph.Node, cond []*graph.Node) (bool, float64) {
	st.owner.mu.Lock()
	defer st.owner.mu.Unlock()
	return st.owner.oracle.Test(x, y, cond)
}

// pvalue asks only for the p-value of a test.
func (st *search) pvalue(x, y *graph.Node, cond []*graph.Node) float64 {
	_, p := st.test(x, y, cond)
	return p
}

// candidateSets enumerates conditioning sets drawn from the neighborhoods of
// a and b in g: every subset of adj(a)\{b} and of adj(b)\{a} of size at most
// maxSize. When mustInclude is non-nil only sets containing it are kept.
// Sets arising from both sides are kept even when they coincide.
func (st *search) candidateSets(g *graph.Graph, a, b *graph.Node, mustInclude *graph.Node, maxSize int) [][]*graph.Node {
	var out [][]*graph.Node
	for _, side := range [2][2]*graph.Node{{a, b}, {b, a}} {
		adj := without(g.AdjacentNodes(side[0]), side[1])
		limit := maxSize
		if limit > len(adj) || limit < 0 {
			limit = len(adj)
		}
		gen := choice.NewDepthGenerator(len(adj), limit)
		for idx := gen.Next(); idx != nil; idx = gen.Next() {
			cond := pick(adj, idx)
			if mustInclude != nil && !containsNode(cond, mustInclude) {
				continue
			}
			out = append(out, cond)
		}
	}
	return out
}

// recordSepset stores a separating set under both orderings of the pair,
// unioning with anything recorded earlier.
func (st *search) recordSepset(x, y *graph.Node, cond []*graph.Node) {
	st.recordSepsetOrdered(Pair{x, y}, cond)
	st.recordSepsetOrdered(Pair{y, x}, cond)
}

func (st *search) recordSepsetOrdered(key Pair, cond []*graph.Node) {
	set, ok := st.sepsets[key]
	if !ok {
		set = make(nodeSet)
		st.sepsets[key] = set
	}
	set.add(cond...)
}

// addValue appends a test p-value to the per-pair evidence set.
func addValue(m map[Pair]floatSet, key Pair, v float64) {
	set, ok := m[key]
	if !ok {
		set = make(floatSet)
		m[key] = set
	}
	set.add(v)
}

// finish assembles the Result from the final graph and the search state.
func (st *search) finish(g *graph.Graph, fdr, alphaStar float64, removed []graph.Edge, table []EdgeScore, start time.Time) *Result {
	res := &Result{
		Graph:     g,
		FDR:       fdr,
		AlphaStar: alphaStar,
		Elapsed:   time.Since(start),
		Removed:   removed,
		Ambiguous: st.ambiguousEdges(g),
		PValues:   table,
		Sepsets:   make(map[Pair][]*graph.Node, len(st.sepsets)),
	}
	for pair, set := range st.sepsets {
		cond := make([]*graph.Node, 0, len(set))
		for n := range set {
			cond = append(cond, n)
		}
		sortNodes(cond, g)
		res.Sepsets[pair] = cond
	}
	return res
}

// ambiguousEdges lists edges of g whose orientation was retracted, one entry
// per edge, in canonical order.
func (st *search) ambiguousEdges(g *graph.Graph) []graph.Edge {
	var out []graph.Edge
	for _, pair := range sortedPairs(st.amb, g) {
		if g.Index(pair.X) >= g.Index(pair.Y) {
			continue
		}
		if !g.IsAdjacent(pair.X, pair.Y) {
			continue
		}
		if e, ok := edgeBetween(g, pair.X, pair.Y); ok {
			out = append(out, e)
		}
	}
	return out
}

func edgeBetween(g *graph.Graph, x, y *graph.Node) (graph.Edge, bool) {
	atY, ok := g.Endpoint(x, y)
	if !ok {
		return graph.Edge{}, false
	}
	atX, _ := g.Endpoint(y, x)
	if g.Index(x) > g.Index(y) {
		x, y = y, x
		atX, atY = atY, atX
	}
	return graph.Edge{X: x, Y: y, AtX: atX, AtY: atY}, true
}

func sortNodes(nodes []*graph.Node, g *graph.Graph) {
	for i := 1; i < len(nodes); i++ {
		for j := i; j > 0 && g.Index(nodes[j]) < g.Index(nodes[j-1]); j-- {
			nodes[j], nodes[j-1] = nodes[j-1], nodes[j]
		}
	}
}

func without(nodes []*graph.Node, drop *graph.Node) []*graph.Node {
	out := make([]*graph.Node, 0, len(nodes))
	for _, n := range nodes {
		if n != drop {
			out = append(out, n)
		}
	}
	return out
}

func pick(nodes []*graph.Node, idx []int) []*graph.Node {
	out := make([]*graph.Node, len(idx))
	for i, j := range idx {
		out[i] = nodes[j]
	}
	return out
}

func containsNode(nodes []*graph.Node, target *graph.Node) bool {
	for _, n := range nodes {
		if n == target {
			return true
		}
	}
	return false
}
