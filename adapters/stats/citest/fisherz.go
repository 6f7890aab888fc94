package citest

import (
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"gocausal/domain/dataset"
	"gocausal/domain/graph"
)

// FisherZ tests conditional independence of continuous columns through the
// partial correlation of x and y given the conditioning set, Fisher
// z-transformed and compared against the unit normal. Queries are cached, so
// one instance can serve repeated queries from several searches.
type FisherZ struct {
	m     *dataset.Matrix
	alpha float64
	nodes []*graph.Node
	index map[*graph.Node]int

	mu    sync.Mutex
	cache map[string]float64
}

// NewFisherZ builds the oracle over the matrix columns.
func NewFisherZ(m *dataset.Matrix, alpha float64) (*FisherZ, error) {
	if err := validateAlpha(alpha); err != nil {
		return nil, err
	}
	nodes, index := variableNodes(m.Names())
	return &FisherZ{
		m:     m,
		alpha: alpha,
		nodes: nodes,
		index: index,
		cache: make(map[string]float64),
	}, nil
}

// Alpha returns the significance level.
func (f *FisherZ) Alpha() float64 { return f.alpha }

// Variables returns the column variables. Node identity is stable across
// calls.
func (f *FisherZ) Variables() []*graph.Node {
	out := make([]*graph.Node, len(f.nodes))
	copy(out, f.nodes)
	return out
}

// Test reports whether x and y are independent given cond. The p-value is
// NaN when the test cannot decide: too few samples for the conditioning set
// size, or a singular covariance submatrix.
func (f *FisherZ) Test(x, y *graph.Node, cond []*graph.Node) (bool, float64) {
	xi, ok := f.index[x]
	if !ok {
		return false, math.NaN()
	}
	yi, ok := f.index[y]
	if !ok {
		return false, math.NaN()
	}
	ci := make([]int, len(cond))
	for k, n := range cond {
		i, ok := f.index[n]
		if !ok {
			return false, math.NaN()
		}
		ci[k] = i
	}
	sort.Ints(ci)

	key := queryKey(xi, yi, ci)
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.cache[key]; ok {
		return p > f.alpha, p
	}

	p := f.pValue(xi, yi, ci)
	f.cache[key] = p
	return p > f.alpha, p
}

func (f *FisherZ) pValue(xi, yi int, cond []int) float64 {
	df := f.m.NumSamples() - len(cond) - 3
	if df <= 0 {
		return math.NaN()
	}

	r := f.partialCorrelation(xi, yi, cond)
	if math.IsNaN(r) {
		return math.NaN()
	}
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}

	z := 0.5 * math.Log((1+r)/(1-r))
	stat := math.Sqrt(float64(df)) * math.Abs(z)
	return 2 * (1 - distuv.UnitNormal.CDF(stat))
}

// partialCorrelation inverts the covariance submatrix over {x, y} and the
// conditioning columns and reads the correlation off the precision matrix.
// A singular or near-singular submatrix yields NaN.
func (f *FisherZ) partialCorrelation(xi, yi int, cond []int) float64 {
	cols := make([][]float64, 0, 2+len(cond))
	cols = append(cols, f.m.Column(xi), f.m.Column(yi))
	for _, c := range cond {
		cols = append(cols, f.m.Column(c))
	}

	k := len(cols)
	cov := mat.NewSymDense(k, nil)
	for a := 0; a < k; a++ {
		for b := a; b < k; b++ {
			cov.SetSym(a, b, stat.Covariance(cols[a], cols[b], nil))
		}
	}

	var prec mat.Dense
	if err := prec.Inverse(cov); err != nil {
		return math.NaN()
	}

	denom := prec.At(0, 0) * prec.At(1, 1)
	if denom <= 0 {
		return math.NaN()
	}
	return -prec.At(0, 1) / math.Sqrt(denom)
}

// queryKey canonicalizes a query: the pair is unordered, the conditioning
// indices arrive sorted.
func queryKey(xi, yi int, cond []int) string {
	if xi > yi {
		xi, yi = yi, xi
	}
	var b strings.Builder
	b.WriteString(strconv.Itoa(xi))
	b.WriteByte(':')
	b.WriteString(strconv.Itoa(yi))
	for _, c := range cond {
		b.WriteByte('|')
		b.WriteString(strconv.Itoa(c))
	}
	return b.String()
}
