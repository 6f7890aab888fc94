package citest

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"gocausal/domain/core"
	"gocausal/domain/dataset"
	"gocausal/domain/graph"
)

// maxLevels bounds the distinct values a column may take before it stops
// being credible as a discrete variable.
const maxLevels = 64

// ChiSquare tests conditional independence of discrete columns: a Pearson
// chi-square statistic summed over the strata of the conditioning set, with
// degrees of freedom adjusted for empty rows and columns per stratum. All
// state is immutable after construction, so instances are safe to share.
type ChiSquare struct {
	alpha  float64
	nodes  []*graph.Node
	index  map[*graph.Node]int
	codes  [][]int
	levels []int
	rows   int
}

// NewChiSquare builds the oracle, encoding every column into level codes.
// Columns with non-finite cells or more than maxLevels distinct values are
// rejected.
func NewChiSquare(m *dataset.Matrix, alpha float64) (*ChiSquare, error) {
	if err := validateAlpha(alpha); err != nil {
		return nil, err
	}

	names := m.Names()
	codes := make([][]int, len(names))
	levels := make([]int, len(names))
	for i, name := range names {
		code, n, err := encodeColumn(name, m.Column(i))
		if err != nil {
			return nil, err
		}
		codes[i] = code
		levels[i] = n
	}

	nodes, index := variableNodes(names)
	return &ChiSquare{
		alpha:  alpha,
		nodes:  nodes,
		index:  index,
		codes:  codes,
		levels: levels,
		rows:   m.NumSamples(),
	}, nil
}

func encodeColumn(name string, col []float64) ([]int, int, error) {
	distinct := make(map[float64]int)
	for _, v := range col {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, 0, core.NewValidationError("chisquare",
				fmt.Sprintf("column %q has non-finite values", name))
		}
		distinct[v] = 0
	}
	if len(distinct) > maxLevels {
		return nil, 0, core.NewValidationError("chisquare",
			fmt.Sprintf("column %q has %d distinct values; not discrete", name, len(distinct)))
	}

	values := make([]float64, 0, len(distinct))
	for v := range distinct {
		values = append(values, v)
	}
	sort.Float64s(values)
	for i, v := range values {
		distinct[v] = i
	}

	code := make([]int, len(col))
	for i, v := range col {
		code[i] = distinct[v]
	}
	return code, len(values), nil
}

// Alpha returns the significance level.
func (c *ChiSquare) Alpha() float64 { return c.alpha }

// Variables returns the column variables. Node identity is stable across
// calls.
func (c *ChiSquare) Variables() []*graph.Node {
	out := make([]*graph.Node, len(c.nodes))
	copy(out, c.nodes)
	return out
}

// Test reports whether x and y are independent given cond. The p-value is
// NaN when no stratum leaves any degrees of freedom.
func (c *ChiSquare) Test(x, y *graph.Node, cond []*graph.Node) (bool, float64) {
	xi, ok := c.index[x]
	if !ok {
		return false, math.NaN()
	}
	yi, ok := c.index[y]
	if !ok {
		return false, math.NaN()
	}
	ci := make([]int, len(cond))
	for k, n := range cond {
		i, ok := c.index[n]
		if !ok {
			return false, math.NaN()
		}
		ci[k] = i
	}

	strata := c.stratify(ci)
	keys := make([]string, 0, len(strata))
	for key := range strata {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	x2 := 0.0
	df := 0
	for _, key := range keys {
		sx2, sdf := c.stratumStatistic(xi, yi, strata[key])
		x2 += sx2
		df += sdf
	}
	if df <= 0 {
		return false, math.NaN()
	}

	dist := distuv.ChiSquared{K: float64(df)}
	p := 1 - dist.CDF(x2)
	return p > c.alpha, p
}

// stratify groups row indices by the code tuple of the conditioning columns.
func (c *ChiSquare) stratify(cond []int) map[string][]int {
	strata := make(map[string][]int)
	var b strings.Builder
	for row := 0; row < c.rows; row++ {
		b.Reset()
		for _, col := range cond {
			b.WriteString(strconv.Itoa(c.codes[col][row]))
			b.WriteByte('|')
		}
		key := b.String()
		strata[key] = append(strata[key], row)
	}
	return strata
}

// stratumStatistic computes the Pearson statistic and adjusted degrees of
// freedom for one stratum's contingency table. Levels absent from the
// stratum drop out of the degrees of freedom.
func (c *ChiSquare) stratumStatistic(xi, yi int, rows []int) (float64, int) {
	nx, ny := c.levels[xi], c.levels[yi]
	counts := make([][]int, nx)
	for i := range counts {
		counts[i] = make([]int, ny)
	}
	for _, row := range rows {
		counts[c.codes[xi][row]][c.codes[yi][row]]++
	}

	rowTotals := make([]int, nx)
	colTotals := make([]int, ny)
	total := 0
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			rowTotals[i] += counts[i][j]
			colTotals[j] += counts[i][j]
			total += counts[i][j]
		}
	}
	if total == 0 {
		return 0, 0
	}

	liveRows, liveCols := 0, 0
	for _, t := range rowTotals {
		if t > 0 {
			liveRows++
		}
	}
	for _, t := range colTotals {
		if t > 0 {
			liveCols++
		}
	}
	df := (liveRows - 1) * (liveCols - 1)
	if df <= 0 {
		return 0, 0
	}

	x2 := 0.0
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			expected := float64(rowTotals[i]) * float64(colTotals[j]) / float64(total)
			if expected > 0 {
				diff := float64(counts[i][j]) - expected
				x2 += diff * diff / expected
			}
		}
	}
	return x2, df
}
