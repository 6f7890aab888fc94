// Package choice enumerates index subsets in a fixed, repeatable order.
package choice

// Generator yields the k-element subsets of {0, ..., n-1} in lexicographic
// order. For k = 0 it yields the empty subset exactly once.
type Generator struct {
	n, k    int
	idx     []int
	started bool
	done    bool
}

// NewGenerator creates a generator over k-of-n index choices. Out-of-range k
// (negative or larger than n) yields nothing.
func NewGenerator(n, k int) *Generator {
	g := &Generator{n: n, k: k}
	if k < 0 || k > n {
		g.done = true
	}
	return g
}

// Next returns the next subset as a fresh slice, or nil when exhausted.
func (g *Generator) Next() []int {
	if g.done {
		return nil
	}
	if !g.started {
		g.started = true
		g.idx = make([]int, g.k)
		for i := range g.idx {
			g.idx[i] = i
		}
		return g.snapshot()
	}
	// Advance the rightmost index that still has room, reset the tail.
	i := g.k - 1
	for i >= 0 && g.idx[i] == g.n-g.k+i {
		i--
	}
	if i < 0 {
		g.done = true
		return nil
	}
	g.idx[i]++
	for j := i + 1; j < g.k; j++ {
		g.idx[j] = g.idx[j-1] + 1
	}
	return g.snapshot()
}

func (g *Generator) snapshot() []int {
	out := make([]int, g.k)
	copy(out, g.idx)
	return out
}

// DepthGenerator yields every subset of {0, ..., n-1} of size 0 through
// maxSize, smaller sizes first, lexicographic within a size.
type DepthGenerator struct {
	n, maxSize int
	size       int
	inner      *Generator
}

// NewDepthGenerator creates a generator over subsets up to maxSize elements.
// maxSize is clamped to n; negative maxSize yields nothing.
func NewDepthGenerator(n, maxSize int) *DepthGenerator {
	if maxSize > n {
		maxSize = n
	}
	return &DepthGenerator{n: n, maxSize: maxSize, size: 0, inner: NewGenerator(n, 0)}
}

// Next returns the next subset, or nil when exhausted.
func (d *DepthGenerator) Next() []int {
	if d.maxSize < 0 {
		return nil
	}
	for {
		if s := d.inner.Next(); s != nil {
			return s
		}
		d.size++
		if d.size > d.maxSize {
			return nil
		}
		d.inner = NewGenerator(d.n, d.size)
	}
}
