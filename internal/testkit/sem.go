package testkit

import (
	"math/rand"

	"gocausal/domain/dataset"
	"gocausal/domain/graph"
)

// LinearGaussian samples a linear structural equation model over a DAG:
// every variable is the coefficient-weighted sum of its parents plus
// Gaussian noise. The same seed always produces the same matrix.
type LinearGaussian struct {
	Coef  float64 // weight of every edge
	Noise float64 // noise standard deviation
	Seed  int64
}

// Sample draws n rows in topological order, one column per node, columns in
// the graph's node order.
func (lg LinearGaussian) Sample(dag *graph.Graph, n int) (*dataset.Matrix, error) {
	order, err := topological(dag)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(lg.Seed))
	byNode := make(map[*graph.Node][]float64, len(order))
	for _, node := range order {
		parents := dag.Parents(node)
		col := make([]float64, n)
		for i := range col {
			v := lg.Noise * rng.NormFloat64()
			for _, p := range parents {
				v += lg.Coef * byNode[p][i]
			}
			col[i] = v
		}
		byNode[node] = col
	}

	nodes := dag.Nodes()
	names := make([]string, len(nodes))
	cols := make([][]float64, len(nodes))
	for i, node := range nodes {
		names[i] = node.Name()
		cols[i] = byNode[node]
	}
	return dataset.NewMatrix(names, cols)
}
