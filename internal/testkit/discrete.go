package testkit

import (
	"math/rand"

	"gocausal/domain/dataset"
	"gocausal/domain/graph"
)

// DiscreteNoisy samples binary variables over a DAG: roots are fair coins,
// every other variable is the parity of its parents, flipped with
// probability Flip. The same seed always produces the same matrix.
type DiscreteNoisy struct {
	Flip float64
	Seed int64
}

// Sample draws n rows, one 0/1 column per node, columns in the graph's node
// order.
func (dn DiscreteNoisy) Sample(dag *graph.Graph, n int) (*dataset.Matrix, error) {
	order, err := topological(dag)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(dn.Seed))
	byNode := make(map[*graph.Node][]float64, len(order))
	for _, node := range order {
		parents := dag.Parents(node)
		col := make([]float64, n)
		for i := range col {
			var bit int
			if len(parents) == 0 {
				bit = rng.Intn(2)
			} else {
				for _, p := range parents {
					bit ^= int(byNode[p][i])
				}
				if rng.Float64() < dn.Flip {
					bit ^= 1
				}
			}
			col[i] = float64(bit)
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
