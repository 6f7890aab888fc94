// Package testkit builds seeded synthetic datasets with known causal
// structure, so tests can check what a search recovers against the graph
// that generated the data.
package testkit

import (
	"gocausal/domain/core"
	"gocausal/domain/graph"
)

// ChainDAG returns the DAG n1 -> n2 -> ... -> nk over fresh nodes.
func ChainDAG(names ...string) *graph.Graph {
	nodes := make([]*graph.Node, len(names))
	for i, name := range names {
		nodes[i] = graph.NewNode(name)
	}
	g := graph.New(nodes)
	for i := 0; i+1 < len(nodes); i++ {
		if err := g.AddDirected(nodes[i], nodes[i+1]); err != nil {
			panic(err)
		}
	}
	return g
}

// ColliderDAG returns the DAG x -> z <- y.
func ColliderDAG(x, y, z string) *graph.Graph {
	nodes := []*graph.Node{graph.NewNode(x), graph.NewNode(y), graph.NewNode(z)}
	g := graph.New(nodes)
	if err := g.AddDirected(nodes[0], nodes[2]); err != nil {
		panic(err)
	}
	if err := g.AddDirected(nodes[1], nodes[2]); err != nil {
		panic(err)
	}
	return g
}

// DiamondDAG returns the DAG a -> b -> d, a -> c -> d.
func DiamondDAG(a, b, c, d string) *graph.Graph {
	nodes := []*graph.Node{
		graph.NewNode(a), graph.NewNode(b), graph.NewNode(c), graph.NewNode(d),
	}
	g := graph.New(nodes)
	for _, e := range [][2]int{{0, 1}, {0, 2}, {1, 3}, {2, 3}} {
		if err := g.AddDirected(nodes[e[0]], nodes[e[1]]); err != nil {
			panic(err)
		}
	}
	return g
}

// topological orders the graph's nodes so every parent precedes its
// children, breaking ties by node index.
func topological(dag *graph.Graph) ([]*graph.Node, error) {
	nodes := dag.Nodes()
	indegree := make(map[*graph.Node]int, len(nodes))
	for _, n := range nodes {
		indegree[n] = len(dag.Parents(n))
	}

	order := make([]*graph.Node, 0, len(nodes))
	for len(order) < len(nodes) {
		progressed := false
		for _, n := range nodes {
			if indegree[n] != 0 {
				continue
			}
			order = append(order, n)
			indegree[n] = -1
			for _, child := range dag.Children(n) {
				indegree[child]--
			}
			progressed = true
		}
		if !progressed {
			return nil, core.NewValidationError("testkit", "graph has a cycle")
		}
	}
	return order, nil
}
