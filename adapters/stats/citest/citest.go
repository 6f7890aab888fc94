// Package citest provides conditional-independence oracles over datasets:
// Fisher-Z for continuous columns, a stratified chi-square for discrete
// columns, and an exact d-separation oracle over a known graph. All of them
// satisfy ports.IndependenceOracle.
package citest

import (
	"gocausal/domain/core"
	"gocausal/domain/graph"
)

// variableNodes builds one graph node per column name, plus the reverse
// lookup used to resolve query nodes back to column indices.
func variableNodes(names []string) ([]*graph.Node, map[*graph.Node]int) {
	nodes := make([]*graph.Node, len(names))
	index := make(map[*graph.Node]int, len(names))
	for i, name := range names {
		nodes[i] = graph.NewNode(name)
		index[nodes[i]] = i
	}
	return nodes, index
}

func validateAlpha(alpha float64) error {
	if alpha <= 0 || alpha >= 1 {
		return core.NewOptionError("alpha", "must be in (0, 1)")
	}
	return nil
}
