package citest

import (
	"gocausal/domain/graph"
)

// DSep answers queries exactly from a known directed graph: independence is
// d-separation, with p-values pinned to 1 and 0. It backs oracle-mode runs
// and end-to-end tests where the ground truth is available.
type DSep struct {
	dag   *graph.Graph
	alpha float64
}

// NewDSep builds the exact oracle over the graph's nodes.
func NewDSep(dag *graph.Graph, alpha float64) (*DSep, error) {
	if err := validateAlpha(alpha); err != nil {
		return nil, err
	}
	return &DSep{dag: dag, alpha: alpha}, nil
}

// Alpha returns the significance level.
func (d *DSep) Alpha() float64 { return d.alpha }

// Variables returns the graph's nodes.
func (d *DSep) Variables() []*graph.Node { return d.dag.Nodes() }

// Test reports d-separation of x and y by cond in the underlying graph.
func (d *DSep) Test(x, y *graph.Node, cond []*graph.Node) (bool, float64) {
	if d.dag.DSeparated(x, y, cond) {
		return true, 1
	}
	return false, 0
}
