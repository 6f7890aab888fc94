package ports

import (
	"gocausal/domain/graph"
)

// IndependenceOracle answers conditional-independence queries over a fixed
// variable set. Test reports whether x and y are independent given cond at
// the oracle's alpha, along with the p-value behind the call. A NaN p-value
// means the oracle has no information for the query (singular covariance,
// empty stratum); callers skip such results.
//
// Implementations must be safe for sequential use by one search and must
// guard any internal caches with their own locking, so a single oracle can
// back concurrent searches.
type IndependenceOracle interface {
	Test(x, y *graph.Node, cond []*graph.Node) (independent bool, pValue float64)
	Alpha() float64
	Variables() []*graph.Node
}
