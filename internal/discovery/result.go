package discovery

import (
	"time"

	"gocausal/domain/graph"
)

// EdgeScore is one row of the ranked p-value table: the aggregate confidence
// assigned to a surviving edge, listed in ascending rank order.
type EdgeScore struct {
	X *graph.Node
	Y *graph.Node
	P float64
}

// Result holds everything a search produces. FDR and AlphaStar are NaN when
// pruning did not run (collider-only mode, or no scorable edges).
type Result struct {
	// Graph is the final partially oriented graph.
	Graph *graph.Graph

	// FDR is the estimated false discovery rate of the retained edge set.
	FDR float64

	// AlphaStar is the data-driven significance threshold selected from the
	// adjusted p-value sequence.
	AlphaStar float64

	// Elapsed is the wall-clock duration of the search.
	Elapsed time.Duration

	// Removed lists the edges pruned by the FDR step, in canonical order.
	Removed []graph.Edge

	// Ambiguous lists edges still present in the final graph whose
	// orientation was retracted during conflict resolution.
	Ambiguous []graph.Edge

	// PValues is the ranked table of aggregate edge p-values, ascending.
	PValues []EdgeScore

	// Sepsets maps each non-adjacent pair to the conditioning set that
	// separated it, under both orderings of the pair.
	Sepsets map[Pair][]*graph.Node
}
