package discovery

import (
	"fmt"

	"gocausal/domain/core"
)

// Options tune the search beyond what the oracle carries. Alpha lives on the
// oracle; everything here shapes the pipeline itself.
type Options struct {
	// Q caps the adjusted p-value used when selecting the data-driven
	// alpha-star threshold. Must lie in [0, 1].
	Q float64

	// ColliderOnly stops the search after collider orientation and conflict
	// resolution, returning the partially oriented graph without propagation,
	// aggregation, or FDR pruning.
	ColliderOnly bool
}

// DefaultOptions returns the standard configuration: Q = 1 (no cap on the
// adjusted p-value) and the full five-phase pipeline.
func DefaultOptions() Options {
	return Options{Q: 1.0}
}

func (o Options) validate() error {
	if !(o.Q >= 0 && o.Q <= 1) {
		return core.NewOptionError("q", fmt.Sprintf("must be in [0, 1], got %g", o.Q))
	}
	return nil
}
