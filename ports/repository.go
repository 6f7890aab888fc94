package ports

import (
	"context"

	"gocausal/domain/core"
	"gocausal/domain/run"
)

// RunSummary is the listing row for stored runs.
type RunSummary struct {
	ID          core.RunID     `json:"id"`
	DatasetName string         `json:"dataset_name"`
	TestKind    string         `json:"test_kind"`
	Alpha       float64        `json:"alpha"`
	NumEdges    int            `json:"num_edges"`
	CreatedAt   core.Timestamp `json:"created_at"`
}

// RunRepository persists completed discovery runs.
type RunRepository interface {
	Save(ctx context.Context, rec *run.Record) error
	Get(ctx context.Context, id core.RunID) (*run.Record, error)
	List(ctx context.Context, limit int) ([]RunSummary, error)
}
