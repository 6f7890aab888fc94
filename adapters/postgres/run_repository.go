// Package postgres persists discovery runs. Structured payloads (edges,
// p-values, fingerprint) are stored as JSONB next to the scalar columns the
// listing queries need.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"gocausal/domain/core"
	"gocausal/domain/run"
	"gocausal/ports"
)

// Connect opens and pings a PostgreSQL connection.
func Connect(url string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

// RunRepositoryImpl implements ports.RunRepository for PostgreSQL.
type RunRepositoryImpl struct {
	db *sqlx.DB
}

// NewRunRepository creates a PostgreSQL run repository.
func NewRunRepository(db *sqlx.DB) ports.RunRepository {
	return &RunRepositoryImpl{db: db}
}

// Save inserts the record, replacing any previous record with the same id.
func (r *RunRepositoryImpl) Save(ctx context.Context, rec *run.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	edges, err := json.Marshal(rec.Edges)
	if err != nil {
		return fmt.Errorf("marshal edges: %w", err)
	}
	removed, err := json.Marshal(rec.Removed)
	if err != nil {
		return fmt.Errorf("marshal removed: %w", err)
	}
	ambiguous, err := json.Marshal(rec.Ambiguous)
	if err != nil {
		return fmt.Errorf("marshal ambiguous: %w", err)
	}
	pvalues, err := json.Marshal(rec.PValues)
	if err != nil {
		return fmt.Errorf("marshal p_values: %w", err)
	}
	fingerprint, err := json.Marshal(rec.Fingerprint)
	if err != nil {
		return fmt.Errorf("marshal fingerprint: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO runs (
			id, dataset_name, dataset_hash, test_kind, alpha, q, collider_only,
			fdr, alpha_star, elapsed_ms, num_nodes, num_edges,
			edges, removed, ambiguous, p_values, report, fingerprint, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (id) DO UPDATE SET
			dataset_name = EXCLUDED.dataset_name,
			dataset_hash = EXCLUDED.dataset_hash,
			test_kind = EXCLUDED.test_kind,
			alpha = EXCLUDED.alpha,
			q = EXCLUDED.q,
			collider_only = EXCLUDED.collider_only,
			fdr = EXCLUDED.fdr,
			alpha_star = EXCLUDED.alpha_star,
			elapsed_ms = EXCLUDED.elapsed_ms,
			num_nodes = EXCLUDED.num_nodes,
			num_edges = EXCLUDED.num_edges,
			edges = EXCLUDED.edges,
			removed = EXCLUDED.removed,
			ambiguous = EXCLUDED.ambiguous,
			p_values = EXCLUDED.p_values,
			report = EXCLUDED.report,
			fingerprint = EXCLUDED.fingerprint
	`,
		rec.ID.String(), rec.DatasetName, rec.DatasetHash, rec.TestKind,
		rec.Alpha, rec.Q, rec.ColliderOnly,
		nullFloat(rec.FDR), nullFloat(rec.AlphaStar),
		rec.ElapsedMS, rec.NumNodes, rec.NumEdges,
		edges, removed, ambiguous, pvalues, rec.Report, fingerprint,
		rec.CreatedAt.Time(),
	)
	return err
}

// Get loads one run by id.
func (r *RunRepositoryImpl) Get(ctx context.Context, id core.RunID) (*run.Record, error) {
	var row runRow
	err := r.db.GetContext(ctx, &row, `
		SELECT id, dataset_name, dataset_hash, test_kind, alpha, q, collider_only,
			fdr, alpha_star, elapsed_ms, num_nodes, num_edges,
			edges, removed, ambiguous, p_values, report, fingerprint, created_at
		FROM runs
		WHERE id = $1
	`, id.String())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return row.toRecord()
}

// List returns the newest runs first. A non-positive limit defaults to 50.
func (r *RunRepositoryImpl) List(ctx context.Context, limit int) ([]ports.RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []summaryRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, dataset_name, test_kind, alpha, num_edges, created_at
		FROM runs
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	out := make([]ports.RunSummary, len(rows))
	for i, row := range rows {
		out[i] = ports.RunSummary{
			ID:          core.RunID(row.ID),
			DatasetName: row.DatasetName,
			TestKind:    row.TestKind,
			Alpha:       row.Alpha,
			NumEdges:    row.NumEdges,
			CreatedAt:   core.NewTimestamp(row.CreatedAt),
		}
	}
	return out, nil
}

type runRow struct {
	ID           string          `db:"id"`
	DatasetName  string          `db:"dataset_name"`
	DatasetHash  string          `db:"dataset_hash"`
	TestKind     string          `db:"test_kind"`
	Alpha        float64         `db:"alpha"`
	Q            float64         `db:"q"`
	ColliderOnly bool            `db:"collider_only"`
	FDR          sql.NullFloat64 `db:"fdr"`
	AlphaStar    sql.NullFloat64 `db:"alpha_star"`
	ElapsedMS    int64           `db:"elapsed_ms"`
	NumNodes     int             `db:"num_nodes"`
	NumEdges     int             `db:"num_edges"`
	Edges        []byte          `db:"edges"`
	Removed      []byte          `db:"removed"`
	Ambiguous    []byte          `db:"ambiguous"`
	PValues      []byte          `db:"p_values"`
	Report       string          `db:"report"`
	Fingerprint  []byte          `db:"fingerprint"`
	CreatedAt    time.Time       `db:"created_at"`
}

type summaryRow struct {
	ID          string    `db:"id"`
	DatasetName string    `db:"dataset_name"`
	TestKind    string    `db:"test_kind"`
	Alpha       float64   `db:"alpha"`
	NumEdges    int       `db:"num_edges"`
	CreatedAt   time.Time `db:"created_at"`
}

func (row *runRow) toRecord() (*run.Record, error) {
	rec := &run.Record{
		ID:           core.RunID(row.ID),
		DatasetName:  row.DatasetName,
		DatasetHash:  row.DatasetHash,
		TestKind:     row.TestKind,
		Alpha:        row.Alpha,
		Q:            row.Q,
		ColliderOnly: row.ColliderOnly,
		FDR:          floatOrNaN(row.FDR),
		AlphaStar:    floatOrNaN(row.AlphaStar),
		ElapsedMS:    row.ElapsedMS,
		NumNodes:     row.NumNodes,
		NumEdges:     row.NumEdges,
		Report:       row.Report,
		CreatedAt:    core.NewTimestamp(row.CreatedAt),
	}
	for _, col := range []struct {
		raw []byte
		dst interface{}
	}{
		{row.Edges, &rec.Edges},
		{row.Removed, &rec.Removed},
		{row.Ambiguous, &rec.Ambiguous},
		{row.PValues, &rec.PValues},
		{row.Fingerprint, &rec.Fingerprint},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return nil, fmt.Errorf("unmarshal run %s: %w", row.ID, err)
		}
	}
	return rec, nil
}

// nullFloat maps NaN to SQL NULL so the column stays orderable.
func nullFloat(f run.JSONFloat) sql.NullFloat64 {
	v := float64(f)
	return sql.NullFloat64{Float64: v, Valid: !math.IsNaN(v)}
}

func floatOrNaN(nf sql.NullFloat64) run.JSONFloat {
	if !nf.Valid {
		return run.JSONFloat(math.NaN())
	}
	return run.JSONFloat(nf.Float64)
}
