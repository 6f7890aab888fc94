package postgres

import (
	"fmt"

	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	dataset_name  TEXT NOT NULL,
	dataset_hash  TEXT NOT NULL,
	test_kind     TEXT NOT NULL,
	alpha         DOUBLE PRECISION NOT NULL,
	q             DOUBLE PRECISION NOT NULL,
	collider_only BOOLEAN NOT NULL DEFAULT FALSE,
	fdr           DOUBLE PRECISION,
	alpha_star    DOUBLE PRECISION,
	elapsed_ms    BIGINT NOT NULL DEFAULT 0,
	num_nodes     INTEGER NOT NULL DEFAULT 0,
	num_edges     INTEGER NOT NULL DEFAULT 0,
	edges         JSONB NOT NULL DEFAULT '[]',
	removed       JSONB NOT NULL DEFAULT '[]',
	ambiguous     JSONB NOT NULL DEFAULT '[]',
	p_values      JSONB NOT NULL DEFAULT '[]',
	report        TEXT NOT NULL DEFAULT '',
	fingerprint   JSONB NOT NULL DEFAULT '{}',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_dataset_hash ON runs (dataset_hash);
`

// Migrate creates the runs schema. Statements are idempotent, so applying
// on every boot is safe.
func Migrate(db *sqlx.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("apply runs schema: %w", err)
	}
	return nil
}
