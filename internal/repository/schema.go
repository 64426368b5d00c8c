package repository

import (
	"context"
	"database/sql"
	"fmt"
)

const submissionsTable = `
CREATE TABLE IF NOT EXISTS submissions (
	id VARCHAR(32) PRIMARY KEY,
	batch_id VARCHAR(32) NOT NULL,
	platform VARCHAR(50) NOT NULL,
	text TEXT NOT NULL,
	publish_at TIMESTAMPTZ NOT NULL,
	timezone VARCHAR(64) NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'queued',
	external_id VARCHAR(128) NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_submissions_batch ON submissions(batch_id);
CREATE INDEX IF NOT EXISTS idx_submissions_created ON submissions(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_submissions_status ON submissions(status, created_at);
`

// EnsureSchema creates the submissions table if it does not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, submissionsTable); err != nil {
		return fmt.Errorf("create submissions table: %w", err)
	}
	return nil
}
