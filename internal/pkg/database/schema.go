package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS photos (
    id SERIAL PRIMARY KEY,
    type TEXT NOT NULL,
    filter TEXT NOT NULL DEFAULT 'normal',
    background TEXT NOT NULL DEFAULT 'none',
    file_path TEXT NOT NULL,
    photo_urls JSONB NOT NULL DEFAULT '[]'::jsonb,
    qr_code TEXT NOT NULL,
    share_id TEXT NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS photos_created_at_idx ON photos (created_at DESC);
`

// EnsureSchema creates the photos table when it is missing
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
