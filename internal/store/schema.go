package store

import (
	"context"
	"fmt"
)

// schemaSQL creates the tables the service owns. The unique constraint on
// transaction_no is the concurrency-sensitive invariant: two ingestions
// racing on the same number resolve at commit time, one succeeding and the
// other rolling back.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS ingestions (
    id          UUID PRIMARY KEY,
    file_name   TEXT NOT NULL,
    row_count   INTEGER NOT NULL,
    uploaded_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS transactions (
    id             BIGSERIAL PRIMARY KEY,
    transaction_no TEXT NOT NULL UNIQUE,
    date           DATE NOT NULL,
    full_name      TEXT NOT NULL,
    age            INTEGER NOT NULL,
    gender         TEXT NOT NULL,
    amount         NUMERIC(14,2) NOT NULL,
    ingestion_id   UUID REFERENCES ingestions(id),
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions (date DESC);
CREATE INDEX IF NOT EXISTS idx_transactions_full_name ON transactions (full_name);
`

// EnsureSchema creates the tables and indexes if they do not exist yet.
// Called once at startup.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
