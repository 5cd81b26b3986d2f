// Package store persists transactions in PostgreSQL via pgx.
//
// The write path is a single InsertBatch used by the ingestion coordinator;
// it commits every row of a batch in one transaction or none of them.
// Uniqueness of transaction_no across concurrent writers is enforced by the
// table's unique constraint, not by in-process locking.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/TxDash/internal/ingest"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBTX is the subset of pgx operations the store needs.
// Satisfied by both *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store provides transaction persistence and read-side queries.
// Reads go through the DBTX so they work equally inside a transaction.
type Store struct {
	pool *pgxpool.Pool
	db   DBTX
}

// New creates a Store over the given connection pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, db: pool}
}

// Ping verifies database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const insertTransactionSQL = `
INSERT INTO transactions (transaction_no, date, full_name, age, gender, amount, ingestion_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

const insertIngestionSQL = `
INSERT INTO ingestions (id, file_name, row_count, uploaded_at)
VALUES ($1, $2, $3, $4)`

// InsertBatch commits all rows of a validated batch atomically, in the given
// order, and records the ingestion in the history table. When any row
// collides with a stored transaction_no the whole transaction is rolled back
// and ingest.ErrDuplicateTransactionNo is returned.
func (s *Store) InsertBatch(ctx context.Context, fileName string, txs []ingest.Transaction) (int, error) {
	dbtx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer dbtx.Rollback(ctx)

	// The ingestion row goes in first: transactions reference it.
	ingestionID := uuid.New()
	_, err = dbtx.Exec(ctx, insertIngestionSQL, ingestionID, fileName, len(txs), time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("record ingestion: %w", err)
	}

	batch := &pgx.Batch{}
	for _, tx := range txs {
		batch.Queue(insertTransactionSQL,
			tx.TransactionNo,
			toPgDate(tx.Date),
			tx.FullName,
			tx.Age,
			string(tx.Gender),
			toPgNumeric(tx.Amount),
			ingestionID,
		)
	}

	results := dbtx.SendBatch(ctx, batch)
	for range txs {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return 0, translateInsertError(err)
		}
	}
	if err := results.Close(); err != nil {
		return 0, translateInsertError(err)
	}

	if err := dbtx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	return len(txs), nil
}

// translateInsertError turns a unique-violation on transaction_no into the
// explicit sentinel the coordinator switches on; everything else passes
// through wrapped.
func translateInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("insert batch: %w", ingest.ErrDuplicateTransactionNo)
	}
	return fmt.Errorf("insert batch: %w", err)
}
