package ingest

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

// fakeStore is an in-memory TransactionStore. It mimics the storage unique
// constraint: if any incoming transaction_no is already present, the whole
// batch is rejected and nothing is kept.
type fakeStore struct {
	rows    []Transaction
	calls   int
	failErr error // forced error for the next InsertBatch, if set
}

func (f *fakeStore) InsertBatch(ctx context.Context, fileName string, txs []Transaction) (int, error) {
	f.calls++
	if f.failErr != nil {
		return 0, f.failErr
	}

	existing := make(map[string]bool, len(f.rows))
	for _, r := range f.rows {
		existing[r.TransactionNo] = true
	}
	for _, tx := range txs {
		if existing[tx.TransactionNo] {
			return 0, fmt.Errorf("insert batch: %w", ErrDuplicateTransactionNo)
		}
	}

	f.rows = append(f.rows, txs...)
	return len(txs), nil
}

func (f *fakeStore) seed(txNos ...string) {
	for _, no := range txNos {
		f.rows = append(f.rows, Transaction{TransactionNo: no})
	}
}

const csvHeader = "transaction_no,date,full_name,age,gender,amount\n"

func TestIngest_Success(t *testing.T) {
	store := &fakeStore{}
	c := NewCoordinator(store)

	data := []byte(csvHeader +
		"TX001,2024-01-15,Jane Doe,30,Female,100.50\n" +
		"TX002,2024-01-16,John Doe,40,Male,-25.00\n" +
		"TX003,2024-01-17,Ann Lee,55,Other,0\n")

	res := c.Ingest(context.Background(), "batch.csv", data)
	if res.Kind != KindSuccess {
		t.Fatalf("Kind = %q, want %q (failures: %v, message: %s)", res.Kind, KindSuccess, res.Failures, res.Message)
	}
	if res.Inserted != 3 {
		t.Errorf("Inserted = %d, want 3", res.Inserted)
	}
	if len(store.rows) != 3 {
		t.Fatalf("store rows = %d, want 3", len(store.rows))
	}

	// File order must be observable in stored order.
	want := []string{"TX001", "TX002", "TX003"}
	for i, row := range store.rows {
		if row.TransactionNo != want[i] {
			t.Errorf("store.rows[%d] = %q, want %q", i, row.TransactionNo, want[i])
		}
	}
}

func TestIngest_ValidationRejectionIsAtomic(t *testing.T) {
	store := &fakeStore{}
	c := NewCoordinator(store)

	// One bad record poisons the whole batch.
	data := []byte(csvHeader +
		"TX001,2024-01-15,Jane Doe,30,Female,100.50\n" +
		"TX002,2024-01-16,John Doe,12,Male,-25.00\n")

	res := c.Ingest(context.Background(), "batch.csv", data)
	if res.Kind != KindValidation {
		t.Fatalf("Kind = %q, want %q", res.Kind, KindValidation)
	}
	if len(res.Failures) != 1 {
		t.Fatalf("Failures = %d, want 1", len(res.Failures))
	}
	if res.Failures[0].Line != 3 {
		t.Errorf("Failures[0].Line = %d, want 3", res.Failures[0].Line)
	}
	if store.calls != 0 {
		t.Errorf("store was called %d times, want 0", store.calls)
	}
	if len(store.rows) != 0 {
		t.Errorf("store rows = %d, want 0", len(store.rows))
	}
}

func TestIngest_CompleteFailureList(t *testing.T) {
	store := &fakeStore{}
	c := NewCoordinator(store)

	data := []byte(csvHeader +
		"TX001,bad-date,Jane Doe,30,Female,100.50\n" +
		"TX002,2024-01-16,,40,Male,-25.00\n" +
		"TX003,2024-01-17,Ann Lee,55,Robot,0\n")

	res := c.Ingest(context.Background(), "batch.csv", data)
	if res.Kind != KindValidation {
		t.Fatalf("Kind = %q, want %q", res.Kind, KindValidation)
	}
	if len(res.Failures) != 3 {
		t.Fatalf("Failures = %d, want 3 (complete list, not a prefix)", len(res.Failures))
	}
	for i, f := range res.Failures {
		if f.Line != i+2 {
			t.Errorf("Failures[%d].Line = %d, want %d", i, f.Line, i+2)
		}
	}
}

func TestIngest_ParseRejectionSkipsValidation(t *testing.T) {
	store := &fakeStore{}
	c := NewCoordinator(store)

	data := []byte(csvHeader + "TX001,2024-01-15,Jane Doe\n")

	res := c.Ingest(context.Background(), "batch.csv", data)
	if res.Kind != KindParse {
		t.Fatalf("Kind = %q, want %q", res.Kind, KindParse)
	}
	if len(res.Failures) != 1 {
		t.Fatalf("Failures = %d, want 1", len(res.Failures))
	}
	if res.Failures[0].Line != 2 {
		t.Errorf("Failures[0].Line = %d, want 2", res.Failures[0].Line)
	}
	if store.calls != 0 {
		t.Errorf("store was called %d times, want 0", store.calls)
	}
}

func TestIngest_EmptyFile(t *testing.T) {
	store := &fakeStore{}
	c := NewCoordinator(store)

	res := c.Ingest(context.Background(), "empty.csv", []byte(csvHeader))
	if res.Kind != KindParse {
		t.Fatalf("Kind = %q, want %q", res.Kind, KindParse)
	}
	if len(res.Failures) != 1 || res.Failures[0].Line != 0 {
		t.Fatalf("Failures = %v, want one batch-level failure", res.Failures)
	}
	if res.Failures[0].Messages[0] != "file contains no data rows" {
		t.Errorf("message = %q, want empty-file message", res.Failures[0].Messages[0])
	}
}

func TestIngest_StorageConflict(t *testing.T) {
	store := &fakeStore{}
	store.seed("TX001")
	c := NewCoordinator(store)

	data := []byte(csvHeader + "TX001,2024-01-15,Jane Doe,30,Female,100.50\n")

	before := len(store.rows)
	res := c.Ingest(context.Background(), "batch.csv", data)
	if res.Kind != KindConflict {
		t.Fatalf("Kind = %q, want %q", res.Kind, KindConflict)
	}
	if res.Message != ConflictMessage {
		t.Errorf("Message = %q, want %q", res.Message, ConflictMessage)
	}
	if len(store.rows) != before {
		t.Errorf("store rows changed: %d -> %d, want unchanged", before, len(store.rows))
	}
}

func TestIngest_InternalError(t *testing.T) {
	store := &fakeStore{failErr: errors.New("dial tcp: connection refused")}
	c := NewCoordinator(store)

	data := []byte(csvHeader + "TX001,2024-01-15,Jane Doe,30,Female,100.50\n")

	res := c.Ingest(context.Background(), "batch.csv", data)
	if res.Kind != KindInternal {
		t.Fatalf("Kind = %q, want %q", res.Kind, KindInternal)
	}
	if res.Message == "" {
		t.Error("Message is empty, want a sanitized user message")
	}
	if res.Message != MapError(store.failErr).Message {
		t.Errorf("Message = %q, want mapped message %q", res.Message, MapError(store.failErr).Message)
	}
}

func TestIngest_DuplicateWithinBatch(t *testing.T) {
	store := &fakeStore{}
	c := NewCoordinator(store)

	data := []byte(csvHeader +
		"TX001,2024-01-15,Jane Doe,30,Female,100.50\n" +
		"TX001,2024-01-16,John Doe,40,Male,-25.00\n")

	res := c.Ingest(context.Background(), "batch.csv", data)
	if res.Kind != KindValidation {
		t.Fatalf("Kind = %q, want %q", res.Kind, KindValidation)
	}
	if len(res.Failures) != 1 {
		t.Fatalf("Failures = %d, want 1", len(res.Failures))
	}
	if res.Failures[0].Messages[0] != "Duplicate transaction_no 'TX001' in file" {
		t.Errorf("message = %q, want duplicate message", res.Failures[0].Messages[0])
	}
	if store.calls != 0 {
		t.Errorf("store was called %d times, want 0", store.calls)
	}
}
