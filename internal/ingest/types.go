// Package ingest implements the transaction CSV ingestion pipeline:
// structural parsing, schema validation, and all-or-nothing commit.
// This package has no HTTP dependencies and can be driven by any transport.
package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Canonical field names after header normalization.
const (
	FieldTransactionNo = "transaction_no"
	FieldDate          = "date"
	FieldFullName      = "full_name"
	FieldAge           = "age"
	FieldGender        = "gender"
	FieldAmount        = "amount"
)

// knownFields is the closed set of schema columns. Anything else from the
// header lands in RawRecord.Extras and is ignored by validation.
var knownFields = map[string]bool{
	FieldTransactionNo: true,
	FieldDate:          true,
	FieldFullName:      true,
	FieldAge:           true,
	FieldGender:        true,
	FieldAmount:        true,
}

// Gender is the closed enumeration for the gender column.
// Matching is exact: case-variant spellings are rejected.
type Gender string

const (
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

// RawRecord is one untyped data row produced by the parser.
// SourceLine is the 1-based line in the original file (the header is line 1),
// used for error attribution. RawRecords do not survive past validation.
type RawRecord struct {
	Fields     map[string]string // known schema columns only
	Extras     map[string]string // unrecognized header columns, kept for forward compatibility
	SourceLine int
}

// ParseError describes a line that could not be read as a record.
// Line 0 marks a batch-level problem (empty file, undecodable input).
type ParseError struct {
	Line    int
	Message string
}

// ValidationFailure is the complete set of rule violations for one record.
// Messages are ordered by check order and tagged with the field name,
// e.g. "age: Age must be between 18 and 90".
type ValidationFailure struct {
	Line     int
	Messages []string
}

// Transaction is a fully validated record ready for storage.
type Transaction struct {
	TransactionNo string
	Date          time.Time
	FullName      string
	Age           int
	Gender        Gender
	Amount        decimal.Decimal
}

// ResultKind is the terminal outcome of one ingestion call.
type ResultKind string

const (
	KindSuccess    ResultKind = "success"
	KindParse      ResultKind = "parse"
	KindValidation ResultKind = "validation"
	KindConflict   ResultKind = "conflict"
	KindInternal   ResultKind = "internal"
)

// Result is the single response for an ingestion call. Exactly one of the
// Inserted / Failures / Message branches is meaningful, selected by Kind.
type Result struct {
	Kind     ResultKind
	Inserted int
	Failures []ValidationFailure
	Message  string
}

// ErrDuplicateTransactionNo is returned by a TransactionStore when the batch
// collides with a transaction_no already persisted by an earlier ingestion.
// The store must have rolled back the whole batch before returning it.
var ErrDuplicateTransactionNo = errors.New("transaction_no already exists")

// TransactionStore persists validated batches. Implementations commit all
// rows in the given order or none of them.
type TransactionStore interface {
	InsertBatch(ctx context.Context, fileName string, txs []Transaction) (int, error)
}
