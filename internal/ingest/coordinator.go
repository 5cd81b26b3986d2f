package ingest

import (
	"context"
	"errors"

	"github.com/JonMunkholm/TxDash/internal/logging"
)

// ConflictMessage is the single coarse message reported when the store
// rejects the batch over a pre-existing transaction_no. The store surfaces
// one constraint violation per statement, so the conflict cannot be cheaply
// attributed to a specific input line.
const ConflictMessage = "A transaction number in this file already exists in the database."

// Coordinator orchestrates Parse -> Validate -> commit for one batch.
// The storage transaction is injected so tests can substitute an in-memory
// fake; the Coordinator itself holds no mutable state.
type Coordinator struct {
	store TransactionStore
}

// NewCoordinator creates a Coordinator that commits batches to store.
func NewCoordinator(store TransactionStore) *Coordinator {
	return &Coordinator{store: store}
}

// Ingest runs the whole pipeline for one uploaded file and returns exactly
// one terminal Result. From the caller's perspective the call is
// all-or-nothing: either every record is durably stored once, in file order,
// or storage is left unchanged.
func (c *Coordinator) Ingest(ctx context.Context, fileName string, data []byte) *Result {
	log := logging.WithFields(ctx, "file", fileName)

	records, parseErrs := Parse(data)
	if len(parseErrs) > 0 {
		log.Info("batch rejected at parse", "errors", len(parseErrs))
		return &Result{Kind: KindParse, Failures: parseFailures(parseErrs)}
	}

	txs, failures := Validate(records)
	if len(failures) > 0 {
		log.Info("batch rejected at validation",
			"records", len(records),
			"failures", len(failures),
		)
		return &Result{Kind: KindValidation, Failures: failures}
	}

	inserted, err := c.store.InsertBatch(ctx, fileName, txs)
	if err != nil {
		if errors.Is(err, ErrDuplicateTransactionNo) {
			log.Info("batch rejected at commit",
				"records", len(txs),
				"reason", "duplicate transaction_no in storage",
			)
			return &Result{Kind: KindConflict, Message: ConflictMessage}
		}
		log.Error("batch commit failed",
			"records", len(txs),
			"error", err,
		)
		return &Result{Kind: KindInternal, Message: MapError(err).Message}
	}

	log.Info("batch committed", "inserted", inserted)
	return &Result{Kind: KindSuccess, Inserted: inserted}
}

// parseFailures reshapes parse errors into the failure report format so the
// caller gets one line-addressed report regardless of which stage rejected.
func parseFailures(errs []ParseError) []ValidationFailure {
	failures := make([]ValidationFailure, len(errs))
	for i, e := range errs {
		failures[i] = ValidationFailure{Line: e.Line, Messages: []string{e.Message}}
	}
	return failures
}
