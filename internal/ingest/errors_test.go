package ingest

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "duplicate key",
			err:      errors.New(`ERROR: duplicate key value violates unique constraint "transactions_transaction_no_key"`),
			wantCode: "DB001",
		},
		{
			name:     "unique constraint",
			err:      errors.New("violates unique constraint"),
			wantCode: "DB001",
		},
		{
			name:     "connection refused",
			err:      errors.New("dial tcp 127.0.0.1:5432: connection refused"),
			wantCode: "DB002",
		},
		{
			name:     "connection reset",
			err:      errors.New("read: connection reset by peer"),
			wantCode: "DB002",
		},
		{
			name:     "timeout",
			err:      errors.New("context deadline exceeded: timeout"),
			wantCode: "DB003",
		},
		{
			name:     "deadlock",
			err:      errors.New("deadlock detected"),
			wantCode: "DB004",
		},
		{
			name:     "unknown error",
			err:      errors.New("something odd happened"),
			wantCode: "GEN001",
		},
		{
			name:     "wrapped error still matches",
			err:      fmt.Errorf("insert batch: %w", errors.New("connection refused")),
			wantCode: "DB002",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := MapError(tt.err)
			if msg.Code != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, msg.Code, tt.wantCode)
			}
			if msg.Message == "" {
				t.Error("Message is empty")
			}
		})
	}
}

func TestMapError_Nil(t *testing.T) {
	if msg := MapError(nil); msg != (UserMessage{}) {
		t.Errorf("MapError(nil) = %+v, want zero value", msg)
	}
}

func TestMapError_NeverLeaksInternals(t *testing.T) {
	err := errors.New("pq: INSERT INTO transactions ... password=hunter2 failed")
	msg := MapError(err)
	if strings.Contains(msg.Message, "hunter2") || strings.Contains(msg.Action, "hunter2") {
		t.Error("mapped message leaked internal error content")
	}
}

func TestFormatUserError(t *testing.T) {
	got := FormatUserError(errors.New("connection refused"))
	want := "Unable to connect to the database (Code: DB002). Please try again in a few moments"
	if got != want {
		t.Errorf("FormatUserError() = %q, want %q", got, want)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}
