package store

// convert.go bridges validated domain values to pgtype wire values.
// Validation has already rejected anything malformed, so these conversions
// cannot fail for pipeline input; the Valid flag only guards zero values.

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// toPgDate wraps a calendar date for the date column.
func toPgDate(t time.Time) pgtype.Date {
	if t.IsZero() {
		return pgtype.Date{Valid: false}
	}
	return pgtype.Date{Time: t, Valid: true}
}

// toPgNumeric converts a decimal amount to pgtype.Numeric without going
// through float64, preserving exact scale.
func toPgNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	if err := n.Scan(d.String()); err != nil {
		return pgtype.Numeric{Valid: false}
	}
	return n
}
