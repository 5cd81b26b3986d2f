package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Age bounds for a valid transaction record, inclusive.
const (
	MinAge = 18
	MaxAge = 90
)

// User-facing rule messages. Kept in one place so the validator, tests, and
// any future localization agree on exact wording.
const (
	msgTransactionNoRequired = "Transaction number is required"
	msgInvalidDate           = "Invalid date format"
	msgFullNameRequired      = "Full name is required"
	msgAgeOutOfBounds        = "Age must be between 18 and 90"
	msgInvalidGender         = "Gender must be Male, Female, or Other"
	msgInvalidAmount         = "Amount must be a number"
)

// dateLayouts are the accepted source representations for the date column,
// ISO first since that is what exports overwhelmingly use.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"1/2/2006",
	"01/02/2006",
	"1-2-2006",
	"01-02-2006",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// Validate checks every RawRecord in file order and splits the batch into
// typed transactions and per-record failures. It carries no state between
// calls: validating the same input twice yields identical output.
//
// Checks run in a fixed order per record and all triggered rules are
// collected, so a row with a bad age and a bad amount reports both at once.
// The single exception is an intra-batch duplicate transaction_no, which
// short-circuits with exactly one duplicate message and no field checks.
func Validate(records []RawRecord) ([]Transaction, []ValidationFailure) {
	var valid []Transaction
	var failures []ValidationFailure

	// transaction_no values of records that passed every check; later
	// repeats of these are duplicates.
	seen := make(map[string]bool, len(records))

	for _, rec := range records {
		txNo := rec.Fields[FieldTransactionNo]

		if txNo != "" && seen[txNo] {
			failures = append(failures, ValidationFailure{
				Line:     rec.SourceLine,
				Messages: []string{fmt.Sprintf("Duplicate transaction_no '%s' in file", txNo)},
			})
			continue
		}

		var msgs []string
		fail := func(field, msg string) {
			msgs = append(msgs, field+": "+msg)
		}

		if txNo == "" {
			fail(FieldTransactionNo, msgTransactionNoRequired)
		}

		date, ok := parseDate(rec.Fields[FieldDate])
		if !ok {
			fail(FieldDate, msgInvalidDate)
		}

		fullName := rec.Fields[FieldFullName]
		if fullName == "" {
			fail(FieldFullName, msgFullNameRequired)
		}

		age, ok := parseAge(rec.Fields[FieldAge])
		if !ok {
			fail(FieldAge, msgAgeOutOfBounds)
		}

		gender, ok := parseGender(rec.Fields[FieldGender])
		if !ok {
			fail(FieldGender, msgInvalidGender)
		}

		amount, err := decimal.NewFromString(rec.Fields[FieldAmount])
		if err != nil {
			fail(FieldAmount, msgInvalidAmount)
		}

		if len(msgs) > 0 {
			failures = append(failures, ValidationFailure{Line: rec.SourceLine, Messages: msgs})
			continue
		}

		valid = append(valid, Transaction{
			TransactionNo: txNo,
			Date:          date,
			FullName:      fullName,
			Age:           age,
			Gender:        gender,
			Amount:        amount,
		})
		seen[txNo] = true
	}

	return valid, failures
}

// parseDate tries each accepted layout in order.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// parseAge coerces the cell to an integer and enforces the bounds. A
// non-numeric age and an out-of-range age fail the same rule.
func parseAge(s string) (int, bool) {
	age, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	if age < MinAge || age > MaxAge {
		return 0, false
	}
	return age, true
}

func parseGender(s string) (Gender, bool) {
	switch Gender(s) {
	case GenderMale, GenderFemale, GenderOther:
		return Gender(s), true
	default:
		return "", false
	}
}
