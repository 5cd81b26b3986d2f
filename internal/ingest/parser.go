package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Parse turns raw file bytes into ordered RawRecords plus any per-line parse
// errors. The first non-empty row is the header; blank rows are skipped.
// Data rows are numbered sourceLine = dataIndex + 2 so error messages line up
// with what the user sees in a spreadsheet.
func Parse(data []byte) ([]RawRecord, []ParseError) {
	data = sanitizeUTF8(data)

	rows, err := readCSV(data)
	if err != nil {
		return nil, []ParseError{{Line: 0, Message: fmt.Sprintf("cannot read file as CSV: %v", err)}}
	}

	// Drop blank rows up front; they carry no data and must not shift
	// line numbering of the rows that follow.
	var nonEmpty [][]string
	for _, row := range rows {
		if !isEmptyRow(row) {
			nonEmpty = append(nonEmpty, row)
		}
	}

	if len(nonEmpty) == 0 {
		return nil, []ParseError{{Line: 0, Message: "file contains no data rows"}}
	}

	header := make([]string, len(nonEmpty[0]))
	for i, h := range nonEmpty[0] {
		header[i] = NormalizeHeader(h)
	}
	dataRows := nonEmpty[1:]

	var records []RawRecord
	var errs []ParseError

	for i, row := range dataRows {
		line := i + 2 // header is line 1

		if len(row) != len(header) {
			errs = append(errs, ParseError{
				Line:    line,
				Message: fmt.Sprintf("expected %d columns, got %d", len(header), len(row)),
			})
			continue
		}

		rec := RawRecord{
			Fields:     make(map[string]string, len(knownFields)),
			SourceLine: line,
		}
		for pos, key := range header {
			val := strings.TrimSpace(row[pos])
			if knownFields[key] {
				rec.Fields[key] = val
				continue
			}
			if rec.Extras == nil {
				rec.Extras = make(map[string]string)
			}
			rec.Extras[key] = val
		}
		records = append(records, rec)
	}

	if len(records) == 0 && len(errs) == 0 {
		return nil, []ParseError{{Line: 0, Message: "file contains no data rows"}}
	}

	return records, errs
}

// NormalizeHeader canonicalizes a header cell: trim, lower-case, and replace
// internal spaces with underscores, so "Transaction No" and "transaction_no"
// resolve to the same key.
func NormalizeHeader(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, " ", "_")
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r.ReadAll()
}

func isEmptyRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// sanitizeUTF8 replaces invalid byte sequences with the Unicode replacement
// rune so the CSV reader never chokes on mixed-encoding exports.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune('�')
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}
