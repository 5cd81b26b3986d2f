package ingest

import (
	"strings"
	"testing"
)

const validHeader = "transaction_no,date,full_name,age,gender,amount\n"

func TestParse_HeaderNormalization(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "snake_case", header: "transaction_no,date,full_name,age,gender,amount"},
		{name: "spaced title case", header: "Transaction No,Date,Full Name,Age,Gender,Amount"},
		{name: "upper case", header: "TRANSACTION NO,DATE,FULL NAME,AGE,GENDER,AMOUNT"},
		{name: "padded", header: " transaction_no , date , full_name , age , gender , amount "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := []byte(tt.header + "\nTX001,2024-01-15,Jane Doe,30,Female,100.50\n")
			records, errs := Parse(data)
			if len(errs) != 0 {
				t.Fatalf("Parse() errors = %v, want none", errs)
			}
			if len(records) != 1 {
				t.Fatalf("Parse() records = %d, want 1", len(records))
			}

			rec := records[0]
			want := map[string]string{
				FieldTransactionNo: "TX001",
				FieldDate:          "2024-01-15",
				FieldFullName:      "Jane Doe",
				FieldAge:           "30",
				FieldGender:        "Female",
				FieldAmount:        "100.50",
			}
			for key, val := range want {
				if rec.Fields[key] != val {
					t.Errorf("Fields[%q] = %q, want %q", key, rec.Fields[key], val)
				}
			}
		})
	}
}

func TestParse_LineNumbers(t *testing.T) {
	data := []byte(validHeader +
		"TX001,2024-01-15,Jane Doe,30,Female,100.50\n" +
		"TX002,2024-01-16,John Doe,40,Male,-25.00\n" +
		"TX003,2024-01-17,Ann Lee,55,Other,0\n")

	records, errs := Parse(data)
	if len(errs) != 0 {
		t.Fatalf("Parse() errors = %v, want none", errs)
	}
	if len(records) != 3 {
		t.Fatalf("Parse() records = %d, want 3", len(records))
	}

	for i, rec := range records {
		want := i + 2
		if rec.SourceLine != want {
			t.Errorf("records[%d].SourceLine = %d, want %d", i, rec.SourceLine, want)
		}
	}
}

func TestParse_BlankRowsSkipped(t *testing.T) {
	// Blank rows carry no data; numbering stays contiguous over what remains.
	data := []byte(validHeader +
		"\n" +
		"TX001,2024-01-15,Jane Doe,30,Female,100.50\n" +
		"  ,  ,  ,  ,  ,  \n" +
		"TX002,2024-01-16,John Doe,40,Male,-25.00\n")

	records, errs := Parse(data)
	if len(errs) != 0 {
		t.Fatalf("Parse() errors = %v, want none", errs)
	}
	if len(records) != 2 {
		t.Fatalf("Parse() records = %d, want 2", len(records))
	}
	if records[0].SourceLine != 2 || records[1].SourceLine != 3 {
		t.Errorf("SourceLines = %d, %d, want 2, 3", records[0].SourceLine, records[1].SourceLine)
	}
}

func TestParse_ColumnCountMismatch(t *testing.T) {
	data := []byte(validHeader +
		"TX001,2024-01-15,Jane Doe,30,Female,100.50\n" +
		"TX002,2024-01-16,John Doe\n" +
		"TX003,2024-01-17,Ann Lee,55,Other,0\n")

	records, errs := Parse(data)
	if len(records) != 2 {
		t.Errorf("Parse() records = %d, want 2", len(records))
	}
	if len(errs) != 1 {
		t.Fatalf("Parse() errors = %d, want 1", len(errs))
	}
	if errs[0].Line != 3 {
		t.Errorf("errs[0].Line = %d, want 3", errs[0].Line)
	}
	if !strings.Contains(errs[0].Message, "expected 6 columns, got 3") {
		t.Errorf("errs[0].Message = %q, want column count message", errs[0].Message)
	}
}

func TestParse_EmptyInputs(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "empty file", data: ""},
		{name: "only whitespace", data: "\n\n  \n"},
		{name: "header only", data: validHeader},
		{name: "header and blank lines", data: validHeader + "\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, errs := Parse([]byte(tt.data))
			if len(records) != 0 {
				t.Errorf("Parse() records = %d, want 0", len(records))
			}
			if len(errs) != 1 {
				t.Fatalf("Parse() errors = %d, want 1", len(errs))
			}
			if errs[0].Line != 0 {
				t.Errorf("errs[0].Line = %d, want 0 (batch-level)", errs[0].Line)
			}
			if errs[0].Message != "file contains no data rows" {
				t.Errorf("errs[0].Message = %q, want %q", errs[0].Message, "file contains no data rows")
			}
		})
	}
}

func TestParse_UnknownHeadersGoToExtras(t *testing.T) {
	data := []byte("transaction_no,date,full_name,age,gender,amount,notes\n" +
		"TX001,2024-01-15,Jane Doe,30,Female,100.50,hello\n")

	records, errs := Parse(data)
	if len(errs) != 0 {
		t.Fatalf("Parse() errors = %v, want none", errs)
	}
	if len(records) != 1 {
		t.Fatalf("Parse() records = %d, want 1", len(records))
	}

	rec := records[0]
	if _, ok := rec.Fields["notes"]; ok {
		t.Error("unknown column leaked into Fields")
	}
	if rec.Extras["notes"] != "hello" {
		t.Errorf("Extras[notes] = %q, want %q", rec.Extras["notes"], "hello")
	}
}

func TestParse_InvalidUTF8Sanitized(t *testing.T) {
	data := []byte(validHeader + "TX001,2024-01-15,Jane\x80Doe,30,Female,100.50\n")

	records, errs := Parse(data)
	if len(errs) != 0 {
		t.Fatalf("Parse() errors = %v, want none", errs)
	}
	if len(records) != 1 {
		t.Fatalf("Parse() records = %d, want 1", len(records))
	}
	if records[0].Fields[FieldFullName] != "Jane�Doe" {
		t.Errorf("full_name = %q, want replacement rune", records[0].Fields[FieldFullName])
	}
}

func TestParse_QuotedFieldsWithCommas(t *testing.T) {
	data := []byte(validHeader + `TX001,2024-01-15,"Doe, Jane",30,Female,100.50` + "\n")

	records, errs := Parse(data)
	if len(errs) != 0 {
		t.Fatalf("Parse() errors = %v, want none", errs)
	}
	if records[0].Fields[FieldFullName] != "Doe, Jane" {
		t.Errorf("full_name = %q, want %q", records[0].Fields[FieldFullName], "Doe, Jane")
	}
}

func TestNormalizeHeader(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Transaction No", "transaction_no"},
		{"transaction_no", "transaction_no"},
		{"  Full Name  ", "full_name"},
		{"AMOUNT", "amount"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeHeader(tt.in); got != tt.want {
			t.Errorf("NormalizeHeader(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
