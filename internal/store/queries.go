package store

// queries.go is the read side: the paged transaction listing and the
// dashboard aggregations. These are plain grouped queries with no
// failure-handling design beyond error propagation.

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Transaction type filters for the listing query.
const (
	TypeAll     = "ALL"
	TypeIncome  = "INCOME"
	TypeExpense = "EXPENSE"
)

// ListParams selects a page of stored transactions.
type ListParams struct {
	Page     int
	PageSize int
	Search   string // substring match on full_name or transaction_no
	Type     string // TypeAll, TypeIncome (amount > 0), TypeExpense (amount < 0)
}

// TransactionRow is one stored transaction as returned by the listing.
type TransactionRow struct {
	ID            int64           `json:"id"`
	TransactionNo string          `json:"transaction_no"`
	Date          time.Time       `json:"date"`
	FullName      string          `json:"full_name"`
	Age           int             `json:"age"`
	Gender        string          `json:"gender"`
	Amount        decimal.Decimal `json:"amount"`
}

// TransactionPage is a page of transactions plus paging metadata.
type TransactionPage struct {
	Rows       []TransactionRow
	Total      int64
	Page       int
	PageSize   int
	TotalPages int
}

// whereBuilder accumulates WHERE conditions with positional args.
type whereBuilder struct {
	conds []string
	args  []interface{}
}

func (wb *whereBuilder) addSearch(search string) {
	if search == "" {
		return
	}
	n := len(wb.args) + 1
	wb.conds = append(wb.conds,
		fmt.Sprintf("(full_name ILIKE $%d OR transaction_no ILIKE $%d)", n, n))
	wb.args = append(wb.args, "%"+search+"%")
}

func (wb *whereBuilder) addType(txType string) {
	switch txType {
	case TypeIncome:
		wb.conds = append(wb.conds, "amount > 0")
	case TypeExpense:
		wb.conds = append(wb.conds, "amount < 0")
	}
}

// build returns the WHERE clause (with leading space) and its args, or an
// empty clause when no conditions were added.
func (wb *whereBuilder) build() (string, []interface{}) {
	if len(wb.conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wb.conds, " AND "), wb.args
}

func (wb *whereBuilder) nextArgIndex() int {
	return len(wb.args) + 1
}

// ListTransactions returns one page of transactions, newest date first.
func (s *Store) ListTransactions(ctx context.Context, p ListParams) (*TransactionPage, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 10
	}

	wb := &whereBuilder{}
	wb.addSearch(p.Search)
	wb.addType(p.Type)
	whereClause, args := wb.build()

	var total int64
	countQuery := "SELECT COUNT(*) FROM transactions" + whereClause
	if err := s.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count transactions: %w", err)
	}

	totalPages := int((total + int64(p.PageSize) - 1) / int64(p.PageSize))
	if totalPages < 1 {
		totalPages = 1
	}
	offset := (p.Page - 1) * p.PageSize

	argIdx := wb.nextArgIndex()
	query := fmt.Sprintf(
		"SELECT id, transaction_no, date, full_name, age, gender, amount::text"+
			" FROM transactions%s ORDER BY date DESC, id DESC LIMIT $%d OFFSET $%d",
		whereClause, argIdx, argIdx+1)
	args = append(args, p.PageSize, offset)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	result := []TransactionRow{}
	for rows.Next() {
		var row TransactionRow
		var amount string
		if err := rows.Scan(&row.ID, &row.TransactionNo, &row.Date, &row.FullName, &row.Age, &row.Gender, &amount); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		row.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", amount, err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return &TransactionPage{
		Rows:       result,
		Total:      total,
		Page:       p.Page,
		PageSize:   p.PageSize,
		TotalPages: totalPages,
	}, nil
}

// AgeBucket is a count of transactions for one age range.
type AgeBucket struct {
	Range string `json:"range"`
	Count int64  `json:"count"`
}

// ageBucketBounds defines the dashboard's fixed age ranges in display order.
var ageBucketBounds = []struct {
	label    string
	min, max int
}{
	{"18-25", 18, 25},
	{"26-35", 26, 35},
	{"36-45", 36, 45},
	{"46-60", 46, 60},
	{"60+", 61, 1<<31 - 1},
}

// AgeGroups counts transactions per age range. Grouping by exact age happens
// in SQL; bucketing happens here where the ranges are defined.
func (s *Store) AgeGroups(ctx context.Context) ([]AgeBucket, error) {
	rows, err := s.db.Query(ctx,
		"SELECT age, COUNT(*) FROM transactions GROUP BY age ORDER BY age ASC")
	if err != nil {
		return nil, fmt.Errorf("query age groups: %w", err)
	}
	defer rows.Close()

	counts := make([]int64, len(ageBucketBounds))
	for rows.Next() {
		var age int
		var count int64
		if err := rows.Scan(&age, &count); err != nil {
			return nil, fmt.Errorf("scan age group: %w", err)
		}
		for i, b := range ageBucketBounds {
			if age >= b.min && age <= b.max {
				counts[i] += count
				break
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	buckets := make([]AgeBucket, len(ageBucketBounds))
	for i, b := range ageBucketBounds {
		buckets[i] = AgeBucket{Range: b.label, Count: counts[i]}
	}
	return buckets, nil
}

// GenderCount is the number of transactions recorded for one gender value.
type GenderCount struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// GenderCounts counts transactions per gender.
func (s *Store) GenderCounts(ctx context.Context) ([]GenderCount, error) {
	rows, err := s.db.Query(ctx,
		"SELECT gender, COUNT(*) FROM transactions GROUP BY gender")
	if err != nil {
		return nil, fmt.Errorf("query gender counts: %w", err)
	}
	defer rows.Close()

	result := []GenderCount{}
	for rows.Next() {
		var gc GenderCount
		if err := rows.Scan(&gc.Name, &gc.Value); err != nil {
			return nil, fmt.Errorf("scan gender count: %w", err)
		}
		result = append(result, gc)
	}
	return result, rows.Err()
}

// MonthlyFlow is the credit and debit totals for one calendar month.
type MonthlyFlow struct {
	Month  string  `json:"month"`
	Credit float64 `json:"credit"`
	Debit  float64 `json:"debit"`
}

// MonthlyTrend sums credits (positive amounts) and debits (negative amounts)
// per month in ascending month order.
func (s *Store) MonthlyTrend(ctx context.Context) ([]MonthlyFlow, error) {
	const query = `
SELECT TO_CHAR(DATE_TRUNC('month', date), 'YYYY-MM-DD') AS month,
       COALESCE(SUM(CASE WHEN amount > 0 THEN amount ELSE 0 END), 0)::float8 AS credit,
       COALESCE(SUM(CASE WHEN amount < 0 THEN amount ELSE 0 END), 0)::float8 AS debit
FROM transactions
GROUP BY DATE_TRUNC('month', date)
ORDER BY DATE_TRUNC('month', date) ASC`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query monthly trend: %w", err)
	}
	defer rows.Close()

	result := []MonthlyFlow{}
	for rows.Next() {
		var mf MonthlyFlow
		if err := rows.Scan(&mf.Month, &mf.Credit, &mf.Debit); err != nil {
			return nil, fmt.Errorf("scan monthly trend: %w", err)
		}
		result = append(result, mf)
	}
	return result, rows.Err()
}

// Spender is a person ranked by total debit volume.
type Spender struct {
	Name       string  `json:"name"`
	TotalSpent float64 `json:"total_spent"`
}

// TopSpenders returns the n names with the largest total debit, largest
// first. TotalSpent is reported as a positive magnitude.
func (s *Store) TopSpenders(ctx context.Context, n int) ([]Spender, error) {
	const query = `
SELECT full_name, ABS(SUM(amount))::float8 AS total_spent
FROM transactions
WHERE amount < 0
GROUP BY full_name
ORDER BY SUM(amount) ASC
LIMIT $1`

	rows, err := s.db.Query(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("query top spenders: %w", err)
	}
	defer rows.Close()

	result := []Spender{}
	for rows.Next() {
		var sp Spender
		if err := rows.Scan(&sp.Name, &sp.TotalSpent); err != nil {
			return nil, fmt.Errorf("scan spender: %w", err)
		}
		result = append(result, sp)
	}
	return result, rows.Err()
}

// WeekdayCount is the transaction count for one day of the week.
type WeekdayCount struct {
	Day   string `json:"day"`
	Value int64  `json:"value"`
}

var weekdayLabels = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// WeekdayActivity counts transactions by ISO day of week, Monday first.
// Days with no transactions are reported with a zero count.
func (s *Store) WeekdayActivity(ctx context.Context) ([]WeekdayCount, error) {
	const query = `
SELECT EXTRACT(ISODOW FROM date)::int AS day, COUNT(*)
FROM transactions
GROUP BY EXTRACT(ISODOW FROM date)
ORDER BY day ASC`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query weekday activity: %w", err)
	}
	defer rows.Close()

	byDay := make(map[int]int64, 7)
	for rows.Next() {
		var day int
		var count int64
		if err := rows.Scan(&day, &count); err != nil {
			return nil, fmt.Errorf("scan weekday: %w", err)
		}
		byDay[day] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	result := make([]WeekdayCount, len(weekdayLabels))
	for i, label := range weekdayLabels {
		result[i] = WeekdayCount{Day: label, Value: byDay[i+1]}
	}
	return result, nil
}

// Ingestion is one entry in the upload history.
type Ingestion struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	RowCount   int       `json:"row_count"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// ListIngestions returns the most recent ingestions, newest first.
func (s *Store) ListIngestions(ctx context.Context, limit int) ([]Ingestion, error) {
	if limit < 1 {
		limit = 20
	}

	rows, err := s.db.Query(ctx,
		"SELECT id, file_name, row_count, uploaded_at FROM ingestions ORDER BY uploaded_at DESC LIMIT $1",
		limit)
	if err != nil {
		return nil, fmt.Errorf("query ingestions: %w", err)
	}
	defer rows.Close()

	result := []Ingestion{}
	for rows.Next() {
		var ing Ingestion
		if err := rows.Scan(&ing.ID, &ing.FileName, &ing.RowCount, &ing.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan ingestion: %w", err)
		}
		result = append(result, ing)
	}
	return result, rows.Err()
}
