package web

// handlers_data.go serves the read side of the dashboard: the paged
// transaction listing and the analytics aggregations. These handlers only
// translate query parameters and relay store results.

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/TxDash/internal/store"
)

// MaxPageSize caps the listing page size to keep responses bounded.
const MaxPageSize = 100

// DefaultTopSpenders is how many names the top-spenders chart shows.
const DefaultTopSpenders = 5

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.data.Ping(r.Context()); err != nil {
		s.respondError(w, r, err, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

// handleListTransactions serves GET /api/transactions.
// Query parameters: page, limit, search (substring on name or transaction
// number), type (ALL | INCOME | EXPENSE).
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	params := store.ListParams{
		Page:     parseIntParam(r, "page", 1),
		PageSize: parseIntParam(r, "limit", 10),
		Search:   r.URL.Query().Get("search"),
		Type:     normalizeType(r.URL.Query().Get("type")),
	}
	if params.PageSize > MaxPageSize {
		params.PageSize = MaxPageSize
	}

	page, err := s.data.ListTransactions(r.Context(), params)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]interface{}{
		"data": page.Rows,
		"meta": map[string]interface{}{
			"total":      page.Total,
			"page":       page.Page,
			"limit":      page.PageSize,
			"totalPages": page.TotalPages,
		},
	})
}

func (s *Server) handleListIngestions(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 20)
	ingestions, err := s.data.ListIngestions(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, ingestions)
}

func (s *Server) handleAgeGroups(w http.ResponseWriter, r *http.Request) {
	buckets, err := s.data.AgeGroups(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, buckets)
}

func (s *Server) handleGenderCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := s.data.GenderCounts(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, counts)
}

func (s *Server) handleMonthlyTrend(w http.ResponseWriter, r *http.Request) {
	trend, err := s.data.MonthlyTrend(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, trend)
}

func (s *Server) handleTopSpenders(w http.ResponseWriter, r *http.Request) {
	spenders, err := s.data.TopSpenders(r.Context(), parseIntParam(r, "limit", DefaultTopSpenders))
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, spenders)
}

func (s *Server) handleWeekdayActivity(w http.ResponseWriter, r *http.Request) {
	activity, err := s.data.WeekdayActivity(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, activity)
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// normalizeType maps the type query parameter onto a known filter,
// defaulting to ALL.
func normalizeType(t string) string {
	switch strings.ToUpper(t) {
	case store.TypeIncome:
		return store.TypeIncome
	case store.TypeExpense:
		return store.TypeExpense
	default:
		return store.TypeAll
	}
}
