package web

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/JonMunkholm/TxDash/internal/ingest"
)

// handleUpload ingests one CSV file: every row is validated first and either
// the whole batch commits or nothing does. The response always makes clear
// which of the two happened.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read file")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Upload.Timeout)
	defer cancel()

	result := s.ingestor.Ingest(ctx, header.Filename, data)
	s.writeIngestionResult(w, result)
}

// writeIngestionResult maps a pipeline Result onto HTTP status and body.
func (s *Server) writeIngestionResult(w http.ResponseWriter, result *ingest.Result) {
	switch result.Kind {
	case ingest.KindSuccess:
		writeJSON(w, map[string]interface{}{
			"message": "Data processed successfully",
			"count":   result.Inserted,
		})

	case ingest.KindParse:
		writeStatusJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "CSV Parsing Error",
			Details: formatFailures(result.Failures),
		})

	case ingest.KindValidation:
		writeStatusJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "Validation Failed",
			Details: formatFailures(result.Failures),
		})

	case ingest.KindConflict:
		writeStatusJSON(w, http.StatusConflict, ErrorResponse{
			Error:   "Database Conflict",
			Details: []string{result.Message},
		})

	default:
		writeStatusJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "Internal Server Error",
			Details: []string{result.Message},
		})
	}
}

// formatFailures renders line-addressed failures as display strings,
// "Row 4: age: ..., amount: ...". Batch-level failures (line 0) have no
// row prefix.
func formatFailures(failures []ingest.ValidationFailure) []string {
	details := make([]string, len(failures))
	for i, f := range failures {
		msg := strings.Join(f.Messages, ", ")
		if f.Line > 0 {
			msg = fmt.Sprintf("Row %d: %s", f.Line, msg)
		}
		details[i] = msg
	}
	return details
}
