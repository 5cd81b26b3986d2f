package web

// errors.go provides unified error response handling for the web layer.
//
// All errors are logged with full technical detail server-side (with the
// chi request ID for correlation) and returned to clients as sanitized,
// user-friendly JSON.

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/TxDash/internal/ingest"
	"github.com/go-chi/chi/v5/middleware"
)

// ErrorResponse is the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
	Code    string   `json:"code,omitempty"`
}

// respondError logs the technical error and writes a sanitized JSON body.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := ingest.MapError(err)

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	writeStatusJSON(w, statusCode, ErrorResponse{
		Error: userMsg.Message,
		Code:  userMsg.Code,
	})
}

// writeError writes a plain JSON error with the given message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeStatusJSON(w, status, ErrorResponse{Error: message})
}

// writeJSON encodes v as JSON with a 200 status.
func writeJSON(w http.ResponseWriter, v interface{}) {
	writeStatusJSON(w, http.StatusOK, v)
}

// writeStatusJSON encodes v as JSON with the given status code.
// Encoding errors are logged since headers are already sent.
func writeStatusJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", "error", err)
	}
}
