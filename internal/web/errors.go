package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/parserpotato/ingest/internal/logging"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already out; nothing to do but log.
		slog.Error("encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	logging.FromContext(r.Context()).Warn("request failed",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", msg)
	writeJSON(w, status, errorResponse{Error: msg})
}
