package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/parserpotato/ingest/internal/ingest"
	"github.com/parserpotato/ingest/internal/logging"
)

// handleRoot returns a small service descriptor.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message":      "Welcome to Parser Potato API",
		"docs_url":     "/docs",
		"health_check": "/api/health",
	})
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleUpload accepts a multipart "file" field and runs the ingestion
// pipeline synchronously. The file is streamed to the pipeline, never
// buffered whole (except in JSON-array mode, which the reader documents).
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	if header.Size == 0 {
		writeError(w, r, http.StatusBadRequest, "File is empty")
		return
	}

	logging.FromContext(r.Context()).Info("processing file upload",
		"filename", header.Filename, "size", header.Size)

	report, err := s.runner.Run(r.Context(), header.Filename, file)
	if err != nil {
		s.respondUploadError(w, r, err)
		return
	}

	observeUpload(report)
	writeJSON(w, http.StatusOK, report)
}

// respondUploadError maps pipeline failures to HTTP statuses: client-caused
// (unsupported type, malformed input) to 400, everything else to 500.
func (s *Server) respondUploadError(w http.ResponseWriter, r *http.Request, err error) {
	var formatErr *ingest.FormatError
	switch {
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.As(err, &formatErr):
		writeError(w, r, http.StatusBadRequest, err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, fmt.Sprintf("Error processing file: %v", err))
	}
}
