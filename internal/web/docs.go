package web

import (
	"embed"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/russross/blackfriday/v2"
)

//go:embed docs
var docFiles embed.FS

// docPages allowlists the markdown documents served under /docs/static/.
var docPages = map[string]string{
	"readme.md":       "docs/README.md",
	"architecture.md": "docs/ARCHITECTURE.md",
}

// handleOpenAPI serves the OpenAPI description of the service.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	data, err := docFiles.ReadFile("docs/openapi.json")
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "documentation unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// handleDocIndex lists the available documents.
func (s *Server) handleDocIndex(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(docPages))
	for name := range docPages {
		names = append(names, name)
	}
	sort.Strings(names)
	writeJSON(w, http.StatusOK, map[string]any{"documents": names})
}

// handleDocPage renders an allowlisted markdown document as HTML.
func (s *Server) handleDocPage(w http.ResponseWriter, r *http.Request) {
	name := strings.ToLower(chi.URLParam(r, "filename"))
	path, ok := docPages[name]
	if !ok {
		writeError(w, r, http.StatusNotFound, "unknown document")
		return
	}

	data, err := docFiles.ReadFile(path)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "documentation unavailable")
		return
	}

	body := blackfriday.Run(data)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "<!DOCTYPE html>\n<html><head><title>Parser Potato</title></head><body>\n%s</body></html>\n", body)
}
