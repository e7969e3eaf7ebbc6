// Package httpapi exposes the query engine over HTTP: GET /api/search,
// GET /api/stats, and GET /api/file/:id, routed with chi.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kaipakiran/khoj/internal/query"
	"github.com/kaipakiran/khoj/internal/store"
)

// Server serves the search HTTP API over a single index.
type Server struct {
	engine      *query.Engine
	metadata    store.MetadataStore
	indexPath   string
	hasKeyword  bool
	hasSemantic bool
}

// NewServer constructs a Server. hasSemantic reflects whether a text
// embedder was wired into engine (i.e. whether semantic=1 is honored).
func NewServer(engine *query.Engine, metadata store.MetadataStore, indexPath string, hasSemantic bool) *Server {
	return &Server{
		engine:      engine,
		metadata:    metadata,
		indexPath:   indexPath,
		hasKeyword:  true,
		hasSemantic: hasSemantic,
	}
}

// Router builds the chi router for the API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/api/search", s.handleSearch)
	r.Get("/api/stats", s.handleStats)
	r.Get("/api/file/{id}", s.handleFile)

	return r
}

const indexHTML = `<!DOCTYPE html>
<html>
<head><title>khoj</title></head>
<body>
<h1>khoj</h1>
<p>Search your files via <code>GET /api/search?q=...</code>.</p>
</body>
</html>
`

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(indexHTML))
}

type searchResponse struct {
	Query     string           `json:"query"`
	Documents []query.Document `json:"documents"`
	Images    []query.Image    `json:"images"`
	TookMS    int64            `json:"took_ms"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing required query parameter: q")
		return
	}

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	semantic := r.URL.Query().Get("semantic") == "1"
	keywordWeight := 0.5
	if v := r.URL.Query().Get("keyword_weight"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			keywordWeight = f
		}
	}

	if semantic && !s.hasSemantic {
		writeError(w, http.StatusBadRequest, "semantic search requested but no embedding model is loaded")
		return
	}

	count, err := s.metadata.CountFiles(r.Context())
	if err != nil {
		slog.Error("count_files_failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to read index")
		return
	}
	if count == 0 {
		writeError(w, http.StatusNotFound, "no index found; run khoj index first")
		return
	}

	result, err := s.engine.Search(r.Context(), q, limit, semantic, keywordWeight)
	if err != nil {
		slog.Error("search_failed", slog.String("query", q), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:     result.Query,
		Documents: result.Documents,
		Images:    result.Images,
		TookMS:    result.TookMS,
	})
}

type statsResponse struct {
	TotalFiles       int    `json:"total_files"`
	IndexLocation    string `json:"index_location"`
	HasKeywordIndex  bool   `json:"has_keyword_index"`
	HasSemanticIndex bool   `json:"has_semantic_index"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.metadata.Stats(r.Context())
	if err != nil {
		slog.Error("stats_failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "failed to read stats")
		return
	}
	if stats.TotalFiles == 0 {
		writeError(w, http.StatusNotFound, "no index found; run khoj index first")
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		TotalFiles:       stats.TotalFiles,
		IndexLocation:    s.indexPath,
		HasKeywordIndex:  s.hasKeyword,
		HasSemanticIndex: s.hasSemantic,
	})
}

func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid file id")
		return
	}

	f, err := s.metadata.GetFile(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}

	data, err := os.ReadFile(f.Path)
	if err != nil {
		writeError(w, http.StatusNotFound, "file not found on disk")
		return
	}

	mimeType := f.MimeType
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", `inline; filename="`+f.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
