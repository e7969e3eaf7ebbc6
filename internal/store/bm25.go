package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search"

	"github.com/kaipakiran/khoj/internal/errs"
)

// BleveBM25Index wraps bleve for BM25 keyword search over indexed files.
type BleveBM25Index struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	closed bool
}

// bleveDocument is the document shape stored in the bleve index.
//
// file_id is also indexed as a numeric field, while search hits are mapped
// back to file IDs by parsing the string document ID; path is untokenized
// (keyword) since it is matched
// exactly, not searched; filename and content use bleve's default analyzer.
type bleveDocument struct {
	FileID   int64  `json:"file_id"`
	Path     string `json:"path"`
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// validateIndexIntegrity checks if a bleve index is valid before opening.
func validateIndexIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing (corrupted index)")
	}
	if err != nil {
		return fmt.Errorf("cannot stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json is empty (corrupted)")
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}
	return nil
}

func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "unexpected end of JSON") ||
		strings.Contains(errStr, "error parsing mapping JSON") ||
		strings.Contains(errStr, "failed to load segment") ||
		strings.Contains(errStr, "error opening bolt") ||
		strings.Contains(errStr, "no such file or directory") ||
		err == bleve.ErrorIndexMetaCorrupt
}

// NewBleveBM25Index creates or opens a BM25 index at path. If path is empty,
// an in-memory index is created (used by tests).
func NewBleveBM25Index(path string) (*BleveBM25Index, error) {
	indexMapping := createIndexMapping()

	var idx bleve.Index
	var err error
	if path == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		dir := filepath.Dir(path)
		if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, mkErr)
		}

		if validErr := validateIndexIntegrity(path); validErr != nil {
			slog.Warn("bm25_index_corrupted", slog.String("path", path), slog.String("error", validErr.Error()))
			if removeErr := os.RemoveAll(path); removeErr != nil {
				return nil, fmt.Errorf("index corrupted at %s and cannot remove: %w (original error: %v)", path, removeErr, validErr)
			}
			slog.Info("bm25_index_cleared", slog.String("path", path), slog.String("reason", "corruption detected, reindexing"))
		}

		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, indexMapping)
		} else if err != nil && isCorruptionError(err) {
			slog.Warn("bm25_index_open_failed", slog.String("path", path), slog.String("error", err.Error()))
			if removeErr := os.RemoveAll(path); removeErr != nil {
				return nil, fmt.Errorf("index corrupted, cannot clear: %w (original: %v)", removeErr, err)
			}
			idx, err = bleve.New(path, indexMapping)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create/open index: %w", err)
	}

	return &BleveBM25Index{index: idx, path: path}, nil
}

func createIndexMapping() *mapping.IndexMappingImpl {
	m := bleve.NewIndexMapping()

	pathMapping := bleve.NewDocumentMapping()
	keywordField := bleve.NewTextFieldMapping()
	keywordField.Analyzer = "keyword"
	keywordField.IncludeInAll = false
	pathMapping.AddFieldMappingsAt("path", keywordField)

	numericField := bleve.NewNumericFieldMapping()
	pathMapping.AddFieldMappingsAt("file_id", numericField)

	m.DefaultMapping = pathMapping
	return m
}

// Index adds or replaces documents in the index.
func (b *BleveBM25Index) Index(ctx context.Context, docs []*Document) error {
	if len(docs) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("index is closed")
	}

	batch := b.index.NewBatch()
	for _, doc := range docs {
		id := strconv.FormatInt(doc.FileID, 10)
		bd := bleveDocument{FileID: doc.FileID, Path: doc.Path, Filename: doc.Filename, Content: doc.Content}
		if err := batch.Index(id, bd); err != nil {
			return fmt.Errorf("failed to index document %d: %w", doc.FileID, err)
		}
	}

	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}
	return nil
}

// Search returns documents matching query, scored by BM25 over filename and content.
func (b *BleveBM25Index) Search(ctx context.Context, queryStr string, limit int) ([]*BM25Result, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("index is closed")
	}

	if strings.TrimSpace(queryStr) == "" {
		return []*BM25Result{}, nil
	}

	// query_string gives the library's default term/phrase/boolean syntax
	// (`"exact phrase"`, `+must -mustnot`, `field:term`), matching
	// tantivy_index.rs's query_parser.parse_query. A malformed query fails
	// to parse inside Searcher() below, which SearchInContext surfaces as
	// an error rather than silently degrading to a literal-term match.
	q := bleve.NewQueryStringQuery(queryStr)

	req := bleve.NewSearchRequest(q)
	req.Size = limit
	req.IncludeLocations = true

	result, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, errs.SearchIndex(fmt.Sprintf("query %q", queryStr), err)
	}

	results := make([]*BM25Result, 0, len(result.Hits))
	for _, hit := range result.Hits {
		fileID, err := strconv.ParseInt(hit.ID, 10, 64)
		if err != nil {
			continue
		}
		results = append(results, &BM25Result{
			FileID:       fileID,
			Score:        hit.Score,
			MatchedTerms: extractMatchedTerms(hit),
		})
	}
	return results, nil
}

// Delete removes documents from the index.
func (b *BleveBM25Index) Delete(ctx context.Context, fileIDs []int64) error {
	if len(fileIDs) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return fmt.Errorf("index is closed")
	}

	batch := b.index.NewBatch()
	for _, id := range fileIDs {
		batch.Delete(strconv.FormatInt(id, 10))
	}

	if err := b.index.Batch(batch); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return nil
}

// AllIDs returns all file IDs currently in the index.
func (b *BleveBM25Index) AllIDs() ([]int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return nil, fmt.Errorf("index is closed")
	}

	query := bleve.NewMatchAllQuery()
	docCount, _ := b.index.DocCount()

	req := bleve.NewSearchRequest(query)
	req.Size = int(docCount)
	req.Fields = []string{}

	result, err := b.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search for all IDs: %w", err)
	}

	ids := make([]int64, 0, len(result.Hits))
	for _, hit := range result.Hits {
		if id, err := strconv.ParseInt(hit.ID, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// Stats returns index statistics.
func (b *BleveBM25Index) Stats() *BM25Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return &BM25Stats{}
	}

	docCount, _ := b.index.DocCount()
	return &BM25Stats{DocumentCount: int(docCount)}
}

// Close closes the underlying bleve index.
func (b *BleveBM25Index) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	if b.index != nil {
		return b.index.Close()
	}
	return nil
}

func extractMatchedTerms(hit *search.DocumentMatch) []string {
	terms := make(map[string]struct{})
	for field, locations := range hit.Locations {
		if field == "content" || field == "filename" {
			for term := range locations {
				terms[term] = struct{}{}
			}
		}
	}

	result := make([]string, 0, len(terms))
	for term := range terms {
		result = append(result, term)
	}
	return result
}

var _ BM25Index = (*BleveBM25Index)(nil)
