// Package store provides metadata/content persistence (SQLite), the BM25
// inverted index (bleve), and the flat exact-search vector store.
package store

import (
	"context"
	"fmt"
	"time"
)

// Kind identifies the coarse classification of a file.
type Kind string

const (
	KindText     Kind = "text"
	KindCode     Kind = "code"
	KindMarkdown Kind = "markdown"
	KindPDF      Kind = "pdf"
	KindDocx     Kind = "docx"
	KindXlsx     Kind = "xlsx"
	KindImage    Kind = "image"
	KindArchive  Kind = "archive"
	KindUnknown  Kind = "unknown"
)

// String returns the wire/storage form of the kind.
func (k Kind) String() string {
	if k == "" {
		return string(KindUnknown)
	}
	return string(k)
}

// KindFromString parses a stored kind string back into a Kind, preserving
// the "code" branch rather than collapsing it into "text".
func KindFromString(s string) Kind {
	switch Kind(s) {
	case KindText, KindCode, KindMarkdown, KindPDF, KindDocx, KindXlsx, KindImage, KindArchive:
		return Kind(s)
	default:
		return KindUnknown
	}
}

// File is the metadata row for a single tracked file.
type File struct {
	ID          int64 // surrogate key, stable across reindex
	Path        string
	Filename    string
	Size        int64
	Kind        Kind
	MimeType    string
	ContentHash string // sha256 hex digest of file bytes
	CreatedAt   time.Time
	ModifiedAt  time.Time
	IndexedAt   time.Time
}

// Content is the 1:1 extracted-text row for a File.
type Content struct {
	FileID    int64
	Text      string
	WordCount int
	Language  string // only meaningful for Kind == KindCode
}

// IndexStats summarizes the state of an index for CLI/HTTP reporting.
type IndexStats struct {
	TotalFiles int
	TotalSize  int64
	ByKind     map[Kind]int
}

// MetadataStore persists File and Content rows in SQLite.
type MetadataStore interface {
	UpsertFile(ctx context.Context, f *File) (int64, error)
	UpsertContent(ctx context.Context, c *Content) error

	GetFile(ctx context.Context, id int64) (*File, error)
	GetFileByPath(ctx context.Context, path string) (*File, error)
	GetContent(ctx context.Context, fileID int64) (*Content, error)

	// NeedsReindex reports whether the on-disk file (by content hash) differs
	// from the last indexed hash for path, or is not yet indexed at all.
	NeedsReindex(ctx context.Context, path, contentHash string) (bool, error)

	ListFiles(ctx context.Context, limit, offset int) ([]*File, error)
	CountFiles(ctx context.Context) (int, error)
	Stats(ctx context.Context) (*IndexStats, error)

	// DeleteFile removes the file row; Content cascades via foreign key.
	DeleteFile(ctx context.Context, id int64) error

	Close() error
}

// Document is a single unit indexed into the inverted index.
type Document struct {
	FileID   int64
	Path     string
	Filename string
	Content  string
}

// BM25Result is a single keyword-search hit.
type BM25Result struct {
	FileID       int64
	Score        float64
	MatchedTerms []string
}

// BM25Stats reports inverted-index size.
type BM25Stats struct {
	DocumentCount int
}

// BM25Index provides keyword search using the BM25 ranking algorithm.
type BM25Index interface {
	Index(ctx context.Context, docs []*Document) error
	Search(ctx context.Context, query string, limit int) ([]*BM25Result, error)
	Delete(ctx context.Context, fileIDs []int64) error
	AllIDs() ([]int64, error)
	Stats() *BM25Stats
	Close() error
}

// VectorResult is a single semantic-search hit.
type VectorResult struct {
	FileID int64
	Score  float32 // cosine similarity, [-1, 1]
}

// VectorStore provides exact nearest-neighbor search over unit-norm vectors.
// Deliberately flat (no ANN structure) — see DESIGN.md.
type VectorStore interface {
	Upsert(ctx context.Context, fileID int64, embedding []float32) error
	Search(ctx context.Context, query []float32, limit int) ([]*VectorResult, error)
	Delete(ctx context.Context, fileID int64) error
	Len() int
	Dimension() int
	Save(path string) error
	Load(path string) error
	Close() error
}

// ErrDimensionMismatch indicates a vector was presented with the wrong
// dimensionality for the store it was upserted or searched against.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("vector dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}
