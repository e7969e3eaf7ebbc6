package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kaipakiran/khoj/internal/retrieve"
	"github.com/kaipakiran/khoj/internal/store"
)

const snippetRadius = 100

// TextEmbedder embeds a query string into the text vector space.
type TextEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ClipTextEmbedder embeds a query string into the CLIP image vector space.
type ClipTextEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Dependencies are the stores and embedders an Engine orchestrates.
// ImageVectors, TextEmbedder and ClipTextEmbedder are optional: when nil,
// the corresponding step of the query is skipped.
type Dependencies struct {
	Metadata     store.MetadataStore
	BM25         store.BM25Index
	Vectors      store.VectorStore
	ImageVectors store.VectorStore

	TextEmbedder     TextEmbedder
	ClipTextEmbedder ClipTextEmbedder
}

// Engine runs hybrid queries against a single index.
type Engine struct {
	deps Dependencies
}

// New constructs an Engine from its dependencies.
func New(deps Dependencies) (*Engine, error) {
	if deps.Metadata == nil {
		return nil, fmt.Errorf("query: metadata store is required")
	}
	if deps.BM25 == nil {
		return nil, fmt.Errorf("query: bm25 index is required")
	}
	return &Engine{deps: deps}, nil
}

// Document is a single fused, snippet-enriched search result.
type Document struct {
	FileID   int64
	Path     string
	Filename string
	Score    float64
	Snippet  string
}

// Image is a single CLIP image-search result.
type Image struct {
	FileID   int64
	Path     string
	Filename string
	Score    float32
}

// Result is the complete answer to a query.
type Result struct {
	Query     string
	Documents []Document
	Images    []Image
	TookMS    int64
}

// Search runs the seven-step hybrid query: optional embedding, parallel
// BM25/vector search, RRF fusion, optional CLIP image search, snippet
// enrichment, and independent sort+cap of documents and images.
func (e *Engine) Search(ctx context.Context, q string, limit int, semantic bool, keywordWeight float64) (*Result, error) {
	start := time.Now()
	if limit <= 0 {
		limit = 20
	}

	var qText []float32
	var qClip []float32
	if semantic {
		if e.deps.TextEmbedder != nil {
			v, err := e.deps.TextEmbedder.Embed(ctx, q)
			if err != nil {
				return nil, fmt.Errorf("query: embed text query: %w", err)
			}
			qText = v
		}
		if e.deps.ClipTextEmbedder != nil {
			v, err := e.deps.ClipTextEmbedder.Embed(ctx, q)
			if err != nil {
				return nil, fmt.Errorf("query: embed clip query: %w", err)
			}
			qClip = v
		}
	}

	bm25Results, vectorResults, err := retrieve.SearchBoth(
		ctx,
		e.deps.BM25, q, 2*limit,
		e.deps.Vectors, qText, 2*limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query: search: %w", err)
	}

	hits := retrieve.Fuse(bm25Results, vectorResults, keywordWeight, limit)

	documents, err := e.resolveAndEnrich(ctx, hits, bm25Results, q)
	if err != nil {
		return nil, err
	}

	var images []Image
	if qClip != nil && e.deps.ImageVectors != nil && e.deps.ImageVectors.Len() > 0 {
		imgResults, err := e.deps.ImageVectors.Search(ctx, qClip, limit)
		if err != nil {
			return nil, fmt.Errorf("query: image search: %w", err)
		}
		images = e.resolveImages(ctx, imgResults)
	}

	sort.SliceStable(documents, func(i, j int) bool { return documents[i].Score > documents[j].Score })
	if len(documents) > limit {
		documents = documents[:limit]
	}
	sort.SliceStable(images, func(i, j int) bool { return images[i].Score > images[j].Score })
	if len(images) > limit {
		images = images[:limit]
	}

	return &Result{
		Query:     q,
		Documents: documents,
		Images:    images,
		TookMS:    time.Since(start).Milliseconds(),
	}, nil
}

// resolveAndEnrich re-attaches path/filename from the metadata store and
// computes a snippet for every fused hit. Keyword hits are not used as a
// source of path/filename, because BM25Result carries neither; every hit,
// keyword or semantic, costs a GetFile lookup. An ID the metadata store
// cannot resolve gets a placeholder filename rather than being dropped,
// preserving result length.
func (e *Engine) resolveAndEnrich(ctx context.Context, hits []retrieve.Hit, bm25Results []*store.BM25Result, q string) ([]Document, error) {
	byID := make(map[int64]*store.BM25Result, len(bm25Results))
	for _, r := range bm25Results {
		byID[r.FileID] = r
	}

	documents := make([]Document, 0, len(hits))
	for _, h := range hits {
		path, filename := "", ""
		if _, ok := byID[h.FileID]; ok {
			if f, err := e.deps.Metadata.GetFile(ctx, h.FileID); err == nil {
				path, filename = f.Path, f.Filename
			}
		} else if f, err := e.deps.Metadata.GetFile(ctx, h.FileID); err == nil {
			path, filename = f.Path, f.Filename
		}
		if filename == "" {
			filename = fmt.Sprintf("file_%d", h.FileID)
		}

		snippet := ""
		if c, err := e.deps.Metadata.GetContent(ctx, h.FileID); err == nil && c != nil {
			snippet = Snippet(c.Text, q, snippetRadius)
		}

		documents = append(documents, Document{
			FileID:   h.FileID,
			Path:     path,
			Filename: filename,
			Score:    h.Score,
			Snippet:  snippet,
		})
	}
	return documents, nil
}

func (e *Engine) resolveImages(ctx context.Context, results []*store.VectorResult) []Image {
	images := make([]Image, 0, len(results))
	for _, r := range results {
		path, filename := "", fmt.Sprintf("file_%d", r.FileID)
		if f, err := e.deps.Metadata.GetFile(ctx, r.FileID); err == nil {
			path, filename = f.Path, f.Filename
		}
		images = append(images, Image{FileID: r.FileID, Path: path, Filename: filename, Score: r.Score})
	}
	return images
}
