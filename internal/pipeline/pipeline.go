// Package pipeline implements the indexing pipeline: walk the filesystem,
// extract metadata and content for every discovered file, and fan the
// result out to the metadata store, the inverted index, and the vector
// stores. The orchestration shape — one object owning every store plus a
// single Run(ctx) entry point — follows the teacher's indexing runner.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/kaipakiran/khoj/internal/errs"
	"github.com/kaipakiran/khoj/internal/extract"
	"github.com/kaipakiran/khoj/internal/progress"
	"github.com/kaipakiran/khoj/internal/store"
	"github.com/kaipakiran/khoj/internal/walker"
)

// textEmbedMaxChars bounds how much of a document's text is sent to the
// text embedder: "embed on the first min(5000, |text|) characters".
const textEmbedMaxChars = 5000

// TextEmbedder produces a text embedding; satisfied by *embedpool.TextPool.
type TextEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ImageEmbedder produces an image embedding from a file path; satisfied by
// *embedpool.ImagePool.
type ImageEmbedder interface {
	EmbedFile(ctx context.Context, path string) ([]float32, error)
}

// Dependencies are the stores and adapters a Pipeline orchestrates. Text
// and Image embedders are optional: when nil, the corresponding vector
// upsert step is skipped entirely and the file is still indexed by BM25.
type Dependencies struct {
	Walker        *walker.Walker
	Metadata      store.MetadataStore
	BM25          store.BM25Index
	Vectors       store.VectorStore
	ImageVectors  store.VectorStore
	TextEmbedder  TextEmbedder
	ImageEmbedder ImageEmbedder
	Reporter      progress.Reporter
}

// Pipeline runs a single indexing pass over a root directory.
type Pipeline struct {
	deps Dependencies
}

// New constructs a Pipeline from its dependencies.
func New(deps Dependencies) (*Pipeline, error) {
	if deps.Walker == nil {
		return nil, fmt.Errorf("pipeline: walker is required")
	}
	if deps.Metadata == nil {
		return nil, fmt.Errorf("pipeline: metadata store is required")
	}
	if deps.BM25 == nil {
		return nil, fmt.Errorf("pipeline: bm25 index is required")
	}
	if deps.Vectors == nil {
		return nil, fmt.Errorf("pipeline: vector store is required")
	}
	return &Pipeline{deps: deps}, nil
}

// reporter returns the configured progress reporter, or a no-op one.
func (p *Pipeline) reporter() progress.Reporter {
	if p.deps.Reporter != nil {
		return p.deps.Reporter
	}
	return progress.NoopReporter{}
}

// Stats summarizes the outcome of a Run for CLI/HTTP reporting.
type Stats struct {
	FilesScanned  int
	FilesIndexed  int
	FilesSkipped  int
	FilesEmbedded int
	Duration      time.Duration
}

// Run walks root under profile, indexes every discovered file, and commits
// the inverted index and saves the vector stores at the end of the run.
// Run acquires an exclusive lock on dataDir for its duration (via
// gofrs/flock), guarding against two concurrent `khoj index` invocations
// racing on the same on-disk index.
func (p *Pipeline) Run(ctx context.Context, root, dataDir string, profile walker.Profile) (*Stats, error) {
	start := time.Now()

	lockPath := filepath.Join(dataDir, ".index.lock")
	fl := flock.New(lockPath)
	locked, err := fl.TryLockContext(ctx, 200*time.Millisecond)
	if err != nil {
		return nil, errs.Io("acquire index lock", err)
	}
	if !locked {
		return nil, errs.New(errs.KindOther, "another index run holds the lock on "+dataDir)
	}
	defer fl.Unlock()

	stats := &Stats{}

	entries, errc := p.deps.Walker.Walk(ctx, root, profile)
	var docs []*store.Document

	for entry := range entries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		stats.FilesScanned++
		absPath := filepath.Join(root, filepath.FromSlash(entry.Path))

		p.reporter().Update(progress.Event{Stage: progress.StageIndexing, Current: stats.FilesScanned, CurrentFile: entry.Path})

		doc, embedded, err := p.indexFile(ctx, absPath, entry.Path, entry.Kind)
		if err != nil {
			slog.Warn("index_file_skipped", slog.String("path", entry.Path), slog.Any("error", err))
			stats.FilesSkipped++
			continue
		}
		stats.FilesIndexed++
		if embedded {
			stats.FilesEmbedded++
		}
		if doc != nil {
			docs = append(docs, doc)
		}
	}

	if walkErr := <-errc; walkErr != nil {
		return nil, errs.Io("walk root", walkErr)
	}

	if len(docs) > 0 {
		if err := p.deps.BM25.Index(ctx, docs); err != nil {
			return nil, errs.SearchIndex("index documents", err)
		}
	}

	if err := p.deps.Vectors.Save(filepath.Join(dataDir, "vectors.json")); err != nil {
		return nil, errs.Io("save vector store", err)
	}
	if p.deps.ImageVectors != nil && p.deps.ImageVectors.Len() > 0 {
		if err := p.deps.ImageVectors.Save(filepath.Join(dataDir, "image_vectors.json")); err != nil {
			return nil, errs.Io("save image vector store", err)
		}
	}

	stats.Duration = time.Since(start)
	slog.Info("index_complete",
		slog.Int("scanned", stats.FilesScanned),
		slog.Int("indexed", stats.FilesIndexed),
		slog.Int("skipped", stats.FilesSkipped),
		slog.Int("embedded", stats.FilesEmbedded),
		slog.String("duration", stats.Duration.String()))

	p.reporter().Done(fmt.Sprintf("indexed %d files (%d skipped, %d embedded) in %s",
		stats.FilesIndexed, stats.FilesSkipped, stats.FilesEmbedded, stats.Duration.Round(10*time.Millisecond)))

	return stats, nil
}

// indexFile runs steps 1-3 of the indexing pipeline for a single file. It
// returns the BM25 document to index (nil if none), whether a vector
// embedding was produced, and an error only when the file should be
// counted as skipped — metadata is upserted regardless, so a skip never
// loses the File row.
func (p *Pipeline) indexFile(ctx context.Context, absPath, relPath string, kind store.Kind) (*store.Document, bool, error) {
	meta, err := extract.Metadata(absPath, relPath)
	if err != nil {
		return nil, false, err
	}

	needsReindex, err := p.deps.Metadata.NeedsReindex(ctx, meta.Path, meta.ContentHash)
	if err != nil {
		return nil, false, errs.Database("check reindex", err)
	}

	fileID, err := p.deps.Metadata.UpsertFile(ctx, meta)
	if err != nil {
		return nil, false, errs.Database("upsert file", err)
	}
	meta.ID = fileID

	if !needsReindex {
		// Content hash unchanged since the last index run: the BM25 entry
		// and any stored vector for this file are already current, so
		// re-extraction and re-embedding would be wasted work.
		return nil, false, nil
	}

	if kind == store.KindImage {
		return p.indexImage(ctx, absPath, meta)
	}

	content, err := extract.Content(absPath, kind)
	if err != nil {
		return nil, false, err
	}
	content.FileID = fileID

	if err := p.deps.Metadata.UpsertContent(ctx, content); err != nil {
		return nil, false, errs.Database("upsert content", err)
	}

	doc := &store.Document{
		FileID:   fileID,
		Path:     meta.Path,
		Filename: meta.Filename,
		Content:  content.Text,
	}

	embedded := false
	if p.deps.TextEmbedder != nil {
		text := content.Text
		if runes := []rune(text); len(runes) > textEmbedMaxChars {
			text = string(runes[:textEmbedMaxChars])
		}
		vec, err := p.deps.TextEmbedder.Embed(ctx, text)
		if err != nil {
			slog.Debug("text_embed_failed", slog.String("path", relPath), slog.Any("error", err))
		} else if err := p.deps.Vectors.Upsert(ctx, fileID, vec); err != nil {
			return nil, false, errs.SearchIndex("upsert vector", err)
		} else {
			embedded = true
		}
	}

	return doc, embedded, nil
}

// indexImage handles step 3: embed the image into the image vector store
// and register a synthetic BM25 document so the file is findable by name
// even though its pixel content was never tokenized.
func (p *Pipeline) indexImage(ctx context.Context, absPath string, meta *store.File) (*store.Document, bool, error) {
	embedded := false
	if p.deps.ImageEmbedder != nil && p.deps.ImageVectors != nil {
		vec, err := p.deps.ImageEmbedder.EmbedFile(ctx, absPath)
		if err != nil {
			slog.Debug("image_embed_failed", slog.String("path", meta.Path), slog.Any("error", err))
		} else if err := p.deps.ImageVectors.Upsert(ctx, meta.ID, vec); err != nil {
			return nil, false, errs.SearchIndex("upsert image vector", err)
		} else {
			embedded = true
		}
	}

	doc := &store.Document{
		FileID:   meta.ID,
		Path:     meta.Path,
		Filename: meta.Filename,
		Content:  "image file: " + meta.Filename,
	}
	return doc, embedded, nil
}
