package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kaipakiran/khoj/internal/config"
	"github.com/kaipakiran/khoj/internal/embed"
	"github.com/kaipakiran/khoj/internal/embedpool"
	"github.com/kaipakiran/khoj/internal/query"
	"github.com/kaipakiran/khoj/internal/store"
)

// cliPrinter writes status/success/warning/error lines to a command's
// output stream, used by every CLI subcommand for consistent formatting.
// Long-running progress reporting (the `khoj index --verbose` case) goes
// through internal/progress instead; this type only ever prints single
// lines.
type cliPrinter struct {
	out io.Writer
}

func newPrinter(out io.Writer) *cliPrinter {
	return &cliPrinter{out: out}
}

// Status prints a line with an icon, or indented if icon is empty.
func (p *cliPrinter) Status(icon, msg string) {
	if icon != "" {
		fmt.Fprintf(p.out, "%s %s\n", icon, msg)
	} else {
		fmt.Fprintf(p.out, "   %s\n", msg)
	}
}

func (p *cliPrinter) Statusf(icon, format string, args ...any) {
	p.Status(icon, fmt.Sprintf(format, args...))
}

func (p *cliPrinter) Success(msg string) { p.Status("✅", msg) }

func (p *cliPrinter) Successf(format string, args ...any) {
	p.Success(fmt.Sprintf(format, args...))
}

func (p *cliPrinter) Warning(msg string) { p.Status("⚠️ ", msg) }

func (p *cliPrinter) Warningf(format string, args ...any) {
	p.Warning(fmt.Sprintf(format, args...))
}

func (p *cliPrinter) Error(msg string) { p.Status("❌", msg) }

func (p *cliPrinter) Errorf(format string, args ...any) {
	p.Error(fmt.Sprintf(format, args...))
}

const (
	textDimension  = embed.TextDimension
	imageDimension = embed.ImageDimension
)

// indexStores bundles the on-disk stores a single index directory holds.
type indexStores struct {
	Metadata     store.MetadataStore
	BM25         store.BM25Index
	Vectors      store.VectorStore
	ImageVectors store.VectorStore
}

// openStores opens (without requiring prior existence) the metadata,
// BM25, and vector stores rooted at cfg.Storage.IndexPath, loading the
// vector store files from disk if present.
func openStores(cfg *config.Config) (*indexStores, error) {
	indexPath := cfg.Storage.IndexPath

	metadata, err := store.NewSQLiteMetadataStore(filepath.Join(indexPath, "db.sqlite"))
	if err != nil {
		return nil, fmt.Errorf("open metadata store: %w", err)
	}

	bm25, err := store.NewBleveBM25Index(filepath.Join(indexPath, "bleve"))
	if err != nil {
		metadata.Close()
		return nil, fmt.Errorf("open bm25 index: %w", err)
	}

	vectors := store.NewFlatVectorStore(textDimension)
	vectorsPath := filepath.Join(indexPath, "vectors.json")
	if _, err := os.Stat(vectorsPath); err == nil {
		if err := vectors.Load(vectorsPath); err != nil {
			bm25.Close()
			metadata.Close()
			return nil, fmt.Errorf("load vector store: %w", err)
		}
	}

	imageVectors := store.NewFlatVectorStore(imageDimension)
	imageVectorsPath := filepath.Join(indexPath, "image_vectors.json")
	if _, err := os.Stat(imageVectorsPath); err == nil {
		if err := imageVectors.Load(imageVectorsPath); err != nil {
			bm25.Close()
			metadata.Close()
			return nil, fmt.Errorf("load image vector store: %w", err)
		}
	}

	return &indexStores{Metadata: metadata, BM25: bm25, Vectors: vectors, ImageVectors: imageVectors}, nil
}

func (s *indexStores) Close() {
	s.BM25.Close()
	s.Metadata.Close()
}

// embedders bundles the optional ONNX-backed embedders used for semantic
// search and indexing. A nil field means the corresponding model files
// weren't found under the standard model search paths.
type embedders struct {
	Text     *embedpool.TextPool
	Image    *embedpool.ImagePool
	ClipText *embedpool.ClipTextPool
}

func (e *embedders) Close() {
	if e.Text != nil {
		e.Text.Close()
	}
	if e.Image != nil {
		e.Image.Close()
	}
	if e.ClipText != nil {
		e.ClipText.Close()
	}
}

// HasText reports whether semantic text search/embedding is available.
func (e *embedders) HasText() bool {
	return e != nil && e.Text != nil
}

// loadEmbedders locates and loads whichever embedding models are present
// on disk. It never errors on a missing model; embedders for models that
// can't be found are left nil so callers fall back to keyword-only search.
func loadEmbedders() (*embedders, error) {
	out := &embedders{}

	if modelPath, tokenizerPath, ok := embed.TextModelFiles(); ok {
		e, err := embed.NewTextEmbedder(modelPath, tokenizerPath)
		if err != nil {
			return nil, fmt.Errorf("load text embedder: %w", err)
		}
		out.Text = embedpool.NewTextPool(e, 1)
	}

	if modelPath, ok := embed.ClipImageModelFile(); ok {
		e, err := embed.NewImageEmbedder(modelPath)
		if err != nil {
			out.Close()
			return nil, fmt.Errorf("load image embedder: %w", err)
		}
		out.Image = embedpool.NewImagePool(e, 1)
	}

	if modelPath, tokenizerPath, ok := embed.ClipTextModelFiles(); ok {
		e, err := embed.NewClipTextEmbedder(modelPath, tokenizerPath)
		if err != nil {
			out.Close()
			return nil, fmt.Errorf("load clip text embedder: %w", err)
		}
		out.ClipText = embedpool.NewClipTextPool(e, 1)
	}

	return out, nil
}

// buildEngine wires stores and embedders into a query engine.
func buildEngine(s *indexStores, e *embedders) (*query.Engine, error) {
	deps := query.Dependencies{
		Metadata:     s.Metadata,
		BM25:         s.BM25,
		Vectors:      s.Vectors,
		ImageVectors: s.ImageVectors,
	}
	if e.Text != nil {
		deps.TextEmbedder = e.Text
	}
	if e.ClipText != nil {
		deps.ClipTextEmbedder = e.ClipText
	}
	return query.New(deps)
}

func loadConfig() (*config.Config, error) {
	dir, err := filepathAbs(".")
	if err != nil {
		return nil, err
	}
	return config.Load(dir)
}

func filepathAbs(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", path, err)
	}
	return abs, nil
}
