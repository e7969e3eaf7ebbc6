// Package embedpool pools ONNX embedding sessions so callers never share one
// across goroutines. An onnxruntime_go session is not safe for concurrent
// Run calls from multiple goroutines, the Go-idiom equivalent of the
// teacher's cross-process file lock around a single model instance
// (internal/embed/lock.go) — here generalized to an in-process semaphore
// since there is one process, not several, contending for the model.
package embedpool

import (
	"context"

	"github.com/kaipakiran/khoj/internal/embed"
	"github.com/kaipakiran/khoj/internal/errs"
)

// TextPool hands out exclusive, serialized access to a single TextEmbedder.
type TextPool struct {
	embedder *embed.TextEmbedder
	sem      chan struct{}
}

// NewTextPool wraps embedder with a single-slot semaphore (size is always 1
// since a *Session wraps one native handle; size is kept as a parameter so
// the pool could grow to hold multiple model instances without an API
// change).
func NewTextPool(embedder *embed.TextEmbedder, size int) *TextPool {
	if size < 1 {
		size = 1
	}
	return &TextPool{embedder: embedder, sem: make(chan struct{}, size)}
}

// Embed acquires the pool, runs the embedder, and releases it, honoring
// ctx cancellation while waiting for a slot.
func (p *TextPool) Embed(ctx context.Context, text string) ([]float32, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, errs.Wrap(errs.KindEmbedding, "wait for embedder slot", ctx.Err())
	}
	defer func() { <-p.sem }()

	return p.embedder.Embed(text)
}

// Close releases the underlying ONNX session.
func (p *TextPool) Close() error {
	return p.embedder.Close()
}

// ImagePool hands out exclusive access to a single ImageEmbedder.
type ImagePool struct {
	embedder *embed.ImageEmbedder
	sem      chan struct{}
}

// NewImagePool wraps embedder with a single-slot semaphore.
func NewImagePool(embedder *embed.ImageEmbedder, size int) *ImagePool {
	if size < 1 {
		size = 1
	}
	return &ImagePool{embedder: embedder, sem: make(chan struct{}, size)}
}

// EmbedFile acquires the pool, embeds the image file at path, and releases.
func (p *ImagePool) EmbedFile(ctx context.Context, path string) ([]float32, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, errs.Wrap(errs.KindEmbedding, "wait for embedder slot", ctx.Err())
	}
	defer func() { <-p.sem }()

	return p.embedder.EmbedFile(path)
}

// Close releases the underlying ONNX session.
func (p *ImagePool) Close() error {
	return p.embedder.Close()
}

// ClipTextPool hands out exclusive access to a single ClipTextEmbedder,
// used to embed a text query into the CLIP image space for image search.
type ClipTextPool struct {
	embedder *embed.ClipTextEmbedder
	sem      chan struct{}
}

// NewClipTextPool wraps embedder with a single-slot semaphore.
func NewClipTextPool(embedder *embed.ClipTextEmbedder, size int) *ClipTextPool {
	if size < 1 {
		size = 1
	}
	return &ClipTextPool{embedder: embedder, sem: make(chan struct{}, size)}
}

// Embed acquires the pool, embeds text into CLIP space, and releases.
func (p *ClipTextPool) Embed(ctx context.Context, text string) ([]float32, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, errs.Wrap(errs.KindEmbedding, "wait for embedder slot", ctx.Err())
	}
	defer func() { <-p.sem }()

	return p.embedder.Embed(text)
}

// Close releases the underlying ONNX session.
func (p *ClipTextPool) Close() error {
	return p.embedder.Close()
}
