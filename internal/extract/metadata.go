// Package extract produces file metadata and extracted text content for
// the indexing pipeline.
package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"github.com/kaipakiran/khoj/internal/classify"
	"github.com/kaipakiran/khoj/internal/errs"
	"github.com/kaipakiran/khoj/internal/store"
)

// Metadata extracts {path, name, kind, mime, size, sha256, timestamps} for
// the file at absPath. It reads the file exactly once to compute the
// content hash over its full bytes. The returned File.Path is absPath
// itself — stored verbatim so it can be read back from any working
// directory, e.g. when the HTTP API serves the file by ID — while
// relPath only supplies the display name.
func Metadata(absPath, relPath string) (*store.File, error) {
	info, err := os.Stat(absPath)
	if err != nil {
		return nil, errs.Io("stat file", err)
	}

	contents, err := os.ReadFile(absPath)
	if err != nil {
		return nil, errs.Io("read file", err)
	}
	sum := sha256.Sum256(contents)

	created := creationTime(info)
	if created.IsZero() {
		created = info.ModTime()
	}
	if created.IsZero() {
		created = time.Now()
	}

	mimeType := mime.TypeByExtension(filepath.Ext(absPath))

	return &store.File{
		Path:        absPath,
		Filename:    filepath.Base(relPath),
		Size:        info.Size(),
		Kind:        classify.Kind(absPath),
		MimeType:    mimeType,
		ContentHash: hex.EncodeToString(sum[:]),
		CreatedAt:   created,
		ModifiedAt:  info.ModTime(),
		IndexedAt:   time.Now(),
	}, nil
}

// creationTime reports the filesystem's change-time as a stand-in for
// creation time: Linux has no portable birth-time field, so st_ctim (the
// closest available attribute) is used, matching the "fall back" intent of
// the modified/now chain that follows it.
func creationTime(info fs.FileInfo) time.Time {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return time.Time{}
	}
	return time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
}

// Hash computes the SHA-256 hex digest of a file's contents without
// constructing a full Metadata record; used by the pipeline's hash-gated
// reindex check.
func Hash(absPath string) (string, error) {
	contents, err := os.ReadFile(absPath)
	if err != nil {
		return "", errs.Io("read file", err)
	}
	sum := sha256.Sum256(contents)
	return hex.EncodeToString(sum[:]), nil
}
