// Package walker enumerates candidate files under a root directory,
// honoring ignore files and a privacy profile of exclusion rules.
package walker

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/kaipakiran/khoj/internal/classify"
	"github.com/kaipakiran/khoj/internal/gitignore"
	"github.com/kaipakiran/khoj/internal/store"
)

// gitignoreCacheSize bounds the number of per-directory ignore matchers held
// in memory during a single walk.
const gitignoreCacheSize = 1000

// defaultMaxFileSize is used when the profile leaves MaxFileSize unset.
const defaultMaxFileSize = 10 * 1024 * 1024

// Profile is the privacy profile governing a walk: which paths are
// excluded, whether ancestor ignore files are honored, and the largest file
// that will be emitted.
type Profile struct {
	ExcludePatterns    []string
	RespectIgnoreFiles bool
	MaxFileSize        int64
}

// Entry is a single file the walker decided to surface.
type Entry struct {
	Path string // relative to the walk root
	Kind store.Kind
	Size int64
}

// Walker traverses a filesystem subtree applying Profile rules.
type Walker struct {
	ignoreCache *lru.Cache[string, *gitignore.Matcher]
}

// New creates a Walker with its ignore-file cache.
func New() (*Walker, error) {
	cache, err := lru.New[string, *gitignore.Matcher](gitignoreCacheSize)
	if err != nil {
		return nil, err
	}
	return &Walker{ignoreCache: cache}, nil
}

// Walk streams Entry values for every indexable file under root. The
// channel closes when the walk completes or ctx is canceled. Permission
// errors on individual entries are skipped silently; any other I/O error
// aborts the walk and is sent once on the error channel; both channels are
// closed when the walk ends. A walk stopped by context.Canceled sends no error.
func (w *Walker) Walk(ctx context.Context, root string, profile Profile) (<-chan Entry, <-chan error) {
	entries := make(chan Entry, 64)
	errc := make(chan error, 1)

	maxFileSize := profile.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = defaultMaxFileSize
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		errc <- err
		close(entries)
		close(errc)
		return entries, errc
	}

	go func() {
		defer close(entries)
		defer close(errc)

		walkErr := filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			if err != nil {
				if os.IsPermission(err) {
					slog.Debug("permission denied", slog.String("path", path))
					if d != nil && d.IsDir() {
						return fs.SkipDir
					}
					return nil
				}
				return err
			}

			relPath, err := filepath.Rel(absRoot, path)
			if err != nil {
				return err
			}
			if relPath == "." {
				return nil
			}
			relPath = filepath.ToSlash(relPath)

			if d.IsDir() {
				return nil
			}

			if w.matchesAnyExclude(relPath, profile.ExcludePatterns) {
				return nil
			}

			if profile.RespectIgnoreFiles && w.isIgnored(absRoot, path, relPath) {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				if os.IsPermission(err) {
					return nil
				}
				return err
			}

			kind := classify.Kind(path)
			if kind == store.KindArchive {
				return nil
			}
			if info.Size() > maxFileSize {
				return nil
			}

			select {
			case entries <- Entry{Path: relPath, Kind: kind, Size: info.Size()}:
			case <-ctx.Done():
				return ctx.Err()
			}
			return nil
		})

		if walkErr != nil && walkErr != context.Canceled {
			errc <- walkErr
		}
	}()

	return entries, errc
}

// matchesAnyExclude applies the glob-lite pattern language: "**/X" matches
// any path containing segment X, "**/*.E" matches any path ending in ".E",
// "**X" matches a path suffix, and anything else is a plain substring match.
func (w *Walker) matchesAnyExclude(relPath string, patterns []string) bool {
	for _, p := range patterns {
		if matchPattern(relPath, p) {
			return true
		}
	}
	return false
}

func matchPattern(relPath, pattern string) bool {
	switch {
	case strings.HasPrefix(pattern, "**/*."):
		suffix := strings.TrimPrefix(pattern, "**/*")
		return strings.HasSuffix(relPath, suffix)
	case strings.HasPrefix(pattern, "**/"):
		segment := strings.TrimPrefix(pattern, "**/")
		for _, part := range strings.Split(relPath, "/") {
			if part == segment {
				return true
			}
		}
		return false
	case strings.HasPrefix(pattern, "**"):
		suffix := strings.TrimPrefix(pattern, "**")
		return strings.HasSuffix(relPath, suffix)
	default:
		return strings.Contains(relPath, pattern)
	}
}

// isIgnored reports whether relPath matches any ancestor .gitignore or
// .searchignore from the walk root down to its containing directory.
func (w *Walker) isIgnored(absRoot, path, relPath string) bool {
	dir := filepath.Dir(path)
	relDir, err := filepath.Rel(absRoot, dir)
	if err != nil {
		return false
	}
	if relDir == "." {
		relDir = ""
	}

	var parts []string
	if relDir != "" {
		parts = strings.Split(relDir, string(filepath.Separator))
	}

	currentDir := absRoot
	currentBase := ""
	if m := w.matcherFor(currentDir, ""); m != nil && m.Match(relPath, false) {
		return true
	}
	for _, part := range parts {
		currentDir = filepath.Join(currentDir, part)
		if currentBase == "" {
			currentBase = part
		} else {
			currentBase = filepath.Join(currentBase, part)
		}
		if m := w.matcherFor(currentDir, currentBase); m != nil && m.Match(relPath, false) {
			return true
		}
	}
	return false
}

var ignoreFileNames = []string{".gitignore", ".searchignore"}

func (w *Walker) matcherFor(dir, base string) *gitignore.Matcher {
	if m, ok := w.ignoreCache.Get(dir); ok {
		return m
	}

	var matcher *gitignore.Matcher
	for _, name := range ignoreFileNames {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if matcher == nil {
			matcher = gitignore.New()
		}
		if err := matcher.AddFromFile(p, base); err != nil {
			slog.Debug("failed to parse ignore file", slog.String("path", p), slog.Any("error", err))
		}
	}

	w.ignoreCache.Add(dir, matcher)
	return matcher
}
