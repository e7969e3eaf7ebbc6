package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kaipakiran/khoj/internal/errs"
	_ "modernc.org/sqlite"
)

const metadataSchema = `
CREATE TABLE IF NOT EXISTS files (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	path         TEXT NOT NULL UNIQUE,
	filename     TEXT NOT NULL,
	size         INTEGER NOT NULL,
	file_type    TEXT NOT NULL,
	mime_type    TEXT NOT NULL,
	hash         TEXT NOT NULL,
	created_at   DATETIME NOT NULL,
	modified_at  DATETIME NOT NULL,
	indexed_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS content (
	file_id    INTEGER PRIMARY KEY REFERENCES files(id) ON DELETE CASCADE,
	text       TEXT NOT NULL,
	word_count INTEGER NOT NULL,
	language   TEXT NOT NULL DEFAULT ''
);
`

// SQLiteMetadataStore persists File and Content rows, WAL-mode, single-writer.
type SQLiteMetadataStore struct {
	db *sql.DB
}

// NewSQLiteMetadataStore opens (creating if necessary) the metadata database at path.
func NewSQLiteMetadataStore(path string) (*SQLiteMetadataStore, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA cache_size=-65536",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma %q: %w", p, err)
		}
	}

	// single writer: modernc.org/sqlite serializes writes at the process
	// level anyway, but capping the pool avoids SQLITE_BUSY under WAL.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(metadataSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteMetadataStore{db: db}, nil
}

// UpsertFile inserts or updates the file row keyed by path, returning its stable ID.
func (s *SQLiteMetadataStore) UpsertFile(ctx context.Context, f *File) (int64, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO files (path, filename, size, file_type, mime_type, hash, created_at, modified_at, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			filename=excluded.filename,
			size=excluded.size,
			file_type=excluded.file_type,
			mime_type=excluded.mime_type,
			hash=excluded.hash,
			modified_at=excluded.modified_at,
			indexed_at=excluded.indexed_at
		RETURNING id
	`, f.Path, f.Filename, f.Size, f.Kind.String(), f.MimeType, f.ContentHash,
		f.CreatedAt.UTC(), f.ModifiedAt.UTC(), f.IndexedAt.UTC())

	var id int64
	if err := row.Scan(&id); err != nil {
		return 0, fmt.Errorf("upsert file %s: %w", f.Path, err)
	}
	return id, nil
}

// UpsertContent inserts or replaces the extracted content row for a file.
func (s *SQLiteMetadataStore) UpsertContent(ctx context.Context, c *Content) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO content (file_id, text, word_count, language)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(file_id) DO UPDATE SET
			text=excluded.text,
			word_count=excluded.word_count,
			language=excluded.language
	`, c.FileID, c.Text, c.WordCount, c.Language)
	if err != nil {
		return fmt.Errorf("upsert content for file %d: %w", c.FileID, err)
	}
	return nil
}

func scanFile(row interface{ Scan(...any) error }) (*File, error) {
	var f File
	var fileType string
	var created, modified, indexed time.Time
	if err := row.Scan(&f.ID, &f.Path, &f.Filename, &f.Size, &fileType, &f.MimeType, &f.ContentHash, &created, &modified, &indexed); err != nil {
		return nil, err
	}
	f.Kind = KindFromString(fileType)
	f.CreatedAt = created
	f.ModifiedAt = modified
	f.IndexedAt = indexed
	return &f, nil
}

// GetFile retrieves a file by its stable ID.
func (s *SQLiteMetadataStore) GetFile(ctx context.Context, id int64) (*File, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, path, filename, size, file_type, mime_type, hash, created_at, modified_at, indexed_at
		FROM files WHERE id = ?`, id)
	f, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("file %d: %w", id, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get file %d: %w", id, err)
	}
	return f, nil
}

// GetFileByPath retrieves a file by its path.
func (s *SQLiteMetadataStore) GetFileByPath(ctx context.Context, path string) (*File, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, path, filename, size, file_type, mime_type, hash, created_at, modified_at, indexed_at
		FROM files WHERE path = ?`, path)
	f, err := scanFile(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("file %s: %w", path, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get file %s: %w", path, err)
	}
	return f, nil
}

// GetContent retrieves the extracted content row for a file.
func (s *SQLiteMetadataStore) GetContent(ctx context.Context, fileID int64) (*Content, error) {
	var c Content
	c.FileID = fileID
	row := s.db.QueryRowContext(ctx, `SELECT text, word_count, language FROM content WHERE file_id = ?`, fileID)
	err := row.Scan(&c.Text, &c.WordCount, &c.Language)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("content for file %d: %w", fileID, errs.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get content for file %d: %w", fileID, err)
	}
	return &c, nil
}

// NeedsReindex reports whether path is unindexed or its content hash has changed.
func (s *SQLiteMetadataStore) NeedsReindex(ctx context.Context, path, contentHash string) (bool, error) {
	var existing string
	row := s.db.QueryRowContext(ctx, `SELECT hash FROM files WHERE path = ?`, path)
	err := row.Scan(&existing)
	if err == sql.ErrNoRows {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("check reindex for %s: %w", path, err)
	}
	return existing != contentHash, nil
}

// ListFiles returns a page of files ordered by ID.
func (s *SQLiteMetadataStore) ListFiles(ctx context.Context, limit, offset int) ([]*File, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, path, filename, size, file_type, mime_type, hash, created_at, modified_at, indexed_at
		FROM files ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file row: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// CountFiles returns the total number of indexed files.
func (s *SQLiteMetadataStore) CountFiles(ctx context.Context) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`)
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count files: %w", err)
	}
	return count, nil
}

// Stats summarizes the index contents.
func (s *SQLiteMetadataStore) Stats(ctx context.Context) (*IndexStats, error) {
	stats := &IndexStats{ByKind: make(map[Kind]int)}

	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*), COALESCE(SUM(size), 0) FROM files`)
	if err := row.Scan(&stats.TotalFiles, &stats.TotalSize); err != nil {
		return nil, fmt.Errorf("stats totals: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT file_type, COUNT(*) FROM files GROUP BY file_type`)
	if err != nil {
		return nil, fmt.Errorf("stats by file type: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var fileType string
		var count int
		if err := rows.Scan(&fileType, &count); err != nil {
			return nil, fmt.Errorf("scan stats row: %w", err)
		}
		stats.ByKind[KindFromString(fileType)] = count
	}
	return stats, rows.Err()
}

// DeleteFile removes the file row; content cascades via the foreign key.
func (s *SQLiteMetadataStore) DeleteFile(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM files WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete file %d: %w", id, err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *SQLiteMetadataStore) Close() error {
	return s.db.Close()
}

var _ MetadataStore = (*SQLiteMetadataStore)(nil)
