package store

import (
	"context"
	"testing"
	"time"

	"github.com/kaipakiran/khoj/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMetadataStore(t *testing.T) *SQLiteMetadataStore {
	t.Helper()
	s, err := NewSQLiteMetadataStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testFile(path string) *File {
	now := time.Now().UTC().Truncate(time.Second)
	return &File{
		Path:        path,
		Filename:    path,
		Size:        42,
		Kind:        KindText,
		MimeType:    "text/plain",
		ContentHash: "abc123",
		CreatedAt:   now,
		ModifiedAt:  now,
		IndexedAt:   now,
	}
}

func TestSQLiteMetadataStore_UpsertFile(t *testing.T) {
	ctx := context.Background()
	s := newTestMetadataStore(t)

	f := testFile("a/b.txt")
	id1, err := s.UpsertFile(ctx, f)
	require.NoError(t, err)
	assert.NotZero(t, id1)

	// Re-upsert the same path: ID is stable, row is updated.
	f.ContentHash = "def456"
	id2, err := s.UpsertFile(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	got, err := s.GetFile(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, "def456", got.ContentHash)
}

func TestSQLiteMetadataStore_UpsertContent(t *testing.T) {
	ctx := context.Background()
	s := newTestMetadataStore(t)

	id, err := s.UpsertFile(ctx, testFile("a.txt"))
	require.NoError(t, err)

	c := &Content{FileID: id, Text: "hello world", WordCount: 2, Language: ""}
	require.NoError(t, s.UpsertContent(ctx, c))

	got, err := s.GetContent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got.Text)
	assert.Equal(t, 2, got.WordCount)

	// Re-upsert replaces content for the same file.
	c.Text = "updated text"
	c.WordCount = 2
	require.NoError(t, s.UpsertContent(ctx, c))

	got, err = s.GetContent(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "updated text", got.Text)
}

func TestSQLiteMetadataStore_NeedsReindex(t *testing.T) {
	ctx := context.Background()
	s := newTestMetadataStore(t)

	needs, err := s.NeedsReindex(ctx, "new.txt", "hash1")
	require.NoError(t, err)
	assert.True(t, needs, "unindexed file always needs reindex")

	f := testFile("new.txt")
	f.ContentHash = "hash1"
	_, err = s.UpsertFile(ctx, f)
	require.NoError(t, err)

	needs, err = s.NeedsReindex(ctx, "new.txt", "hash1")
	require.NoError(t, err)
	assert.False(t, needs, "unchanged hash does not need reindex")

	needs, err = s.NeedsReindex(ctx, "new.txt", "hash2")
	require.NoError(t, err)
	assert.True(t, needs, "changed hash needs reindex")
}

func TestSQLiteMetadataStore_CountFiles(t *testing.T) {
	ctx := context.Background()
	s := newTestMetadataStore(t)

	count, err := s.CountFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	_, err = s.UpsertFile(ctx, testFile("a.txt"))
	require.NoError(t, err)
	_, err = s.UpsertFile(ctx, testFile("b.txt"))
	require.NoError(t, err)

	count, err = s.CountFiles(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSQLiteMetadataStore_Stats(t *testing.T) {
	ctx := context.Background()
	s := newTestMetadataStore(t)

	f1 := testFile("a.txt")
	f1.Kind = KindText
	f1.Size = 10
	f2 := testFile("b.go")
	f2.Kind = KindCode
	f2.Size = 20

	_, err := s.UpsertFile(ctx, f1)
	require.NoError(t, err)
	_, err = s.UpsertFile(ctx, f2)
	require.NoError(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalFiles)
	assert.EqualValues(t, 30, stats.TotalSize)
	assert.Equal(t, 1, stats.ByKind[KindText])
	assert.Equal(t, 1, stats.ByKind[KindCode])
}

func TestSQLiteMetadataStore_DeleteFile_Cascades(t *testing.T) {
	ctx := context.Background()
	s := newTestMetadataStore(t)

	id, err := s.UpsertFile(ctx, testFile("a.txt"))
	require.NoError(t, err)
	require.NoError(t, s.UpsertContent(ctx, &Content{FileID: id, Text: "x", WordCount: 1}))

	require.NoError(t, s.DeleteFile(ctx, id))

	_, err = s.GetFile(ctx, id)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = s.GetContent(ctx, id)
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestSQLiteMetadataStore_GetFileByPath_NotFound(t *testing.T) {
	ctx := context.Background()
	s := newTestMetadataStore(t)

	_, err := s.GetFileByPath(ctx, "missing.txt")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestSQLiteMetadataStore_ListFiles(t *testing.T) {
	ctx := context.Background()
	s := newTestMetadataStore(t)

	for _, p := range []string{"a.txt", "b.txt", "c.txt"} {
		_, err := s.UpsertFile(ctx, testFile(p))
		require.NoError(t, err)
	}

	files, err := s.ListFiles(ctx, 2, 0)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	files, err = s.ListFiles(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}
