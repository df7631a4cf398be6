package extractor

import (
	"archive/zip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunoalves/organizador/internal/types"
)

func TestExtractPlainTextTruncates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "big.txt")
	content := strings.Repeat("a", types.MaxExcerptBytes+500)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	e := New()
	rec := types.FileRecord{Path: path, Ext: "txt"}
	out := e.Extract(rec)

	assert.LessOrEqual(t, len(out.Excerpt), types.MaxExcerptBytes)
	assert.True(t, strings.HasSuffix(out.Excerpt, types.TruncationSentinel))
	assert.Empty(t, out.ExcerptError)
}

func TestExtractPlainTextShortIsVerbatim(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "short.md")
	require.NoError(t, os.WriteFile(path, []byte("# hello"), 0o644))

	e := New()
	out := e.Extract(types.FileRecord{Path: path, Ext: "md"})
	assert.Equal(t, "# hello", out.Excerpt)
}

func TestExtractUnknownExtensionIsEmpty(t *testing.T) {
	e := New()
	out := e.Extract(types.FileRecord{Path: "/nonexistent.xyz", Ext: "xyz"})
	assert.Empty(t, out.Excerpt)
	assert.Empty(t, out.ExcerptError)
}

func TestExtractMissingFileIsNonFatal(t *testing.T) {
	e := New()
	out := e.Extract(types.FileRecord{Path: "/does/not/exist.txt", Ext: "txt"})
	assert.Empty(t, out.Excerpt)
	assert.NotEmpty(t, out.ExcerptError)
}

func TestExtractZipListsEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("notes/readme.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("hi"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	e := New()
	out := e.Extract(types.FileRecord{Path: path, Ext: "zip"})
	assert.Contains(t, out.Excerpt, "notes/readme.txt")
}

func TestExtractEbookIsFormatMarkerOnly(t *testing.T) {
	e := New()
	out := e.Extract(types.FileRecord{Path: "/whatever.epub", Ext: "epub"})
	assert.Equal(t, "[EPUB ebook]", out.Excerpt)
}
