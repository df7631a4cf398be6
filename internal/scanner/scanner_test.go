package scanner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunoalves/organizador/internal/config"
	"github.com/brunoalves/organizador/internal/types"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func collect(t *testing.T, s *Scanner, roots []string) []types.FileRecord {
	t.Helper()
	out := make(chan types.FileRecord, 256)
	err := s.Scan(context.Background(), roots, out)
	require.NoError(t, err)

	var recs []types.FileRecord
	for r := range out {
		recs = append(recs, r)
	}
	return recs
}

func TestScanEmptyRootYieldsZeroRecords(t *testing.T) {
	dir := t.TempDir()
	s := New(config.ScannerConfig{MinSizeBytes: 1024})
	recs := collect(t, s, []string{dir})
	assert.Empty(t, recs)
}

func TestScanSkipsExcludedDirAndSmallFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "big.txt"), 2000)
	writeFile(t, filepath.Join(dir, "small.txt"), 10)
	writeFile(t, filepath.Join(dir, ".git", "HEAD"), 2000)
	writeFile(t, filepath.Join(dir, "node_modules", "pkg", "index.js"), 2000)

	s := New(config.ScannerConfig{
		MinSizeBytes: 1024,
		ExcludedDirs: []string{".git", "node_modules"},
	})
	recs := collect(t, s, []string{dir})

	require.Len(t, recs, 1)
	assert.Equal(t, "txt", recs[0].Ext)
	assert.Equal(t, int64(2000), recs[0].Size)
	assert.NotEmpty(t, recs[0].SHA256)
}

func TestScanSkipsExecutableExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "setup.exe"), 2000)
	writeFile(t, filepath.Join(dir, "doc.pdf"), 2000)

	s := New(config.ScannerConfig{
		MinSizeBytes:       1024,
		ExcludedExtensions: []string{"exe"},
	})
	recs := collect(t, s, []string{dir})

	require.Len(t, recs, 1)
	assert.Equal(t, "pdf", recs[0].Ext)
}

func TestScanFollowsNoSymlinks(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "real")
	writeFile(t, filepath.Join(target, "a.txt"), 2000)

	link := filepath.Join(dir, "link")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}

	s := New(config.ScannerConfig{MinSizeBytes: 1024})
	recs := collect(t, s, []string{dir})

	require.Len(t, recs, 1)
	assert.Contains(t, recs[0].Path, "real")
}
