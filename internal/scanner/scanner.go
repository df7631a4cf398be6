// Package scanner implements Scan (spec §4.1): a depth-first, no-symlink
// walk of one or more root paths that filters excluded directories and
// executable extensions, hashes accepted files, and emits FileRecords.
package scanner

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/brunoalves/organizador/internal/config"
	"github.com/brunoalves/organizador/internal/errkind"
	"github.com/brunoalves/organizador/internal/types"
)

// Warning reports a non-fatal problem encountered while scanning one path.
// The walk continues after a Warning.
type Warning struct {
	Path string
	Err  error
}

// Scanner walks root paths and emits FileRecords.
type Scanner struct {
	minSize     int64
	excludedDir map[string]struct{}
	excludedExt map[string]struct{}

	warnings []Warning
}

// New builds a Scanner from cfg.
func New(cfg config.ScannerConfig) *Scanner {
	s := &Scanner{
		minSize:     cfg.MinSizeBytes,
		excludedDir: toSet(cfg.ExcludedDirs),
		excludedExt: toSet(cfg.ExcludedExtensions),
	}
	return s
}

func toSet(vals []string) map[string]struct{} {
	m := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		m[v] = struct{}{}
	}
	return m
}

// Warnings returns every non-fatal problem collected since the scanner was
// created, in encounter order.
func (s *Scanner) Warnings() []Warning { return s.warnings }

// Scan walks roots and sends a FileRecord (without an excerpt — Extract
// fills that in) for every accepted file into out, in discovery order.
// Scan returns when every root has been walked, ctx is cancelled, or out
// cannot be drained. It closes out before returning.
func (s *Scanner) Scan(ctx context.Context, roots []string, out chan<- types.FileRecord) error {
	defer close(out)

	for _, root := range roots {
		if err := s.scanRoot(ctx, root, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// A root that cannot be opened at all is reported but does not
			// abort sibling roots.
			s.warnings = append(s.warnings, Warning{Path: root, Err: err})
		}
	}
	return nil
}

func (s *Scanner) scanRoot(ctx context.Context, root string, out chan<- types.FileRecord) error {
	info, err := os.Lstat(root)
	if err != nil {
		return errkind.Wrapf(err, errkind.Io, "stat root %s", root)
	}
	if !info.IsDir() {
		return errkind.Newf(errkind.Config, "root %s is not a directory", root)
	}

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if walkErr != nil {
			s.warnings = append(s.warnings, Warning{Path: path, Err: walkErr})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root {
				if _, excluded := s.excludedDir[d.Name()]; excluded {
					return filepath.SkipDir
				}
			}
			return nil
		}

		rec, ok, err := s.acceptFile(path, d)
		if err != nil {
			s.warnings = append(s.warnings, Warning{Path: path, Err: err})
			return nil
		}
		if !ok {
			return nil
		}

		select {
		case out <- rec:
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})
}

func (s *Scanner) acceptFile(path string, d fs.DirEntry) (types.FileRecord, bool, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if _, excluded := s.excludedExt[ext]; excluded {
		return types.FileRecord{}, false, nil
	}

	info, err := d.Info()
	if err != nil {
		return types.FileRecord{}, false, errkind.Wrapf(err, errkind.Io, "stat %s", path)
	}
	if info.Size() < s.minSize {
		return types.FileRecord{}, false, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	sum, err := hashFile(path)
	if err != nil {
		return types.FileRecord{}, false, errkind.Wrapf(err, errkind.Io, "hash %s", path)
	}

	rec := types.FileRecord{
		Path:    abs,
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Ext:     ext,
		MIME:    mime.TypeByExtension("."+ext),
		SHA256:  sum,
	}
	if cr, ok := creationTime(info); ok {
		rec.CreatedTime = cr
	} else {
		rec.CreatedTime = info.ModTime()
	}
	return rec, true, nil
}

func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
