package executor

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/brunoalves/organizador/internal/errkind"
	"github.com/brunoalves/organizador/internal/types"
)

// WriteManifest persists manifest atomically (temp file + rename) to
// manifest_<YYYYMMDD_HHMMSS>.yaml under dir (spec §4.6/§6; the CLI
// passes "logs" as dir). Callers
// must invoke this even when the run ended early via panic recovery or a
// fatal error, so a partial manifest is always flushed (spec §9).
func WriteManifest(dir string, manifest types.Manifest, stampAt time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errkind.Wrap(err, errkind.Io, "creating logs directory")
	}

	b, err := yaml.Marshal(manifest)
	if err != nil {
		return "", errkind.Wrap(err, errkind.Io, "serializing manifest")
	}

	final := filepath.Join(dir, fmt.Sprintf("manifest_%s.yaml", stampAt.Format("20060102_150405")))
	tmp := final + ".tmp"

	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return "", errkind.Wrap(err, errkind.Io, "writing manifest temp file")
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return "", errkind.Wrap(err, errkind.Io, "finalizing manifest")
	}

	return final, nil
}

// RunGuarded executes fn, flushing a manifest to dir regardless of
// whether fn panics, returns an error, or completes normally — the
// manifest is the sole source of truth for what happened to a run, so
// it must never be lost to an unhandled panic (spec §9).
func RunGuarded(dir string, stampAt time.Time, fn func() types.Manifest) (manifest types.Manifest, manifestPath string, runErr error) {
	defer func() {
		if r := recover(); r != nil {
			runErr = fmt.Errorf("execute run panicked: %v", r)
		}
		path, werr := WriteManifest(dir, manifest, stampAt)
		if werr == nil {
			manifestPath = path
		} else if runErr == nil {
			runErr = werr
		}
	}()

	manifest = fn()
	return manifest, manifestPath, runErr
}
