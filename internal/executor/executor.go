// Package executor applies a Plan to the filesystem (spec §4.6): dry-run
// by default, real MOVE/COPY/RENAME/SKIP mutations under --apply, with
// hash-verified crash safety and idempotent re-execution.
package executor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/brunoalves/organizador/internal/config"
	"github.com/brunoalves/organizador/internal/errkind"
	"github.com/brunoalves/organizador/internal/types"
)

// Executor applies PlanItems one at a time. Mutation is always
// serialized: the spec (§5) forbids concurrency between items whose
// source or destination directories could overlap, and in practice the
// Executor never parallelizes at all.
type Executor struct {
	cfg config.ExecutorConfig
}

// New builds an Executor.
func New(cfg config.ExecutorConfig) *Executor {
	if cfg.PerFileTimeout <= 0 {
		cfg.PerFileTimeout = 60 * time.Second
	}
	return &Executor{cfg: cfg}
}

// Run applies every item in plan under mode, in plan order (spec §5:
// Execute processes plan order, which is itself source-path lex order).
// It always returns a Manifest, even when ctx is canceled partway
// through or an item fails — the manifest is the source of truth for
// what happened (spec §9).
func (e *Executor) Run(ctx context.Context, plan types.Plan, mode types.Mode) types.Manifest {
	manifest := types.Manifest{
		PlanID:  plan.ID,
		Started: time.Now(),
		Mode:    mode,
	}

	for _, item := range plan.Items {
		if err := ctx.Err(); err != nil {
			// Deadline/cancellation: in-flight mutations already completed
			// above; no new item begins (spec §5).
			break
		}
		manifest.Results = append(manifest.Results, e.runItem(ctx, item, mode))
	}

	manifest.Finished = time.Now()
	return manifest
}

func (e *Executor) runItem(ctx context.Context, item types.PlanItem, mode types.Mode) types.ExecutionResult {
	result := types.ExecutionResult{
		Item:             item,
		Timestamp:        time.Now(),
		FinalDestination: item.Destination,
	}

	if item.Action == types.ActionSkip {
		result.Status = types.StatusSkipped
		return result
	}

	itemCtx, cancel := context.WithTimeout(ctx, e.cfg.PerFileTimeout)
	defer cancel()

	// Pre-execution check: source must still exist with the size/hash
	// recorded at plan time (spec §4.6). A missing source is only
	// idempotent re-execution (§4.6 invariant d) when the destination
	// already holds that exact content; otherwise the source genuinely
	// vanished between Plan and Execute, which is a failure, not a skip
	// (spec §8).
	info, err := os.Stat(item.Source)
	if err != nil {
		if destMatchesSource(item) {
			result.Status = types.StatusSkipped
			result.ErrorMessage = "already applied: destination matches planned source hash"
			return result
		}
		result.Status = types.StatusFailed
		result.ErrorKind = errkind.Io.String()
		result.ErrorMessage = "source_changed: " + err.Error()
		return result
	}
	if info.Size() != item.SourceSize {
		result.Status = types.StatusSkipped
		result.ErrorMessage = "source_changed: size mismatch"
		return result
	}
	sum, err := hashFile(item.Source)
	if err != nil {
		result.Status = types.StatusFailed
		result.ErrorKind = errkind.Io.String()
		result.ErrorMessage = err.Error()
		return result
	}
	if sum != item.SourceSHA256 {
		result.Status = types.StatusSkipped
		result.ErrorMessage = "source_changed: hash mismatch"
		return result
	}

	if mode == types.ModeDryRun {
		result.Status = types.StatusDryRun
		return result
	}

	dest, err := e.prepareDestination(item)
	if err != nil {
		result.Status = types.StatusFailed
		result.ErrorKind = errkind.Collision.String()
		result.ErrorMessage = err.Error()
		return result
	}
	result.FinalDestination = dest

	var actErr error
	switch item.Action {
	case types.ActionMove:
		actErr = moveFile(itemCtx, item.Source, dest, item.SourceSHA256)
	case types.ActionRename:
		actErr = renameFile(itemCtx, item.Source, dest, item.SourceSHA256)
	case types.ActionCopy:
		actErr = copyFile(itemCtx, item.Source, dest, item.SourceSHA256)
	default:
		actErr = fmt.Errorf("unknown action %q", item.Action)
	}

	if actErr != nil {
		result.Status = types.StatusFailed
		if k, ok := errkind.Of(actErr); ok {
			result.ErrorKind = k.String()
		} else {
			result.ErrorKind = errkind.Io.String()
		}
		result.ErrorMessage = actErr.Error()
		return result
	}

	result.Status = types.StatusApplied
	return result
}

// prepareDestination creates the destination's parent directory and
// re-checks for a live collision at execute time, re-versioning exactly
// as the Planner would if a new collision has appeared since Plan
// (spec §4.6).
func (e *Executor) prepareDestination(item types.PlanItem) (string, error) {
	dir := filepath.Dir(item.Destination)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errkind.Wrap(err, errkind.Io, "creating destination directory")
	}

	dest := item.Destination
	if !pathExists(dest) {
		return dest, nil
	}

	ext := filepath.Ext(dest)
	stem := dest[:len(dest)-len(ext)]
	for v := 2; v <= 999; v++ {
		candidate := fmt.Sprintf("%s_v%d%s", stem, v, ext)
		if !pathExists(candidate) {
			return candidate, nil
		}
	}
	return "", errkind.New(errkind.Collision, "no unique destination after 999 attempts")
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// destMatchesSource reports whether item.Destination already holds the
// exact content recorded for item's source at plan time, the signature
// of a MOVE/RENAME that already completed in a prior run.
func destMatchesSource(item types.PlanItem) bool {
	info, err := os.Stat(item.Destination)
	if err != nil || info.Size() != item.SourceSize {
		return false
	}
	sum, err := hashFile(item.Destination)
	if err != nil {
		return false
	}
	return sum == item.SourceSHA256
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
