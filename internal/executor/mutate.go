package executor

import (
	"context"
	"errors"
	"io"
	"os"
	"syscall"

	"github.com/brunoalves/organizador/internal/errkind"
)

// moveFile renames src to dest within the same device when possible;
// otherwise it copies then unlinks src, and only after the copy's
// SHA-256 has been verified against wantSHA256 (spec §4.6 invariant a:
// the source is never removed except by this verified unlink).
func moveFile(ctx context.Context, src, dest, wantSHA256 string) error {
	if destExistsGuard(dest) {
		return errkind.New(errkind.Collision, "destination already exists at move time")
	}

	if err := os.Rename(src, dest); err == nil {
		return nil
	} else if !isCrossDevice(err) {
		return errkind.Wrap(err, errkind.Io, "rename")
	}

	if err := copyFile(ctx, src, dest, wantSHA256); err != nil {
		return err
	}
	if err := os.Remove(src); err != nil {
		// The copy is verified and in place; failing to remove the
		// source is an IoError, not a correctness problem, since the
		// content is safely duplicated at dest.
		return errkind.Wrap(err, errkind.Io, "removing source after verified copy")
	}
	return nil
}

// renameFile performs an in-place rename, falling back to full MOVE
// semantics if it crosses a device boundary (spec §4.6).
func renameFile(ctx context.Context, src, dest, wantSHA256 string) error {
	return moveFile(ctx, src, dest, wantSHA256)
}

// copyFile copies src to dest, verifies the result's hash against
// wantSHA256, and removes dest on any failure (spec §4.6 invariant b:
// dest is never opened for writing unless it did not exist at the
// start of this call).
func copyFile(ctx context.Context, src, dest, wantSHA256 string) error {
	if destExistsGuard(dest) {
		return errkind.New(errkind.Collision, "destination already exists at copy time")
	}

	in, err := os.Open(src)
	if err != nil {
		return errkind.Wrap(err, errkind.Io, "opening source")
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return errkind.Wrap(err, errkind.Io, "creating destination")
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return errkind.Wrap(err, errkind.Io, "copying content")
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return errkind.Wrap(err, errkind.Io, "closing destination")
	}
	if err := ctx.Err(); err != nil {
		os.Remove(dest)
		return errkind.Wrap(err, errkind.Io, "canceled during copy")
	}

	gotSHA256, err := hashFile(dest)
	if err != nil {
		os.Remove(dest)
		return errkind.Wrap(err, errkind.Io, "hashing destination")
	}
	if gotSHA256 != wantSHA256 {
		os.Remove(dest)
		return errkind.New(errkind.Integrity, "post-copy hash mismatch")
	}

	return nil
}

func destExistsGuard(dest string) bool {
	_, err := os.Stat(dest)
	return err == nil
}

func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}
