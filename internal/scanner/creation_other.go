//go:build !linux && !darwin

package scanner

import (
	"io/fs"
	"time"
)

// creationTime has no portable stat-based implementation outside
// linux/darwin; callers fall back to ModTime.
func creationTime(info fs.FileInfo) (time.Time, bool) {
	return time.Time{}, false
}
