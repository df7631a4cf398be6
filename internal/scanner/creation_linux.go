//go:build linux

package scanner

import (
	"io/fs"
	"syscall"
	"time"
)

// creationTime extracts ctime (last status change, the closest Linux gets
// to a birth time without statx) from platform stat metadata.
func creationTime(info fs.FileInfo) (time.Time, bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(stat.Ctim.Sec, stat.Ctim.Nsec), true
}
