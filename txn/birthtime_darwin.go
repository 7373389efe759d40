//go:build darwin

package txn

import (
	"os"
	"syscall"
	"time"
)

// birthTime extracts Birthtimespec, which macOS reports for every filesystem.
func birthTime(path string) (time.Time, bool) {
	info, err := os.Lstat(path)
	if err != nil {
		return time.Time{}, false
	}
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return time.Time{}, false
	}
	t := time.Unix(stat.Birthtimespec.Sec, stat.Birthtimespec.Nsec)
	if t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}
