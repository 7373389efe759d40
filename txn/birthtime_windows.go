//go:build windows

package txn

import (
	"os"
	"syscall"
	"time"
)

// birthTime uses the native NTFS creation time.
func birthTime(path string) (time.Time, bool) {
	info, err := os.Lstat(path)
	if err != nil {
		return time.Time{}, false
	}
	data, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return time.Time{}, false
	}
	t := time.Unix(0, data.CreationTime.Nanoseconds())
	if t.IsZero() {
		return time.Time{}, false
	}
	return t, true
}
