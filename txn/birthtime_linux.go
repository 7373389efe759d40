//go:build linux

package txn

import (
	"time"

	"golang.org/x/sys/unix"
)

// birthTime reads the creation time through statx(2). Kernels before 4.11
// and filesystems that do not record it (older tmpfs, some network mounts)
// leave STATX_BTIME out of the returned mask.
func birthTime(path string) (time.Time, bool) {
	var stx unix.Statx_t
	err := unix.Statx(unix.AT_FDCWD, path, unix.AT_SYMLINK_NOFOLLOW, unix.STATX_BTIME, &stx)
	if err != nil {
		return time.Time{}, false
	}
	if stx.Mask&unix.STATX_BTIME == 0 || stx.Btime.Sec == 0 {
		return time.Time{}, false
	}
	return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec)), true
}
