//go:build !linux && !darwin && !windows

package txn

import "time"

func birthTime(string) (time.Time, bool) {
	return time.Time{}, false
}
