//go:build darwin

package fs

import (
	"time"

	"golang.org/x/sys/unix"
)

// statTimes extracts access and change times from a Darwin stat_t, whose
// timespec fields are named differently than Linux's, via the same
// golang.org/x/sys/unix.Stat_t the teacher stats through on POSIX.
func statTimes(path string, fallback time.Time) (accessTime, changeTime time.Time) {
	var stat unix.Stat_t
	if err := unix.Lstat(path, &stat); err != nil {
		return fallback, fallback
	}
	return time.Unix(stat.Atimespec.Sec, stat.Atimespec.Nsec),
		time.Unix(stat.Ctimespec.Sec, stat.Ctimespec.Nsec)
}
