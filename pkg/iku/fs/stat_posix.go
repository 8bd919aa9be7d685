//go:build linux

package fs

import (
	"time"

	"golang.org/x/sys/unix"
)

// statTimes extracts access and change times from a Linux stat_t, grounded
// on the teacher's pkg/filesystem/syscall_times_posix.go approach: stat
// through golang.org/x/sys/unix rather than the raw syscall package, since
// not all POSIX platforms use the same struct field name for these values.
// fallback is returned for both times if path cannot be stat'd this way.
func statTimes(path string, fallback time.Time) (accessTime, changeTime time.Time) {
	var stat unix.Stat_t
	if err := unix.Lstat(path, &stat); err != nil {
		return fallback, fallback
	}
	return time.Unix(stat.Atim.Sec, stat.Atim.Nsec), time.Unix(stat.Ctim.Sec, stat.Ctim.Nsec)
}
