//go:build darwin

package devicefs

import "golang.org/x/sys/unix"

// statTimes extracts access and change times from a Darwin stat_t, whose
// timespec fields are named differently than Linux's.
func statTimes(path string, fallback float64) (accessTime, changeTime float64) {
	var stat unix.Stat_t
	if err := unix.Lstat(path, &stat); err != nil {
		return fallback, fallback
	}
	return float64(stat.Atimespec.Sec) + float64(stat.Atimespec.Nsec)/1e9,
		float64(stat.Ctimespec.Sec) + float64(stat.Ctimespec.Nsec)/1e9
}
