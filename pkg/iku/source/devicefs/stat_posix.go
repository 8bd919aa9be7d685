//go:build linux

package devicefs

import "golang.org/x/sys/unix"

// statTimes extracts access and change times from a Linux stat_t, mirroring
// pkg/iku/fs's platform split: both stat through golang.org/x/sys/unix
// rather than the raw syscall package, since not all POSIX platforms name
// these timespec fields the same way.
func statTimes(path string, fallback float64) (accessTime, changeTime float64) {
	var stat unix.Stat_t
	if err := unix.Lstat(path, &stat); err != nil {
		return fallback, fallback
	}
	return float64(stat.Atim.Sec) + float64(stat.Atim.Nsec)/1e9,
		float64(stat.Ctim.Sec) + float64(stat.Ctim.Nsec)/1e9
}
