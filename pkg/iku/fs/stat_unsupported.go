//go:build !linux && !darwin

package fs

import "time"

// statTimes falls back to reporting the modification time for both access
// and change time on platforms without a supported raw stat representation.
func statTimes(path string, fallback time.Time) (accessTime, changeTime time.Time) {
	return fallback, fallback
}
