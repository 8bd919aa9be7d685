//go:build !windows

package fs

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Ctime is a no-op on POSIX: there is no portable way to set a file's
// creation time from userspace, and callers are required (per
// SPEC_FULL.md §4.1) to ignore failures from it.
func (l *Local) Ctime(path string, changeTime time.Time) error {
	return nil
}

// MarkHidden ensures path is hidden. POSIX platforms have no hidden
// attribute distinct from dot-prefixed naming, so this only verifies the
// naming convention is honored, grounded on the teacher's
// pkg/filesystem/visibility_posix.go.
func (l *Local) MarkHidden(path string) error {
	if !strings.HasPrefix(filepath.Base(path), ".") {
		return fmt.Errorf("only dot-prefixed files are hidden on POSIX")
	}
	return nil
}
