// Package fs defines the filesystem capability set consumed by the Indexer
// and Synchronizer (SPEC_FULL.md §4.1) and provides a local implementation.
// A second, SFTP-backed implementation lives in the sibling sftpfs package.
// Both satisfy Filesystem; callers dispatch through the interface and never
// perform a type switch on the concrete implementation.
package fs

import (
	"io"
	"time"
)

// File is a scoped byte stream returned by Filesystem.Open. Callers must
// Close it on every exit path (typically via defer).
type File interface {
	io.Reader
	io.Writer
	io.Closer
}

// Info describes a managed file's metadata, as returned by Filesystem.Stat.
type Info struct {
	Name       string
	Size       int64
	ModTime    time.Time
	AccessTime time.Time
	ChangeTime time.Time
	IsDir      bool
}

// OpenMode selects the access mode for Filesystem.Open.
type OpenMode int

const (
	// OpenRead opens an existing file for reading.
	OpenRead OpenMode = iota
	// OpenWrite creates (or truncates) a file for writing.
	OpenWrite
)

// WalkFunc is invoked once per regular file discovered by RglobFiles, with
// path expressed relative to the walked root. Returning a non-nil error
// aborts the walk and is propagated to RglobFiles's caller.
type WalkFunc func(relativePath string) error

// Filesystem is the capability set described in SPEC_FULL.md §4.1: uniform
// read/write/stat/rename/walk operations over a local or remote target. The
// core treats every implementation identically; remote-specific failures
// (e.g. connection loss) surface as ordinary errors from any method and are
// handled by the Synchronizer's retry policy like any other destination I/O
// error.
type Filesystem interface {
	// Open returns a scoped byte stream for path in the requested mode.
	Open(path string, mode OpenMode) (File, error)
	// Stat returns metadata for path.
	Stat(path string) (Info, error)
	// Rename moves src to dst, replacing dst if it already exists.
	Rename(src, dst string) error
	// Unlink removes the file at path.
	Unlink(path string) error
	// Utime sets path's access and modification times.
	Utime(path string, accessTime, modTime time.Time) error
	// Ctime attempts to set path's creation time. Implementations that
	// cannot support this (most POSIX filesystems) return nil; callers
	// ignore errors from Ctime per SPEC_FULL.md §4.1.
	Ctime(path string, changeTime time.Time) error
	// IsFile reports whether path exists and is a regular file.
	IsFile(path string) bool
	// Join joins path elements using the filesystem's separator.
	Join(elem ...string) string
	// Dirname returns the directory portion of path.
	Dirname(path string) string
	// Relpath expresses path relative to base.
	Relpath(path, base string) (string, error)
	// Mkdir creates path and any necessary parents; it is not an error if
	// path already exists as a directory.
	Mkdir(path string) error
	// RglobFiles walks every regular file under root (lazily, in the sense
	// that implementations may stream results rather than materializing
	// the full listing up front) and invokes walk with its path relative
	// to root, in forward-slash-normalized form.
	RglobFiles(root string, walk WalkFunc) error
	// RemoveEmptyFolders removes every directory under root that contains
	// no files or subdirectories, working bottom-up.
	RemoveEmptyFolders(root string) error
	// MarkHidden marks path as hidden, on filesystems that support a
	// hidden attribute distinct from dot-prefixed naming. It is
	// best-effort: callers do not treat a returned error as fatal.
	MarkHidden(path string) error
}
