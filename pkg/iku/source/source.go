// Package source defines the capabilities the Synchronizer requires of
// whatever enumerates source objects (SPEC_FULL.md §4.2, §6). The concrete
// device-enumeration layer is an external collaborator per spec.md §1; this
// package only fixes the interface, plus (in the devicefs subpackage) a
// local-disk-backed implementation usable for tests and for simple
// directory-to-directory synchronization.
package source

import (
	"context"
	"errors"
)

// ErrStreamRead indicates a source object's underlying stream failed
// mid-read. The Synchronizer reverts the in-flight staged write and
// retries only if File.Reopen succeeds.
var ErrStreamRead = errors.New("source: stream read failed")

// ErrStreamSeek indicates a source object's stream could not be
// repositioned to its start. Handled identically to ErrStreamRead.
var ErrStreamSeek = errors.New("source: stream seek failed")

// File is a transient handle to one source object (SPEC_FULL.md §3).
type File interface {
	// RelativePath is the path, relative to the synchronization root, that
	// this file should be copied to.
	RelativePath() string
	// Size is the reported byte size of the object.
	Size() int64
	// LastModified is the reported modification time, in floating-point
	// Unix seconds.
	LastModified() float64
	// CreatedTime is the reported creation time, in floating-point Unix
	// seconds.
	CreatedTime() float64
	// LastAccessed is the reported last-access time, in floating-point
	// Unix seconds.
	LastAccessed() float64
	// Read returns the next chunk of the object's byte stream, or nil with
	// a nil error at end of stream. A non-EOF failure is returned wrapped
	// as ErrStreamRead.
	Read() ([]byte, error)
	// ResetSeek repositions the logical read cursor to the beginning of
	// the stream, for use before a retry. Failure is returned wrapped as
	// ErrStreamSeek.
	ResetSeek() error
	// Reopen attempts to re-establish the underlying stream, for backends
	// that cannot seek after a failed read. It reports whether the
	// backend could be reopened; the Synchronizer only retries a failed
	// write if this returns true.
	Reopen() bool
	// Close releases any resources held by the handle.
	Close() error
}

// Source enumerates the objects to be synchronized.
type Source interface {
	// ListFiles invokes visit once per source object, in the order they
	// should be copied. A non-nil error returned by visit aborts
	// enumeration and is propagated to ListFiles's caller.
	ListFiles(ctx context.Context, visit func(File) error) error
	// CountFiles returns the exact number of objects ListFiles will visit,
	// used to size the Phase 2 progress total.
	CountFiles(ctx context.Context) (int, error)
}
