// Package index implements the persistent, versioned manifest described in
// SPEC_FULL.md §4.3: an in-memory map from relative path to content hash,
// size, and modification time, backed by a gzipped CSV file, together with
// the staged-write protocol that guarantees every destination file is
// either wholly the old content or wholly the new content.
//
// It is grounded on original_source/iku/indexer.py (the Python reference
// this spec was distilled from) for exact semantics, and on the teacher's
// pkg/synchronization/endpoint/local/stager.go for the Go idiom of a
// sink/commit-style staged write.
package index

import "fmt"

// Name is the fixed filename of the persisted index, located inside the
// managed base folder.
const Name = ".iku_index"

// BackupExtension is appended to a destination path to form its backup
// name during a staging region.
const BackupExtension = ".bak"

// Row is one managed destination file's record: content hash, the
// modification time the file had at the moment it was last indexed
// (floating-point Unix seconds, to match the source object's reported
// mtime resolution), and exact byte size.
type Row struct {
	FileHash     string
	LastModified float64
	Size         int64
}

// Diff accumulates the relative paths added, modified, and removed since
// the last Commit. Entries are appended in observation order; Revert pops
// the most recently appended entry for a given path, which is safe because
// staging is single-threaded and processes one file at a time.
type Diff struct {
	Added    []string
	Modified []string
	Removed  []string
}

// IsEmpty reports whether the diff records no changes.
func (d Diff) IsEmpty() bool {
	return len(d.Added) == 0 && len(d.Modified) == 0 && len(d.Removed) == 0
}

// Clone returns a deep copy of the diff, safe to retain across a Commit
// that resets the indexer's internal diff.
func (d Diff) Clone() Diff {
	return Diff{
		Added:    append([]string(nil), d.Added...),
		Modified: append([]string(nil), d.Modified...),
		Removed:  append([]string(nil), d.Removed...),
	}
}

// StagedData is the ephemeral record of a single live staging region.
type StagedData struct {
	Path         string
	RelativePath string
	BackupPath   string
	// PriorRow is the row present before staging began, or nil if the
	// relative path was not previously managed.
	PriorRow *Row
}

// DuplicateMode selects the grouping key used by FindDuplicates.
type DuplicateMode int

const (
	// DuplicateContent groups files by content hash alone.
	DuplicateContent DuplicateMode = iota
	// DuplicateStrict groups files by content hash, modification time, and
	// size.
	DuplicateStrict
)

func (m DuplicateMode) String() string {
	switch m {
	case DuplicateContent:
		return "content"
	case DuplicateStrict:
		return "strict"
	default:
		return fmt.Sprintf("DuplicateMode(%d)", int(m))
	}
}
