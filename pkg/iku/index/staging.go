package index

import "fmt"

// Region represents a single live staging region, returned by Stage. The
// caller performs its write inside the region and must call exactly one of
// Commit (on success) or Revert (on failure) before starting another
// region.
//
// This is the Go rendering of original_source/iku/indexer.py's
// contextmanager-based stage(): the prelude (backup-path selection and
// rename-aside) runs synchronously inside Stage, masked against
// interruption; the caller's write runs unmasked (interruptible) between
// Stage and Commit/Revert; Commit runs the postlude, also masked.
type Region struct {
	indexer *Indexer
}

// Stage prepares the indexer for a write to path (relativePath being its
// index key). At most one region may be live on a given Indexer at a time;
// attempting to open a second is a programming error and panics, mirroring
// the "at most one StagedData" invariant of SPEC_FULL.md §3.
func (ix *Indexer) Stage(path, relativePath string) (*Region, error) {
	if ix.staged != nil {
		panic("index: staging region already active")
	}

	unmask := ix.interrupt.Mask()
	defer unmask()

	backupPath := path + BackupExtension
	for counter := 0; ix.filesystem.IsFile(backupPath); counter++ {
		backupPath = fmt.Sprintf("%s%d%s", path, counter, BackupExtension)
	}

	var priorRow *Row
	if row, err := ix.Get(relativePath); err == nil {
		rowCopy := row
		priorRow = &rowCopy
	}

	staged := &StagedData{
		Path:         path,
		RelativePath: relativePath,
		BackupPath:   backupPath,
		PriorRow:     priorRow,
	}

	if ix.filesystem.IsFile(path) {
		if err := ix.filesystem.Rename(path, backupPath); err != nil {
			return nil, fmt.Errorf("unable to back up existing file: %w", err)
		}
	}

	ix.staged = staged
	return &Region{indexer: ix}, nil
}

// Commit finalizes a staging region after a successful write: if the new
// file exists and a backup was taken, the backup is discarded; if nothing
// was written (the new file is absent), the backup is restored in its
// place. Either way the live StagedData is cleared.
func (r *Region) Commit() error {
	ix := r.indexer
	unmask := ix.interrupt.Mask()
	defer unmask()
	return ix.finishRegion()
}

// finishRegion implements Commit's postlude; Commit calls it inside its
// masked region.
func (ix *Indexer) finishRegion() error {
	staged := ix.staged
	if staged == nil {
		return nil
	}
	defer func() { ix.staged = nil }()

	if ix.filesystem.IsFile(staged.Path) {
		if ix.filesystem.IsFile(staged.BackupPath) {
			if err := ix.filesystem.Unlink(staged.BackupPath); err != nil {
				return fmt.Errorf("unable to remove backup: %w", err)
			}
		}
	} else if ix.filesystem.IsFile(staged.BackupPath) {
		if err := ix.filesystem.Rename(staged.BackupPath, staged.Path); err != nil {
			return fmt.Errorf("unable to restore backup: %w", err)
		}
	}

	return nil
}

// Revert undoes a staged change: it restores whatever index row existed
// before staging began (removing the diff entry the staging region
// contributed), deletes any partially-written new content, and restores
// the backup file if one was taken. It is a no-op if no region is live.
//
// Revert relies on the invariant that a staging region performs at most
// one Set/add to the index, so popping one entry from the relevant diff
// sequence exactly cancels it (SPEC_FULL.md §4.3).
func (ix *Indexer) Revert() {
	unmask := ix.interrupt.Mask()
	defer unmask()

	staged := ix.staged
	if staged == nil {
		return
	}
	defer func() { ix.staged = nil }()

	if staged.PriorRow == nil {
		if _, ok := ix.rows[staged.RelativePath]; ok {
			delete(ix.rows, staged.RelativePath)
			removeLastOccurrence(&ix.diff.Added, staged.RelativePath)
		}
	} else if current, ok := ix.rows[staged.RelativePath]; !ok || current != *staged.PriorRow {
		ix.rows[staged.RelativePath] = *staged.PriorRow
		removeLastOccurrence(&ix.diff.Modified, staged.RelativePath)
	}

	if ix.filesystem.IsFile(staged.Path) {
		ix.filesystem.Unlink(staged.Path)
	}
	if ix.filesystem.IsFile(staged.BackupPath) {
		ix.filesystem.Rename(staged.BackupPath, staged.Path)
	}
}

// removeLastOccurrence removes the last element of *list equal to value, if
// any.
func removeLastOccurrence(list *[]string, value string) {
	for i := len(*list) - 1; i >= 0; i-- {
		if (*list)[i] == value {
			*list = append((*list)[:i], (*list)[i+1:]...)
			return
		}
	}
}
