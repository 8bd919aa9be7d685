package sync

import "github.com/terraytm/iku/pkg/iku/index"

// SyncDetails carries Phase 2's running counters, both as the final
// result of a successful run and as the partial payload carried out of an
// interrupted or fatally-failed run (SPEC_FULL.md §4.4, spec.md §6).
type SyncDetails struct {
	FilesCopied    int
	FilesSkipped   int
	SizeDiscovered int64
	SizeCopied     int64
	SizeSkipped    int64
	// CurrentDestinationPath is the target path of a fatal, retry-exhausted
	// write failure. Empty when the run did not fail fatally.
	CurrentDestinationPath string
}

// SyncResult is the outcome of a complete SynchronizeToFolder call,
// combining Phase 1 and Phase 2 bookkeeping (spec.md §6).
type SyncResult struct {
	FilesIndexed int
	TotalIndices int
	TotalFiles   int
	Details      SyncDetails
	IndexDiff    index.Diff
	SyncDiff     index.Diff
}
