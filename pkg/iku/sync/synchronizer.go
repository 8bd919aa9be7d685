// Package sync implements the two-phase reindex-then-copy run described in
// SPEC_FULL.md §4.4, grounded on the teacher's
// pkg/synchronization/endpoint/local/endpoint.go transition loop and on
// original_source/iku/core.py's synchronize_to_folder.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/terraytm/iku/pkg/iku/config"
	"github.com/terraytm/iku/pkg/iku/fs"
	"github.com/terraytm/iku/pkg/iku/index"
	"github.com/terraytm/iku/pkg/iku/interrupt"
	"github.com/terraytm/iku/pkg/iku/logging"
	"github.com/terraytm/iku/pkg/iku/must"
	"github.com/terraytm/iku/pkg/iku/progress"
	"github.com/terraytm/iku/pkg/iku/source"
)

// errFatalCopy stops Phase 2 iteration after a file exhausts its retry
// budget. It never escapes SynchronizeToFolder: the caller observes the
// failure through SyncResult.Details.CurrentDestinationPath instead, since
// a retry-exhausted copy is a clean, reported outcome rather than a Go
// error (spec.md §7: "the run terminates cleanly with a FAILED status").
var errFatalCopy = errors.New("sync: fatal copy failure")

// Synchronizer drives one synchronization run. It holds no per-run state,
// so a single Synchronizer can be reused across multiple calls to
// SynchronizeToFolder.
type Synchronizer struct {
	config    *config.Config
	interrupt *interrupt.Controller
	logger    *logging.Logger
}

// New constructs a Synchronizer from explicit configuration, interrupt
// controller, and logger (SPEC_FULL.md §4.5 — never read from a package
// global).
func New(cfg *config.Config, controller *interrupt.Controller, logger *logging.Logger) *Synchronizer {
	return &Synchronizer{config: cfg, interrupt: controller, logger: logger}
}

// SynchronizeToFolder runs the full two-phase flow against destRoot on
// destFS, pulling entries from src. onPhase1Progress and onPhase2Progress
// are invoked once per Phase 1 and Phase 2 iteration respectively; pass
// progress.Silent() for either to suppress reporting.
//
// On success it returns a populated *SyncResult and a nil error. On
// cancellation it returns a nil result and an *interrupt.WithData[*SyncResult]
// wrapping the context's cancellation cause. Any other returned error is a
// genuine, unrecovered failure (e.g. the destination filesystem became
// unreachable outside a retry loop).
func (s *Synchronizer) SynchronizeToFolder(
	ctx context.Context,
	src source.Source,
	destFS fs.Filesystem,
	destRoot string,
	onPhase1Progress progress.Callback,
	onPhase2Progress progress.Callback,
) (*SyncResult, error) {
	ix := index.New(destFS, destRoot, s.config, s.interrupt, s.logger)

	totalIndices, err := ix.CountManagedFiles()
	if err != nil {
		return nil, fmt.Errorf("sync: unable to count managed files: %w", err)
	}

	filesIndexed, reindexErr := ix.Reindex(ctx, func() {
		if onPhase1Progress != nil {
			onPhase1Progress()
		}
	})
	indexDiff := ix.Diff()

	if reindexErr != nil {
		var withData *interrupt.WithData[int]
		if errors.As(reindexErr, &withData) {
			if err := ix.Commit(); err != nil {
				s.logger.Warnf("unable to commit partial reindex: %v", err)
			}
			partial := &SyncResult{
				FilesIndexed: withData.Data,
				TotalIndices: totalIndices,
				IndexDiff:    indexDiff,
			}
			return nil, interrupt.NewWithData(partial, withData.Cause)
		}
		return nil, fmt.Errorf("sync: reindex failed: %w", reindexErr)
	}

	if err := ix.Commit(); err != nil {
		s.logger.Warnf("unable to commit reindexed state: %v", err)
	}

	totalFiles, err := src.CountFiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("sync: unable to count source files: %w", err)
	}

	details := SyncDetails{}
	observed := make(map[string]struct{}, totalFiles)
	processed := 0

	listErr := src.ListFiles(ctx, func(file source.File) error {
		defer must.Close(file, s.logger)

		processed++
		isLast := processed >= totalFiles

		relativePath := file.RelativePath()
		observed[relativePath] = struct{}{}
		details.SizeDiscovered += file.Size()

		if ix.Match(relativePath, file.LastModified(), file.Size()) {
			details.FilesSkipped++
			details.SizeSkipped += file.Size()
			if onPhase2Progress != nil {
				onPhase2Progress()
			}
			return s.maybeSleep(ctx, isLast)
		}

		target := destFS.Join(destRoot, relativePath)
		if err := destFS.Mkdir(destFS.Dirname(target)); err != nil {
			return fmt.Errorf("sync: unable to create parent directory: %w", err)
		}

		succeeded, interruptErr := s.writeWithRetries(ctx, ix, file, destFS, target, relativePath)
		if interruptErr != nil {
			return interruptErr
		}
		if !succeeded {
			details.CurrentDestinationPath = target
			return errFatalCopy
		}

		details.FilesCopied++
		details.SizeCopied += file.Size()
		if onPhase2Progress != nil {
			onPhase2Progress()
		}
		return s.maybeSleep(ctx, isLast)
	})

	if listErr != nil {
		if errors.Is(listErr, context.Canceled) || errors.Is(listErr, context.DeadlineExceeded) {
			if err := ix.Commit(); err != nil {
				s.logger.Warnf("unable to commit partial sync: %v", err)
			}
			partial := &SyncResult{
				FilesIndexed: filesIndexed,
				TotalIndices: totalIndices,
				TotalFiles:   totalFiles,
				Details:      details,
				IndexDiff:    indexDiff,
				SyncDiff:     ix.Diff(),
			}
			return nil, interrupt.NewWithData(partial, listErr)
		}
		if !errors.Is(listErr, errFatalCopy) {
			return nil, fmt.Errorf("sync: source enumeration failed: %w", listErr)
		}
	}

	completedNormally := listErr == nil
	if completedNormally && s.config.Destructive {
		for _, relativePath := range ix.ManagedPaths() {
			if _, ok := observed[relativePath]; ok {
				continue
			}
			if err := ix.Destroy(relativePath); err != nil {
				s.logger.Warnf("unable to destroy stale entry %q: %v", relativePath, err)
				continue
			}
		}
		if err := destFS.RemoveEmptyFolders(destRoot); err != nil {
			s.logger.Warnf("unable to remove empty folders: %v", err)
		}
	}

	syncDiff := ix.Diff()
	if err := ix.Commit(); err != nil {
		s.logger.Warnf("unable to commit final state: %v", err)
	}

	return &SyncResult{
		FilesIndexed: filesIndexed,
		TotalIndices: totalIndices,
		TotalFiles:   totalFiles,
		Details:      details,
		IndexDiff:    indexDiff,
		SyncDiff:     syncDiff,
	}, nil
}

// maybeSleep pauses for Config.Delay between files, skipping the pause
// after the last file and returning ctx's cancellation if one arrives
// during the pause, so the sleep is itself a safe point rather than an
// uninterruptible blocking call.
func (s *Synchronizer) maybeSleep(ctx context.Context, isLast bool) error {
	if isLast || s.config.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.config.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func timeFromEpoch(seconds float64) time.Time {
	wholeSeconds := int64(seconds)
	nanoseconds := int64((seconds - float64(wholeSeconds)) * 1e9)
	return time.Unix(wholeSeconds, nanoseconds)
}
