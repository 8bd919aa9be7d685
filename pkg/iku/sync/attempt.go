package sync

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"

	"github.com/terraytm/iku/pkg/iku/fs"
	"github.com/terraytm/iku/pkg/iku/index"
	"github.com/terraytm/iku/pkg/iku/must"
	"github.com/terraytm/iku/pkg/iku/source"
)

// writeWithRetries performs up to Config.Retries write attempts for one
// file, per spec.md §4.4 step 4. It returns (true, nil) on success,
// (false, nil) if every attempt failed without a retryable cause left to
// exhaust (a clean, reportable failure — the caller signals this via
// SyncDetails.CurrentDestinationPath), or (false, err) if a cancellation
// interrupted the attempt, in which case err is the context error and must
// be propagated rather than retried.
func (s *Synchronizer) writeWithRetries(
	ctx context.Context,
	ix *index.Indexer,
	file source.File,
	destFS fs.Filesystem,
	target, relativePath string,
) (bool, error) {
	for attempt := 0; attempt < s.config.Retries; attempt++ {
		succeeded, shouldRetry, interruptErr := s.attemptOnce(ctx, ix, file, destFS, target, relativePath)
		if interruptErr != nil {
			return false, interruptErr
		}
		if succeeded {
			return true, nil
		}
		if !shouldRetry {
			break
		}
	}
	return false, nil
}

// attemptOnce performs a single staged write: stage, stream-and-hash,
// timestamp, update, and validate. On any failure it reverts the staging
// region before returning, per the staging protocol's guarantee that a
// destination file is never left partially written.
func (s *Synchronizer) attemptOnce(
	ctx context.Context,
	ix *index.Indexer,
	file source.File,
	destFS fs.Filesystem,
	target, relativePath string,
) (succeeded, shouldRetry bool, interruptErr error) {
	region, err := ix.Stage(target, relativePath)
	if err != nil {
		// The prelude failed to back up an existing file; treat as an
		// ordinary destination I/O error (spec.md §7), retryable within
		// budget. Nothing was staged, so there is nothing to revert.
		return false, true, nil
	}

	if err := file.ResetSeek(); err != nil {
		ix.Revert()
		return false, file.Reopen(), nil
	}

	destFile, err := destFS.Open(target, fs.OpenWrite)
	if err != nil {
		ix.Revert()
		return false, true, nil
	}

	digest := md5.New()
	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			must.Close(destFile, s.logger)
			ix.Revert()
			return false, false, ctxErr
		}

		chunk, readErr := file.Read()
		if readErr != nil {
			must.Close(destFile, s.logger)
			ix.Revert()
			if errors.Is(readErr, source.ErrStreamRead) {
				return false, file.Reopen(), nil
			}
			return false, true, nil
		}
		if chunk == nil {
			break
		}

		if _, writeErr := destFile.Write(chunk); writeErr != nil {
			must.Close(destFile, s.logger)
			ix.Revert()
			return false, true, nil
		}
		digest.Write(chunk)
	}

	if err := destFile.Close(); err != nil {
		ix.Revert()
		return false, true, nil
	}

	modTime := timeFromEpoch(file.LastModified())
	accessTime := timeFromEpoch(file.LastAccessed())
	if err := destFS.Utime(target, accessTime, modTime); err != nil {
		ix.Revert()
		return false, true, nil
	}
	if err := destFS.Ctime(target, timeFromEpoch(file.CreatedTime())); err != nil {
		s.logger.Warnf("unable to set creation time on %s: %v", target, err)
	}

	if err := ix.Update(relativePath); err != nil {
		ix.Revert()
		return false, true, nil
	}

	sourceHash := fmt.Sprintf("%x", digest.Sum(nil))
	if !ix.Validate(relativePath, sourceHash, file.LastModified(), file.Size()) {
		ix.Revert()
		return false, true, nil
	}

	if err := region.Commit(); err != nil {
		// The content was already written, timestamped, and validated; a
		// failed backup cleanup leaves a stray .bak file but not a
		// corrupted destination, so this is logged rather than reverted.
		s.logger.Warnf("unable to finalize staging region for %s: %v", target, err)
	}

	return true, false, nil
}
