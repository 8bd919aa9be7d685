package index

import (
	"compress/gzip"
	"context"
	"crypto/md5"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/terraytm/iku/pkg/iku/config"
	"github.com/terraytm/iku/pkg/iku/fs"
	"github.com/terraytm/iku/pkg/iku/interrupt"
	"github.com/terraytm/iku/pkg/iku/logging"
)

// Indexer controls the state of a destination folder: what files are
// present and what changes can be undone. It loads its persisted index on
// construction, tolerating a corrupt or unreadable index file by treating
// it as empty and unlinking it (SPEC_FULL.md §4.3).
//
// An Indexer is not safe for concurrent use; the whole package assumes the
// single-threaded, cooperative scheduling model of SPEC_FULL.md §5.
type Indexer struct {
	filesystem fs.Filesystem
	config     *config.Config
	interrupt  *interrupt.Controller
	logger     *logging.Logger

	baseFolder string
	indexPath  string

	rows   map[string]Row
	diff   Diff
	staged *StagedData
}

// New constructs an Indexer rooted at baseFolder, loading any existing
// persisted index.
func New(filesystem fs.Filesystem, baseFolder string, cfg *config.Config, controller *interrupt.Controller, logger *logging.Logger) *Indexer {
	ix := &Indexer{
		filesystem: filesystem,
		config:     cfg,
		interrupt:  controller,
		logger:     logger,
		baseFolder: baseFolder,
		indexPath:  filesystem.Join(baseFolder, Name),
		rows:       make(map[string]Row),
	}
	ix.load()
	return ix
}

// load reads the persisted index, if any. Any parse, decompression, or I/O
// failure is treated as an empty index, and the corrupt file is removed so
// that the next Commit starts fresh (SPEC_FULL.md §4.3, scenario S6).
func (ix *Indexer) load() {
	if !ix.filesystem.IsFile(ix.indexPath) {
		return
	}

	if err := ix.tryLoad(); err != nil {
		ix.rows = make(map[string]Row)
		if unlinkErr := ix.filesystem.Unlink(ix.indexPath); unlinkErr != nil {
			ix.logger.Warnf("unable to remove corrupt index: %v", unlinkErr)
		}
	}
}

func (ix *Indexer) tryLoad() error {
	file, err := ix.filesystem.Open(ix.indexPath, fs.OpenRead)
	if err != nil {
		return err
	}
	defer file.Close()

	reader, err := gzip.NewReader(file)
	if err != nil {
		return err
	}
	defer reader.Close()

	records, err := csv.NewReader(reader).ReadAll()
	if err != nil {
		return err
	}

	rows := make(map[string]Row, len(records))
	for _, record := range records {
		if len(record) != 4 {
			return fmt.Errorf("index: malformed row with %d fields", len(record))
		}
		path := record[0]
		lastModified, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return err
		}
		size, err := strconv.ParseInt(record[3], 10, 64)
		if err != nil {
			return err
		}
		rows[path] = Row{FileHash: record[1], LastModified: lastModified, Size: size}
	}

	ix.rows = rows
	return nil
}

// Get returns the row associated with relativePath, or ErrNotManaged if it
// is not present.
func (ix *Indexer) Get(relativePath string) (Row, error) {
	row, ok := ix.rows[relativePath]
	if !ok {
		return Row{}, ErrNotManaged
	}
	return row, nil
}

// set stores row under relativePath, updating the diff: an add if the key
// was previously absent, a modification if present with a different row,
// or no diff change if the row is unchanged.
func (ix *Indexer) set(relativePath string, row Row) {
	if existing, ok := ix.rows[relativePath]; ok {
		if existing != row {
			ix.diff.Modified = append(ix.diff.Modified, relativePath)
		}
	} else {
		ix.diff.Added = append(ix.diff.Added, relativePath)
	}
	ix.rows[relativePath] = row
}

// pop removes relativePath from the index, recording a removal.
func (ix *Indexer) pop(relativePath string) error {
	if _, ok := ix.rows[relativePath]; !ok {
		return ErrNotManaged
	}
	delete(ix.rows, relativePath)
	ix.diff.Removed = append(ix.diff.Removed, relativePath)
	return nil
}

// Match reports whether relativePath is present in the index with exactly
// the given modification time and size.
func (ix *Indexer) Match(relativePath string, lastModified float64, size int64) bool {
	row, ok := ix.rows[relativePath]
	return ok && row.LastModified == lastModified && row.Size == size
}

// Validate reports whether the index's record for relativePath agrees with
// the given hash, modification time, and size.
func (ix *Indexer) Validate(relativePath, hash string, lastModified float64, size int64) bool {
	return ix.Match(relativePath, lastModified, size) && ix.rows[relativePath].FileHash == hash
}

// hashFile streams path through MD5 in Config.BufferSize blocks, mirroring
// original_source/iku/indexer.py's _hash_file.
func (ix *Indexer) hashFile(path string) (string, error) {
	file, err := ix.filesystem.Open(path, fs.OpenRead)
	if err != nil {
		return "", err
	}
	defer file.Close()

	digest := md5.New()
	buffer := make([]byte, ix.config.BufferSize)
	if _, err := io.CopyBuffer(digest, file, buffer); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", digest.Sum(nil)), nil
}

// Update recomputes the row for relativePath from the destination file's
// current on-disk modification time, size, and content hash. This is the
// "post-write, recomputed from destination" fingerprint policy selected by
// SPEC_FULL.md §9's Open Question resolution.
func (ix *Indexer) Update(relativePath string) error {
	path := ix.filesystem.Join(ix.baseFolder, relativePath)
	if !ix.filesystem.IsFile(path) {
		return fmt.Errorf("index: %s: file not found", path)
	}

	hash, err := ix.hashFile(path)
	if err != nil {
		return err
	}
	info, err := ix.filesystem.Stat(path)
	if err != nil {
		return err
	}

	ix.set(relativePath, Row{FileHash: hash, LastModified: epochSeconds(info.ModTime), Size: info.Size})
	return nil
}

// Destroy removes relativePath from the index and unlinks the
// corresponding destination file. Used for destructive cleanup of files no
// longer present in the source.
func (ix *Indexer) Destroy(relativePath string) error {
	if err := ix.pop(relativePath); err != nil {
		return err
	}
	return ix.filesystem.Unlink(ix.filesystem.Join(ix.baseFolder, relativePath))
}

// Commit writes the in-memory index to the persisted index file if the
// diff is non-empty, then resets the diff. The write is bracketed by an
// interrupt-masked region so it always runs to completion once started.
func (ix *Indexer) Commit() error {
	unmask := ix.interrupt.Mask()
	defer unmask()

	if ix.diff.IsEmpty() {
		return nil
	}
	ix.diff = Diff{}

	if ix.filesystem.IsFile(ix.indexPath) {
		if err := ix.filesystem.Unlink(ix.indexPath); err != nil {
			return fmt.Errorf("unable to remove existing index: %w", err)
		}
	}

	if err := ix.writeIndex(); err != nil {
		return err
	}

	if err := ix.filesystem.MarkHidden(ix.indexPath); err != nil {
		ix.logger.Warnf("unable to mark index hidden: %v", err)
	}
	return nil
}

func (ix *Indexer) writeIndex() error {
	file, err := ix.filesystem.Open(ix.indexPath, fs.OpenWrite)
	if err != nil {
		return fmt.Errorf("unable to create index file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	csvWriter := csv.NewWriter(gzipWriter)

	for path, row := range ix.rows {
		record := []string{
			path,
			row.FileHash,
			strconv.FormatFloat(row.LastModified, 'f', -1, 64),
			strconv.FormatInt(row.Size, 10),
		}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("unable to write index row: %w", err)
		}
	}
	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return err
	}

	if err := gzipWriter.Close(); err != nil {
		return fmt.Errorf("unable to finalize index compression: %w", err)
	}
	return nil
}

// Reindex reconciles the in-memory index with what is actually present on
// disk under the base folder: every managed file whose (mtime, size) no
// longer matches is rehashed, and every previously-indexed path that no
// longer exists is popped. It returns the number of files examined.
//
// If ctx is canceled mid-walk, Reindex stops, and the returned error is an
// *interrupt.WithData[int] carrying the partial count, per SPEC_FULL.md
// §4.4's Phase 1 interrupt handling.
func (ix *Indexer) Reindex(ctx context.Context, onProgress func()) (int, error) {
	keys := make(map[string]struct{})
	filesIndexed := 0

	walkErr := ix.filesystem.RglobFiles(ix.baseFolder, func(relativePath string) error {
		if relativePath == Name || relativePath == lockName {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		unmask := ix.interrupt.Mask()
		defer unmask()

		keys[relativePath] = struct{}{}

		path := ix.filesystem.Join(ix.baseFolder, relativePath)
		info, err := ix.filesystem.Stat(path)
		if err != nil {
			return err
		}
		lastModified := epochSeconds(info.ModTime)

		if !ix.Match(relativePath, lastModified, info.Size) {
			hash, err := ix.hashFile(path)
			if err != nil {
				return err
			}
			ix.set(relativePath, Row{FileHash: hash, LastModified: lastModified, Size: info.Size})
		}

		if onProgress != nil {
			onProgress()
		}
		filesIndexed++
		return nil
	})

	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			return filesIndexed, interrupt.NewWithData(filesIndexed, walkErr)
		}
		return filesIndexed, walkErr
	}

	for relativePath := range ix.rows {
		if _, ok := keys[relativePath]; !ok {
			ix.pop(relativePath)
		}
	}

	return filesIndexed, nil
}

// CountManagedFiles returns the number of files currently managed by the
// index (i.e. present on disk under the base folder, excluding the index
// file itself).
func (ix *Indexer) CountManagedFiles() (int, error) {
	count := 0
	err := ix.filesystem.RglobFiles(ix.baseFolder, func(relativePath string) error {
		if relativePath != Name {
			count++
		}
		return nil
	})
	return count, err
}

// ManagedPaths returns every relative path currently tracked by the index,
// in no particular order. Used by the Synchronizer's destructive cleanup to
// find paths the current source run did not observe.
func (ix *Indexer) ManagedPaths() []string {
	paths := make([]string, 0, len(ix.rows))
	for relativePath := range ix.rows {
		paths = append(paths, relativePath)
	}
	return paths
}

// Diff returns a copy of the accumulated diff since the last Commit.
func (ix *Indexer) Diff() Diff {
	return ix.diff.Clone()
}

// IndexPath returns the path at which the persisted index is stored.
func (ix *Indexer) IndexPath() string {
	return ix.indexPath
}

// IndexCount returns the number of rows currently held in memory.
func (ix *Indexer) IndexCount() int {
	return len(ix.rows)
}

// StagedData returns the currently-live staging record, or nil.
func (ix *Indexer) StagedData() *StagedData {
	return ix.staged
}

// FindDuplicates groups managed files by content hash (DuplicateContent) or
// by content hash, modification time, and size (DuplicateStrict), returning
// only groups with two or more members.
func (ix *Indexer) FindDuplicates(mode DuplicateMode) [][]string {
	groups := make(map[string][]string)
	for path, row := range ix.rows {
		var key string
		if mode == DuplicateStrict {
			key = fmt.Sprintf("%s|%s|%d", row.FileHash, strconv.FormatFloat(row.LastModified, 'f', -1, 64), row.Size)
		} else {
			key = row.FileHash
		}
		groups[key] = append(groups[key], path)
	}

	var duplicates [][]string
	for _, group := range groups {
		if len(group) >= 2 {
			duplicates = append(duplicates, group)
		}
	}
	return duplicates
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
