package sync_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/terraytm/iku/pkg/iku/config"
	"github.com/terraytm/iku/pkg/iku/fs"
	"github.com/terraytm/iku/pkg/iku/index"
	"github.com/terraytm/iku/pkg/iku/interrupt"
	"github.com/terraytm/iku/pkg/iku/logging"
	"github.com/terraytm/iku/pkg/iku/source"
	"github.com/terraytm/iku/pkg/iku/source/devicefs"
	"github.com/terraytm/iku/pkg/iku/sync"
)

func newSynchronizer(cfg *config.Config) *sync.Synchronizer {
	return sync.New(cfg, &interrupt.Controller{}, logging.RootLogger)
}

func writeSourceFile(t *testing.T, root, relativePath string, content []byte) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(relativePath))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, content, 0o644))
}

func TestSynchronizeColdStart(t *testing.T) {
	srcRoot := t.TempDir()
	destRoot := t.TempDir()

	writeSourceFile(t, srcRoot, "a.jpg", make([]byte, 100))
	writeSourceFile(t, srcRoot, "b.jpg", make([]byte, 200))
	writeSourceFile(t, srcRoot, "c.jpg", make([]byte, 300))

	cfg := config.Default()
	synchronizer := newSynchronizer(cfg)
	src := devicefs.New(srcRoot, cfg.BufferSize)
	destFS := fs.NewLocal()

	result, err := synchronizer.SynchronizeToFolder(context.Background(), src, destFS, destRoot, nil, nil)
	require.NoError(t, err)

	require.Equal(t, 3, result.Details.FilesCopied)
	require.Equal(t, 0, result.Details.FilesSkipped)
	require.Equal(t, int64(600), result.Details.SizeCopied)
	require.Empty(t, result.Details.CurrentDestinationPath)

	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		require.FileExists(t, filepath.Join(destRoot, name))
	}
}

func TestSynchronizeResyncUnchanged(t *testing.T) {
	srcRoot := t.TempDir()
	destRoot := t.TempDir()

	writeSourceFile(t, srcRoot, "a.jpg", make([]byte, 100))
	writeSourceFile(t, srcRoot, "b.jpg", make([]byte, 200))
	writeSourceFile(t, srcRoot, "c.jpg", make([]byte, 300))

	cfg := config.Default()
	synchronizer := newSynchronizer(cfg)
	destFS := fs.NewLocal()

	first, err := synchronizer.SynchronizeToFolder(context.Background(), devicefs.New(srcRoot, cfg.BufferSize), destFS, destRoot, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 3, first.Details.FilesCopied)

	second, err := synchronizer.SynchronizeToFolder(context.Background(), devicefs.New(srcRoot, cfg.BufferSize), destFS, destRoot, nil, nil)
	require.NoError(t, err)
	require.Equal(t, 0, second.Details.FilesCopied)
	require.Equal(t, 3, second.Details.FilesSkipped)
	require.Equal(t, int64(600), second.Details.SizeSkipped)
	require.True(t, second.SyncDiff.IsEmpty())
}

func TestSynchronizeDestructiveRemovesStaleEntries(t *testing.T) {
	srcRoot := t.TempDir()
	destRoot := t.TempDir()

	writeSourceFile(t, srcRoot, "keep.jpg", []byte("keep me"))

	cfg := config.Default()
	synchronizer := newSynchronizer(cfg)
	destFS := fs.NewLocal()

	_, err := synchronizer.SynchronizeToFolder(context.Background(), devicefs.New(srcRoot, cfg.BufferSize), destFS, destRoot, nil, nil)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(srcRoot, "keep.jpg")))
	writeSourceFile(t, srcRoot, "new.jpg", []byte("new content"))

	cfg.Destructive = true
	result, err := synchronizer.SynchronizeToFolder(context.Background(), devicefs.New(srcRoot, cfg.BufferSize), destFS, destRoot, nil, nil)
	require.NoError(t, err)

	require.NoFileExists(t, filepath.Join(destRoot, "keep.jpg"))
	require.FileExists(t, filepath.Join(destRoot, "new.jpg"))
	require.Equal(t, []string{"keep.jpg"}, result.SyncDiff.Removed)
}

// fakeFile is a hand-rolled source.File used to simulate a source that
// fails mid-stream on its first attempt and succeeds once reopened,
// exercising the StreamRead retry path that devicefs's real file handles
// cannot be made to fail on demand.
type fakeFile struct {
	relativePath string
	content      []byte
	pos          int
	failOnce     bool
	reopenCount  int
}

func (f *fakeFile) RelativePath() string   { return f.relativePath }
func (f *fakeFile) Size() int64            { return int64(len(f.content)) }
func (f *fakeFile) LastModified() float64  { return 1000 }
func (f *fakeFile) CreatedTime() float64   { return 1000 }
func (f *fakeFile) LastAccessed() float64  { return 1000 }
func (f *fakeFile) ResetSeek() error       { f.pos = 0; return nil }

func (f *fakeFile) Read() ([]byte, error) {
	if f.failOnce && f.pos == 0 {
		return nil, source.ErrStreamRead
	}
	if f.pos >= len(f.content) {
		return nil, nil
	}
	end := f.pos + 4
	if end > len(f.content) {
		end = len(f.content)
	}
	chunk := f.content[f.pos:end]
	f.pos = end
	return chunk, nil
}

func (f *fakeFile) Reopen() bool {
	f.failOnce = false
	f.reopenCount++
	return true
}

func (f *fakeFile) Close() error { return nil }

type fakeSource struct {
	files []source.File
}

func (s *fakeSource) ListFiles(ctx context.Context, visit func(source.File) error) error {
	for _, file := range s.files {
		if err := visit(file); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeSource) CountFiles(ctx context.Context) (int, error) {
	return len(s.files), nil
}

func TestSynchronizeRetriesAfterStreamReadFailure(t *testing.T) {
	destRoot := t.TempDir()

	flaky := &fakeFile{relativePath: "d.bin", content: []byte("0123456789"), failOnce: true}
	src := &fakeSource{files: []source.File{flaky}}

	cfg := config.Default()
	cfg.Retries = 3
	synchronizer := newSynchronizer(cfg)

	result, err := synchronizer.SynchronizeToFolder(context.Background(), src, fs.NewLocal(), destRoot, nil, nil)
	require.NoError(t, err)

	require.Equal(t, 1, result.Details.FilesCopied)
	require.Empty(t, result.Details.CurrentDestinationPath)
	require.Equal(t, 1, flaky.reopenCount)
	require.NoFileExists(t, filepath.Join(destRoot, "d.bin.bak"))

	data, err := os.ReadFile(filepath.Join(destRoot, "d.bin"))
	require.NoError(t, err)
	require.Equal(t, "0123456789", string(data))
}

// fatalFile always fails to read and never reopens successfully, so the
// first attempt fails without a retry and the run reports a fatal,
// non-error result.
type fatalFile struct {
	fakeFile
}

func (f *fatalFile) Read() ([]byte, error) {
	return nil, source.ErrStreamRead
}

func (f *fatalFile) Reopen() bool { return false }

// cancelingFile cancels its own run via cancel after its first chunk is
// read, simulating a termination signal arriving mid-stream (scenario S4).
type cancelingFile struct {
	fakeFile
	cancel context.CancelFunc
	reads  int
}

func (f *cancelingFile) Read() ([]byte, error) {
	f.reads++
	if f.reads == 1 {
		chunk, err := f.fakeFile.Read()
		f.cancel()
		return chunk, err
	}
	return f.fakeFile.Read()
}

func TestSynchronizeInterruptMidCopyLeavesNoPartialFileOrIndexRow(t *testing.T) {
	destRoot := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	interrupted := &cancelingFile{
		fakeFile: fakeFile{relativePath: "big.bin", content: make([]byte, 64)},
		cancel:   cancel,
	}
	src := &fakeSource{files: []source.File{interrupted}}

	cfg := config.Default()
	synchronizer := newSynchronizer(cfg)

	result, err := synchronizer.SynchronizeToFolder(ctx, src, fs.NewLocal(), destRoot, nil, nil)
	require.Nil(t, result)

	var withData *interrupt.WithData[*sync.SyncResult]
	require.True(t, errors.As(err, &withData))
	require.Zero(t, withData.Data.Details.FilesCopied)

	require.NoFileExists(t, filepath.Join(destRoot, "big.bin"))
	require.NoFileExists(t, filepath.Join(destRoot, "big.bin.bak"))

	ix := index.New(fs.NewLocal(), destRoot, cfg, &interrupt.Controller{}, logging.RootLogger)
	_, getErr := ix.Get("big.bin")
	require.ErrorIs(t, getErr, index.ErrNotManaged)
}

func TestSynchronizeReportsFatalFailureWhenSourceCannotReopen(t *testing.T) {
	destRoot := t.TempDir()

	broken := &fatalFile{fakeFile: fakeFile{relativePath: "broken.bin", content: []byte("data")}}
	src := &fakeSource{files: []source.File{broken}}

	cfg := config.Default()
	synchronizer := newSynchronizer(cfg)

	result, err := synchronizer.SynchronizeToFolder(context.Background(), src, fs.NewLocal(), destRoot, nil, nil)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(destRoot, "broken.bin"), result.Details.CurrentDestinationPath)
	require.NoFileExists(t, filepath.Join(destRoot, "broken.bin"))
}
