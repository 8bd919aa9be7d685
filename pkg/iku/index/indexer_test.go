package index_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/terraytm/iku/pkg/iku/config"
	"github.com/terraytm/iku/pkg/iku/fs"
	"github.com/terraytm/iku/pkg/iku/index"
	"github.com/terraytm/iku/pkg/iku/interrupt"
	"github.com/terraytm/iku/pkg/iku/logging"
)

func newTestIndexer(t *testing.T, root string) *index.Indexer {
	t.Helper()
	return index.New(fs.NewLocal(), root, config.Default(), &interrupt.Controller{}, logging.RootLogger)
}

func TestReindexDiscoversAndHashesFiles(t *testing.T) {
	root := t.TempDir()
	writeFileAt(t, filepath.Join(root, "a.txt"), []byte("hello"))
	writeFileAt(t, filepath.Join(root, "sub", "b.txt"), []byte("world"))

	ix := newTestIndexer(t, root)
	count, err := ix.Reindex(context.Background(), nil)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	diff := ix.Diff()
	require.ElementsMatch(t, []string{"a.txt", "sub/b.txt"}, diff.Added)
	require.Empty(t, diff.Modified)
	require.Empty(t, diff.Removed)

	row, err := ix.Get("a.txt")
	require.NoError(t, err)
	require.Equal(t, int64(5), row.Size)
}

func TestCommitRoundTrip(t *testing.T) {
	root := t.TempDir()
	writeFileAt(t, filepath.Join(root, "a.txt"), []byte("hello"))

	first := newTestIndexer(t, root)
	_, err := first.Reindex(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, first.Commit())

	second := newTestIndexer(t, root)
	require.Equal(t, first.IndexCount(), second.IndexCount())
	row, err := second.Get("a.txt")
	require.NoError(t, err)
	require.Equal(t, int64(5), row.Size)

	diff := second.Diff()
	require.True(t, diff.IsEmpty())
}

func TestReindexEvictsRemovedFiles(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a.txt")
	writeFileAt(t, path, []byte("hello"))

	ix := newTestIndexer(t, root)
	_, err := ix.Reindex(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, ix.Commit())

	require.NoError(t, os.Remove(path))

	reloaded := newTestIndexer(t, root)
	_, err = reloaded.Reindex(context.Background(), nil)
	require.NoError(t, err)

	_, err = reloaded.Get("a.txt")
	require.ErrorIs(t, err, index.ErrNotManaged)
	require.Equal(t, []string{"a.txt"}, reloaded.Diff().Removed)
}

func TestCorruptIndexIsDiscardedOnLoad(t *testing.T) {
	root := t.TempDir()
	indexPath := filepath.Join(root, index.Name)
	require.NoError(t, os.WriteFile(indexPath, []byte("not a gzip file"), 0o644))

	ix := newTestIndexer(t, root)
	require.Equal(t, 0, ix.IndexCount())
	require.NoFileExists(t, indexPath)

	require.NoError(t, ix.Commit())
}

func TestStageCommitWritesAndValidates(t *testing.T) {
	root := t.TempDir()
	ix := newTestIndexer(t, root)

	target := filepath.Join(root, "a.txt")
	region, err := ix.Stage(target, "a.txt")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(target, []byte("content"), 0o644))
	require.NoError(t, ix.Update("a.txt"))
	require.NoError(t, region.Commit())

	require.NoFileExists(t, target+index.BackupExtension)

	row, err := ix.Get("a.txt")
	require.NoError(t, err)
	require.True(t, ix.Validate("a.txt", row.FileHash, row.LastModified, row.Size))
}

func TestRevertRestoresPriorContent(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "a.txt")
	require.NoError(t, os.WriteFile(target, []byte("original"), 0o644))

	ix := newTestIndexer(t, root)
	_, err := ix.Reindex(context.Background(), nil)
	require.NoError(t, err)

	_, err = ix.Stage(target, "a.txt")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(target, []byte("corrupted-partial"), 0o644))
	ix.Revert()

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "original", string(data))

	row, err := ix.Get("a.txt")
	require.NoError(t, err)
	require.Equal(t, int64(len("original")), row.Size)
}

func TestRevertRemovesAddedRowAndFile(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "new.txt")

	ix := newTestIndexer(t, root)
	_, err := ix.Stage(target, "new.txt")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(target, []byte("partial"), 0o644))
	require.NoError(t, ix.Update("new.txt"))

	ix.Revert()

	require.NoFileExists(t, target)
	_, err = ix.Get("new.txt")
	require.ErrorIs(t, err, index.ErrNotManaged)
	require.Empty(t, ix.Diff().Added)
}

func TestFindDuplicatesGroupsByContentHash(t *testing.T) {
	root := t.TempDir()
	writeFileAt(t, filepath.Join(root, "a.txt"), []byte("same"))
	writeFileAt(t, filepath.Join(root, "b.txt"), []byte("same"))
	writeFileAt(t, filepath.Join(root, "c.txt"), []byte("different"))

	ix := newTestIndexer(t, root)
	_, err := ix.Reindex(context.Background(), nil)
	require.NoError(t, err)

	groups := ix.FindDuplicates(index.DuplicateContent)
	require.Len(t, groups, 1)
	require.ElementsMatch(t, []string{"a.txt", "b.txt"}, groups[0])
}

func writeFileAt(t *testing.T, path string, content []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
}
