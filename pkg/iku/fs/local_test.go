package fs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/terraytm/iku/pkg/iku/fs"
)

func TestLocalOpenWriteCreatesParentDirectories(t *testing.T) {
	root := t.TempDir()
	local := fs.NewLocal()

	target := filepath.Join(root, "nested", "dir", "file.txt")
	file, err := local.Open(target, fs.OpenWrite)
	require.NoError(t, err)
	_, err = file.Write([]byte("payload"))
	require.NoError(t, err)
	require.NoError(t, file.Close())

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, "payload", string(data))
}

func TestLocalRenameReplacesDestination(t *testing.T) {
	root := t.TempDir()
	local := fs.NewLocal()

	src := filepath.Join(root, "src.txt")
	dst := filepath.Join(root, "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("new"), 0o644))
	require.NoError(t, os.WriteFile(dst, []byte("old"), 0o644))

	require.NoError(t, local.Rename(src, dst))
	require.NoFileExists(t, src)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, "new", string(data))
}

func TestLocalRglobFilesSkipsDirectories(t *testing.T) {
	root := t.TempDir()
	local := fs.NewLocal()

	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("b"), 0o644))

	var found []string
	err := local.RglobFiles(root, func(relativePath string) error {
		found = append(found, relativePath)
		return nil
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a.txt", "sub/b.txt"}, found)
}

func TestLocalRemoveEmptyFoldersRemovesOnlyEmpty(t *testing.T) {
	root := t.TempDir()
	local := fs.NewLocal()

	emptyDir := filepath.Join(root, "empty")
	nonEmptyDir := filepath.Join(root, "nonempty")
	require.NoError(t, os.MkdirAll(emptyDir, 0o755))
	require.NoError(t, os.MkdirAll(nonEmptyDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nonEmptyDir, "f.txt"), []byte("x"), 0o644))

	require.NoError(t, local.RemoveEmptyFolders(root))

	require.NoDirExists(t, emptyDir)
	require.DirExists(t, nonEmptyDir)
}

func TestLocalIsFile(t *testing.T) {
	root := t.TempDir()
	local := fs.NewLocal()

	filePath := filepath.Join(root, "f.txt")
	require.NoError(t, os.WriteFile(filePath, []byte("x"), 0o644))
	dirPath := filepath.Join(root, "d")
	require.NoError(t, os.MkdirAll(dirPath, 0o755))

	require.True(t, local.IsFile(filePath))
	require.False(t, local.IsFile(dirPath))
	require.False(t, local.IsFile(filepath.Join(root, "missing.txt")))
}
