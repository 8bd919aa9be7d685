package devicefs_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/terraytm/iku/pkg/iku/source"
	"github.com/terraytm/iku/pkg/iku/source/devicefs"
)

func TestListFilesEnumeratesAllEntries(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b.txt"), []byte("bb"), 0o644))

	src := devicefs.New(root, 4)

	var seen []string
	err := src.ListFiles(context.Background(), func(file source.File) error {
		seen = append(seen, file.RelativePath())
		return file.Close()
	})
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a.txt", "sub/b.txt"}, seen)
}

func TestCountFilesMatchesListFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b.txt"), []byte("b"), 0o644))

	src := devicefs.New(root, 4)
	count, err := src.CountFiles(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, count)
}

func TestReadStreamsInBufferSizedChunksAndResetsSeek(t *testing.T) {
	root := t.TempDir()
	content := []byte("abcdefghij")
	require.NoError(t, os.WriteFile(filepath.Join(root, "f.bin"), content, 0o644))

	src := devicefs.New(root, 4)

	var got []byte
	err := src.ListFiles(context.Background(), func(file source.File) error {
		defer file.Close()
		for {
			chunk, readErr := file.Read()
			if readErr != nil {
				return readErr
			}
			if chunk == nil {
				break
			}
			got = append(got, chunk...)
		}
		require.NoError(t, file.ResetSeek())
		again, readErr := file.Read()
		require.NoError(t, readErr)
		require.Equal(t, content[:4], again)
		return nil
	})
	require.NoError(t, err)
	require.True(t, bytes.Equal(content, got))
}
