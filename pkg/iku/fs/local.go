package fs

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Local is a Filesystem backed directly by the host operating system,
// grounded on the teacher's pkg/filesystem (atomic.go's temporary-file-then-
// rename pattern and directory.go's recursive walk), simplified to plain
// os/path-filepath calls: this spec does not require the teacher's
// descriptor-based race-free directory operations (those guard against
// symlink-swap races during concurrent multi-writer access, which is out of
// scope per spec.md's Non-goals), and the original Python implementation
// itself uses plain os calls throughout.
type Local struct{}

// NewLocal constructs a local filesystem implementation.
func NewLocal() *Local {
	return &Local{}
}

var _ Filesystem = (*Local)(nil)

func (l *Local) Open(path string, mode OpenMode) (File, error) {
	switch mode {
	case OpenRead:
		return os.Open(path)
	case OpenWrite:
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("unable to create parent directory: %w", err)
		}
		return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	default:
		return nil, fmt.Errorf("unsupported open mode: %v", mode)
	}
}

func (l *Local) Stat(path string) (Info, error) {
	metadata, err := os.Lstat(path)
	if err != nil {
		return Info{}, err
	}
	accessTime, changeTime := statTimes(path, metadata.ModTime())
	return Info{
		Name:       metadata.Name(),
		Size:       metadata.Size(),
		ModTime:    metadata.ModTime(),
		AccessTime: accessTime,
		ChangeTime: changeTime,
		IsDir:      metadata.IsDir(),
	}, nil
}

// Rename moves src to dst. Cross-device renames are not handled specially
// here (unlike the teacher's Rename, which falls back to copy+remove on
// EXDEV for directory trees) because staging always places the backup and
// the new content within the same destination root.
func (l *Local) Rename(src, dst string) error {
	return os.Rename(src, dst)
}

func (l *Local) Unlink(path string) error {
	return os.Remove(path)
}

func (l *Local) Utime(path string, accessTime, modTime time.Time) error {
	return os.Chtimes(path, accessTime, modTime)
}

func (l *Local) IsFile(path string) bool {
	info, err := os.Lstat(path)
	return err == nil && info.Mode().IsRegular()
}

func (l *Local) Join(elem ...string) string {
	return filepath.Join(elem...)
}

func (l *Local) Dirname(path string) string {
	return filepath.Dir(path)
}

func (l *Local) Relpath(path, base string) (string, error) {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

func (l *Local) Mkdir(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (l *Local) RglobFiles(root string, walk WalkFunc) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		return walk(filepath.ToSlash(rel))
	})
}

func (l *Local) RemoveEmptyFolders(root string) error {
	var directories []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() && path != root {
			directories = append(directories, path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Remove deepest-first so that a parent left empty by removing its
	// children is itself eligible for removal in the same pass.
	for i := len(directories) - 1; i >= 0; i-- {
		dir := directories[i]
		entries, readErr := os.ReadDir(dir)
		if readErr != nil {
			continue
		}
		if len(entries) == 0 {
			os.Remove(dir)
		}
	}
	return nil
}
