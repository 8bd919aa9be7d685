// Package devicefs provides a Source implementation that enumerates a
// local directory tree, standing in for the out-of-scope device-
// enumeration layer (spec.md §1's "device enumeration layer"). It is the
// implementation exercised by this module's own tests and is suitable for
// plain directory-to-directory synchronization.
package devicefs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/terraytm/iku/pkg/iku/source"
)

// Source enumerates the regular files under Root.
type Source struct {
	Root       string
	BufferSize int
}

// New constructs a devicefs Source rooted at root, reading in bufferSize
// chunks.
func New(root string, bufferSize int) *Source {
	return &Source{Root: root, BufferSize: bufferSize}
}

var _ source.Source = (*Source)(nil)

func (s *Source) walk(visit func(relativePath string, info os.FileInfo) error) error {
	return filepath.WalkDir(s.Root, func(path string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		info, infoErr := entry.Info()
		if infoErr != nil {
			return infoErr
		}
		rel, relErr := filepath.Rel(s.Root, path)
		if relErr != nil {
			return relErr
		}
		return visit(filepath.ToSlash(rel), info)
	})
}

// ListFiles implements source.Source.
func (s *Source) ListFiles(ctx context.Context, visit func(source.File) error) error {
	return s.walk(func(relativePath string, info os.FileInfo) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		file, err := newFile(s, relativePath, info)
		if err != nil {
			return err
		}
		return visit(file)
	})
}

// CountFiles implements source.Source.
func (s *Source) CountFiles(ctx context.Context) (int, error) {
	count := 0
	err := s.walk(func(string, os.FileInfo) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		count++
		return nil
	})
	return count, err
}

// file is a devicefs-backed source.File, grounded on
// original_source/iku/file.py's File class (the local-disk, non-device
// variant): it opens a read handle on construction and supports reopening
// it from scratch since os.File does not reliably recover from certain
// read failures (e.g. on a remote-mounted source volume) without a fresh
// open.
type file struct {
	source       *Source
	absolutePath string
	relativePath string
	handle       *os.File
	info         os.FileInfo
}

func newFile(s *Source, relativePath string, info os.FileInfo) (*file, error) {
	absolutePath := filepath.Join(s.Root, filepath.FromSlash(relativePath))
	handle, err := os.Open(absolutePath)
	if err != nil {
		return nil, fmt.Errorf("devicefs: unable to open %s: %w", absolutePath, err)
	}
	return &file{
		source:       s,
		absolutePath: absolutePath,
		relativePath: relativePath,
		handle:       handle,
		info:         info,
	}, nil
}

func (f *file) RelativePath() string { return f.relativePath }
func (f *file) Size() int64          { return f.info.Size() }
func (f *file) LastModified() float64 {
	return float64(f.info.ModTime().UnixNano()) / 1e9
}
func (f *file) CreatedTime() float64 {
	fallback := float64(f.info.ModTime().UnixNano()) / 1e9
	_, changeTime := statTimes(f.absolutePath, fallback)
	return changeTime
}
func (f *file) LastAccessed() float64 {
	fallback := float64(f.info.ModTime().UnixNano()) / 1e9
	accessTime, _ := statTimes(f.absolutePath, fallback)
	return accessTime
}

func (f *file) Read() ([]byte, error) {
	buffer := make([]byte, f.source.BufferSize)
	n, err := f.handle.Read(buffer)
	if n > 0 {
		return buffer[:n], nil
	}
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", source.ErrStreamRead, err)
	}
	return nil, nil
}

func (f *file) ResetSeek() error {
	if _, err := f.handle.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w: %v", source.ErrStreamSeek, err)
	}
	return nil
}

func (f *file) Reopen() bool {
	f.handle.Close()
	handle, err := os.Open(f.absolutePath)
	if err != nil {
		return false
	}
	info, err := handle.Stat()
	if err != nil {
		handle.Close()
		return false
	}
	f.handle = handle
	f.info = info
	return true
}

func (f *file) Close() error {
	return f.handle.Close()
}
