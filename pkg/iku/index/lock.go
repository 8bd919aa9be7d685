package index

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/terraytm/iku/pkg/iku/fs"
)

// lockName is the fixed filename of the destination-folder advisory lock,
// stored alongside the persisted index.
const lockName = ".iku_lock"

// AcquireLock writes an advisory lock file, named lockName and holding a
// unique token, under baseFolder, refusing if one is already present. This is belt-and-suspenders beyond
// the single-writer assumption of SPEC_FULL.md §5: the core itself assumes
// one Indexer per destination at a time, but nothing stops a second `iku`
// invocation from targeting the same folder, so cmd/iku calls this before
// constructing an Indexer to fail fast with a clear error instead of the
// two runs silently corrupting each other's staged writes.
func AcquireLock(filesystem fs.Filesystem, baseFolder string) (*Lock, error) {
	path := filesystem.Join(baseFolder, lockName)
	if filesystem.IsFile(path) {
		return nil, fmt.Errorf("index: destination already locked by another run (%s)", path)
	}

	token := uuid.New().String()
	file, err := filesystem.Open(path, fs.OpenWrite)
	if err != nil {
		return nil, fmt.Errorf("index: unable to create lock file: %w", err)
	}
	if _, err := file.Write([]byte(token)); err != nil {
		file.Close()
		filesystem.Unlink(path)
		return nil, fmt.Errorf("index: unable to write lock token: %w", err)
	}
	if err := file.Close(); err != nil {
		filesystem.Unlink(path)
		return nil, fmt.Errorf("index: unable to finalize lock file: %w", err)
	}

	return &Lock{filesystem: filesystem, path: path, token: token}, nil
}

// Lock is a held destination-folder lock, released by Release.
type Lock struct {
	filesystem fs.Filesystem
	path       string
	token      string
}

// Release removes the lock file. It is safe to call more than once.
func (l *Lock) Release() error {
	if !l.filesystem.IsFile(l.path) {
		return nil
	}
	return l.filesystem.Unlink(l.path)
}
