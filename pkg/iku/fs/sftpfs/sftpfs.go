// Package sftpfs implements fs.Filesystem over an SFTP session, grounded on
// rclone's backend/sftp/sftp.go: a single ssh.ClientConfig is assembled from
// Options (password or private-key auth), an *ssh.Client is dialed once, and
// an *sftp.Client is layered on top of it. Unlike rclone's backend, which
// pools connections for concurrent transfers, this package keeps exactly one
// session, matching the single-threaded, one-file-at-a-time access pattern
// of SPEC_FULL.md §5.
//
// Filesystem also lazily caches a listing of its base folder, mirroring the
// original Python implementation's RemoteFileSystem (original_source/iku/
// systems.py): the first Stat, IsFile, or RglobFiles call walks the base
// folder once and remembers every regular file it finds; later calls consult
// that cache instead of round-tripping to the SFTP server, and Rename,
// Unlink, Utime, and a write-mode Close keep individual entries current.
package sftpfs

import (
	"fmt"
	"path"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"

	ikufs "github.com/terraytm/iku/pkg/iku/fs"
)

// Options configures how Dial authenticates and connects.
type Options struct {
	Host       string
	Port       int
	User       string
	Password   string
	PrivateKey []byte // PEM-encoded, optional

	// BaseFolder is the destination root this session will operate under.
	// It seeds the directory-listing cache. Once the cache is built, Stat
	// and IsFile answer from it for every path, so a file outside
	// BaseFolder is reported as absent; RglobFiles on any other root walks
	// the remote directly.
	BaseFolder string
}

// Filesystem is an ikufs.Filesystem backed by a single SFTP session.
type Filesystem struct {
	sshClient  *ssh.Client
	sftpClient *sftp.Client

	baseFolder string

	mu    sync.Mutex
	cache map[string]ikufs.Info // nil until ensureCache builds it
}

var _ ikufs.Filesystem = (*Filesystem)(nil)

// Dial authenticates and opens an SFTP session per opt, mirroring rclone's
// sftp backend's auth-method assembly: a private key is preferred when
// supplied, falling back to password auth.
func Dial(opt Options) (*Filesystem, error) {
	config := &ssh.ClientConfig{
		User: opt.User,
		// The original daemon trusted operator-supplied hosts out of band;
		// this is carried forward rather than invented, matching rclone's
		// own default of ssh.InsecureIgnoreHostKey() absent a known_hosts
		// file configured by the caller.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         30 * time.Second,
	}

	if len(opt.PrivateKey) > 0 {
		signer, err := ssh.ParsePrivateKey(opt.PrivateKey)
		if err != nil {
			return nil, fmt.Errorf("sftpfs: unable to parse private key: %w", err)
		}
		config.Auth = append(config.Auth, ssh.PublicKeys(signer))
	}
	if opt.Password != "" {
		config.Auth = append(config.Auth, ssh.Password(opt.Password))
	}

	addr := fmt.Sprintf("%s:%d", opt.Host, opt.Port)
	sshClient, err := ssh.Dial("tcp", addr, config)
	if err != nil {
		return nil, fmt.Errorf("sftpfs: unable to connect to %s: %w", addr, err)
	}

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, fmt.Errorf("sftpfs: unable to start session: %w", err)
	}

	return &Filesystem{
		sshClient:  sshClient,
		sftpClient: sftpClient,
		baseFolder: path.Clean(opt.BaseFolder),
	}, nil
}

// Close tears down the SFTP session and its underlying SSH connection.
func (f *Filesystem) Close() error {
	sftpErr := f.sftpClient.Close()
	sshErr := f.sshClient.Close()
	if sftpErr != nil {
		return sftpErr
	}
	return sshErr
}

func (f *Filesystem) Open(filePath string, mode ikufs.OpenMode) (ikufs.File, error) {
	switch mode {
	case ikufs.OpenRead:
		return f.sftpClient.Open(filePath)
	case ikufs.OpenWrite:
		if err := f.sftpClient.MkdirAll(path.Dir(filePath)); err != nil {
			return nil, fmt.Errorf("sftpfs: unable to create parent directory: %w", err)
		}
		file, err := f.sftpClient.Create(filePath)
		if err != nil {
			return nil, err
		}
		return &cachingWriteFile{File: file, fs: f, path: filePath}, nil
	default:
		return nil, fmt.Errorf("sftpfs: unsupported open mode: %v", mode)
	}
}

func (f *Filesystem) Stat(filePath string) (ikufs.Info, error) {
	if err := f.ensureCache(); err == nil {
		f.mu.Lock()
		info, ok := f.cache[path.Clean(filePath)]
		f.mu.Unlock()
		if ok {
			return info, nil
		}
		return ikufs.Info{}, &fileNotFoundError{filePath}
	}
	return f.statDirect(filePath)
}

func (f *Filesystem) statDirect(filePath string) (ikufs.Info, error) {
	info, err := f.sftpClient.Lstat(filePath)
	if err != nil {
		return ikufs.Info{}, err
	}
	return infoFromLstat(filePath, info), nil
}

func infoFromLstat(filePath string, info interface {
	Name() string
	Size() int64
	ModTime() time.Time
	IsDir() bool
}) ikufs.Info {
	modTime := info.ModTime()
	return ikufs.Info{
		Name:       info.Name(),
		Size:       info.Size(),
		ModTime:    modTime,
		AccessTime: modTime,
		ChangeTime: modTime,
		IsDir:      info.IsDir(),
	}
}

// fileNotFoundError reports a cache miss in terms an IsFile/Stat caller can
// treat like any other "does not exist" error from the SFTP client.
type fileNotFoundError struct{ path string }

func (e *fileNotFoundError) Error() string {
	return fmt.Sprintf("sftpfs: %s does not exist", e.path)
}

// Rename moves src to dst, replacing dst if present; the SFTP protocol's
// plain rename refuses to overwrite, so an existing destination is removed
// first, mirroring rclone's Fs.Move handling of SSH_FX_FILE_ALREADY_EXISTS.
func (f *Filesystem) Rename(src, dst string) error {
	if f.IsFile(dst) {
		if err := f.sftpClient.Remove(dst); err != nil {
			return fmt.Errorf("sftpfs: unable to remove existing destination: %w", err)
		}
		f.invalidate(dst)
	}
	if err := f.sftpClient.Rename(src, dst); err != nil {
		return err
	}

	f.mu.Lock()
	if f.cache != nil {
		if info, ok := f.cache[path.Clean(src)]; ok {
			delete(f.cache, path.Clean(src))
			f.cache[path.Clean(dst)] = info
		}
	}
	f.mu.Unlock()
	return nil
}

func (f *Filesystem) Unlink(filePath string) error {
	if err := f.sftpClient.Remove(filePath); err != nil {
		return err
	}
	f.invalidate(filePath)
	return nil
}

func (f *Filesystem) Utime(filePath string, accessTime, modTime time.Time) error {
	if err := f.sftpClient.Chtimes(filePath, accessTime, modTime); err != nil {
		return err
	}

	f.mu.Lock()
	if f.cache != nil {
		if info, ok := f.cache[path.Clean(filePath)]; ok {
			info.AccessTime = accessTime
			info.ModTime = modTime
			info.ChangeTime = modTime
			f.cache[path.Clean(filePath)] = info
		}
	}
	f.mu.Unlock()
	return nil
}

// Ctime is unsupported over SFTP; the protocol exposes no creation-time
// attribute, so this is a deliberate no-op per ikufs.Filesystem's contract.
func (f *Filesystem) Ctime(filePath string, changeTime time.Time) error {
	return nil
}

func (f *Filesystem) IsFile(filePath string) bool {
	if err := f.ensureCache(); err == nil {
		f.mu.Lock()
		_, ok := f.cache[path.Clean(filePath)]
		f.mu.Unlock()
		return ok
	}
	info, err := f.sftpClient.Lstat(filePath)
	return err == nil && info.Mode().IsRegular()
}

func (f *Filesystem) Join(elem ...string) string {
	return path.Join(elem...)
}

func (f *Filesystem) Dirname(filePath string) string {
	return path.Dir(filePath)
}

func (f *Filesystem) Relpath(filePath, base string) (string, error) {
	rel, err := filepathRel(base, filePath)
	if err != nil {
		return "", err
	}
	return rel, nil
}

func (f *Filesystem) Mkdir(dirPath string) error {
	return f.sftpClient.MkdirAll(dirPath)
}

// RglobFiles walks root using the sftp client's Walker, which lazily lists
// one directory at a time rather than materializing the whole tree, as
// rclone's List does for large remote directories. When root is the base
// folder the cache was seeded from, it is served entirely out of the cache.
func (f *Filesystem) RglobFiles(root string, walk ikufs.WalkFunc) error {
	if path.Clean(root) == f.baseFolder {
		if err := f.ensureCache(); err == nil {
			return f.rglobFromCache(root, walk)
		}
	}
	return f.rglobDirect(root, walk)
}

func (f *Filesystem) rglobFromCache(root string, walk ikufs.WalkFunc) error {
	f.mu.Lock()
	paths := make([]string, 0, len(f.cache))
	for absPath := range f.cache {
		paths = append(paths, absPath)
	}
	f.mu.Unlock()

	for _, absPath := range paths {
		rel, err := filepathRel(root, absPath)
		if err != nil {
			return err
		}
		if err := walk(rel); err != nil {
			return err
		}
	}
	return nil
}

func (f *Filesystem) rglobDirect(root string, walk ikufs.WalkFunc) error {
	walker := f.sftpClient.Walk(root)
	for walker.Step() {
		if err := walker.Err(); err != nil {
			return err
		}
		if walker.Stat().IsDir() {
			continue
		}
		rel, err := filepathRel(root, walker.Path())
		if err != nil {
			return err
		}
		if err := walk(rel); err != nil {
			return err
		}
	}
	return nil
}

// RemoveEmptyFolders removes every directory under root with no remaining
// children, working deepest-first. Directories are never cached (the cache
// tracks regular files only, mirroring systems.py's find -type f listing),
// so this always walks the remote directly.
func (f *Filesystem) RemoveEmptyFolders(root string) error {
	var directories []string
	walker := f.sftpClient.Walk(root)
	for walker.Step() {
		if err := walker.Err(); err != nil {
			return err
		}
		if walker.Stat().IsDir() && walker.Path() != root {
			directories = append(directories, walker.Path())
		}
	}

	for i := len(directories) - 1; i >= 0; i-- {
		entries, err := f.sftpClient.ReadDir(directories[i])
		if err != nil {
			continue
		}
		if len(entries) == 0 {
			f.sftpClient.RemoveDirectory(directories[i])
		}
	}
	return nil
}

// MarkHidden is a no-op: SFTP exposes no hidden-file attribute distinct from
// dot-prefixed naming, and the index file is already named with a leading
// dot (index.Name).
func (f *Filesystem) MarkHidden(filePath string) error {
	return nil
}

// ensureCache builds the base-folder listing cache on first use, via a
// single Walk, matching systems.py's RemoteFileSystem._build_cache_if_needed.
// It returns an error (leaving the cache unbuilt) if baseFolder was never
// set or the walk itself fails, in which case callers fall back to direct
// SFTP round trips for that call.
func (f *Filesystem) ensureCache() error {
	f.mu.Lock()
	if f.cache != nil {
		f.mu.Unlock()
		return nil
	}
	f.mu.Unlock()

	if f.baseFolder == "" || f.baseFolder == "." {
		return fmt.Errorf("sftpfs: no base folder configured for caching")
	}

	cache := make(map[string]ikufs.Info)
	walker := f.sftpClient.Walk(f.baseFolder)
	for walker.Step() {
		if err := walker.Err(); err != nil {
			return err
		}
		if walker.Stat().IsDir() {
			continue
		}
		cache[path.Clean(walker.Path())] = infoFromLstat(walker.Path(), walker.Stat())
	}

	f.mu.Lock()
	f.cache = cache
	f.mu.Unlock()
	return nil
}

// invalidate drops filePath's cache entry, if the cache has been built and
// holds one. It is a no-op otherwise.
func (f *Filesystem) invalidate(filePath string) {
	f.mu.Lock()
	if f.cache != nil {
		delete(f.cache, path.Clean(filePath))
	}
	f.mu.Unlock()
}

// updateCacheEntry re-stats filePath and refreshes (or removes) its cache
// entry, matching systems.py's open()-in-write-mode close hook, which calls
// _update_cache(path) once the write completes.
func (f *Filesystem) updateCacheEntry(filePath string) {
	f.mu.Lock()
	built := f.cache != nil
	f.mu.Unlock()
	if !built {
		return
	}

	info, err := f.sftpClient.Lstat(filePath)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil || !info.Mode().IsRegular() {
		delete(f.cache, path.Clean(filePath))
		return
	}
	f.cache[path.Clean(filePath)] = infoFromLstat(filePath, info)
}

// cachingWriteFile wraps an *sftp.File opened for writing so that closing it
// refreshes the written path's cache entry in the same step the original
// Python implementation does (a single _update_cache(path) call on close),
// rather than leaving the cache stale until the next full rebuild.
type cachingWriteFile struct {
	*sftp.File
	fs   *Filesystem
	path string
}

func (w *cachingWriteFile) Close() error {
	err := w.File.Close()
	w.fs.updateCacheEntry(w.path)
	return err
}

// filepathRel expresses target relative to base using slash-separated SFTP
// paths, avoiding filepath.Rel's OS-specific separator handling.
func filepathRel(base, target string) (string, error) {
	baseClean := path.Clean(base)
	targetClean := path.Clean(target)
	if baseClean == targetClean {
		return ".", nil
	}
	prefix := baseClean + "/"
	if len(targetClean) > len(prefix) && targetClean[:len(prefix)] == prefix {
		return targetClean[len(prefix):], nil
	}
	return "", fmt.Errorf("sftpfs: %s is not under %s", target, base)
}
