//go:build windows

package fs

import (
	"syscall"
	"time"

	"golang.org/x/sys/windows"
)

// Ctime sets path's creation time using the Windows file API, mirroring the
// original implementation's ctypes-based SetFileTime call
// (original_source/iku/tools.py's write_ctime).
func (l *Local) Ctime(path string, changeTime time.Time) error {
	pathPtr, err := syscall.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	handle, err := syscall.CreateFile(
		pathPtr,
		syscall.GENERIC_WRITE,
		syscall.FILE_SHARE_READ|syscall.FILE_SHARE_WRITE,
		nil,
		syscall.OPEN_EXISTING,
		syscall.FILE_ATTRIBUTE_NORMAL,
		0,
	)
	if err != nil {
		return err
	}
	defer syscall.CloseHandle(handle)

	filetime := syscall.NsecToFiletime(changeTime.UnixNano())
	return syscall.SetFileTime(handle, &filetime, nil, nil)
}

// MarkHidden sets the Windows hidden file attribute, mirroring the
// original's win32api.SetFileAttributes call and the teacher's
// pkg/filesystem/visibility_windows.go.
func (l *Local) MarkHidden(path string) error {
	pathPtr, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return err
	}
	attributes, err := windows.GetFileAttributes(pathPtr)
	if err != nil {
		return err
	}
	return windows.SetFileAttributes(pathPtr, attributes|windows.FILE_ATTRIBUTE_HIDDEN)
}
