package main

import (
	"os"
	"path/filepath"
	"time"

	"github.com/absfs/absfs"
)

// osFS exposes the host filesystem as an absfs.FileSystem. Slash paths are
// converted to native ones; relative paths resolve against the process
// working directory.
type osFS struct{}

func native(name string) string {
	return filepath.FromSlash(name)
}

func (osFS) OpenFile(name string, flag int, perm os.FileMode) (absfs.File, error) {
	return os.OpenFile(native(name), flag, perm)
}

func (osFS) Mkdir(name string, perm os.FileMode) error {
	return os.Mkdir(native(name), perm)
}

func (osFS) MkdirAll(name string, perm os.FileMode) error {
	return os.MkdirAll(native(name), perm)
}

func (osFS) Remove(name string) error {
	return os.Remove(native(name))
}

func (osFS) RemoveAll(name string) error {
	return os.RemoveAll(native(name))
}

func (osFS) Rename(oldpath, newpath string) error {
	return os.Rename(native(oldpath), native(newpath))
}

func (osFS) Stat(name string) (os.FileInfo, error) {
	return os.Stat(native(name))
}

func (osFS) Chmod(name string, mode os.FileMode) error {
	return os.Chmod(native(name), mode)
}

func (osFS) Chtimes(name string, atime, mtime time.Time) error {
	return os.Chtimes(native(name), atime, mtime)
}

func (osFS) Chown(name string, uid, gid int) error {
	return os.Chown(native(name), uid, gid)
}

func (osFS) Separator() uint8 {
	return os.PathSeparator
}

func (osFS) ListSeparator() uint8 {
	return os.PathListSeparator
}

func (osFS) Chdir(dir string) error {
	return os.Chdir(native(dir))
}

func (osFS) Getwd() (string, error) {
	dir, err := os.Getwd()
	return filepath.ToSlash(dir), err
}

func (osFS) TempDir() string {
	return filepath.ToSlash(os.TempDir())
}

func (fs osFS) Open(name string) (absfs.File, error) {
	return fs.OpenFile(name, os.O_RDONLY, 0)
}

func (fs osFS) Create(name string) (absfs.File, error) {
	return fs.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0666)
}

func (osFS) Truncate(name string, size int64) error {
	return os.Truncate(native(name), size)
}
