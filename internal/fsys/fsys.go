// Package fsys is the filesystem capability handed to discovery, config
// resolution, process execution and the plugins. Production code uses OS;
// tests use an in-memory MemFS.
package fsys

import (
	"io"
	"io/fs"
	"os"
)

// FS is the set of filesystem operations verdict performs.
// Paths are host paths as produced by path/filepath.
type FS interface {
	Stat(name string) (fs.FileInfo, error)
	ReadDir(name string) ([]fs.DirEntry, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	// Create truncates or creates name for writing.
	Create(name string) (io.WriteCloser, error)
	// Mkdir fails with fs.ErrExist if name already exists.
	Mkdir(name string, perm fs.FileMode) error
	MkdirAll(name string, perm fs.FileMode) error
	RemoveAll(name string) error
	TempDir() string
}

// IsDir reports whether name exists and is a directory.
func IsDir(fsys FS, name string) bool {
	fi, err := fsys.Stat(name)
	return err == nil && fi.IsDir()
}

// IsRegular reports whether name exists and is a regular file.
func IsRegular(fsys FS, name string) bool {
	fi, err := fsys.Stat(name)
	return err == nil && fi.Mode().IsRegular()
}

// OS is the host filesystem.
type OS struct{}

var _ FS = OS{}

func (OS) Stat(name string) (fs.FileInfo, error)      { return os.Stat(name) }
func (OS) ReadDir(name string) ([]fs.DirEntry, error) { return os.ReadDir(name) }
func (OS) ReadFile(name string) ([]byte, error)       { return os.ReadFile(name) }
func (OS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(name, data, perm)
}
func (OS) Create(name string) (io.WriteCloser, error)   { return os.Create(name) }
func (OS) Mkdir(name string, perm fs.FileMode) error    { return os.Mkdir(name, perm) }
func (OS) MkdirAll(name string, perm fs.FileMode) error { return os.MkdirAll(name, perm) }
func (OS) RemoveAll(name string) error                  { return os.RemoveAll(name) }
func (OS) TempDir() string                              { return os.TempDir() }
