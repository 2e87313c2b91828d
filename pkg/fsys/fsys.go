// Package fsys defines the filesystem capability consumed by the synchronizer.
//
// The synchronizer never touches storage directly; everything it needs to
// observe or mutate a directory tree goes through FileSystem. AferoFS backs the
// interface with an afero.Fs, so the same engine runs against the real disk or
// an in-memory tree.
package fsys

import (
	"errors"
	"io"
	"time"
)

// ErrExist is returned by CopyFile when the destination exists and overwrite
// was not requested.
var ErrExist = errors.New("file already exists")

type FileInfo struct {
	Path    string
	Size    int64
	ModTime time.Time // always UTC
}

type FileSystem interface {
	// ListDirs returns the full paths of the immediate child directories of path.
	ListDirs(path string) ([]string, error)
	// ListFiles returns the full paths of the immediate child regular files of path.
	ListFiles(path string) ([]string, error)

	DirExists(path string) bool
	FileExists(path string) bool
	Stat(path string) (FileInfo, error)

	Base(path string) string
	Join(parent, name string) string

	Mkdir(path string) error
	CopyFile(src, dst string, overwrite bool) error
	Remove(path string) error
	RemoveAll(path string) error

	IsReadOnly(path string) (bool, error)
	ClearReadOnly(path string) error

	Open(path string) (io.ReadCloser, error)
}
