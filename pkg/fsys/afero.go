package fsys

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const (
	dirPerm  os.FileMode = 0o755
	filePerm os.FileMode = 0o644

	// ownerWrite is the bit whose absence marks a file as read-only.
	ownerWrite os.FileMode = 0o200
)

type AferoFS struct {
	fs afero.Fs
}

func NewAferoFS(fs afero.Fs) *AferoFS {
	return &AferoFS{fs: fs}
}

// NewOS returns a FileSystem backed by the operating system.
func NewOS() *AferoFS {
	return NewAferoFS(afero.NewOsFs())
}

// NewMemory returns an empty in-memory FileSystem.
func NewMemory() *AferoFS {
	return NewAferoFS(afero.NewMemMapFs())
}

// Afero exposes the underlying afero.Fs, mostly for seeding trees in tests.
func (a *AferoFS) Afero() afero.Fs {
	return a.fs
}

func (a *AferoFS) ListDirs(path string) ([]string, error) {
	infos, err := afero.ReadDir(a.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var dirs []string
	for _, info := range infos {
		if info.IsDir() {
			dirs = append(dirs, filepath.Join(path, info.Name()))
		}
	}
	return dirs, nil
}

func (a *AferoFS) ListFiles(path string) ([]string, error) {
	infos, err := afero.ReadDir(a.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}

	var files []string
	for _, info := range infos {
		// symlinks, sockets and devices are not mirrored
		if info.Mode().IsRegular() {
			files = append(files, filepath.Join(path, info.Name()))
		}
	}
	return files, nil
}

func (a *AferoFS) DirExists(path string) bool {
	ok, err := afero.DirExists(a.fs, path)
	return err == nil && ok
}

func (a *AferoFS) FileExists(path string) bool {
	info, err := a.fs.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

func (a *AferoFS) Stat(path string) (FileInfo, error) {
	info, err := a.fs.Stat(path)
	if err != nil {
		return FileInfo{}, fmt.Errorf("stat: %w", err)
	}
	return FileInfo{
		Path:    path,
		Size:    info.Size(),
		ModTime: info.ModTime().UTC(),
	}, nil
}

func (a *AferoFS) Base(path string) string {
	return filepath.Base(path)
}

func (a *AferoFS) Join(parent, name string) string {
	return filepath.Join(parent, name)
}

func (a *AferoFS) Mkdir(path string) error {
	if err := a.fs.Mkdir(path, dirPerm); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	return nil
}

// CopyFile copies the bytes of src to dst and stamps dst with the
// modification time of src, so a size/time comparison of the pair holds
// afterwards. An existing dst keeps its permission bits.
func (a *AferoFS) CopyFile(src, dst string, overwrite bool) error {
	srcInfo, err := a.fs.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	if !overwrite {
		if _, err := a.fs.Stat(dst); err == nil {
			return fmt.Errorf("copy to %s: %w", dst, ErrExist)
		}
		flags = os.O_WRONLY | os.O_CREATE | os.O_EXCL
	}

	in, err := a.fs.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := a.fs.OpenFile(dst, flags, filePerm)
	if err != nil {
		return fmt.Errorf("open destination: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close destination: %w", err)
	}

	mtime := srcInfo.ModTime()
	if err := a.fs.Chtimes(dst, mtime, mtime); err != nil {
		return fmt.Errorf("set times: %w", err)
	}
	return nil
}

func (a *AferoFS) Remove(path string) error {
	if err := a.fs.Remove(path); err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

func (a *AferoFS) RemoveAll(path string) error {
	if err := a.fs.RemoveAll(path); err != nil {
		return fmt.Errorf("remove all: %w", err)
	}
	return nil
}

func (a *AferoFS) IsReadOnly(path string) (bool, error) {
	info, err := a.fs.Stat(path)
	if err != nil {
		return false, fmt.Errorf("stat: %w", err)
	}
	return info.Mode().Perm()&ownerWrite == 0, nil
}

func (a *AferoFS) ClearReadOnly(path string) error {
	info, err := a.fs.Stat(path)
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	if err := a.fs.Chmod(path, info.Mode().Perm()|ownerWrite); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	return nil
}

func (a *AferoFS) Open(path string) (io.ReadCloser, error) {
	f, err := a.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	return f, nil
}
