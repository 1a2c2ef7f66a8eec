package localfs

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/google/uuid"
)

// DefaultBufferSize is the copy buffer used when callers pass none.
const DefaultBufferSize = 256 * 1024

// Replaceable so tests can simulate EXDEV and other rename failures.
var renameFunc = func(fsys billy.Filesystem, from, to string) error {
	return fsys.Rename(from, to)
}

// Rename moves from to to, reporting a cross-device failure as CrossDeviceError.
func Rename(fsys billy.Filesystem, from, to string) error {
	if err := renameFunc(fsys, from, to); err != nil {
		if isEXDEV(err) {
			return &CrossDeviceError{Src: from, Dst: to, Err: err}
		}
		return err
	}
	return nil
}

// ProgressFunc receives the number of bytes copied since the previous call.
type ProgressFunc func(n int64)

// CopyFile copies the regular file src to dst, replacing an existing file.
// The data is written to a hidden temporary sibling of dst and renamed into
// place, so a failed copy never leaves a truncated destination behind.
func CopyFile(fsys billy.Filesystem, src, dst string, perm fs.FileMode, buf []byte, progress ProgressFunc) error {
	if fi, err := fsys.Lstat(dst); err == nil && fi.IsDir() {
		return destErr("copy", dst, &PathTypeConflictError{Path: dst, Want: "file", Got: "directory"})
	}

	in, err := fsys.Open(src)
	if err != nil {
		return sourceErr("open", src, err)
	}
	defer in.Close()

	tmpName := fsys.Join(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp-"+uuid.NewString()[:8])
	out, err := fsys.OpenFile(tmpName, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm.Perm())
	if err != nil {
		return destErr("create", dst, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = out.Close()
			_ = fsys.Remove(tmpName)
		}
	}()

	if buf == nil {
		buf = make([]byte, DefaultBufferSize)
	}
	r := &countingReader{r: in, progress: progress}
	if _, err := io.CopyBuffer(out, r, buf); err != nil {
		if r.err != nil {
			return sourceErr("read", src, err)
		}
		return destErr("write", dst, err)
	}
	if err := out.Close(); err != nil {
		return destErr("close", dst, err)
	}
	setMode(fsys, tmpName, perm.Perm())

	if err := fsys.Rename(tmpName, dst); err != nil {
		return destErr("rename", dst, err)
	}
	committed = true
	return nil
}

// CopySymlink recreates the link src at dst with the same target. The target
// is not followed, so link cycles in a tree are copied as-is.
func CopySymlink(fsys billy.Filesystem, src, dst string) error {
	target, err := fsys.Readlink(src)
	if err != nil {
		return sourceErr("readlink", src, err)
	}

	if fi, err := fsys.Lstat(dst); err == nil {
		if fi.IsDir() {
			return destErr("symlink", dst, &PathTypeConflictError{Path: dst, Want: "symlink", Got: "directory"})
		}
		if err := fsys.Remove(dst); err != nil {
			return destErr("remove", dst, err)
		}
	}

	if err := fsys.Symlink(target, dst); err != nil {
		return destErr("symlink", dst, err)
	}
	return nil
}

// EnsureDir creates dir (and parents) unless it already exists as a directory.
// A symlink to a directory counts as a directory.
func EnsureDir(fsys billy.Filesystem, dir string, perm fs.FileMode) error {
	fi, err := fsys.Stat(dir)
	switch {
	case err == nil && fi.IsDir():
		return nil
	case err == nil:
		return destErr("mkdir", dir, &PathTypeConflictError{Path: dir, Want: "directory", Got: describeMode(fi.Mode())})
	case !errors.Is(err, fs.ErrNotExist):
		return destErr("stat", dir, err)
	}
	if err := fsys.MkdirAll(dir, perm.Perm()); err != nil {
		return destErr("mkdir", dir, err)
	}
	return nil
}

// RemoveAll deletes path and everything below it.
func RemoveAll(fsys billy.Filesystem, path string) error {
	if err := util.RemoveAll(fsys, path); err != nil {
		return sourceErr("remove", path, err)
	}
	return nil
}

func setMode(fsys billy.Filesystem, name string, perm fs.FileMode) {
	if ch, ok := fsys.(billy.Change); ok {
		_ = ch.Chmod(name, perm)
	}
}

func describeMode(m fs.FileMode) string {
	switch {
	case m.IsDir():
		return "directory"
	case m&fs.ModeSymlink != 0:
		return "symlink"
	case m.IsRegular():
		return "file"
	}
	return m.Type().String()
}

type countingReader struct {
	r        io.Reader
	progress ProgressFunc
	err      error
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	if n > 0 && c.progress != nil {
		c.progress(int64(n))
	}
	if err != nil && err != io.EOF {
		c.err = err
	}
	return n, err
}
