// Package localfs provides the local filesystem operations shared by the
// transfer engine and the pane browsers: listing, walking, sizing, and the
// copy/rename primitives. Everything runs against a billy.Filesystem so the
// same code drives the host OS and in-memory filesystems in tests.
package localfs

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// nativeFS addresses absolute host paths directly. osfs.New would chroot
// every path under a base directory; ChrootOS does not, but lacks Chroot/Root.
type nativeFS struct {
	osfs.ChrootOS
}

// NativeFS returns a filesystem backed by the host OS that accepts absolute paths.
//
//nolint:ireturn // callers only need the billy interface.
func NativeFS() billy.Filesystem {
	return &nativeFS{}
}

//nolint:ireturn // signature is dictated by billy.Chroot.
func (n *nativeFS) Chroot(path string) (billy.Filesystem, error) {
	return osfs.New(path), nil
}

func (n *nativeFS) Root() string {
	return string(filepath.Separator)
}

func (n *nativeFS) Chmod(name string, mode os.FileMode) error {
	return os.Chmod(name, mode)
}

func (n *nativeFS) Lchown(name string, uid, gid int) error {
	return os.Lchown(name, uid, gid)
}

func (n *nativeFS) Chown(name string, uid, gid int) error {
	return os.Chown(name, uid, gid)
}

func (n *nativeFS) Chtimes(name string, atime, mtime time.Time) error {
	return os.Chtimes(name, atime, mtime)
}
