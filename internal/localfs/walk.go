package localfs

import (
	"io/fs"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

// WalkOptions configures Walk.
type WalkOptions struct {
	// IncludeHidden includes hidden files and directories in the walk.
	IncludeHidden bool

	// SkipHiddenDirs skips descending into hidden directories entirely.
	// Only meaningful when IncludeHidden is false.
	SkipHiddenDirs bool
}

// WalkFunc is the callback signature for Walk.
// Return filepath.SkipDir to skip a directory, or any other error to stop walking.
type WalkFunc func(entry FileEntry) error

// Walk traverses root depth-first without following symlinks, visiting each
// directory before its contents. Entries that cannot be read are skipped.
func Walk(fsys billy.Filesystem, root string, opts WalkOptions, fn WalkFunc) error {
	return util.Walk(fsys, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil || info == nil {
			return nil
		}

		if path != root && !opts.IncludeHidden && IsHiddenName(info.Name()) {
			if info.IsDir() && opts.SkipHiddenDirs {
				return filepath.SkipDir
			}
			if !info.IsDir() {
				return nil
			}
		}

		return fn(newEntry(path, info))
	})
}

// TreeStats summarises a file or directory tree.
type TreeStats struct {
	Files int64 // Regular files and symlinks
	Dirs  int64 // Directories below the root
	Bytes int64 // Sum of regular file sizes
}

// TreeSize measures root, which may be a file or a directory. Symlinks count
// as files of zero bytes since they are replicated rather than followed.
func TreeSize(fsys billy.Filesystem, root string) (TreeStats, error) {
	var stats TreeStats

	info, err := fsys.Lstat(root)
	if err != nil {
		return stats, err
	}
	if !info.IsDir() {
		stats.Files = 1
		if info.Mode().IsRegular() {
			stats.Bytes = info.Size()
		}
		return stats, nil
	}

	err = Walk(fsys, root, WalkOptions{IncludeHidden: true}, func(e FileEntry) error {
		switch {
		case e.Path == root:
		case e.IsDir:
			stats.Dirs++
		default:
			stats.Files++
			if e.Mode.IsRegular() {
				stats.Bytes += e.Size
			}
		}
		return nil
	})
	return stats, err
}
