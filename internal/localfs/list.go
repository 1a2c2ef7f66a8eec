package localfs

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
)

// FileEntry represents a file or directory in a pane listing.
type FileEntry struct {
	Path      string      // Full path to the entry
	Name      string      // Base name
	Size      int64       // Size in bytes (0 for directories)
	IsDir     bool        // True if this is a directory
	IsSymlink bool        // True if this is a symbolic link (not followed)
	ModTime   time.Time   // Last modification time
	Mode      fs.FileMode // File mode/permissions
}

// ListOptions configures ListDirectory.
type ListOptions struct {
	// IncludeHidden includes dot-files in results. Default false.
	IncludeHidden bool
}

// IsHidden reports whether the base name of path is a dot-file.
func IsHidden(path string) bool {
	return IsHiddenName(filepath.Base(path))
}

// IsHiddenName reports whether name (not a path) is hidden.
// "." and ".." are navigation entries, not hidden files.
func IsHiddenName(name string) bool {
	if name == "." || name == ".." {
		return false
	}
	return strings.HasPrefix(name, ".")
}

// ListDirectory returns the entries of dir, directories first, then files,
// each group ordered by case-insensitive name.
func ListDirectory(fsys billy.Filesystem, dir string, opts ListOptions) ([]FileEntry, error) {
	infos, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	result := make([]FileEntry, 0, len(infos))
	for _, info := range infos {
		name := info.Name()
		if !opts.IncludeHidden && IsHiddenName(name) {
			continue
		}
		result = append(result, newEntry(fsys.Join(dir, name), info))
	}

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if a.IsDir != b.IsDir {
			return a.IsDir
		}
		la, lb := strings.ToLower(a.Name), strings.ToLower(b.Name)
		if la != lb {
			return la < lb
		}
		return a.Name < b.Name
	})
	return result, nil
}

func newEntry(path string, info fs.FileInfo) FileEntry {
	e := FileEntry{
		Path:      path,
		Name:      info.Name(),
		IsDir:     info.IsDir(),
		IsSymlink: info.Mode()&fs.ModeSymlink != 0,
		ModTime:   info.ModTime(),
		Mode:      info.Mode(),
	}
	if !e.IsDir {
		e.Size = info.Size()
	}
	return e
}
