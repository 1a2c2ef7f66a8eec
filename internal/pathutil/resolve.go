// Package pathutil resolves user-supplied paths the same way for every command.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// ResolveAbsolutePath converts a path to an absolute path. A leading ~ is
// expanded to the home directory. Symlinks are resolved in the EXISTING
// portion of the path and any non-existent components are appended, so a
// destination below a linked folder resolves even before it is created.
func ResolveAbsolutePath(path string) (string, error) {
	if path == "" {
		return os.Getwd()
	}

	absPath, err := filepath.Abs(expandHome(path))
	if err != nil {
		return "", err
	}

	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		return resolved, nil
	}

	// Find the deepest existing ancestor, resolve it, then append the rest.
	current := absPath
	var remainder []string

	for {
		if _, err := os.Stat(current); err == nil {
			resolved, err := filepath.EvalSymlinks(current)
			if err != nil {
				resolved = current
			}
			for i := len(remainder) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, remainder[i])
			}
			return resolved, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			return absPath, nil
		}
		remainder = append(remainder, filepath.Base(current))
		current = parent
	}
}

// ResolveSourcePath is ResolveAbsolutePath for an item about to be
// transferred: the parent directory is resolved but the final component is
// kept, so a symlink source names the link itself rather than its target.
func ResolveSourcePath(path string) (string, error) {
	absPath, err := filepath.Abs(expandHome(path))
	if err != nil {
		return "", err
	}
	if filepath.Dir(absPath) == absPath {
		return absPath, nil
	}
	base := filepath.Base(absPath)
	parent, err := ResolveAbsolutePath(filepath.Dir(absPath))
	if err != nil {
		return "", err
	}
	return filepath.Join(parent, base), nil
}

// "~backup" is a plain name, not another user's home.
func isHomeRelative(path string) bool {
	return path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`)
}

func expandHome(path string) string {
	if !isHomeRelative(path) {
		return path
	}
	if home, err := os.UserHomeDir(); err == nil {
		return home + path[1:]
	}
	return path
}
