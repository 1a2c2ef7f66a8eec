// Package validation checks names and path relationships before the engine
// touches the filesystem.
package validation

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ValidateFilename validates a single path element (not a full path) that
// will be joined onto a destination directory.
//
// Returns an error if the name:
//   - Is empty
//   - Is "." or ".."
//   - Contains path separators (/ or \)
//   - Contains null bytes
func ValidateFilename(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	if strings.ContainsRune(filename, 0) {
		return fmt.Errorf("filename contains null byte: %q", filename)
	}

	if strings.ContainsRune(filename, '/') || strings.ContainsRune(filename, '\\') {
		return fmt.Errorf("filename cannot contain path separators: %s", filename)
	}

	// Names like "data..v2.csv" are legitimate; only the literal entries are not.
	if filename == "." || filename == ".." {
		return fmt.Errorf("filename cannot be %q", filename)
	}

	return nil
}

// IsWithin reports whether path equals dir or lies below it. Both must be
// absolute; they are compared lexically after cleaning.
func IsWithin(path, dir string) bool {
	rel, err := filepath.Rel(filepath.Clean(dir), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// ValidateNotInside rejects a destination that is the source directory itself
// or a descendant of it, which would make a recursive copy chase its own output.
func ValidateNotInside(dest, srcDir string) error {
	if IsWithin(dest, srcDir) {
		return fmt.Errorf("destination %s is inside source directory %s", dest, srcDir)
	}
	return nil
}
