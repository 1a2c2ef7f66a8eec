// Package diskspace checks free space on the filesystem a copy will land on.
package diskspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// InsufficientSpaceError indicates that there is not enough disk space available.
type InsufficientSpaceError struct {
	Path           string
	RequiredBytes  int64
	AvailableBytes int64
}

func (e *InsufficientSpaceError) Error() string {
	requiredMB := float64(e.RequiredBytes) / (1024 * 1024)
	availableMB := float64(e.AvailableBytes) / (1024 * 1024)
	return fmt.Sprintf("insufficient disk space for %s: need %.2f MB, have %.2f MB available",
		e.Path, requiredMB, availableMB)
}

// IsInsufficientSpaceError checks if an error is or wraps an InsufficientSpaceError
func IsInsufficientSpaceError(err error) bool {
	var e *InsufficientSpaceError
	return errors.As(err, &e)
}

// CheckAvailableSpace checks whether the filesystem that targetPath will be
// created on has room for requiredBytes times safetyMargin (e.g. 1.1 for a
// 10% buffer). targetPath and its parents need not exist yet.
//
// When free space cannot be determined (network or virtual filesystems) the
// check passes and the copy is left to fail naturally.
func CheckAvailableSpace(targetPath string, requiredBytes int64, safetyMargin float64) error {
	available, ok := availableBytes(existingAncestor(filepath.Dir(targetPath)))
	if !ok {
		return nil
	}

	requiredWithMargin := int64(float64(requiredBytes) * safetyMargin)
	if available < requiredWithMargin {
		return &InsufficientSpaceError{
			Path:           targetPath,
			RequiredBytes:  requiredWithMargin,
			AvailableBytes: available,
		}
	}
	return nil
}

// GetAvailableSpace returns the available space in bytes for the filesystem
// containing the given path. Returns 0 if unable to determine.
func GetAvailableSpace(path string) int64 {
	available, _ := availableBytes(existingAncestor(filepath.Dir(path)))
	return available
}

// Checker adapts CheckAvailableSpace to an interface value.
type Checker struct{}

// CheckAvailableSpace implements the transfer engine's space checker.
func (Checker) CheckAvailableSpace(targetPath string, requiredBytes int64, safetyMargin float64) error {
	return CheckAvailableSpace(targetPath, requiredBytes, safetyMargin)
}

func existingAncestor(dir string) string {
	for {
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
