package localfs

import (
	"errors"
	"fmt"
)

// Side tells which end of a copy or move an error was raised on.
type Side int

const (
	SideSource Side = iota
	SideDest
)

func (s Side) String() string {
	if s == SideDest {
		return "destination"
	}
	return "source"
}

// OpError records a failed filesystem operation and the side it happened on.
type OpError struct {
	Op   string
	Path string
	Side Side
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

func sourceErr(op, path string, err error) error {
	return &OpError{Op: op, Path: path, Side: SideSource, Err: err}
}

func destErr(op, path string, err error) error {
	return &OpError{Op: op, Path: path, Side: SideDest, Err: err}
}

// ErrorSide returns the side recorded on err, and false if err carries none.
func ErrorSide(err error) (Side, bool) {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Side, true
	}
	return SideSource, false
}

// PathTypeConflictError means the destination exists with the wrong type,
// for example a directory where a file is to be written.
type PathTypeConflictError struct {
	Path string
	Want string
	Got  string
}

func (e *PathTypeConflictError) Error() string {
	return fmt.Sprintf("path type conflict at %q: want %s, found %s", e.Path, e.Want, e.Got)
}

// IsPathTypeConflict reports whether err is or wraps a PathTypeConflictError.
func IsPathTypeConflict(err error) bool {
	var e *PathTypeConflictError
	return errors.As(err, &e)
}

// CrossDeviceError means a rename failed because source and destination live
// on different filesystems. Callers fall back to copy+delete.
type CrossDeviceError struct {
	Src string
	Dst string
	Err error
}

func (e *CrossDeviceError) Error() string {
	return fmt.Sprintf("cross-device rename %q -> %q: %v", e.Src, e.Dst, e.Err)
}

func (e *CrossDeviceError) Unwrap() error { return e.Err }

// IsCrossDevice reports whether err is or wraps a CrossDeviceError.
func IsCrossDevice(err error) bool {
	var e *CrossDeviceError
	return errors.As(err, &e)
}
