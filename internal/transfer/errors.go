package transfer

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/rescale/dualpane/internal/diskspace"
	"github.com/rescale/dualpane/internal/localfs"
)

// ErrorKind classifies an item failure.
type ErrorKind string

const (
	KindSourceNotFound        ErrorKind = "source_not_found"
	KindPermissionDenied      ErrorKind = "permission_denied"
	KindIOFailure             ErrorKind = "io_failure"
	KindDestinationUnwritable ErrorKind = "destination_unwritable"
)

// ErrSamePath is returned when a copy would overwrite its own source.
var ErrSamePath = errors.New("source and destination are the same")

// Error is an item-scoped failure. It unwraps to the underlying cause so
// callers can test it with errors.Is(err, fs.ErrNotExist) and friends.
type Error struct {
	Kind ErrorKind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind recorded on err, classifying it if needed.
func KindOf(err error) ErrorKind {
	return classify(err).Kind
}

func ioFailure(op, path string, err error) *Error {
	return &Error{Kind: KindIOFailure, Op: op, Path: path, Err: err}
}

// classify maps a filesystem error to an item error kind. The side recorded
// by localfs decides whether a permission error belongs to the source or to
// the destination.
func classify(err error) *Error {
	var te *Error
	if errors.As(err, &te) {
		return te
	}

	e := &Error{Kind: KindIOFailure, Err: err}
	var oe *localfs.OpError
	side := localfs.SideSource
	if errors.As(err, &oe) {
		e.Op, e.Path, e.Err = oe.Op, oe.Path, oe.Err
		side = oe.Side
	}

	switch {
	case diskspace.IsInsufficientSpaceError(err), localfs.IsPathTypeConflict(err):
		e.Kind = KindIOFailure
	case errors.Is(err, fs.ErrNotExist) && side == localfs.SideSource:
		e.Kind = KindSourceNotFound
	case errors.Is(err, fs.ErrPermission) && side == localfs.SideDest:
		e.Kind = KindDestinationUnwritable
	case errors.Is(err, fs.ErrPermission):
		e.Kind = KindPermissionDenied
	}
	return e
}
