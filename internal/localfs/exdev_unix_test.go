//go:build !windows

package localfs

import "golang.org/x/sys/unix"

func exdevErrno() error { return unix.EXDEV }
