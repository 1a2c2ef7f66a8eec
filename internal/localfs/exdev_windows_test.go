//go:build windows

package localfs

import "golang.org/x/sys/windows"

func exdevErrno() error { return windows.ERROR_NOT_SAME_DEVICE }
