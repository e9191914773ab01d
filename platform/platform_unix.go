//go:build unix

package platform

import "golang.org/x/sys/unix"

// PageSize returns the OS page size in bytes.
func PageSize() int {
	return unix.Getpagesize()
}
