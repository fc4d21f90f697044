//go:build unix

package shared

import (
	"errors"

	"golang.org/x/sys/unix"
)

// processAlive reports whether pid names a running process. EPERM means it exists but belongs to another user.
func processAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
