//go:build !windows

package daemon

import "syscall"

// flockExclusive attempts a non-blocking exclusive advisory lock on f,
// returning false (not an error) if another process already holds it.
func flockExclusive(fd uintptr) (bool, error) {
	err := syscall.Flock(int(fd), syscall.LOCK_EX|syscall.LOCK_NB)
	if err == nil {
		return true, nil
	}
	if err == syscall.EWOULDBLOCK {
		return false, nil
	}
	return false, err
}
