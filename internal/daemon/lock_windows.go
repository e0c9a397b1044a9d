//go:build windows

package daemon

import "golang.org/x/sys/windows"

// flockExclusive attempts a non-blocking exclusive advisory lock on f,
// returning false (not an error) if another process already holds it.
func flockExclusive(fd uintptr) (bool, error) {
	ol := new(windows.Overlapped)
	err := windows.LockFileEx(
		windows.Handle(fd),
		windows.LOCKFILE_EXCLUSIVE_LOCK|windows.LOCKFILE_FAIL_IMMEDIATELY,
		0, 1, 0, ol,
	)
	if err == nil {
		return true, nil
	}
	if err == windows.ERROR_LOCK_VIOLATION {
		return false, nil
	}
	return false, err
}
