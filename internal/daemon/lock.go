package daemon

import (
	"fmt"
	"os"
)

// ErrAlreadyRunning is returned by Acquire when another process already
// holds the project's advisory lock; the caller should exit cleanly
// rather than treat this as a fatal error.
var ErrAlreadyRunning = fmt.Errorf("tldr: daemon already running for this project")

// Lock wraps the open lock-file handle; the advisory lock is released
// when Release closes it (or the process exits).
type Lock struct {
	file *os.File
	path string
}

// Acquire takes the exclusive advisory lock for root's project, creating
// the runtime directory and lock file if needed. Returns ErrAlreadyRunning
// (not a generic error) if another daemon already holds it — the single-
// instance guarantee from spec.md §4.9.
func Acquire(root string) (*Lock, error) {
	path, err := LockPath(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(runtimeDir(), 0o755); err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}

	ok, err := flockExclusive(f.Fd())
	if err != nil {
		f.Close()
		return nil, err
	}
	if !ok {
		f.Close()
		return nil, ErrAlreadyRunning
	}

	if err := f.Truncate(0); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.WriteAt([]byte(fmt.Sprintf("%d", os.Getpid())), 0); err != nil {
		f.Close()
		return nil, err
	}

	return &Lock{file: f, path: path}, nil
}

// Release releases the lock and removes the lock file. Safe to call once;
// the daemon calls it during cooperative shutdown.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := l.file.Close()
	os.Remove(l.path)
	return err
}
