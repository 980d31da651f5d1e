// Package file provides file utilities, currently the exclusive run lock.
package file

import (
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"syscall"

	"github.com/linchenxuan/ladderd/log"
)

const lockFileMode fs.FileMode = 0o600

// Lock is an advisory exclusive lock on a file. The service takes one on
// startup so two instances cannot serve the same weekly state.
type Lock struct {
	Path string
	file *os.File
}

// NewLock creates a lock handle for the given path without acquiring it.
func NewLock(p string) *Lock {
	return &Lock{Path: p}
}

// Acquire takes the exclusive lock, creating the file if needed, and
// records the holder's pid in it. Non-blocking: if another process holds
// the lock, an error is returned immediately.
func (l *Lock) Acquire() error {
	f, err := os.OpenFile(l.Path, os.O_RDWR|os.O_CREATE, lockFileMode)
	if err != nil {
		return fmt.Errorf("failed to open lock file '%s': %w", l.Path, err)
	}

	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB); err != nil {
		_ = f.Close()
		return fmt.Errorf("lock file '%s' is held by another instance", l.Path)
	}

	_ = f.Truncate(0)
	_, _ = f.WriteAt([]byte(strconv.Itoa(os.Getpid())), 0)

	l.file = f
	log.Info().Str("path", l.Path).Msg("run lock acquired")
	return nil
}

// Release drops the lock and closes the file.
func (l *Lock) Release() error {
	if l.file == nil {
		return nil
	}
	defer l.file.Close()
	return syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
}
