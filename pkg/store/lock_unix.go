//go:build unix

package store

import (
	"os"

	"golang.org/x/sys/unix"
)

// lockExclusive acquires an advisory exclusive lock on f for the duration of
// one CSV append (§4.1 Concurrency — "protected by an advisory exclusive
// file lock held only for the duration of one append").
func lockExclusive(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX)
}

func unlockFile(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}
