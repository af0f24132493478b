//go:build !unix

package store

import (
	"os"
	"time"
)

// lockExclusive falls back to an O_EXCL sentinel file next to f on
// platforms without flock(2). It is coarser (poll-based) but satisfies the
// same "one append at a time" invariant as the unix flock path.
func lockExclusive(f *os.File) error {
	sentinel := f.Name() + ".lock"
	for {
		sf, err := os.OpenFile(sentinel, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			sf.Close()
			return nil
		}
		if !os.IsExist(err) {
			return err
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func unlockFile(f *os.File) error {
	return os.Remove(f.Name() + ".lock")
}
