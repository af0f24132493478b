package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/embench/evalcore/pkg/corerrors"
)

// atomicWriteJSON marshals v and writes it to path via a temporary sibling
// file: write, fsync, rename. Readers on restart see either the pre- or
// post-write content, never a torn file (§4.1 write discipline).
func atomicWriteJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return corerrors.NewStorageError("marshal", path, err)
	}
	return atomicWrite(path, data)
}

// atomicWrite performs the temp-write + fsync + rename sequence for raw bytes
// (used by atomicWriteJSON; the CSV appender appends rows in place instead).
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return corerrors.NewStorageError("create_temp", path, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return corerrors.NewStorageError("write", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return corerrors.NewStorageError("fsync", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return corerrors.NewStorageError("close", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return corerrors.NewStorageError("rename", path, err)
	}
	return nil
}
