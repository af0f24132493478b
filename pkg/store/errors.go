package store

import "errors"

var (
	errNoOpenTask      = errors.New("no task is currently open on this handle")
	errAlreadyOpenTask = errors.New("a task is already open on this handle; finalize it first")
)
