package storage

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrBusy wraps SQLite lock contention so callers can retry the write.
	ErrBusy = errors.New("database is busy")
)
