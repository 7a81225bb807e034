package storage

import (
	"errors"
	"fmt"
)

// ErrPresignUnsupported is returned by backends that cannot mint
// time-limited URLs (the local backend). Callers treat it as a client
// error, not a storage failure.
var ErrPresignUnsupported = errors.New("presigned URLs are not supported by this storage backend")

// StorageError wraps a failed storage call with the operation, the key
// and the original cause.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
