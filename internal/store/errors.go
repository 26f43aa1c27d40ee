package store

import (
	"errors"
	"fmt"
)

var (
	// ErrCorrupt marks a collection that does not parse or fails its schema.
	ErrCorrupt = errors.New("corrupt collection")
	ErrBadName = errors.New("invalid collection name")
)

// StorageError wraps any failure to read or write a collection.
type StorageError struct {
	Collection string
	Op         string
	Err        error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
