package storage

import (
	"errors"
)

// Sentinel errors of the storage layer. Implementations translate their
// backend errors (such as badger.ErrKeyNotFound) into these.
var (
	// ErrNotFound is returned when no value is stored under a key.
	ErrNotFound = errors.New("key not found")
	// ErrAlreadyExists is returned when an insert targets an occupied key.
	ErrAlreadyExists = errors.New("key already exists")
)
