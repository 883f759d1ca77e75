package state

import (
	"errors"
	"fmt"
)

var (
	// ErrBadOrigin indicates that the account submitting an extrinsic is not
	// allowed to perform it.
	ErrBadOrigin = errors.New("origin is not allowed to perform this operation")

	// ErrNotBootstrapped indicates that the ledger state was read before it
	// was initialised.
	ErrNotBootstrapped = errors.New("ledger state has not been bootstrapped")
)

// InvalidExtrinsicError is returned for extrinsics whose input is invalid
// regardless of the ledger state, for instance a role without requirements.
// It is benign: the extrinsic is dropped and the state is unchanged.
type InvalidExtrinsicError struct {
	error
}

func NewInvalidExtrinsicError(msg string) error {
	return NewInvalidExtrinsicErrorf(msg)
}

func NewInvalidExtrinsicErrorf(msg string, args ...interface{}) error {
	return InvalidExtrinsicError{
		error: fmt.Errorf(msg, args...),
	}
}

func (e InvalidExtrinsicError) Unwrap() error {
	return e.error
}

// IsInvalidExtrinsicError returns whether the given error is an InvalidExtrinsicError error
func IsInvalidExtrinsicError(err error) bool {
	return errors.As(err, &InvalidExtrinsicError{})
}
