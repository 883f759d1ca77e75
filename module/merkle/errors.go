package merkle

import (
	"errors"
	"fmt"
)

// ErrEmptyTree is returned when building a tree over no items. An empty
// allowlist has no root and can never back a valid proof.
var ErrEmptyTree = errors.New("merkle tree must contain at least one leaf")

// MalformedProofError is returned when the proof cannot belong to a tree of
// the claimed size, e.g. the leaf index is out of range or the number of
// siblings does not match the tree depth.
type MalformedProofError struct {
	err error
}

// NewMalformedProofErrorf constructs a new MalformedProofError
func NewMalformedProofErrorf(msg string, args ...interface{}) *MalformedProofError {
	return &MalformedProofError{err: fmt.Errorf(msg, args...)}
}

func (e MalformedProofError) Error() string {
	return fmt.Sprintf("malformed proof, %s", e.err.Error())
}

// Unwrap unwraps the error
func (e MalformedProofError) Unwrap() error {
	return e.err
}

// IsMalformedProofError returns true if err is or wraps a MalformedProofError.
func IsMalformedProofError(err error) bool {
	var malformed *MalformedProofError
	return errors.As(err, &malformed)
}

// IndexOutOfRangeError is returned when a proof is requested for a leaf the
// tree does not have.
type IndexOutOfRangeError struct {
	Index uint64
	Count uint64
}

func (e IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("leaf index %d out of range for %d leaves", e.Index, e.Count)
}
