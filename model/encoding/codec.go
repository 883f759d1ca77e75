package encoding

import (
	"errors"
	"fmt"
)

// Encoder converts payloads exchanged between the ledger and operators to
// and from bytes. Decode fails with a DecodeError when the bytes do not fit
// the target type. The Must variants panic instead of returning errors.
type Encoder interface {
	Encode(v interface{}) ([]byte, error)
	Decode(b []byte, v interface{}) error
	MustEncode(v interface{}) []byte
	MustDecode(b []byte, v interface{})
}

// ErrInvalidEncoding is returned when bytes cannot be decoded into the
// requested type.
var ErrInvalidEncoding = errors.New("invalid encoding")

// DecodeError wraps a failure to decode a payload of the named type.
type DecodeError struct {
	What string
	err  error
}

func NewDecodeError(what string, err error) DecodeError {
	return DecodeError{What: what, err: err}
}

func (e DecodeError) Error() string {
	return fmt.Sprintf("could not decode %s: %v", e.What, e.err)
}

func (e DecodeError) Unwrap() error {
	return ErrInvalidEncoding
}

// IsDecodeError returns true if err is a DecodeError.
func IsDecodeError(err error) bool {
	var e DecodeError
	return errors.As(err, &e)
}
