package guild

import (
	"bytes"
	"fmt"
)

// NameLength is the fixed width of guild and role names.
const NameLength = 32

// Name is a fixed-width, zero-padded identifier.
type Name [NameLength]byte

// NewName converts s into a Name. Empty names, names longer than NameLength
// bytes and names containing NUL bytes are rejected.
func NewName(s string) (Name, error) {
	var n Name
	if len(s) == 0 {
		return n, fmt.Errorf("name must not be empty")
	}
	if len(s) > NameLength {
		return n, fmt.Errorf("name %q exceeds %d bytes", s, NameLength)
	}
	if bytes.IndexByte([]byte(s), 0) >= 0 {
		return n, fmt.Errorf("name %q contains a NUL byte", s)
	}
	copy(n[:], s)
	return n, nil
}

// MustName is NewName for constants and tests; it panics on invalid input.
func MustName(s string) Name {
	n, err := NewName(s)
	if err != nil {
		panic(err)
	}
	return n
}

func (n Name) String() string {
	return string(bytes.TrimRight(n[:], "\x00"))
}

func (n Name) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}

func (n *Name) UnmarshalText(text []byte) error {
	parsed, err := NewName(string(text))
	if err != nil {
		return err
	}
	*n = parsed
	return nil
}
