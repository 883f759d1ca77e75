package requirements

import (
	"errors"
	"fmt"

	"github.com/guildnet/guild-oracle/model/guild"
)

var (
	// ErrMissingIdentity is returned when a requirement needs a platform
	// identity the account has not linked.
	ErrMissingIdentity = errors.New("missing identity")
	// ErrInvalidProof is returned when an allowlist proof is malformed or
	// no proof can be obtained for the list.
	ErrInvalidProof = errors.New("invalid allowlist proof")
	// ErrExternalLookup is the sentinel matched by every ExternalLookupError.
	ErrExternalLookup = errors.New("external lookup failed")
)

// ExternalLookupError indicates that a requirement could not be decided
// because an external data source failed. The cause is available through
// errors.Unwrap and errors.Is(err, ErrExternalLookup) holds.
type ExternalLookupError struct {
	Chain guild.Chain
	err   error
}

func NewExternalLookupError(chain guild.Chain, err error) ExternalLookupError {
	return ExternalLookupError{Chain: chain, err: err}
}

func (e ExternalLookupError) Error() string {
	return fmt.Sprintf("external lookup on %s failed: %v", e.Chain, e.err)
}

func (e ExternalLookupError) Unwrap() error {
	return e.err
}

func (e ExternalLookupError) Is(target error) bool {
	return target == ErrExternalLookup
}

// IsExternalLookupError returns true if err is an ExternalLookupError.
func IsExternalLookupError(err error) bool {
	var e ExternalLookupError
	return errors.As(err, &e)
}

// RequirementError attributes a check failure to the position of the
// requirement in its role.
type RequirementError struct {
	Index int
	Kind  guild.RequirementKind
	err   error
}

func (e RequirementError) Error() string {
	return fmt.Sprintf("requirement %d (%s): %v", e.Index, e.Kind, e.err)
}

func (e RequirementError) Unwrap() error {
	return e.err
}
