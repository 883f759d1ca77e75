package oracle

import (
	"errors"
	"fmt"
)

var (
	ErrOperatorAlreadyRegistered  = errors.New("operator already registered")
	ErrOperatorNotFound           = errors.New("operator not registered")
	ErrInvalidTransition          = errors.New("invalid operator status transition")
	ErrOperatorHasPendingRequests = errors.New("operator has pending requests")
	ErrNoActiveOperators          = errors.New("no active operators")
	ErrRequestNotFound            = errors.New("request not found")
	ErrRequestExpired             = errors.New("request expired")
	ErrRequestNotPending          = errors.New("request not pending")
	ErrUnauthorizedCallback       = errors.New("unauthorized callback")
	ErrDecodeFailure              = errors.New("could not decode callback answer")
	ErrNoResultHandler            = errors.New("no result handler for request kind")
)

// RejectionError is returned by result handlers for answers that were
// authenticated but cannot be applied. The request is finalized as
// Rejected and the handler must not have written anything.
type RejectionError struct {
	error
}

func NewRejectionErrorf(msg string, args ...interface{}) error {
	return RejectionError{
		error: fmt.Errorf(msg, args...),
	}
}

func (e RejectionError) Unwrap() error {
	return e.error
}

func IsRejectionError(err error) bool {
	var rejection RejectionError
	return errors.As(err, &rejection)
}

// NewDecodeFailure wraps an answer decoding error. The result is a
// RejectionError matching ErrDecodeFailure.
func NewDecodeFailure(err error) error {
	return RejectionError{
		error: fmt.Errorf("%w: %w", ErrDecodeFailure, err),
	}
}

func IsDecodeFailure(err error) bool {
	return errors.Is(err, ErrDecodeFailure)
}
