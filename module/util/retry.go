package util

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
)

// RetryConfig bounds an exponential backoff.
type RetryConfig struct {
	// Base is the wait before the second attempt.
	Base time.Duration
	// Cap is the largest single wait.
	Cap time.Duration
	// MaxRetries is the number of attempts after the first one.
	MaxRetries uint64
	// JitterPercent randomises each wait by up to this percentage.
	JitterPercent uint64
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		Base:          100 * time.Millisecond,
		Cap:           5 * time.Second,
		MaxRetries:    5,
		JitterPercent: 20,
	}
}

// RetryTimeoutError is returned by Retry when every attempt failed with a
// retryable error. It wraps the error of the last attempt.
type RetryTimeoutError struct {
	Attempts uint64
	Last     error
}

func (e RetryTimeoutError) Error() string {
	return fmt.Sprintf("gave up after %d attempts: %v", e.Attempts, e.Last)
}

func (e RetryTimeoutError) Unwrap() error {
	return e.Last
}

// IsRetryTimeoutError returns true if err is a RetryTimeoutError.
func IsRetryTimeoutError(err error) bool {
	var e RetryTimeoutError
	return errors.As(err, &e)
}

// TransientError marks a failure that may succeed when attempted again.
type TransientError struct {
	err error
}

// Transient marks err as retryable. Transient(nil) is nil.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return TransientError{err: err}
}

func (e TransientError) Error() string { return e.err.Error() }

func (e TransientError) Unwrap() error { return e.err }

// IsTransient returns true if err was marked with Transient.
func IsTransient(err error) bool {
	var e TransientError
	return errors.As(err, &e)
}

// Retry calls f until it succeeds, returns a permanent error, the backoff
// is exhausted or ctx is done. f marks an error as retryable by wrapping it
// with Transient; any other error stops the loop immediately and is
// returned as is.
func Retry(ctx context.Context, cfg RetryConfig, f func(ctx context.Context) error) error {
	backoff, err := retry.NewExponential(cfg.Base)
	if err != nil {
		return fmt.Errorf("could not create backoff: %w", err)
	}
	if cfg.Cap > 0 {
		backoff = retry.WithCappedDuration(cfg.Cap, backoff)
	}
	if cfg.JitterPercent > 0 {
		backoff = retry.WithJitterPercent(cfg.JitterPercent, backoff)
	}
	backoff = retry.WithMaxRetries(cfg.MaxRetries, backoff)

	var attempts uint64
	var last error
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		err := f(ctx)
		if err == nil {
			return nil
		}
		if IsTransient(err) {
			last = err
			return retry.RetryableError(err)
		}
		last = nil
		return err
	})
	if err == nil {
		return nil
	}
	if last == nil {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("retry aborted after %d attempts: %v: %w", attempts, last, ctxErr)
	}
	return RetryTimeoutError{Attempts: attempts, Last: last}
}
