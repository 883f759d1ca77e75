package signature

import (
	"errors"
)

var (
	ErrInvalidFormat     = errors.New("invalid signature format")
	ErrInvalidSignature  = errors.New("invalid signature")
	ErrInvalidRecoveryID = errors.New("invalid recovery id")
	ErrUnsupportedScheme = errors.New("unsupported signature scheme")
)

func errorsIsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
