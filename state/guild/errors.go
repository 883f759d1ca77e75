package guild

import (
	"errors"
)

var (
	ErrGuildAlreadyExists = errors.New("guild already exists")
	ErrGuildNotFound      = errors.New("guild not found")
	ErrRoleNotFound       = errors.New("role not found")
	ErrNotRegistered      = errors.New("account has no registered identities")
	ErrAlreadyMember      = errors.New("account already holds the role")
	ErrNotMember          = errors.New("account does not hold the role")
)
