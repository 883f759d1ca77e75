package guild

import (
	"fmt"
)

// RequestID identifies an oracle request. IDs are assigned in strictly
// increasing order and never reused.
type RequestID uint64

// RequestKind tells the coordinator how to apply an answer.
type RequestKind uint8

const (
	RequestRegister RequestKind = iota + 1
	RequestJoin
	RequestGeneric
)

func (k RequestKind) String() string {
	switch k {
	case RequestRegister:
		return "register"
	case RequestJoin:
		return "join"
	case RequestGeneric:
		return "generic"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// RequestStatus is the lifecycle state of a request. Every state except
// Pending is terminal.
type RequestStatus uint8

const (
	RequestPending RequestStatus = iota + 1
	RequestAnswered
	RequestExpired
	RequestRejected
)

func (s RequestStatus) String() string {
	switch s {
	case RequestPending:
		return "pending"
	case RequestAnswered:
		return "answered"
	case RequestExpired:
		return "expired"
	case RequestRejected:
		return "rejected"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

func (s RequestStatus) Terminal() bool {
	return s != RequestPending
}

// Request is an oracle request as persisted by the ledger.
type Request struct {
	ID        RequestID
	Requester AccountID
	Kind      RequestKind
	Payload   []byte
	Operator  AccountID
	CreatedAt uint64
	// ExpiresAt is the first height at which the request is no longer
	// answerable.
	ExpiresAt uint64
	Status    RequestStatus
	Answer    []byte
}

// Expired reports whether the validity window has elapsed at height.
func (r *Request) Expired(height uint64) bool {
	return height >= r.ExpiresAt
}

// StatusAt returns the status observed at the given height: a pending
// request whose window has elapsed is observed as expired.
func (r *Request) StatusAt(height uint64) RequestStatus {
	if r.Status == RequestPending && r.Expired(height) {
		return RequestExpired
	}
	return r.Status
}
