package guild

import (
	"fmt"
)

// OperatorStatus is the activation state of an oracle operator.
type OperatorStatus uint8

const (
	OperatorRegistered OperatorStatus = iota + 1
	OperatorActive
	OperatorInactive
)

func (s OperatorStatus) String() string {
	switch s {
	case OperatorRegistered:
		return "registered"
	case OperatorActive:
		return "active"
	case OperatorInactive:
		return "inactive"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Operator is an account authorized to answer oracle requests.
type Operator struct {
	Account      AccountID
	Status       OperatorStatus
	RegisteredAt uint64
}

// CanTransition reports whether the lifecycle allows moving to next.
func (s OperatorStatus) CanTransition(next OperatorStatus) bool {
	switch s {
	case OperatorRegistered, OperatorInactive:
		return next == OperatorActive
	case OperatorActive:
		return next == OperatorInactive
	default:
		return false
	}
}
