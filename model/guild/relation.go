package guild

import (
	"fmt"

	"github.com/holiman/uint256"
)

// RelationKind selects the comparison a Relation performs.
type RelationKind uint8

const (
	RelationEqualTo RelationKind = iota + 1
	RelationGreaterThan
	RelationGreaterOrEqualTo
	RelationLessThan
	RelationLessOrEqualTo
	RelationBetween
)

func (k RelationKind) String() string {
	switch k {
	case RelationEqualTo:
		return "eq"
	case RelationGreaterThan:
		return "gt"
	case RelationGreaterOrEqualTo:
		return "ge"
	case RelationLessThan:
		return "lt"
	case RelationLessOrEqualTo:
		return "le"
	case RelationBetween:
		return "between"
	default:
		return fmt.Sprintf("relation(%d)", uint8(k))
	}
}

// Relation compares a balance against a reference value. For Between the
// range is half-open: Value is the inclusive lower bound and Upper the
// exclusive upper bound.
type Relation struct {
	Kind  RelationKind
	Value uint256.Int
	Upper uint256.Int
}

func EqualTo(v *uint256.Int) Relation {
	return Relation{Kind: RelationEqualTo, Value: *v}
}

func GreaterThan(v *uint256.Int) Relation {
	return Relation{Kind: RelationGreaterThan, Value: *v}
}

func GreaterOrEqualTo(v *uint256.Int) Relation {
	return Relation{Kind: RelationGreaterOrEqualTo, Value: *v}
}

func LessThan(v *uint256.Int) Relation {
	return Relation{Kind: RelationLessThan, Value: *v}
}

func LessOrEqualTo(v *uint256.Int) Relation {
	return Relation{Kind: RelationLessOrEqualTo, Value: *v}
}

// Between builds the half-open relation lower <= x < upper.
func Between(lower, upper *uint256.Int) Relation {
	return Relation{Kind: RelationBetween, Value: *lower, Upper: *upper}
}

// Validate rejects unknown kinds and empty Between ranges.
func (r Relation) Validate() error {
	switch r.Kind {
	case RelationEqualTo, RelationGreaterThan, RelationGreaterOrEqualTo, RelationLessThan, RelationLessOrEqualTo:
		if !r.Upper.IsZero() {
			return fmt.Errorf("relation %s must not carry an upper bound", r.Kind)
		}
		return nil
	case RelationBetween:
		if !r.Value.Lt(&r.Upper) {
			return fmt.Errorf("empty range: lower bound %s is not below upper bound %s", r.Value.ToBig(), r.Upper.ToBig())
		}
		return nil
	default:
		return fmt.Errorf("invalid relation kind %d", r.Kind)
	}
}

// Assert reports whether x satisfies the relation. Unknown kinds never hold.
func (r Relation) Assert(x *uint256.Int) bool {
	switch r.Kind {
	case RelationEqualTo:
		return x.Eq(&r.Value)
	case RelationGreaterThan:
		return x.Gt(&r.Value)
	case RelationGreaterOrEqualTo:
		return !x.Lt(&r.Value)
	case RelationLessThan:
		return x.Lt(&r.Value)
	case RelationLessOrEqualTo:
		return !x.Gt(&r.Value)
	case RelationBetween:
		return !x.Lt(&r.Value) && x.Lt(&r.Upper)
	default:
		return false
	}
}

func (r Relation) String() string {
	if r.Kind == RelationBetween {
		return fmt.Sprintf("[%s, %s)", r.Value.ToBig(), r.Upper.ToBig())
	}
	return fmt.Sprintf("%s %s", r.Kind, r.Value.ToBig())
}
