package queryir

import (
	"errors"
	"fmt"
)

// ErrInvalidPredicate is returned by Validate for malformed predicates.
var ErrInvalidPredicate = errors.New("invalid predicate")

// Validate checks that every node of p is a known type with a non-empty
// family and qualifier. A nil predicate is valid.
//
// Validate is a pure function with no side effects.
func Validate(p Predicate) error {
	switch pred := p.(type) {
	case nil:
		return nil
	case ColumnEquals:
		return validateEquals(pred)
	case *ColumnEquals:
		if pred == nil {
			return fmt.Errorf("nil *ColumnEquals: %w", ErrInvalidPredicate)
		}
		return validateEquals(*pred)
	case And:
		return validateAnd(pred)
	case *And:
		if pred == nil {
			return fmt.Errorf("nil *And: %w", ErrInvalidPredicate)
		}
		return validateAnd(*pred)
	default:
		return fmt.Errorf("unsupported predicate type %T: %w", p, ErrInvalidPredicate)
	}
}

func validateEquals(eq ColumnEquals) error {
	if eq.Family == "" {
		return fmt.Errorf("column predicate has empty family: %w", ErrInvalidPredicate)
	}
	if eq.Qualifier == "" {
		return fmt.Errorf("column predicate on family %q has empty qualifier: %w", eq.Family, ErrInvalidPredicate)
	}
	return nil
}

func validateAnd(and And) error {
	for i, p := range and.Predicates {
		if p == nil {
			return fmt.Errorf("and: predicate %d is nil: %w", i, ErrInvalidPredicate)
		}
		if err := Validate(p); err != nil {
			return fmt.Errorf("and[%d]: %w", i, err)
		}
	}
	return nil
}
