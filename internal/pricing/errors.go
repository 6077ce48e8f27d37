package pricing

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidItem is returned when a token or item code is not part of the catalog.
	ErrInvalidItem = errors.New("invalid item")
	// ErrInvalidQuantity is returned when a basket carries a negative quantity.
	ErrInvalidQuantity = errors.New("invalid quantity")
	// ErrInvalidRule is returned when a rule set fails configuration checks.
	ErrInvalidRule = errors.New("invalid pricing rule")
)

// InvalidItemError reports the offending item code.
type InvalidItemError struct {
	Code ItemCode
}

// Error implements the error interface.
func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("invalid item %q", string(e.Code))
}

// Unwrap allows errors.Is(err, ErrInvalidItem).
func (e *InvalidItemError) Unwrap() error { return ErrInvalidItem }

func ruleErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRule, fmt.Sprintf(format, args...))
}
