package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidConfiguration = errors.New("invalid availability configuration")
	ErrCapacityExceeded     = errors.New("capacity exceeded")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrTooEarly             = errors.New("check-in date not reached")
	ErrStillUnavailable     = errors.New("still unavailable")
	ErrNotFound             = errors.New("not found")
	ErrInvalidPriority      = errors.New("priority must increase")
	ErrCurrencyMismatch     = errors.New("currency mismatch")
	ErrInvalidQuantity      = errors.New("invalid quantity")
	ErrInvalidID            = errors.New("invalid id")
	ErrValidation           = errors.New("validation failed")

	ErrReservationNotFound    = fmt.Errorf("reservation %w", ErrNotFound)
	ErrWaitlistEntryNotFound  = fmt.Errorf("waitlist entry %w", ErrNotFound)
	ErrAvailabilityNotFound   = fmt.Errorf("availability %w", ErrNotFound)
	ErrSpecialRequestNotFound = fmt.Errorf("special request %w", ErrNotFound)
)

// ValidationError reports a value object rejected at construction time.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
