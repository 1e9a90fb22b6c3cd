package planner

import (
	"errors"
	"fmt"
)

// Planner errors. ErrPlanLocked wraps ErrState.
var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
	ErrState      = errors.New("invalid state")
	ErrCapacity   = errors.New("capacity exceeded")
	ErrPlanLocked = fmt.Errorf("%w: plan is confirmed", ErrState)
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}

func notFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrNotFound}, args...)...)
}

func statef(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrState}, args...)...)
}

func capacityf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrCapacity}, args...)...)
}
