package registry

import (
	"errors"
	"fmt"

	"github.com/idudko/promreg/pkg/meter"
)

// ErrRegistrationConflict is returned when a meter cannot be told apart on
// the wire from one that is already registered.
var ErrRegistrationConflict = errors.New("registry: registration conflict")

// ConflictError describes why a registration failed.
type ConflictError struct {
	ID     meter.ID
	Reason string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("registry: cannot register %s: %s", e.ID, e.Reason)
}

func (e *ConflictError) Unwrap() error {
	return ErrRegistrationConflict
}

func conflict(id meter.ID, format string, args ...any) *ConflictError {
	return &ConflictError{ID: id, Reason: fmt.Sprintf(format, args...)}
}
