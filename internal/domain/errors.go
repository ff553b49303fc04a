package domain

import (
	"errors"
	"fmt"
)

// Engine error taxonomy.
var (
	ErrClassificationUnavailable = errors.New("classification service unavailable")
	ErrNoOperationMatched        = errors.New("no operation matched the request")
	ErrGenerationService         = errors.New("generation service failed")
	ErrInsufficientState         = errors.New("no existing plan to modify")
	ErrPersistenceConflict       = errors.New("modification in progress")
	ErrUndoUnavailable           = errors.New("nothing to undo")
)

// ValidationError names the argument that failed validation.
type ValidationError struct {
	Param  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Param, e.Reason)
}

// NewValidationError builds a *ValidationError.
func NewValidationError(param, format string, args ...any) error {
	return &ValidationError{Param: param, Reason: fmt.Sprintf(format, args...)}
}

// IsUserVisible reports whether err may be shown to the end user as is.
func IsUserVisible(err error) bool {
	var ve *ValidationError
	switch {
	case errors.As(err, &ve):
		return true
	case errors.Is(err, ErrNoOperationMatched),
		errors.Is(err, ErrInsufficientState),
		errors.Is(err, ErrPersistenceConflict),
		errors.Is(err, ErrUndoUnavailable):
		return true
	}
	return false
}
