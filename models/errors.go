package models

import (
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("invalid event")
	ErrQuotaExceeded    = errors.New("daily like limit reached")
	ErrNotFound         = errors.New("not found")
	ErrStateConflict    = errors.New("conversation state conflict")
	ErrNoMoreCandidates = errors.New("no more candidates")
)

// ExternalServiceError wraps a failure (including a timeout) of one of the
// external collaborators the engine depends on.
type ExternalServiceError struct {
	Dependency string
	Err        error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Dependency, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// NewExternalServiceError tags err with the dependency it came from.
func NewExternalServiceError(dependency string, err error) error {
	return &ExternalServiceError{Dependency: dependency, Err: err}
}

// IsExternal reports whether err originated from an external dependency.
func IsExternal(err error) bool {
	var ese *ExternalServiceError
	return errors.As(err, &ese)
}
