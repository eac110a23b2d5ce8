package domain

import (
	"errors"
	"fmt"
)

// Common domain errors that can occur while building topologies and
// aggregating run results.
var (
	// ErrEmptyRegistry indicates that a registry contains no domain records.
	ErrEmptyRegistry = errors.New("registry has no domains")

	// ErrDuplicateDomain indicates that two registry records share a name.
	ErrDuplicateDomain = errors.New("duplicate domain name")

	// ErrUnknownTopology indicates an unrecognized topology kind.
	ErrUnknownTopology = errors.New("unknown topology kind")

	// ErrNoRuns indicates that aggregation received no run metrics.
	ErrNoRuns = errors.New("no runs to aggregate")

	// ErrRunCountMismatch indicates that topologies under comparison were
	// executed a differing number of times.
	ErrRunCountMismatch = errors.New("run count mismatch across topologies")

	// ErrInvalidConfiguration indicates that configuration is invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// ValidationError collects one or more validation failures for a single
// entity, such as a registry file or an experiment configuration.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
