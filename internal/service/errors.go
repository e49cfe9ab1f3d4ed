package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Engine errors. All of them are expected, typed failures surfaced directly to
// the caller; the engine never retries.
var (
	// ErrValidation is returned when input is malformed or missing required fields
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateEmail is returned when an email is already used by another principal
	ErrDuplicateEmail = errors.New("email already exists")

	// ErrAuthorization is returned when the caller's role forbids the requested action
	ErrAuthorization = errors.New("not authorized for this action")

	// ErrNotFoundOrForbidden is returned for records that do not exist or are outside
	// the caller's scope. The two cases are deliberately indistinguishable.
	ErrNotFoundOrForbidden = errors.New("not found")

	// ErrNoEligibleTargets is returned when the caller has no active subordinate to receive work
	ErrNoEligibleTargets = errors.New("no eligible targets")

	// ErrAllocationConflict is returned when two agent number allocations collide
	ErrAllocationConflict = errors.New("agent number allocation conflict")

	// ErrNoValidRows is returned when an upload contains no row with both first name and phone
	ErrNoValidRows = errors.New("no valid rows found")

	// ErrUnsupportedFileType is returned for uploads that are not CSV or Excel files
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrFileTooLarge is returned when an upload exceeds the configured size limit
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidCredentials is returned when login fails
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError carries field-level detail. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError creates a ValidationError for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %s", k, e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrValidation.Error(), strings.Join(parts, "; "))
}

// Is makes errors.Is(err, ErrValidation) succeed for any ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
