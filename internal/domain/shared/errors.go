// Package shared contains common domain types, errors and events
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base error kinds that can be used for error checking with errors.Is().
var (
	// ErrNotFound - a referenced student, staff member, entry or request does not exist.
	ErrNotFound = errors.New("entity not found")

	// ErrValidation - malformed input, e.g. non-positive hours.
	ErrValidation = errors.New("validation error")

	// ErrInvalidState - the operation is not allowed in the entity's current state.
	ErrInvalidState = errors.New("invalid state")

	// ErrConflict - an account with the same identity already exists.
	ErrConflict = errors.New("conflict")

	// ErrStorage - the durable store failed; the unit of work was rolled back.
	ErrStorage = errors.New("storage error")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "ledger", "accolade", "account"
	Op      string // Operation that failed, e.g., "Confirm", "Create"
	Kind    error  // Base error kind for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// StorageError wraps a low-level store failure so that callers only ever see ErrStorage.
// Domain errors raised inside a unit of work pass through untouched.
func StorageError(domain, op string, err error) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		return err
	}
	return WrapError(domain, op, ErrStorage, "store operation failed", err)
}

// Account errors
var (
	ErrStudentNotFound  = NewDomainError("account", "FindStudent", ErrNotFound, "student not found")
	ErrStaffNotFound    = NewDomainError("account", "FindStaff", ErrNotFound, "staff not found")
	ErrUsernameTaken    = NewDomainError("account", "Create", ErrConflict, "username already exists")
	ErrInvalidAccount   = NewDomainError("account", "Validate", ErrValidation, "invalid account data")
	ErrInvalidUserType  = NewDomainError("account", "Validate", ErrValidation, "unknown user type")
	ErrEmptyPassword    = NewDomainError("account", "Validate", ErrValidation, "password cannot be empty")
	ErrPasswordMismatch = NewDomainError("account", "CheckPassword", ErrValidation, "password does not match")
)

// Ledger errors
var (
	ErrEntryNotFound         = NewDomainError("ledger", "FindEntry", ErrNotFound, "logged hours entry not found")
	ErrNonPositiveHours      = NewDomainError("ledger", "Log", ErrValidation, "hours must be greater than zero")
	ErrEntryAlreadyConfirmed = NewDomainError("ledger", "Confirm", ErrInvalidState, "hours already confirmed")
)

// Confirmation workflow errors
var (
	ErrRequestNotFound     = NewDomainError("confirmation", "FindRequest", ErrNotFound, "confirmation request not found")
	ErrForeignEntry        = NewDomainError("confirmation", "Request", ErrInvalidState, "logged hours entry does not belong to student")
	ErrEntryNotPending     = NewDomainError("confirmation", "Request", ErrInvalidState, "logged hours entry is already confirmed")
	ErrInvalidRequestState = NewDomainError("confirmation", "Resolve", ErrInvalidState, "confirmation request is not pending")
)

// Accolade errors
var (
	ErrInvalidMilestones = NewDomainError("accolade", "Configure", ErrValidation, "milestones must be positive and unique")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInvalidState checks if the error is an invalid state error.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsConflict checks if the error is a conflict error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsStorage checks if the error came from the durable store.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}
