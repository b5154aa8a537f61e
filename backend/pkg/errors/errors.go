package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeStore represents entity or profile store failures
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeNotFound represents references to absent nodes or entities
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeInvalidArgument represents rejected caller input
	ErrorTypeInvalidArgument ErrorType = "invalid_argument"
	// ErrorTypeData represents stored data that failed shape validation
	ErrorTypeData ErrorType = "data"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// Category returns the error category
func (e *BaseError) Category() ErrorType {
	return e.Type
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Store Errors

// ErrStoreUnavailable is returned when the entity store cannot be read.
// It is fatal to the current request and never retried internally.
type ErrStoreUnavailable struct {
	*BaseError
	Operation string
}

func NewStoreUnavailable(operation string, err error) *ErrStoreUnavailable {
	return &ErrStoreUnavailable{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("store unavailable during %s", operation), err),
		Operation: operation,
	}
}

// NewStoreFailure classifies a failed store call. A call that failed after
// ctx was done is a ContextCancelled error, anything else is StoreUnavailable.
func NewStoreFailure(ctx context.Context, operation string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return NewContextCancelled(operation, ctxErr)
	}
	return NewStoreUnavailable(operation, err)
}

// Lookup Errors

// ErrNotFound is returned when a referenced node, entity or profile is absent
type ErrNotFound struct {
	*BaseError
	Kind string
	ID   string
}

func NewNotFound(kind, id string) *ErrNotFound {
	return &ErrNotFound{
		BaseError: NewBaseError(ErrorTypeNotFound, fmt.Sprintf("%s not found: %s", kind, id), nil),
		Kind:      kind,
		ID:        id,
	}
}

// ErrInvalidArgument is returned before any traversal begins when input is unusable
type ErrInvalidArgument struct {
	*BaseError
	Field  string
	Reason string
}

func NewInvalidArgument(field, reason string) *ErrInvalidArgument {
	return &ErrInvalidArgument{
		BaseError: NewBaseError(ErrorTypeInvalidArgument, fmt.Sprintf("invalid %s: %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// Data Errors

// ErrMalformedRecord is returned when a stored record cannot be parsed into its typed form
type ErrMalformedRecord struct {
	*BaseError
	Entity string
	ID     string
	Field  string
}

func NewMalformedRecord(entity, id, field string, err error) *ErrMalformedRecord {
	return &ErrMalformedRecord{
		BaseError: NewBaseError(ErrorTypeData, fmt.Sprintf("malformed %s %s: field %s", entity, id, field), err),
		Entity:    entity,
		ID:        id,
		Field:     field,
	}
}

// Context Errors

// ErrContextCancelled is returned when context is cancelled
type ErrContextCancelled struct {
	*BaseError
	Operation string
}

func NewContextCancelled(operation string, err error) *ErrContextCancelled {
	return &ErrContextCancelled{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context cancelled: %s", operation), err),
		Operation: operation,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

type categorized interface {
	Category() ErrorType
}

// IsErrorType checks if an error, or anything it wraps, is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if c, ok := err.(categorized); ok && c.Category() == errType {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// IsNotFound reports whether err signals an absent node or entity
func IsNotFound(err error) bool {
	return IsErrorType(err, ErrorTypeNotFound)
}

// IsInvalidArgument reports whether err signals rejected input
func IsInvalidArgument(err error) bool {
	return IsErrorType(err, ErrorTypeInvalidArgument)
}

// IsStoreUnavailable reports whether err signals a data layer failure
func IsStoreUnavailable(err error) bool {
	return IsErrorType(err, ErrorTypeStore)
}

// IsRetryable checks if an error is worth retrying by the caller.
// The core itself never retries.
func IsRetryable(err error) bool {
	if IsErrorType(err, ErrorTypeContext) {
		return false
	}
	if IsErrorType(err, ErrorTypeData) {
		return false
	}
	return IsErrorType(err, ErrorTypeStore)
}
