package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeInvalid           ErrorCode = "INVALID"
	ErrCodeConflict          ErrorCode = "CONFLICT"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal          ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another *Error carrying the same code and message, so that
// errors.Is works against the sentinels below even after wrapping.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Errorf builds a domain error with a formatted message.
func Errorf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Common domain errors.
var (
	ErrBookNotFound    = NewError(ErrCodeNotFound, "book not found")
	ErrUserNotFound    = NewError(ErrCodeNotFound, "user not found")
	ErrLoanNotFound    = NewError(ErrCodeNotFound, "transaction not found")
	ErrSessionNotFound = NewError(ErrCodeNotFound, "session not found")

	ErrBookUnavailable = NewError(ErrCodeConflict, "book is not available for borrowing")
	ErrMemberInactive  = NewError(ErrCodeConflict, "member is not active")
	ErrAlreadyReturned = NewError(ErrCodeConflict, "already returned")
	ErrBookHasLoans    = NewError(ErrCodeConflict, "cannot delete a book that is currently borrowed")
	ErrUserHasLoans    = NewError(ErrCodeConflict, "cannot delete a user with active borrows")

	ErrDuplicateISBN  = NewError(ErrCodeInvalid, "a book with this ISBN already exists")
	ErrDuplicateEmail = NewError(ErrCodeInvalid, "email already in use")

	ErrForbidden         = NewError(ErrCodeForbidden, "forbidden")
	ErrUnauthorized      = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidCredential = NewError(ErrCodeUnauthorized, "invalid credentials")
	ErrInvalidPayload    = NewError(ErrCodeInvalid, "invalid payload")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost domain error, or ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code
	}
	return ErrCodeInternal
}
