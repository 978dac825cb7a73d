package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Code is a machine-readable error code returned to clients.
type Code string

const (
	CodeUnauthenticated    Code = "UNAUTHENTICATED"
	CodeInvalidInput       Code = "INVALID_INPUT"
	CodeDuplicateTag       Code = "DUPLICATE_TAG"
	CodeDuplicateName      Code = "DUPLICATE_NAME"
	CodeDuplicateVerse     Code = "DUPLICATE_VERSE"
	CodeDuplicateEmail     Code = "DUPLICATE_EMAIL"
	CodeNotFound           Code = "NOT_FOUND"
	CodeInvalidCredentials Code = "INVALID_CREDENTIALS"
	CodeStoreFailure       Code = "STORE_FAILURE"
)

// HTTPStatus maps the code onto an HTTP status.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeUnauthenticated, CodeInvalidCredentials:
		return http.StatusUnauthorized
	case CodeInvalidInput:
		return http.StatusBadRequest
	case CodeDuplicateTag, CodeDuplicateName, CodeDuplicateVerse, CodeDuplicateEmail:
		return http.StatusConflict
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Error is the error type returned by every service operation.
// Message is safe to show to the caller; cause never is.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches any *Error carrying the same code, so callers can write
// errors.Is(err, domain.ErrNotFound) regardless of the message.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Sentinel errors. The messages are the ones shown to users.
var (
	ErrUnauthenticated    = &Error{Code: CodeUnauthenticated, Message: "Not authenticated"}
	ErrInvalidInput       = &Error{Code: CodeInvalidInput, Message: "Invalid input"}
	ErrDuplicateTag       = &Error{Code: CodeDuplicateTag, Message: "You already have this tag on this verse"}
	ErrDuplicateName      = &Error{Code: CodeDuplicateName, Message: "You already have a collection with this name"}
	ErrDuplicateVerse     = &Error{Code: CodeDuplicateVerse, Message: "Verse already in collection"}
	ErrDuplicateEmail     = &Error{Code: CodeDuplicateEmail, Message: "Email already exists"}
	ErrNotFound           = &Error{Code: CodeNotFound, Message: "Not found"}
	ErrInvalidCredentials = &Error{Code: CodeInvalidCredentials, Message: "Invalid email or password"}
	ErrStoreFailure       = &Error{Code: CodeStoreFailure, Message: "Something went wrong"}
)

// InvalidInput creates a validation error with a specific message.
func InvalidInput(msg string) *Error {
	return &Error{Code: CodeInvalidInput, Message: msg}
}

// NotFound creates a not found error with a specific message.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// StoreFailure creates a generic store failure error. The cause is kept for
// logging but is never part of Message.
func StoreFailure(msg string, cause error) *Error {
	return &Error{Code: CodeStoreFailure, Message: msg, cause: cause}
}

// CodeOf extracts the code from err, defaulting to CodeStoreFailure for
// errors that did not originate in this package.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeStoreFailure
}

// PublicMessage returns the message that may be shown to a caller.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ErrStoreFailure.Message
}
