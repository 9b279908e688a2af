package app

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an Error for retry and HTTP-mapping decisions.
type ErrorKind string

const (
	KindValidation       ErrorKind = "validation"
	KindAuth             ErrorKind = "auth"
	KindRateLimit        ErrorKind = "rate_limit"
	KindNotFound         ErrorKind = "not_found"
	KindConflict         ErrorKind = "conflict"
	KindTransientStore   ErrorKind = "transient_store"
	KindTransientNetwork ErrorKind = "transient_network"
	KindUpstream         ErrorKind = "upstream"
	KindInternal         ErrorKind = "internal"
)

// Error carries a kind, a stable machine code, and a human message.
// The wrapped cause (if any) is available via errors.Unwrap.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// NewError creates an Error with no underlying cause.
func NewError(kind ErrorKind, code string, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// WrapError creates an Error wrapping an underlying cause.
func WrapError(kind ErrorKind, code string, message string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: message, cause: cause}
}

// KindOf extracts the ErrorKind from an error chain, defaulting to internal.
func KindOf(err error) ErrorKind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// CodeOf extracts the stable machine code from an error chain.
func CodeOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return "INTERNAL_ERROR"
}

// Retryable reports whether an error kind indicates a condition that may
// clear on a later attempt.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindTransientStore, KindTransientNetwork, KindUpstream:
		return true
	}
	return false
}
