package errs

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure for callers that need to branch on outcome.
type Kind string

const (
	KindValidation          Kind = "validation"
	KindNotFound            Kind = "not_found"
	KindForbidden           Kind = "forbidden"
	KindConflict            Kind = "conflict"
	KindDocumentValidation  Kind = "document_validation"
	KindInsufficientBalance Kind = "insufficient_balance"
	KindInternal            Kind = "internal"
)

// Error is a classified error. Message is safe to show to API clients.
// Code, when set, is a stable machine code narrower than Kind.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a classified error with a message.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WithCode returns a copy of e carrying code.
func (e *Error) WithCode(code string) *Error {
	out := *e
	out.Code = code
	return &out
}

// Wrap classifies an existing error.
func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(format string, args ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) *Error {
	return New(KindNotFound, fmt.Sprintf(format, args...))
}

func Forbidden(format string, args ...any) *Error {
	return New(KindForbidden, fmt.Sprintf(format, args...))
}

func Conflict(format string, args ...any) *Error {
	return New(KindConflict, fmt.Sprintf(format, args...))
}

// DocumentError lists renter documents that are missing or not approved.
type DocumentError struct {
	Missing []string
}

func (e *DocumentError) Error() string {
	return "required documents missing or not approved: " + strings.Join(e.Missing, ", ")
}

// BalanceError reports a wallet shortfall.
type BalanceError struct {
	UserID   string
	Required float64
	Current  float64
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: required %.2f, current %.2f", e.Required, e.Current)
}

// KindOf reports the kind of err. Unclassified errors are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var docErr *DocumentError
	if errors.As(err, &docErr) {
		return KindDocumentValidation
	}
	var balErr *BalanceError
	if errors.As(err, &balErr) {
		return KindInsufficientBalance
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// CodeOf returns the machine code of err, or the kind when none was set.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Code != "" {
		return e.Code
	}
	return string(KindOf(err))
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
