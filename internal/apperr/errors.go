package apperr

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Error carries a Code through service and handler layers. Message is
// safe to show to operators; Metadata lands in the JSON error body.
type Error struct {
	Code     Code
	Message  string
	Metadata map[string]string
	Cause    error

	// Retryable is only ever set on storage errors raised by reads.
	Retryable bool
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same Code, so errors.Is(err, ErrTenantMismatch)
// holds for every tenant mismatch whatever its message.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithMetadata is New plus key/value details, e.g. {"phone": "e164"}.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{Code: code, Message: message, Metadata: metadata}
}

// Wrap keeps cause reachable through errors.Unwrap and errors.As.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// Compared with errors.Is; only the Code matters.
var (
	ErrInvalidToken    = New(CodeInvalidToken, "unrecognized code")
	ErrTenantMismatch  = New(CodeTenantMismatch, "organization mismatch")
	ErrPaymentRequired = New(CodePaymentRequired, "payment required")
	ErrNotEnrolled     = New(CodeNotEnrolled, "participant is not enrolled")
)

// Read classifies an error returned by a persistence read. Missing rows
// become CodeNotFound; everything else is a retryable storage error.
func Read(what string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Wrap(CodeNotFound, what+" not found", err)
	}
	if _, ok := As(err); ok {
		return err
	}
	e := Wrap(CodeStorage, "read "+what, err)
	e.Retryable = true
	return e
}

// Write classifies an error returned by a persistence write. Writes are
// never marked retryable: the caller has to re-check state first.
func Write(what string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); ok {
		return err
	}
	return Wrap(CodeStorage, "write "+what, err)
}

// As extracts the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// CodeOf returns the domain code of err, or CodeUnknown.
func CodeOf(err error) Code {
	if e, ok := As(err); ok {
		return e.Code
	}
	return CodeUnknown
}
