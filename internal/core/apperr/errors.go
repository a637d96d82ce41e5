// Package apperr defines the error taxonomy shared by the pipeline core and its
// HTTP surface. Callers distinguish "your input was invalid" from "the entity
// changed underneath you" with errors.Is against the exported sentinels.
package apperr

import (
	"errors"
	"fmt"
)

// Code classifies an application error.
type Code string

const (
	// CodeValidation marks malformed input to an operation.
	CodeValidation Code = "VALIDATION"
	// CodeConflict marks a precondition violated by the current entity state.
	CodeConflict Code = "CONFLICT"
	// CodeNotFound marks a referenced entity that no longer exists.
	CodeNotFound Code = "NOT_FOUND"
	// CodePartialPersistence marks an applied state change whose optional metadata was not stored.
	CodePartialPersistence Code = "PARTIAL_PERSISTENCE"
	// CodeInternal marks everything else.
	CodeInternal Code = "INTERNAL"
)

var (
	// ErrValidation matches every validation error.
	ErrValidation = errors.New("validation failed")
	// ErrConflict matches every conflict error.
	ErrConflict = errors.New("state conflict")
	// ErrNotFound matches every not-found error.
	ErrNotFound = errors.New("not found")
	// ErrPartialPersistence matches every partial persistence warning.
	ErrPartialPersistence = errors.New("partial persistence")
)

var sentinels = map[Code]error{
	CodeValidation:         ErrValidation,
	CodeConflict:           ErrConflict,
	CodeNotFound:           ErrNotFound,
	CodePartialPersistence: ErrPartialPersistence,
}

// Error is a classified application error.
type Error struct {
	// Code is the error class.
	Code Code `json:"code"`
	// Message is safe to show to the caller verbatim.
	Message string `json:"message"`
	// Err is the underlying cause, if any.
	Err error `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's code.
func (e *Error) Is(target error) bool {
	s, ok := sentinels[e.Code]
	return ok && s == target
}

// Validation returns a CodeValidation error.
func Validation(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// Conflict returns a CodeConflict error.
func Conflict(format string, args ...any) *Error {
	return &Error{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

// NotFound returns a CodeNotFound error for the given entity kind and id.
func NotFound(kind string, id int64) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf("%s %d not found", kind, id)}
}

// PartialPersistence wraps cause as a warning for a state change that was applied.
func PartialPersistence(cause error, format string, args ...any) *Error {
	return &Error{Code: CodePartialPersistence, Message: fmt.Sprintf(format, args...), Err: cause}
}

// CodeOf returns the code of the first *Error in err's chain, or CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// MessageOf returns the caller-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
