package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an application error. Every error the services return
// carries exactly one Kind so the transport layer can map it to a status
// code without string matching.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindSlotFull          Kind = "slot_full"
	KindDuplicateBooking  Kind = "duplicate_booking"
	KindIllegalTransition Kind = "illegal_transition"
	KindConflict          Kind = "conflict"
	KindBusy              Kind = "busy"
	KindInternal          Kind = "internal"
)

// AppError represents an application error
type AppError struct {
	Kind    Kind        `json:"kind"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or KindInternal when err is not an
// AppError (wrapped AppErrors are unwrapped first).
func KindOf(err error) Kind {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Error constructors
func Validation(message string, err error) *AppError {
	return &AppError{Kind: KindValidation, Message: message, Err: err}
}

func NotFound(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Message: fmt.Sprintf("%s not found", resource)}
}

func Unauthorized(message string) *AppError {
	return &AppError{Kind: KindUnauthorized, Message: message}
}

func Forbidden(message string) *AppError {
	return &AppError{Kind: KindForbidden, Message: message}
}

func SlotFull(message string) *AppError {
	return &AppError{Kind: KindSlotFull, Message: message}
}

func DuplicateBooking(message string) *AppError {
	return &AppError{Kind: KindDuplicateBooking, Message: message}
}

func IllegalTransition(message string) *AppError {
	return &AppError{Kind: KindIllegalTransition, Message: message}
}

// Conflict carries optional details, e.g. the appointment ids a window
// edit or delete would orphan.
func Conflict(message string, details interface{}) *AppError {
	return &AppError{Kind: KindConflict, Message: message, Details: details}
}

func Busy(message string) *AppError {
	return &AppError{Kind: KindBusy, Message: message}
}

func Internal(err error) *AppError {
	return &AppError{Kind: KindInternal, Message: "internal server error", Err: err}
}
