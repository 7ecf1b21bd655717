package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies every failure the core can hand back to the API layer.
type ErrorKind string

const (
	KindNotFound         ErrorKind = "NOT_FOUND"
	KindConflict         ErrorKind = "CONFLICT"
	KindValidationFailed ErrorKind = "VALIDATION_FAILED"
	KindForbidden        ErrorKind = "FORBIDDEN"
	KindStateViolation   ErrorKind = "STATE_VIOLATION"
)

// Error is the typed failure returned by services. ValidationFailed errors
// carry the full list of violations, not just the first one found.
type Error struct {
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
	Violations []string  `json:"violations,omitempty"`
}

func (e *Error) Error() string {
	if len(e.Violations) > 0 {
		return e.Message + ": " + strings.Join(e.Violations, "; ")
	}

	return e.Message
}

// Is matches on kind, and on message too when the target carries one.
// Sentinels below therefore work with errors.Is even after wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e.Kind == t.Kind && (t.Message == "" || t.Message == e.Message)
}

func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func StateViolation(format string, args ...any) *Error {
	return &Error{Kind: KindStateViolation, Message: fmt.Sprintf(format, args...)}
}

func ValidationFailed(message string, violations ...string) *Error {
	return &Error{Kind: KindValidationFailed, Message: message, Violations: violations}
}

// KindOf extracts the ErrorKind of err if it wraps a domain Error.
func KindOf(err error) (ErrorKind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}

	return "", false
}

var (
	ErrEventNotFound  = NotFound("event not found")
	ErrUserNotFound   = NotFound("user not found")
	ErrOrderNotFound  = NotFound("order not found")
	ErrTicketNotFound = NotFound("ticket not found")
	ErrItemNotFound   = NotFound("item not found")

	ErrAlreadyRegistered        = Conflict("already registered for this event")
	ErrRegistrationLimitReached = Conflict("registration limit reached")
	ErrOpenOrderExists          = Conflict("you already have an open merchandise order for this event")
	ErrStockExhausted           = Conflict("stock exhausted while approving this order")
	ErrTeamAlreadyExists        = Conflict("team already exists, choose join instead")
	ErrDuplicateScan            = Conflict("duplicate scan, attendance already marked")
)
