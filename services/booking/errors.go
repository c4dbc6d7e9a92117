package booking

import (
	"errors"
	"fmt"
)

// Error codes, mapped to HTTP statuses by the handlers.
const (
	CodeValidation = "validation" // 400: malformed or missing request fields
	CodeNotFound   = "not_found"  // 404: missing entity or failed transition guard
	CodeConflict   = "conflict"   // 409: slot taken, class full, duplicates
	CodeUpstream   = "upstream"   // 500: store or gateway failure, safe to retry
)

// Error is the service-level error carrying a taxonomy code.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

var (
	ErrSlotNotFound    = &Error{Code: CodeNotFound, Message: "slot not found"}
	ErrSlotUnavailable = &Error{Code: CodeConflict, Message: "slot no longer available"}
	ErrAlreadyBooked   = &Error{Code: CodeConflict, Message: "slot already booked by another student"}
	ErrHoldNotFound    = &Error{Code: CodeNotFound, Message: "no matching reservation for this student"}
)

// NewValidationError reports a malformed request field.
func NewValidationError(msg string) error {
	return &Error{Code: CodeValidation, Message: msg}
}

// NewUpstreamError wraps a store or gateway failure.
func NewUpstreamError(op string, err error) error {
	return &Error{Code: CodeUpstream, Message: fmt.Sprintf("%s: %v", op, err)}
}

// CodeOf extracts the taxonomy code from an error, defaulting to upstream.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUpstream
}

// IsConflict reports whether the error is a booking conflict.
func IsConflict(err error) bool { return CodeOf(err) == CodeConflict }

// IsNotFound reports whether the error is a missing entity or failed guard.
func IsNotFound(err error) bool { return CodeOf(err) == CodeNotFound }
