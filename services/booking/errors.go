package booking

import (
	"errors"
	"fmt"
)

// Error codes for the booking core's failure taxonomy. Every operation
// returns one of these as a typed value; nothing is retried internally.
const (
	CodeSlotConflict           = "SLOT_CONFLICT"
	CodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	CodeValidation             = "VALIDATION_ERROR"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeAlreadySettled         = "ALREADY_SETTLED"
	CodeNotFound               = "NOT_FOUND"
)

// BookingError is a typed failure returned to the operation boundary.
type BookingError struct {
	Code    string
	Message string
}

func (e *BookingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewSlotConflictError(msg string) error {
	return &BookingError{Code: CodeSlotConflict, Message: msg}
}

func NewInvalidStateTransitionError(msg string) error {
	return &BookingError{Code: CodeInvalidStateTransition, Message: msg}
}

func NewValidationError(msg string) error {
	return &BookingError{Code: CodeValidation, Message: msg}
}

func NewUnauthorizedError(msg string) error {
	return &BookingError{Code: CodeUnauthorized, Message: msg}
}

func NewAlreadySettledError(msg string) error {
	return &BookingError{Code: CodeAlreadySettled, Message: msg}
}

func NewNotFoundError(msg string) error {
	return &BookingError{Code: CodeNotFound, Message: msg}
}

// CodeOf extracts the error code, or empty for untyped errors.
func CodeOf(err error) string {
	var be *BookingError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}
