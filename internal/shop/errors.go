package shop

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes coordinator failures so callers can branch
// without string matching.
type ErrorCode string

const (
	// ErrCodeNotAuthenticated means an operation requiring a session
	// was attempted while signed out.
	ErrCodeNotAuthenticated ErrorCode = "NOT_AUTHENTICATED"

	// ErrCodeValidation means the input was rejected before any
	// collaborator was contacted.
	ErrCodeValidation ErrorCode = "VALIDATION"

	// ErrCodePaymentDeclined means the payment gateway did not approve
	// the charge.
	ErrCodePaymentDeclined ErrorCode = "PAYMENT_DECLINED"

	// ErrCodeOrderPersistFailed means the order write failed. The
	// placement is fatal at this point and is not retried.
	ErrCodeOrderPersistFailed ErrorCode = "ORDER_PERSIST_FAILED"

	// ErrCodeProfileSyncFailed means a profile or address write to the
	// backing store failed; local and remote state may diverge.
	ErrCodeProfileSyncFailed ErrorCode = "PROFILE_SYNC_FAILED"

	// ErrCodeRevisionConflict means a profile write lost against a
	// newer revision of the remote document.
	ErrCodeRevisionConflict ErrorCode = "REVISION_CONFLICT"
)

// Error is a coordinator failure with a stable code. Stage is set on
// placement errors to the step that failed.
type Error struct {
	Code    ErrorCode
	Stage   PlacementState
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Stage != "" {
		msg += fmt.Sprintf(" (stage=%s)", e.Stage)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf extracts the ErrorCode of an error, or "".
func CodeOf(err error) ErrorCode {
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return ""
}

func notAuthenticated() *Error {
	return &Error{Code: ErrCodeNotAuthenticated, Message: "no user session"}
}

func validationError(format string, args ...any) *Error {
	return &Error{Code: ErrCodeValidation, Message: fmt.Sprintf(format, args...)}
}
