package identity

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes provider failures.
type ErrorCode string

const (
	CodeInvalidCredential ErrorCode = "auth/invalid-credential"
	CodeEmailInUse        ErrorCode = "auth/email-already-in-use"
	CodeNetworkFailed     ErrorCode = "auth/network-request-failed"
	CodeTooManyRequests   ErrorCode = "auth/too-many-requests"
	CodeNoSession         ErrorCode = "auth/no-current-session"
	CodeUnknown           ErrorCode = "auth/unknown"
)

// ProviderError wraps a provider failure with a stable code so callers
// can show a friendly message instead of the raw provider diagnostic.
type ProviderError struct {
	Code ErrorCode
	Err  error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	}
	return string(e.Code)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewError builds a ProviderError.
func NewError(code ErrorCode, err error) *ProviderError {
	return &ProviderError{Code: code, Err: err}
}

// FriendlyMessage maps a provider error onto the user-facing message
// templates. Unknown errors get a generic fallback rather than leaking
// provider internals.
func FriendlyMessage(err error) string {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return "Authentication failed. Please try again."
	}
	switch pe.Code {
	case CodeInvalidCredential:
		return "Incorrect Email or Password. If you haven't registered yet, please switch to 'Register Now'."
	case CodeEmailInUse:
		return "User already exists. Please Sign In."
	case CodeNetworkFailed:
		return "Network connection failed. Please check your internet."
	case CodeTooManyRequests:
		return "Too many failed attempts. Please reset your password or try again later."
	default:
		return "Authentication failed. Please try again."
	}
}
