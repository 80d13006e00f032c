package lib

import (
	"errors"
	"fmt"
)

// Failure kinds surfaced by the core. Every rejected branch maps to exactly one
// of these so callers can distinguish outcomes.
var (
	ErrNotFound         = errors.New("not found")
	ErrQuotaExceeded    = errors.New("quota exceeded")
	ErrSignatureInvalid = errors.New("invalid payment signature")
	ErrIdentityMismatch = errors.New("user identity mismatch")
	ErrOrderNotFound    = errors.New("order not found")
)

// ValidationError rejects a malformed request before any entity is touched.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func Validationf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// UpstreamError carries a provider or gateway failure. Message is a best-effort
// human-readable description, never credentials or stack content.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}
