package auth

import (
	"errors"
	"fmt"
)

// Sentinel errors for authentication.
var (
	// ErrPermanent matches any permanent AuthenticationError via errors.Is.
	ErrPermanent = errors.New("auth: permanent authentication error")

	// ErrTemporary matches any temporary AuthenticationError via errors.Is.
	ErrTemporary = errors.New("auth: temporary authentication error")

	// ErrNilOptions is returned when Authenticate is called without request options.
	ErrNilOptions = errors.New("auth: request options are nil")

	// ErrInvalidConfig is returned by constructors for unusable configuration.
	ErrInvalidConfig = errors.New("auth: invalid configuration")
)

// Kind classifies an AuthenticationError.
type Kind int

const (
	// KindTemporary marks conditions that may succeed on retry.
	KindTemporary Kind = iota + 1
	// KindPermanent marks conditions that need operator intervention.
	KindPermanent
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindTemporary:
		return "temporary"
	case KindPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// AuthenticationError is the only error type returned by Provider.Authenticate.
type AuthenticationError struct {
	// Kind is Permanent or Temporary.
	Kind Kind

	// Message is a human-readable description.
	Message string

	// StatusCode is the identity endpoint status code, zero for transport errors.
	StatusCode int

	// Err is the underlying cause, if any.
	Err error
}

// NewPermanentError creates a permanent authentication error.
func NewPermanentError(format string, args ...any) *AuthenticationError {
	return &AuthenticationError{Kind: KindPermanent, Message: fmt.Sprintf(format, args...)}
}

// NewTemporaryError creates a temporary authentication error.
func NewTemporaryError(format string, args ...any) *AuthenticationError {
	return &AuthenticationError{Kind: KindTemporary, Message: fmt.Sprintf(format, args...)}
}

func (e *AuthenticationError) Error() string {
	return "auth: " + e.Kind.String() + " authentication error: " + e.Message
}

// Unwrap returns the underlying cause.
func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for this error's kind.
func (e *AuthenticationError) Is(target error) bool {
	switch target {
	case ErrPermanent:
		return e.Kind == KindPermanent
	case ErrTemporary:
		return e.Kind == KindTemporary
	}
	return false
}

// Temporary reports whether a retry may succeed.
func (e *AuthenticationError) Temporary() bool {
	return e.Kind == KindTemporary
}

// Permanent reports whether the error is not retryable.
func (e *AuthenticationError) Permanent() bool {
	return e.Kind == KindPermanent
}

func (e *AuthenticationError) withStatus(code int) *AuthenticationError {
	e.StatusCode = code
	return e
}

func (e *AuthenticationError) wrap(err error) *AuthenticationError {
	e.Err = err
	return e
}

// IsPermanent reports whether err is a permanent authentication error.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}

// IsTemporary reports whether err is a temporary authentication error.
func IsTemporary(err error) bool {
	return errors.Is(err, ErrTemporary)
}

// KindOf returns the kind of err, or zero if err is not an AuthenticationError.
func KindOf(err error) Kind {
	var authErr *AuthenticationError
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return 0
}
