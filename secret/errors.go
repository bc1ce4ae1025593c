package secret

import "errors"

// Sentinel errors for secret resolution.
var (
	// ErrMissingEnv indicates a ${VAR} reference to an unset variable.
	ErrMissingEnv = errors.New("secret: missing required environment variables")

	// ErrUnknownProvider indicates a secretref naming an unregistered provider.
	ErrUnknownProvider = errors.New("secret: provider is not registered")

	// ErrEmptyValue indicates a strict resolver received an empty secret.
	ErrEmptyValue = errors.New("secret: provider returned empty value")

	// ErrNotFound indicates the referenced secret does not exist.
	ErrNotFound = errors.New("secret: not found")

	// ErrInvalidRegistration indicates an empty name or nil factory.
	ErrInvalidRegistration = errors.New("secret: invalid provider registration")

	// ErrDuplicateProvider indicates a name is already registered.
	ErrDuplicateProvider = errors.New("secret: provider already registered")
)
