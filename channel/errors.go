package channel

import "errors"

var (
	// ErrUnauthorized is returned when the target rejects a freshly issued token.
	ErrUnauthorized = errors.New("channel: target rejected credentials")

	// ErrNilProvider is returned by New without a provider.
	ErrNilProvider = errors.New("channel: provider is required")
)
