package auth

import "context"

// Provider attaches credentials to outbound channel requests.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: Authenticate must honor cancellation/deadlines on any network call.
// - Errors: Authenticate returns (options, nil) or (nil, *AuthenticationError);
//   the input options are never modified.
// - Reset is synchronous and idempotent.
type Provider interface {
	// Name returns a unique identifier for this provider.
	Name() string

	// Authenticate returns a copy of opts with credentials attached.
	Authenticate(ctx context.Context, opts *RequestOptions) (*RequestOptions, error)

	// Reset discards any cached credential. The channel calls it when the target
	// rejects the credential.
	Reset()
}

// ProviderFunc adapts a function into a Provider with a no-op Reset.
type ProviderFunc struct {
	name string
	fn   func(ctx context.Context, opts *RequestOptions) (*RequestOptions, error)
}

// NewProviderFunc creates a ProviderFunc.
func NewProviderFunc(name string, fn func(ctx context.Context, opts *RequestOptions) (*RequestOptions, error)) *ProviderFunc {
	return &ProviderFunc{name: name, fn: fn}
}

// Name returns the provider name.
func (f *ProviderFunc) Name() string {
	return f.name
}

// Authenticate calls the wrapped function.
func (f *ProviderFunc) Authenticate(ctx context.Context, opts *RequestOptions) (*RequestOptions, error) {
	return f.fn(ctx, opts)
}

// Reset is a no-op.
func (f *ProviderFunc) Reset() {}

var _ Provider = (*ProviderFunc)(nil)
