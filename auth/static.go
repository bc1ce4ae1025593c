package auth

import (
	"context"
	"fmt"
)

// StaticTokenProvider attaches a pre-issued bearer token.
// It never contacts the network and Reset is a no-op.
type StaticTokenProvider struct {
	name  string
	token string
}

// NewStaticTokenProvider creates a static bearer token provider.
func NewStaticTokenProvider(token string) (*StaticTokenProvider, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: static token is empty", ErrInvalidConfig)
	}
	return &StaticTokenProvider{name: "static", token: token}, nil
}

// Name returns "static".
func (p *StaticTokenProvider) Name() string {
	return p.name
}

// Authenticate attaches the static token.
func (p *StaticTokenProvider) Authenticate(_ context.Context, opts *RequestOptions) (*RequestOptions, error) {
	if opts == nil {
		return nil, NewPermanentError("request options are required").wrap(ErrNilOptions)
	}
	return opts.WithBearer(p.token), nil
}

// Reset is a no-op; the token cannot be re-acquired.
func (p *StaticTokenProvider) Reset() {}

var _ Provider = (*StaticTokenProvider)(nil)
