package auth

import (
	"context"
	"fmt"
	"net/textproto"
)

// APIKeyConfig configures the API key provider.
type APIKeyConfig struct {
	// Key is the API key presented on every request.
	Key string

	// HeaderName is the header carrying the key.
	// Default: "X-API-Key"
	HeaderName string
}

// APIKeyProvider attaches a static API key header instead of a bearer token.
type APIKeyProvider struct {
	key    string
	header string
}

// NewAPIKeyProvider creates an API key provider.
func NewAPIKeyProvider(config APIKeyConfig) (*APIKeyProvider, error) {
	if config.Key == "" {
		return nil, fmt.Errorf("%w: api key is empty", ErrInvalidConfig)
	}
	if config.HeaderName == "" {
		config.HeaderName = "X-API-Key"
	}
	return &APIKeyProvider{
		key:    config.Key,
		header: textproto.CanonicalMIMEHeaderKey(config.HeaderName),
	}, nil
}

// Name returns "api_key".
func (p *APIKeyProvider) Name() string {
	return "api_key"
}

// HeaderName returns the header carrying the key.
func (p *APIKeyProvider) HeaderName() string {
	return p.header
}

// Authenticate attaches the API key to a copy of opts.
func (p *APIKeyProvider) Authenticate(_ context.Context, opts *RequestOptions) (*RequestOptions, error) {
	if opts == nil {
		return nil, NewPermanentError("request options are required").wrap(ErrNilOptions)
	}
	out := opts.Clone()
	out.Auth = &Authorization{Scheme: SchemeAPIKey, Credential: p.key, HeaderName: p.header}
	return out, nil
}

// Reset is a no-op.
func (p *APIKeyProvider) Reset() {}

var _ Provider = (*APIKeyProvider)(nil)
