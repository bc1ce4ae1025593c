package auth

import (
	"net/http"
)

// Transport is an http.RoundTripper that authenticates every request with a
// Provider and resets the provider when the target answers 401.
//
// The rejected response is returned unchanged; the next request performs a
// fresh login. Use channel.Channel for automatic re-issue.
type Transport struct {
	// Provider supplies credentials. Required.
	Provider Provider

	// Base is the underlying transport.
	// Default: http.DefaultTransport
	Base http.RoundTripper
}

// NewTransport creates a Transport over base.
func NewTransport(provider Provider, base http.RoundTripper) *Transport {
	return &Transport{Provider: provider, Base: base}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	opts, err := t.Provider.Authenticate(req.Context(), &RequestOptions{
		Method: req.Method,
		URL:    req.URL.String(),
	})
	if err != nil {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, err
	}

	// RoundTrippers must not modify the caller's request.
	clone := req.Clone(req.Context())
	ApplyAuthorization(clone.Header, opts.Auth)

	resp, err := base.RoundTrip(clone)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		t.Provider.Reset()
	}
	return resp, nil
}

// ApplyAuthorization renders auth into header. A nil auth is a no-op.
func ApplyAuthorization(header http.Header, auth *Authorization) {
	if auth == nil {
		return
	}
	switch auth.Scheme {
	case SchemeBearer:
		header.Set(headerOrDefault(auth.HeaderName, "Authorization"), "Bearer "+auth.Credential)
	case SchemeAPIKey:
		header.Set(headerOrDefault(auth.HeaderName, "X-API-Key"), auth.Credential)
	}
}

var _ http.RoundTripper = (*Transport)(nil)
