package auth

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
)

// Scheme identifies how a credential is presented on the outbound request.
type Scheme string

const (
	// SchemeBearer sends "Authorization: Bearer <credential>".
	SchemeBearer Scheme = "Bearer"

	// SchemeAPIKey sends the credential verbatim in an API key header.
	SchemeAPIKey Scheme = "api_key"
)

// Authorization is the credential attached to RequestOptions by a Provider.
type Authorization struct {
	// Scheme is the presentation scheme.
	Scheme Scheme

	// Credential is the token or key value.
	Credential string

	// HeaderName overrides the target header. Default: "Authorization" for
	// bearer, "X-API-Key" for API keys.
	HeaderName string
}

// RequestOptions describes an outbound channel request before it is issued.
//
// Providers never mutate the options they receive; Authenticate returns a
// modified copy.
type RequestOptions struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte

	// Auth is set by a Provider and rendered by NewRequest.
	Auth *Authorization
}

// Clone returns a deep copy of the options.
func (o *RequestOptions) Clone() *RequestOptions {
	if o == nil {
		return nil
	}
	out := &RequestOptions{
		Method: o.Method,
		URL:    o.URL,
		Header: o.Header.Clone(),
	}
	if o.Body != nil {
		out.Body = append([]byte(nil), o.Body...)
	}
	if o.Auth != nil {
		a := *o.Auth
		out.Auth = &a
	}
	return out
}

// WithBearer returns a copy of the options carrying token as a bearer credential.
func (o *RequestOptions) WithBearer(token string) *RequestOptions {
	out := o.Clone()
	out.Auth = &Authorization{Scheme: SchemeBearer, Credential: token}
	return out
}

// BearerToken returns the attached bearer token, if any.
func (o *RequestOptions) BearerToken() (string, bool) {
	if o == nil || o.Auth == nil || o.Auth.Scheme != SchemeBearer {
		return "", false
	}
	return o.Auth.Credential, true
}

// NewRequest builds an *http.Request from the options, rendering Auth into the
// matching header.
func (o *RequestOptions) NewRequest(ctx context.Context) (*http.Request, error) {
	method := o.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if len(o.Body) > 0 {
		body = bytes.NewReader(o.Body)
	}

	req, err := http.NewRequestWithContext(ctx, method, o.URL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, values := range o.Header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	if o.Auth != nil && o.Auth.Scheme != SchemeBearer && o.Auth.Scheme != SchemeAPIKey {
		return nil, fmt.Errorf("unsupported authorization scheme %q", o.Auth.Scheme)
	}
	ApplyAuthorization(req.Header, o.Auth)

	return req, nil
}

func headerOrDefault(name, def string) string {
	if name == "" {
		return def
	}
	return name
}
