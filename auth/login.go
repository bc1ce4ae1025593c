package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/tokenauth/observe"
)

const (
	// DefaultLoginPath is appended to the base address for the login exchange.
	DefaultLoginPath = "/identity/v1/login"

	// TokenField is the login response field holding the issued token.
	TokenField = "AuthorizationToken"

	maxErrorBodyLen = 512
)

// Config configures a LoginAuthenticator.
type Config struct {
	// Name identifies the provider in logs, metrics and the registry.
	// Default: "login"
	Name string

	// TLS is passed through to the login transport.
	TLS TLSOptions

	// LoginPath overrides the login path.
	// Default: "/identity/v1/login"
	LoginPath string

	// Timeout bounds each login exchange.
	// Default: 30 seconds
	Timeout time.Duration

	// MaxBodyBytes caps how much of the login response is read.
	// Default: 1 MiB
	MaxBodyBytes int64

	// SingleFlight de-duplicates concurrent logins while no token is cached.
	// Default: false (each concurrent miss performs its own login)
	SingleFlight bool

	// HTTPClient replaces the client built from TLS and Timeout.
	HTTPClient *http.Client

	// Observer supplies tracing, metrics and logging. Optional.
	Observer observe.Observer

	// Logger overrides the observer logger. Optional.
	Logger observe.Logger
}

// TokenState is the state of the token slot.
type TokenState int

const (
	// StateNoToken means no login has succeeded since construction or reset.
	StateNoToken TokenState = iota
	// StateHasToken means a token is cached and will be reused.
	StateHasToken
)

// String returns the string representation of the state.
func (s TokenState) String() string {
	if s == StateHasToken {
		return "has_token"
	}
	return "no_token"
}

// TokenStatus is a point-in-time snapshot of a LoginAuthenticator.
type TokenStatus struct {
	State     TokenState
	LastLogin time.Time
	LastError error

	// Info is populated when the cached token is JWT-shaped.
	Info    TokenInfo
	HasInfo bool
}

// LoginAuthenticator obtains a bearer token from an identity endpoint with
// basic credentials and caches it until Reset.
type LoginAuthenticator struct {
	name       string
	loginURL   string
	username   string
	secret     string
	httpClient *http.Client
	maxBody    int64
	meta       observe.ProviderMeta
	instr      *observe.Middleware
	logger     observe.Logger
	login      observe.LoginFunc
	group      *singleflight.Group

	mu        sync.Mutex
	token     string
	lastLogin time.Time
	lastErr   error
}

// New creates a LoginAuthenticator for baseURL. It does not contact the network.
func New(baseURL, username, secret string, cfg Config) (*LoginAuthenticator, error) {
	if cfg.Name == "" {
		cfg.Name = "login"
	}
	if cfg.LoginPath == "" {
		cfg.LoginPath = DefaultLoginPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}

	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("%w: base url: %v", ErrInvalidConfig, err)
	}
	if (base.Scheme != "http" && base.Scheme != "https") || base.Host == "" {
		return nil, fmt.Errorf("%w: base url %q must be an absolute http(s) url", ErrInvalidConfig, baseURL)
	}
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidConfig)
	}

	client := cfg.HTTPClient
	if client == nil {
		client, err = newHTTPClient(cfg.TLS, cfg.Timeout, base.Hostname())
		if err != nil {
			return nil, err
		}
	}

	instr := observe.NoopMiddleware()
	if cfg.Observer != nil {
		instr, err = observe.MiddlewareFromObserver(cfg.Observer)
		if err != nil {
			return nil, fmt.Errorf("%w: observer: %v", ErrInvalidConfig, err)
		}
	}
	instr = instr.WithLogger(cfg.Logger)

	a := &LoginAuthenticator{
		name:       cfg.Name,
		loginURL:   base.String() + "/" + strings.TrimLeft(cfg.LoginPath, "/"),
		username:   username,
		secret:     secret,
		httpClient: client,
		maxBody:    cfg.MaxBodyBytes,
		instr:      instr,
	}
	a.meta = observe.ProviderMeta{Name: a.name, Method: "bearer", Endpoint: a.loginURL}
	a.logger = instr.Logger().WithProvider(a.meta)
	a.login = instr.WrapLogin(a.meta, a.exchange)
	if cfg.SingleFlight {
		a.group = &singleflight.Group{}
	}
	return a, nil
}

func newHTTPClient(opts TLSOptions, timeout time.Duration, host string) (*http.Client, error) {
	tlsCfg, err := opts.buildTLSConfig(host)
	if err != nil {
		return nil, err
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if tlsCfg != nil {
		transport.TLSClientConfig = tlsCfg
	}
	return &http.Client{Timeout: timeout, Transport: transport}, nil
}

// Name returns the provider name.
func (a *LoginAuthenticator) Name() string {
	return a.name
}

// LoginURL returns the login endpoint address.
func (a *LoginAuthenticator) LoginURL() string {
	return a.loginURL
}

// Authenticate attaches the cached token to a copy of opts, logging in first
// when no token is cached. Every error is an *AuthenticationError.
func (a *LoginAuthenticator) Authenticate(ctx context.Context, opts *RequestOptions) (*RequestOptions, error) {
	if opts == nil {
		return nil, NewPermanentError("request options are required").wrap(ErrNilOptions)
	}

	if out, ok := a.attachCached(opts); ok {
		a.instr.Metrics().RecordCacheHit(ctx, a.meta)
		return out, nil
	}

	token, err := a.obtain(ctx)
	if err != nil {
		return nil, err
	}
	return opts.WithBearer(token), nil
}

func (a *LoginAuthenticator) attachCached(opts *RequestOptions) (*RequestOptions, bool) {
	a.mu.Lock()
	token := a.token
	a.mu.Unlock()

	if token == "" {
		return nil, false
	}
	return opts.WithBearer(token), true
}

func (a *LoginAuthenticator) obtain(ctx context.Context) (string, error) {
	if a.group == nil {
		return a.loginAndStore(ctx)
	}

	// The shared exchange outlives any single waiter; the client timeout bounds it.
	ch := a.group.DoChan("login", func() (any, error) {
		return a.loginAndStore(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return "", NewTemporaryError("login interrupted: %v", ctx.Err()).wrap(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (a *LoginAuthenticator) loginAndStore(ctx context.Context) (string, error) {
	token, err := a.login(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()

	if err != nil {
		a.lastErr = err
		return "", err
	}
	a.token = token
	a.lastLogin = time.Now()
	a.lastErr = nil
	return token, nil
}

// exchange performs one login request and classifies the outcome.
func (a *LoginAuthenticator) exchange(ctx context.Context) (string, error) {
	requestID := uuid.NewString()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.loginURL, nil)
	if err != nil {
		return "", NewPermanentError("build login request: %v", err).wrap(err)
	}
	req.SetBasicAuth(a.username, a.secret)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)

	a.logger.Debug(ctx, "login exchange started", observe.F("request_id", requestID))

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", NewTemporaryError("login request failed: %v", err).wrap(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, a.maxBody))
	if err != nil {
		return "", NewTemporaryError("read login response: %v", err).withStatus(resp.StatusCode).wrap(err)
	}

	token, err := classifyLoginResponse(resp.StatusCode, body)
	if err != nil {
		a.logger.Debug(ctx, "login response rejected",
			observe.F("request_id", requestID),
			observe.F("status", resp.StatusCode),
		)
		return "", err
	}

	if info, ok := InspectToken(token); ok && !info.ExpiresAt.IsZero() {
		a.logger.Debug(ctx, "token issued",
			observe.F("request_id", requestID),
			observe.F("token.subject", info.Subject),
			observe.F("token.expires_at", info.ExpiresAt.UTC().Format(time.RFC3339)),
		)
	}
	return token, nil
}

func classifyLoginResponse(status int, body []byte) (string, error) {
	switch status {
	case http.StatusOK:
		field := gjson.GetBytes(body, TokenField)
		if !gjson.ValidBytes(body) || field.Type != gjson.String || field.Str == "" {
			return "", NewPermanentError("%s field missing from login response", TokenField).withStatus(status)
		}
		return field.Str, nil

	case http.StatusUnauthorized, http.StatusForbidden:
		return "", NewPermanentError("unauthorized: status %d: %s", status, serializeBody(body)).withStatus(status)

	default:
		return "", NewTemporaryError("unexpected login response: status %d: %s", status, serializeBody(body)).withStatus(status)
	}
}

// serializeBody renders a response body for error messages: compact JSON when
// the body parses, trimmed text otherwise, truncated to maxErrorBodyLen.
func serializeBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if gjson.ValidBytes(body) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, body); err == nil {
			text = buf.String()
		}
	}
	if text == "" {
		return "<empty body>"
	}
	if len(text) > maxErrorBodyLen {
		cut := maxErrorBodyLen
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut] + "..."
	}
	return text
}

// Reset discards the cached token. It is a no-op when none is cached.
func (a *LoginAuthenticator) Reset() {
	a.mu.Lock()
	had := a.token != ""
	a.token = ""
	a.mu.Unlock()

	if had {
		a.instr.Metrics().RecordReset(context.Background(), a.meta)
		a.logger.Debug(context.Background(), "cached token discarded")
	}
}

// State returns the current state of the token slot.
func (a *LoginAuthenticator) State() TokenState {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token != "" {
		return StateHasToken
	}
	return StateNoToken
}

// HasToken reports whether a token is cached.
func (a *LoginAuthenticator) HasToken() bool {
	return a.State() == StateHasToken
}

// Status returns a snapshot of the token slot. The token itself is not exposed.
func (a *LoginAuthenticator) Status() TokenStatus {
	a.mu.Lock()
	token := a.token
	st := TokenStatus{LastLogin: a.lastLogin, LastError: a.lastErr}
	a.mu.Unlock()

	if token != "" {
		st.State = StateHasToken
		st.Info, st.HasInfo = InspectToken(token)
	}
	return st
}

// Close releases idle connections held by the login transport.
func (a *LoginAuthenticator) Close() error {
	a.httpClient.CloseIdleConnections()
	return nil
}

var _ Provider = (*LoginAuthenticator)(nil)
