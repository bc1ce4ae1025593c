package channel

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/jonwraymond/tokenauth/auth"
	"github.com/jonwraymond/tokenauth/observe"
	"github.com/jonwraymond/tokenauth/resilience"
)

// Config configures a Channel.
type Config struct {
	// HTTPClient sends target requests.
	// Default: a client with a 30 second timeout
	HTTPClient *http.Client

	// Executor wraps each Authenticate call. Optional.
	Executor *resilience.Executor

	// RateLimit is waited on before each request. Optional.
	RateLimit *resilience.RateLimiter

	// Logger records re-authentication. Optional.
	Logger observe.Logger
}

// Channel sends requests with credentials from a Provider.
type Channel struct {
	provider auth.Provider
	client   *http.Client
	exec     *resilience.Executor
	limit    *resilience.RateLimiter
	logger   observe.Logger
}

// New creates a Channel over provider.
func New(provider auth.Provider, cfg Config) (*Channel, error) {
	if provider == nil {
		return nil, ErrNilProvider
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Executor == nil {
		cfg.Executor = resilience.NewExecutor()
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NoopLogger()
	}
	return &Channel{
		provider: provider,
		client:   cfg.HTTPClient,
		exec:     cfg.Executor,
		limit:    cfg.RateLimit,
		logger:   cfg.Logger.WithProvider(observe.ProviderMeta{Name: provider.Name()}),
	}, nil
}

// Provider returns the channel's credential provider.
func (c *Channel) Provider() auth.Provider {
	return c.provider
}

// Do authenticates opts and sends the request.
//
// Authentication errors are returned as produced by the provider (possibly
// wrapped by the executor) so auth.IsPermanent and auth.IsTemporary keep
// working. A 401 from the target resets the provider and the request is sent
// once more with a fresh token; a second 401 returns ErrUnauthorized. Any
// other response, including error statuses, is returned to the caller, who
// must close its body.
func (c *Channel) Do(ctx context.Context, opts *auth.RequestOptions) (*http.Response, error) {
	if c.limit != nil {
		if err := c.limit.Wait(ctx); err != nil {
			return nil, err
		}
	}

	resp, err := c.send(ctx, opts)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}
	discard(resp)

	c.provider.Reset()
	c.logger.Info(ctx, "target rejected token, re-authenticating",
		observe.F("method", resp.Request.Method),
		observe.F("url", resp.Request.URL.Redacted()),
	)

	resp, err = c.send(ctx, opts)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		discard(resp)
		c.provider.Reset()
		return nil, fmt.Errorf("%w: %s %s", ErrUnauthorized, resp.Request.Method, resp.Request.URL.Redacted())
	}
	return resp, nil
}

func (c *Channel) send(ctx context.Context, opts *auth.RequestOptions) (*http.Response, error) {
	// Attempts abandoned by a timeout may still finish after Execute returns.
	var (
		mu     sync.Mutex
		authed *auth.RequestOptions
	)
	err := c.exec.Execute(ctx, func(ctx context.Context) error {
		out, err := c.provider.Authenticate(ctx, opts)
		if err == nil {
			mu.Lock()
			authed = out
			mu.Unlock()
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	mu.Lock()
	out := authed
	mu.Unlock()

	req, err := out.NewRequest(ctx)
	if err != nil {
		return nil, fmt.Errorf("channel: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("channel: send: %w", err)
	}
	return resp, nil
}

func discard(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	_ = resp.Body.Close()
}
