package health

import (
	"context"
	"time"

	"github.com/jonwraymond/tokenauth/auth"
	"github.com/jonwraymond/tokenauth/resilience"
)

// StatusReporter exposes the token slot of a credential provider.
// *auth.LoginAuthenticator implements it.
type StatusReporter interface {
	Name() string
	Status() auth.TokenStatus
}

// ProviderChecker reports the state of a login provider:
//   - healthy while a token is cached
//   - degraded before the first login or after a temporary failure
//   - unhealthy after a permanent failure, until the next successful login
type ProviderChecker struct {
	provider StatusReporter
	now      func() time.Time
}

// NewProviderChecker creates a checker for provider.
func NewProviderChecker(provider StatusReporter) *ProviderChecker {
	return &ProviderChecker{provider: provider, now: time.Now}
}

// Name returns "auth.<provider name>".
func (c *ProviderChecker) Name() string {
	return "auth." + c.provider.Name()
}

// Check reports the provider state without contacting the identity endpoint.
func (c *ProviderChecker) Check(_ context.Context) Result {
	st := c.provider.Status()

	details := map[string]any{
		"provider": c.provider.Name(),
		"state":    st.State.String(),
	}
	if !st.LastLogin.IsZero() {
		details["last_login"] = st.LastLogin.UTC().Format(time.RFC3339)
	}
	if st.HasInfo && !st.Info.ExpiresAt.IsZero() {
		details["token_expires_at"] = st.Info.ExpiresAt.UTC().Format(time.RFC3339)
		details["token_expires_in"] = st.Info.ExpiresAt.Sub(c.now()).Round(time.Second).String()
	}

	if st.State == auth.StateHasToken {
		if st.HasInfo && !st.Info.ExpiresAt.IsZero() && !c.now().Before(st.Info.ExpiresAt) {
			return Degraded("cached token has expired").WithDetails(details)
		}
		return Healthy("token cached").WithDetails(details)
	}

	if st.LastError == nil && !st.LastLogin.IsZero() {
		return Degraded("token reset, awaiting login").WithDetails(details)
	}
	if st.LastError == nil {
		return Degraded("no login yet").WithDetails(details).WithError(ErrNoLogin)
	}
	details["error_kind"] = auth.KindOf(st.LastError).String()
	if auth.IsPermanent(st.LastError) {
		return Unhealthy("login rejected", st.LastError).WithDetails(details)
	}
	return Degraded("last login failed").WithDetails(details).WithError(st.LastError)
}

// CircuitChecker reports the state of a login circuit breaker.
type CircuitChecker struct {
	name    string
	breaker *resilience.CircuitBreaker
}

// NewCircuitChecker creates a checker for breaker.
func NewCircuitChecker(name string, breaker *resilience.CircuitBreaker) *CircuitChecker {
	return &CircuitChecker{name: name, breaker: breaker}
}

// Name returns the checker name.
func (c *CircuitChecker) Name() string {
	return c.name
}

// Check maps closed to healthy, half-open to degraded and open to unhealthy.
func (c *CircuitChecker) Check(_ context.Context) Result {
	snap := c.breaker.Snapshot()
	details := map[string]any{
		"state":    snap.State.String(),
		"failures": snap.Failures,
	}
	if !snap.LastFailure.IsZero() {
		details["last_failure"] = snap.LastFailure.UTC().Format(time.RFC3339)
	}

	switch snap.State {
	case resilience.StateOpen:
		return Unhealthy("circuit open", resilience.ErrCircuitOpen).WithDetails(details)
	case resilience.StateHalfOpen:
		return Degraded("circuit probing").WithDetails(details)
	default:
		return Healthy("circuit closed").WithDetails(details)
	}
}

var (
	_ Checker        = (*ProviderChecker)(nil)
	_ Checker        = (*CircuitChecker)(nil)
	_ StatusReporter = (*auth.LoginAuthenticator)(nil)
)
