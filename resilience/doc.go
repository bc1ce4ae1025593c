// Package resilience wraps credential acquisition with retry, circuit
// breaking, rate limiting and timeouts.
//
// The patterns understand the temporary/permanent split reported by
// auth.AuthenticationError through its Temporary method: Retry stops on
// permanent errors and CircuitBreaker does not count them as endpoint
// failures. Other errors are treated as temporary.
//
// Usage:
//
//	exec := resilience.NewExecutor(
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 4})),
//	    resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{})),
//	)
//
//	var opts *auth.RequestOptions
//	err := exec.Execute(ctx, func(ctx context.Context) error {
//	    var err error
//	    opts, err = provider.Authenticate(ctx, req)
//	    return err
//	})
package resilience
