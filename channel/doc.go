// Package channel issues authenticated HTTP requests through an auth.Provider.
//
// A Channel asks its provider for credentials before every request, retries
// temporary authentication failures through an optional resilience.Executor,
// and recovers from a rejected token once: on a 401 from the target it resets
// the provider, logs in again and re-sends the request.
//
//	ch, err := channel.New(authenticator, channel.Config{
//	    Executor: resilience.NewExecutor(resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{}))),
//	})
//	resp, err := ch.Do(ctx, &auth.RequestOptions{Method: "GET", URL: "https://api.example.com/items"})
package channel
