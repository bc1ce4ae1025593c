// Package auth supplies credentials to outbound HTTP requests.
//
// The central type is LoginAuthenticator: it exchanges a username and secret
// for a bearer token at <base>/identity/v1/login, caches the token in memory
// and attaches it to every request until Reset is called. Failures are
// reported as *AuthenticationError, classified as permanent (bad credentials,
// unusable response) or temporary (transport failure, unexpected status) so
// callers can decide whether to retry.
//
// Alternate strategies (StaticTokenProvider, APIKeyProvider) satisfy the same
// Provider interface. Registry builds providers from map configuration with
// secret references resolved by package secret.
//
// Usage:
//
//	a, err := auth.New("https://id.example.com", "svc", secretValue, auth.Config{})
//	if err != nil {
//	    return err
//	}
//	opts, err := a.Authenticate(ctx, &auth.RequestOptions{Method: "GET", URL: target})
//	if auth.IsTemporary(err) {
//	    // retry later
//	}
package auth
