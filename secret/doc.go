// Package secret resolves credential values before they reach a provider.
//
// Credential fields in provider configuration (usernames, secrets, API keys,
// TLS passphrases) may be written as:
//   - Literal values: "s3cr3t"
//   - Environment references: "${LOGIN_SECRET}" (see ExpandEnvStrict)
//   - Secret references: "secretref:env:LOGIN_SECRET" or
//     "secretref:file:/var/run/secrets/login"
//
// Providers are looked up by the name between "secretref:" and the next
// colon. EnvProvider and FileProvider are registered in DefaultRegistry.
package secret
