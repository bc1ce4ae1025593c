package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const redacted = "[REDACTED]"

// Config is the effective CLI configuration.
type Config struct {
	BaseURL      string        `mapstructure:"base_url" yaml:"base_url"`
	Username     string        `mapstructure:"username" yaml:"username"`
	Secret       string        `mapstructure:"secret" yaml:"secret"`
	LoginPath    string        `mapstructure:"login_path" yaml:"login_path"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
	SingleFlight bool          `mapstructure:"single_flight" yaml:"single_flight"`
	TLS          TLSConfig     `mapstructure:"tls" yaml:"tls"`
	Retry        RetryConfig   `mapstructure:"retry" yaml:"retry"`
	Log          LogConfig     `mapstructure:"log" yaml:"log"`
	Secrets      SecretsConfig `mapstructure:"secrets" yaml:"secrets"`
	Telemetry    Telemetry     `mapstructure:"telemetry" yaml:"telemetry"`
}

// TLSConfig holds file-based TLS material for the login exchange.
type TLSConfig struct {
	CAFile             string `mapstructure:"ca_file" yaml:"ca_file,omitempty"`
	CertFile           string `mapstructure:"cert_file" yaml:"cert_file,omitempty"`
	KeyFile            string `mapstructure:"key_file" yaml:"key_file,omitempty"`
	Passphrase         string `mapstructure:"passphrase" yaml:"passphrase,omitempty"`
	RejectUnauthorized bool   `mapstructure:"reject_unauthorized" yaml:"reject_unauthorized"`
}

// RetryConfig controls retries of temporary login failures.
type RetryConfig struct {
	MaxAttempts  int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay" yaml:"initial_delay"`
}

// SecretsConfig configures secretref providers.
type SecretsConfig struct {
	// FileRoot is the directory secretref:file references are relative to.
	FileRoot string `mapstructure:"file_root" yaml:"file_root,omitempty"`
}

// LogConfig controls the stderr logger.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// Telemetry selects OpenTelemetry exporters.
type Telemetry struct {
	Tracing string `mapstructure:"tracing" yaml:"tracing"`
	Metrics string `mapstructure:"metrics" yaml:"metrics"`
}

var defaults = map[string]any{
	"base_url":                "",
	"username":                "",
	"secret":                  "",
	"login_path":              "/identity/v1/login",
	"timeout":                 "30s",
	"single_flight":           false,
	"tls.ca_file":             "",
	"tls.cert_file":           "",
	"tls.key_file":            "",
	"tls.passphrase":          "",
	"tls.reject_unauthorized": true,
	"retry.max_attempts":      3,
	"retry.initial_delay":     "200ms",
	"log.level":               "warn",
	"secrets.file_root":       "",
	"telemetry.tracing":       "none",
	"telemetry.metrics":       "none",
}

// flagKeys maps persistent flags to configuration keys.
var flagKeys = map[string]string{
	"base-url":  "base_url",
	"username":  "username",
	"secret":    "secret",
	"log-level": "log.level",
}

// loadConfig merges defaults, the optional config file, TOKENAUTH_*
// environment variables and flags.
func loadConfig(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix("TOKENAUTH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	for name, key := range flagKeys {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return Config{}, err
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if insecure, _ := flags.GetBool("insecure"); insecure {
		cfg.TLS.RejectUnauthorized = false
	}
	return cfg, nil
}

// providerConfig renders the login settings in the form accepted by
// auth.LoginConfigFromMap, before secret resolution.
func (c Config) providerConfig() map[string]any {
	tls := map[string]any{"reject_unauthorized": c.TLS.RejectUnauthorized}
	for key, value := range map[string]string{
		"ca_file":    c.TLS.CAFile,
		"cert_file":  c.TLS.CertFile,
		"key_file":   c.TLS.KeyFile,
		"passphrase": c.TLS.Passphrase,
	} {
		if value != "" {
			tls[key] = value
		}
	}

	return map[string]any{
		"name":          "login",
		"base_url":      c.BaseURL,
		"username":      c.Username,
		"secret":        c.Secret,
		"login_path":    c.LoginPath,
		"timeout":       c.Timeout.String(),
		"single_flight": c.SingleFlight,
		"tls":           tls,
	}
}

func (c Config) secretProviders() map[string]map[string]any {
	return map[string]map[string]any{
		"file": {"root": c.Secrets.FileRoot},
	}
}

// Redacted returns a copy safe to print. Secret references are kept since
// they name a secret without revealing it.
func (c Config) Redacted() Config {
	c.Secret = redact(c.Secret)
	c.TLS.Passphrase = redact(c.TLS.Passphrase)
	return c
}

func redact(value string) string {
	if value == "" || strings.HasPrefix(value, "secretref:") ||
		(strings.HasPrefix(value, "${") && strings.HasSuffix(value, "}")) {
		return value
	}
	return redacted
}

// YAML renders the redacted configuration.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c.Redacted())
}
