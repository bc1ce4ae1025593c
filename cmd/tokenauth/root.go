package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/tokenauth/auth"
	"github.com/jonwraymond/tokenauth/observe"
	"github.com/jonwraymond/tokenauth/secret"
)

const (
	exitFailure  = 1
	exitRejected = 2
	serviceName  = "tokenauth"
)

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   serviceName,
		Short: "Obtain and use bearer tokens from an identity endpoint",
		Long: `tokenauth logs in to <base-url>/identity/v1/login with basic credentials and
uses the issued AuthorizationToken as a bearer token.

Every setting may also be given as an environment variable prefixed with TOKENAUTH_
(for example TOKENAUTH_SECRET or TOKENAUTH_TLS_CA_FILE).`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "path to a YAML config file")
	flags.String("base-url", "", "identity endpoint base url")
	flags.String("username", "", "login username")
	flags.String("secret", "", "login secret or secretref:<provider>:<ref>")
	flags.String("log-level", "", "log level (debug|info|warn|error)")
	flags.Bool("insecure", false, "skip TLS verification of the identity endpoint")

	load := func(cmd *cobra.Command) (Config, error) {
		return loadConfig(configPath, cmd.Flags())
	}

	root.AddCommand(
		newLoginCmd(load),
		newRequestCmd(load),
		newConfigCmd(load),
	)
	return root
}

type configLoader func(cmd *cobra.Command) (Config, error)

// session is a provider built from the effective configuration.
type session struct {
	cfg      Config
	provider *auth.LoginAuthenticator
	logger   observe.Logger
	observer observe.Observer
}

func newSession(cmd *cobra.Command, load configLoader) (*session, error) {
	cfg, err := load(cmd)
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()

	resolver, err := secret.NewResolverFromConfig(secret.DefaultRegistry, cfg.secretProviders())
	if err != nil {
		return nil, err
	}
	resolved, err := resolver.ResolveConfig(ctx, cfg.providerConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", auth.ErrInvalidConfig, err)
	}

	loginCfg, err := auth.LoginConfigFromMap(resolved)
	if err != nil {
		return nil, err
	}

	s := &session{
		cfg:    cfg,
		logger: observe.NewLoggerWithWriter(cfg.Log.Level, cmd.ErrOrStderr()),
	}
	loginCfg.Logger = s.logger

	if cfg.Telemetry.enabled() {
		s.observer, err = observe.NewObserver(ctx, cfg.Telemetry.observeConfig(cmd.ErrOrStderr()))
		if err != nil {
			return nil, err
		}
		loginCfg.Observer = s.observer
	}

	baseURL, _ := resolved["base_url"].(string)
	username, _ := resolved["username"].(string)
	secretValue, _ := resolved["secret"].(string)
	s.provider, err = auth.New(baseURL, username, secretValue, loginCfg)
	if err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	return s, nil
}

// Close flushes telemetry and releases idle connections.
func (s *session) Close(ctx context.Context) error {
	var errs []error
	if s.provider != nil {
		errs = append(errs, s.provider.Close())
	}
	if s.observer != nil {
		errs = append(errs, s.observer.Shutdown(context.WithoutCancel(ctx)))
	}
	return errors.Join(errs...)
}

func (t Telemetry) enabled() bool {
	return isExporter(t.Tracing) || isExporter(t.Metrics)
}

func (t Telemetry) observeConfig(out io.Writer) observe.Config {
	return observe.Config{
		ServiceName: serviceName,
		Output:      out,
		Tracing: observe.TracingConfig{
			Enabled:   isExporter(t.Tracing),
			Exporter:  t.Tracing,
			SamplePct: 1.0,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  isExporter(t.Metrics),
			Exporter: t.Metrics,
		},
	}
}

func isExporter(name string) bool {
	return name != "" && name != "none"
}

// exitCode returns exitRejected for permanent authentication failures.
func exitCode(err error) int {
	if auth.IsPermanent(err) {
		return exitRejected
	}
	return exitFailure
}
