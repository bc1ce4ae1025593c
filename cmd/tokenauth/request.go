package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/tokenauth/auth"
	"github.com/jonwraymond/tokenauth/channel"
	"github.com/jonwraymond/tokenauth/observe"
	"github.com/jonwraymond/tokenauth/resilience"
)

func newRequestCmd(load configLoader) *cobra.Command {
	var (
		method  string
		data    string
		headers []string
	)

	cmd := &cobra.Command{
		Use:   "request <url>",
		Short: "Send one authenticated request and print the response",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			header, err := parseHeaders(headers)
			if err != nil {
				return err
			}

			s, err := newSession(cmd, load)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close(cmd.Context()) }()

			ch, err := channel.New(s.provider, channel.Config{
				Executor: newExecutor(s.cfg.Retry, s.logger),
				Logger:   s.logger,
			})
			if err != nil {
				return err
			}

			opts := &auth.RequestOptions{Method: method, URL: args[0], Header: header}
			if data != "" {
				opts.Body = []byte(data)
				if method == "" {
					opts.Method = http.MethodPost
				}
			}

			resp, err := ch.Do(cmd.Context(), opts)
			if err != nil {
				return err
			}
			defer func() { _ = resp.Body.Close() }()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n", resp.Proto, resp.Status)
			if _, err := io.Copy(out, resp.Body); err != nil {
				return fmt.Errorf("read response: %w", err)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&method, "method", "X", "", "HTTP method (default GET, or POST with --data)")
	flags.StringVarP(&data, "data", "d", "", "request body")
	flags.StringArrayVarP(&headers, "header", "H", nil, `request header as "Name: value" (repeatable)`)
	return cmd
}

func newExecutor(cfg RetryConfig, logger observe.Logger) *resilience.Executor {
	retry := resilience.NewRetry(resilience.RetryConfig{
		MaxAttempts:  cfg.MaxAttempts,
		InitialDelay: cfg.InitialDelay,
		Jitter:       true,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			logger.Warn(context.Background(), "login failed, retrying",
				observe.F("attempt", attempt),
				observe.F("delay", delay.String()),
				observe.F("error_kind", observe.ErrorKind(err)),
			)
		},
	})
	return resilience.NewExecutor(
		resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{})),
		resilience.WithRetry(retry),
	)
}

func parseHeaders(values []string) (http.Header, error) {
	header := make(http.Header, len(values))
	for _, v := range values {
		name, value, ok := strings.Cut(v, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header %q: want \"Name: value\"", v)
		}
		header.Add(name, strings.TrimSpace(value))
	}
	return header, nil
}
