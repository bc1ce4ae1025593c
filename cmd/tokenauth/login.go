package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/tokenauth/auth"
)

func newLoginCmd(load configLoader) *cobra.Command {
	var showToken bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print the issued token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := newSession(cmd, load)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close(cmd.Context()) }()

			opts, err := s.provider.Authenticate(cmd.Context(), &auth.RequestOptions{})
			if err != nil {
				return err
			}
			token, _ := opts.BearerToken()
			if !showToken {
				token = maskToken(token)
			}

			out := cmd.OutOrStdout()
			status := s.provider.Status()
			fmt.Fprintf(out, "provider:   %s\n", s.provider.Name())
			fmt.Fprintf(out, "login_url:  %s\n", s.provider.LoginURL())
			fmt.Fprintf(out, "state:      %s\n", status.State)
			fmt.Fprintf(out, "token:      %s\n", token)
			if status.HasInfo {
				if status.Info.Subject != "" {
					fmt.Fprintf(out, "subject:    %s\n", status.Info.Subject)
				}
				if !status.Info.ExpiresAt.IsZero() {
					fmt.Fprintf(out, "expires_at: %s\n", status.Info.ExpiresAt.UTC().Format(time.RFC3339))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showToken, "show-token", false, "print the full token")
	return cmd
}

// maskToken keeps the first four characters.
func maskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return token[:4] + "****"
}
