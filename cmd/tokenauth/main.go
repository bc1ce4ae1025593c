// Command tokenauth logs in to an identity endpoint and issues authenticated
// requests with the issued bearer token.
//
// Configuration is read from a YAML file (--config), TOKENAUTH_* environment
// variables and flags, in increasing order of precedence. Secrets may be
// given as secretref:env:NAME or secretref:file:PATH references.
//
//	tokenauth login --base-url https://id.example.com --username svc
//	TOKENAUTH_SECRET=secretref:file:/run/secrets/svc tokenauth request https://api.example.com/items
//	tokenauth config
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "tokenauth: %v\n", err)
		stop()
		os.Exit(exitCode(err))
	}
}
