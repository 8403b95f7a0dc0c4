package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jamesprial/token-introspector/internal/config"
	"github.com/jamesprial/token-introspector/internal/transport"
	"github.com/jamesprial/token-introspector/pkg/principal"
)

const shutdownTimeout = 30 * time.Second

// newRootCmd builds the command tree. out receives command output and
// errOut receives logs. ready is passed to serve and may be nil.
func newRootCmd(out, errOut io.Writer, ready chan<- string) *cobra.Command {
	root := &cobra.Command{
		Use:           "introspector",
		Short:         "Resolve OAuth 2.0 access tokens by RFC 7662 introspection",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.RegisterFlags(root.PersistentFlags())
	root.SetOut(out)
	root.SetErr(errOut)

	root.AddCommand(newServeCmd(errOut, ready), newIntrospectCmd(out, errOut))
	return root
}

// newServeCmd runs the resource server until the command context ends.
// ready, when set, receives the bound address once the server listens.
func newServeCmd(errOut io.Writer, ready chan<- string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the bearer-protected HTTP resource server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, cmd.Flags(), errOut, prometheus.NewRegistry())
			if err != nil {
				return err
			}
			defer func() { _ = a.close() }()

			server, _, err := transport.NewTransportServices(&transport.Config{
				ServerConfig: &a.cfg.Server,
				Introspector: a.introspector,
				Metrics:      a.metrics,
				Logger:       a.logger,
			})
			if err != nil {
				return fmt.Errorf("transport: %w", err)
			}
			return serve(ctx, a, server, ready)
		},
	}
}

func serve(ctx context.Context, a *app, server transport.Server, ready chan<- string) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting server", "addr", a.cfg.Server.Addr)
		errCh <- server.Start()
	}()

	if ready != nil {
		stopped := make(chan struct{})
		defer close(stopped)
		go func() {
			select {
			case <-server.Ready():
			case <-stopped:
				return
			}
			select {
			case ready <- server.Addr():
			case <-stopped:
			}
		}()
	}

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received, stopping server gracefully")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, transport.ErrServerClosed) {
		return err
	}
	a.logger.Info("server stopped")
	return <-errCh
}

// newIntrospectCmd introspects one token and prints the principal as JSON.
// Every failure kind makes the command fail.
func newIntrospectCmd(out, errOut io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "introspect <token>",
		Short: "Introspect a single token and print the principal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := buildApp(ctx, cmd.Flags(), errOut, prometheus.NewRegistry())
			if err != nil {
				return err
			}
			defer func() { _ = a.close() }()

			p, err := a.introspector.Introspect(ctx, args[0])
			if err != nil {
				return fmt.Errorf("introspection failed: %w", err)
			}

			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(principal.NewView(p))
		},
	}
}
