package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/blueprints/internal/api"
	"github.com/matzehuels/blueprints/pkg/docgraph"
)

// shutdownTimeout bounds how long serve waits for in-flight requests.
const shutdownTimeout = 10 * time.Second

// serveCommand exposes the graph over HTTP until the context is cancelled.
func (c *CLI) serveCommand() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the graph over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = c.cfg.Server.Addr
			}
			return c.withGraph(cmd.Context(), func(ctx context.Context, g *docgraph.Graph) error {
				ln, err := net.Listen("tcp", addr)
				if err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Serving %s graph on %s", c.cfg.Backend, StyleHighlight.Render(ln.Addr().String()))
				return serve(ctx, ln, api.New(g, loggerFromContext(ctx)))
			})
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}

// serve runs h on ln and shuts the server down gracefully when ctx ends.
// A cancelled context is reported as context.Canceled.
func serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	logger := loggerFromContext(ctx)
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down", "addr", ln.Addr().String())
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}
