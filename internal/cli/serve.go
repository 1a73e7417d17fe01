package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-layouts/internal/server"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve layouts over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if addr != "" {
				root.cfg.HTTP.Addr = addr
			}
			a, err := root.newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := loggerFromContext(cmd.Context())
			logger.Info("serving layouts", "addr", root.cfg.HTTP.Addr, "layouts", len(a.Manager.Registry().Keys()))

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return server.New(a).ListenAndServe(ctx, root.cfg.HTTP.Addr)
			})
			g.Go(func() error {
				if err := a.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
			if err := g.Wait(); err != nil {
				logger.Error("server stopped", "err", err)
				return err
			}
			logger.Info("server stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to http.addr)")
	return cmd
}
