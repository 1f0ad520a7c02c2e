package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/conduit-lang/resourcegraph/internal/cli/ui"
	"github.com/conduit-lang/resourcegraph/internal/graph"
	"github.com/conduit-lang/resourcegraph/internal/web/router"
	"github.com/conduit-lang/resourcegraph/internal/web/server"
)

type serveOptions struct {
	address string
}

func newServeCommand(a *app) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the resource graph over JSON:API",
		Long: `Build the resource graph, install it as the process-wide graph and
serve JSON:API routes for every resource.

Query parameters (include, fields, filter, sort, page) and request bodies
are validated against the graph. The graph itself is published under
/_graph.`,
		Args:    cobra.NoArgs,
		PreRunE: a.setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, a, opts)
		},
	}

	cmd.Flags().StringVar(&opts.address, "addr", "", "Listen address (overrides server.host and server.port)")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, a *app, opts *serveOptions) error {
	g, err := loadGraph(ctx, a.cfg, a.logger)
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.GraphBuildError(err, a.noColor))
		return err
	}
	if err := graph.SetDefault(g); err != nil {
		return err
	}

	r := router.New(graph.Default(), nil,
		router.WithLogger(a.logger),
		router.WithPrefix(a.cfg.Server.APIPrefix),
	)
	for _, route := range r.Routes() {
		a.logger.Debug("route", zap.String("method", route.Method), zap.String("pattern", route.Pattern))
	}

	address := opts.address
	if address == "" {
		address = a.cfg.Server.Address()
	}
	cfg := server.DefaultConfig(r)
	cfg.Address = address

	srv, err := server.New(cfg, a.logger)
	if err != nil {
		return err
	}
	srv.RegisterHook(func(context.Context) error {
		return a.logger.Sync()
	})
	if err := srv.Listen(); err != nil {
		return err
	}

	a.logger.Info("serving resource graph",
		zap.String("address", srv.Addr()),
		zap.Int("resources", g.Len()),
	)
	ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("Serving %d resources on http://%s", g.Len(), srv.Addr()), a.noColor)

	return srv.Run(ctx)
}
