package commands

import (
	"context"
	"database/sql"
	"fmt"

	// Database drivers selectable through database.driver
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/conduit-lang/resourcegraph/internal/cli/config"
	"github.com/conduit-lang/resourcegraph/internal/graph"
	"github.com/conduit-lang/resourcegraph/internal/manifest"
	"github.com/conduit-lang/resourcegraph/internal/orm/introspect"
	"github.com/conduit-lang/resourcegraph/internal/orm/schema"
)

// openDB opens the introspection database. Replaced in tests.
var openDB = func(driver, url string) (*sql.DB, error) {
	return sql.Open(driver, url)
}

// loadGraph gathers candidates from the configured sources and builds the
// graph. Introspected tables are registered before manifests are read.
func loadGraph(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*graph.Graph, error) {
	builder := graph.NewBuilder(
		graph.WithLogger(logger),
		graph.WithNaming(graph.Naming{Pluralize: cfg.Graph.Pluralize}),
	)

	if cfg.Graph.Introspect {
		registry := schema.NewRegistry()
		if err := introspectDatabase(ctx, cfg.Database, registry, logger); err != nil {
			return nil, err
		}
		builder.AddSource(registry)
	}

	for _, path := range cfg.Graph.Manifests {
		f, err := manifest.Load(path)
		if err != nil {
			return nil, err
		}
		logger.Debug("loaded manifest", zap.String("path", path), zap.Int("resources", len(f.Resources)))
		builder.AddSource(f)
	}

	return builder.Build()
}

func introspectDatabase(ctx context.Context, cfg config.DatabaseConfig, registry *schema.Registry, logger *zap.Logger) error {
	db, err := openDB(cfg.Driver, cfg.URL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	n, err := introspect.New(db,
		introspect.WithSchema(cfg.Schema),
		introspect.WithLogger(logger),
	).Load(ctx, registry)
	if err != nil {
		return err
	}
	logger.Info("introspected database", zap.String("schema", cfg.Schema), zap.Int("resources", n))
	return nil
}
