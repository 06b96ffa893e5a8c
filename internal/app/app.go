// Package app assembles the query engine and its data sources from
// configuration. Both the HTTP server and the CLI start here.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cookedzera/RetroQuery/internal/config"
	"github.com/cookedzera/RetroQuery/internal/directory"
	"github.com/cookedzera/RetroQuery/internal/engine"
	"github.com/cookedzera/RetroQuery/internal/generator"
	"github.com/cookedzera/RetroQuery/internal/graph"
	"github.com/cookedzera/RetroQuery/internal/repository"
	"github.com/cookedzera/RetroQuery/internal/store"
)

// App owns the long-lived pieces of a running engine.
type App struct {
	Dispatcher *engine.Dispatcher
	Directory  *directory.Client
	// Graph is nil unless GRAPH_URI is configured.
	Graph graph.Client
}

// Build wires the directory client, the mock dataset and the static tier.
// The static tier reads from the graph when one is configured and from the
// YAML dataset otherwise.
func Build(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	dir, err := directory.New(directory.Options{
		BaseURL:    cfg.Directory.BaseURL,
		ClientName: cfg.Directory.ClientName,
		Timeout:    cfg.Directory.Timeout,
		RateLimit:  cfg.Directory.RateLimit,
		Burst:      cfg.Directory.Burst,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("directory client: %w", err)
	}

	a := &App{Directory: dir}
	deps := engine.Deps{
		Directory: dir,
		Logger:    logger,
		Timeout:   cfg.Engine.RequestTimeout,
	}

	if cfg.Data.MockEnabled {
		profiles, err := generator.New(generator.DefaultConfig()).Generate(ctx)
		if err != nil {
			return nil, fmt.Errorf("generate mock dataset: %w", err)
		}
		deps.Mock = store.NewDataset(profiles, store.MatchIdentifiers)
		logger.Info("mock dataset ready", "profiles", len(profiles))
	}

	if cfg.Graph.URI != "" {
		client, err := graph.NewNeo4jClient(ctx, GraphOptions(cfg))
		if err != nil {
			return nil, fmt.Errorf("graph client: %w", err)
		}
		a.Graph = client
		deps.Static = repository.New(client)
		logger.Info("static tier backed by graph", "uri", cfg.Graph.URI)
	} else {
		ds, err := store.LoadStatic(cfg.Data.StaticDatasetPath)
		if err != nil {
			return nil, fmt.Errorf("static dataset: %w", err)
		}
		deps.Static = ds
		logger.Info("static dataset loaded", "profiles", ds.Len(), "path", cfg.Data.StaticDatasetPath)
	}

	a.Dispatcher = engine.New(deps)
	return a, nil
}

// GraphOptions maps configuration onto graph client options.
func GraphOptions(cfg config.Config) graph.Options {
	return graph.Options{
		URI:            cfg.Graph.URI,
		Database:       cfg.Graph.Database,
		Username:       cfg.Graph.Username,
		Password:       cfg.Graph.Password,
		MaxConnections: cfg.Graph.MaxConnections,
		QueryTimeout:   cfg.Graph.QueryTimeout,
		UserAgent:      cfg.Directory.ClientName,
	}
}

// Close releases the graph connection, if any.
func (a *App) Close(ctx context.Context) error {
	if a.Graph == nil {
		return nil
	}
	return a.Graph.Close(ctx)
}
