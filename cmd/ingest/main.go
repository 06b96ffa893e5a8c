package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cookedzera/RetroQuery/internal/app"
	"github.com/cookedzera/RetroQuery/internal/config"
	"github.com/cookedzera/RetroQuery/internal/graph"
	"github.com/cookedzera/RetroQuery/internal/logging"
	"github.com/cookedzera/RetroQuery/internal/repository"
	"github.com/cookedzera/RetroQuery/internal/store"
)

func main() {
	var (
		datasetPath = flag.String("dataset", "", "YAML dataset to load; defaults to STATIC_DATASET_PATH or the embedded dataset")
		workers     = flag.Int("workers", 4, "number of concurrent workers for ingestion")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging).With("component", "ingest")

	path := *datasetPath
	if path == "" {
		path = cfg.Data.StaticDatasetPath
	}
	ds, err := store.LoadStatic(path)
	if err != nil {
		logger.Error("failed to load dataset", "error", err, "path", path)
		os.Exit(1)
	}
	profiles := ds.Profiles()

	if cfg.Graph.URI == "" {
		logger.Error("GRAPH_URI is required for ingestion")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, err := graph.NewNeo4jClient(ctx, app.GraphOptions(cfg))
	if err != nil {
		logger.Error("failed to create graph client", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(context.Background()); err != nil {
			logger.Warn("closing graph client failed", "error", err)
		}
	}()
	logger.Info("connected to graph", "uri", cfg.Graph.URI, "database", cfg.Graph.Database)

	repo := repository.New(client)
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Error("failed to apply graph constraints", "error", err)
		os.Exit(1)
	}
	ingestor := repository.NewBulkIngestor(repo, *workers)

	start := time.Now()
	logger.Info("ingesting profiles", "count", len(profiles), "workers", *workers)
	if err := ingestor.Ingest(ctx, profiles); err != nil {
		logger.Error("profile ingestion failed", "error", err)
		os.Exit(1)
	}

	logger.Info("ingestion complete", "duration", time.Since(start).String(), "profiles", len(profiles))
}
