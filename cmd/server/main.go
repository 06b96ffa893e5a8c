package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cookedzera/RetroQuery/internal/app"
	"github.com/cookedzera/RetroQuery/internal/config"
	"github.com/cookedzera/RetroQuery/internal/logging"
	"github.com/cookedzera/RetroQuery/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	engineApp, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build engine", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := engineApp.Close(context.Background()); err != nil {
			logger.Warn("closing graph client failed", "error", err)
		}
	}()

	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           server.DataSourceHealth{Graph: engineApp.Graph, Directory: engineApp.Directory},
		API:              server.NewAPIHandlers(logger, engineApp.Dispatcher),
		MetricsEnabled:   cfg.HTTP.MetricsEnabled,
		AllowedOrigins:   server.ParseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: cfg.HTTP.AllowCredentials,
	})

	logger.Info("engine ready",
		"directory", engineApp.Directory.BaseURL(),
		"mock_tier", cfg.Data.MockEnabled,
		"intents", len(engineApp.Dispatcher.Intents()),
	)

	if err := server.New(logger, cfg.HTTP, router).Run(ctx); err != nil {
		logger.Error("server stopped unexpectedly", "error", err)
		os.Exit(1)
	}
}
