package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/vanshika/graphbind/internal/config"
	"github.com/vanshika/graphbind/internal/conn"
	"github.com/vanshika/graphbind/internal/graph"
	"github.com/vanshika/graphbind/internal/logging"
	"github.com/vanshika/graphbind/internal/server"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.Logging)

	executor, err := buildExecutor(ctx, logger, cfg)
	if err != nil {
		logger.Error("failed to create graph executor", "error", err)
		os.Exit(1)
	}

	c := conn.New(executor, conn.WithLogger(logger))
	defer func() {
		if err := c.Close(context.Background()); err != nil {
			logger.Warn("closing graph executor failed", "error", err)
		}
	}()

	router := server.NewRouter(logger, server.RouterDependencies{
		Health:           server.EngineHealthService{Engine: c},
		Query:            server.NewQueryHandlers(logger, c, cfg.Query.Timeout, cfg.Query.MaxRows),
		MetricsEnabled:   cfg.HTTP.MetricsEnabled,
		AllowedOrigins:   parseAllowedOrigins(cfg.HTTP.AllowedOriginsCSV),
		AllowCredentials: true,
	})

	srv := server.New(logger, cfg.HTTP, router)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("server stopped unexpectedly", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}

func buildExecutor(ctx context.Context, logger *slog.Logger, cfg config.Config) (graph.Executor, error) {
	if cfg.Graph.URI == "" {
		return nil, graph.ErrMissingURI
	}

	executor, err := graph.NewNeo4jExecutor(ctx, graph.OptionsFromConfig(cfg.Graph))
	if err != nil {
		return nil, err
	}
	logger.Info("connected to graph", "uri", cfg.Graph.URI, "database", cfg.Graph.Database, "access_mode", cfg.Graph.AccessMode)
	return executor, nil
}

func parseAllowedOrigins(csv string) []string {
	if csv == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	var origins []string
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		origins = append(origins, origin)
	}
	return origins
}
