// Package main is the entry point for the central bank stance tracker.
// It scores committee participants from ingested speeches and news, keeps a
// dated stance history and serves the committee signal over HTTP.
//
// The application uses two databases:
// - snippets.db: ingested text, pruned by retention
// - history.db: per-participant stance history and run summaries
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/neoyipeng2018/central-bank-tracker/internal/config"
	"github.com/neoyipeng2018/central-bank-tracker/internal/di"
	"github.com/neoyipeng2018/central-bank-tracker/internal/server"
	"github.com/neoyipeng2018/central-bank-tracker/pkg/logger"
)

// main wires dependencies, starts the scheduler and HTTP server, then waits
// for SIGINT or SIGTERM and shuts both down.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("committee", string(cfg.Committee)).
		Str("data_dir", cfg.DataDir).
		Msg("Starting central bank tracker")

	container, _, err := di.Wire(cfg, log, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}
	defer container.Close()

	srv := server.New(server.Config{
		Log:       log,
		Config:    cfg,
		Container: container,
		Version:   cfg.Version,
	})

	go func() {
		if err := srv.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	container.Scheduler.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Waits for an in-flight rescore to finish before the databases close.
	container.Scheduler.Stop()

	log.Info().Msg("Server stopped")
}
