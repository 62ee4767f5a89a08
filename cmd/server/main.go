// Copyright SearchChat Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpAdapter "github.com/searchchat/searchchat-gw/pkg/adapters/http"
	"github.com/searchchat/searchchat-gw/pkg/core/api"
	"github.com/searchchat/searchchat-gw/pkg/core/config"
	"github.com/searchchat/searchchat-gw/pkg/core/engine"
	"github.com/searchchat/searchchat-gw/pkg/core/state"
	"github.com/searchchat/searchchat-gw/pkg/observability/logging"
	"github.com/searchchat/searchchat-gw/pkg/websearch"

	// History backends register themselves with the state.Stores registry.
	_ "github.com/searchchat/searchchat-gw/pkg/storage/memory"
	_ "github.com/searchchat/searchchat-gw/pkg/storage/postgres"
	_ "github.com/searchchat/searchchat-gw/pkg/storage/sqlite"
)

var (
	// Version is set via ldflags during build
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	port := flag.Int("port", 0, "HTTP port to listen on (overrides config)")
	version := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *version {
		fmt.Printf("SearchChat Gateway Server\nVersion: %s\nBuild Time: %s\n", Version, BuildTime)
		os.Exit(0)
	}

	bootLogger := logging.New(logging.Config{Level: "info", Format: "json"})

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		bootLogger.Warn("Failed to load config, using defaults", "error", err)
		cfg = config.Default()
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logger.Info("Starting SearchChat Gateway Server",
		"version", Version,
		"build_time", BuildTime)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	// Select the search provider; the choice is fixed for the process
	// lifetime.
	orchestrator, err := websearch.NewOrchestrator(cfg.Search, logger)
	if err != nil {
		logger.Error("Failed to initialize search", "error", err)
		os.Exit(1)
	}
	logger.Info("Initialized search provider", "provider", orchestrator.Provider())

	// Select the generation backend.
	generator, err := api.NewGenerationClient(cfg.Generation)
	if err != nil {
		logger.Error("Failed to initialize generation backend", "error", err)
		os.Exit(1)
	}
	logger.Info("Initialized generation backend",
		"provider", generator.Provider(),
		"model", cfg.Generation.Model)

	// Initialize conversation history
	history, err := state.Stores.New(context.Background(), cfg.History.Type, map[string]string{
		"dsn":  cfg.History.DSN,
		"path": cfg.History.Path,
	})
	if err != nil {
		logger.Error("Failed to initialize history store", "error", err)
		os.Exit(1)
	}
	defer history.Close()
	logger.Info("Initialized history store", "type", cfg.History.Type)

	eng, err := engine.New(orchestrator, generator, history, logger)
	if err != nil {
		logger.Error("Failed to initialize engine", "error", err)
		os.Exit(1)
	}

	handler := httpAdapter.New(orchestrator, eng, history, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	go func() {
		logger.Info("Listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Shutdown failed", "error", err)
	}
}
