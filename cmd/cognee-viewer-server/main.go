// Package main provides the proxy and static UI server for cognee-viewer.
package main

import (
	"context"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/raphaelgruber/cognee-viewer/internal/config"
	"github.com/raphaelgruber/cognee-viewer/internal/metrics"
	"github.com/raphaelgruber/cognee-viewer/internal/server"
	"github.com/raphaelgruber/cognee-viewer/web"
)

func main() {
	// Parse flags
	port := flag.String("port", "", "listen port (overrides COGNEE_VIEWER_PORT)")
	backend := flag.String("backend", "", "backend base URL (overrides COGNEE_BACKEND_URL)")
	flag.Parse()

	// Load configuration
	cfg := config.Load()
	if *port != "" {
		cfg.Port = *port
	}
	if *backend != "" {
		cfg.BackendURL = *backend
	}

	// Initialize logging
	logger, closeLog := config.SetupLogger(cfg.LogFile, cfg.LogLevel)
	defer func() { _ = closeLog() }()
	slog.SetDefault(logger)

	// Serve the UI from disk when configured, otherwise the embedded bundle
	var static fs.FS
	if cfg.DistDir != "" {
		static = os.DirFS(cfg.DistDir)
		logger.Info("serving UI from directory", "dir", cfg.DistDir)
	} else {
		distFS, err := fs.Sub(web.Dist, "dist")
		if err != nil {
			logger.Error("failed to create sub filesystem", "error", err)
			os.Exit(1)
		}
		static = distFS
	}

	srv := server.New(server.Options{
		BackendURL: cfg.BackendURL,
		Static:     static,
	}, logger, metrics.NewCollector())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting cognee-viewer-server", "port", cfg.Port, "backend", cfg.BackendURL)
	if err := server.Serve(ctx, ":"+cfg.Port, srv.Handler(), logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
