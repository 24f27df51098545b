package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/lnwatch/eclair-dashboard/internal/api"
	"github.com/lnwatch/eclair-dashboard/internal/config"
	"github.com/lnwatch/eclair-dashboard/internal/db"
	"github.com/lnwatch/eclair-dashboard/internal/eclair"
	"github.com/lnwatch/eclair-dashboard/internal/logging"
	"github.com/lnwatch/eclair-dashboard/internal/stats"
)

func main() {
	configPath := flag.String("config", "eclair-dashboard.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("Failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Logger.Level, cfg.Logger.File)
	if err != nil {
		os.Stderr.WriteString("Failed to set up logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	var database *db.Database
	if cfg.Archive.Enabled {
		if err := os.MkdirAll(filepath.Dir(cfg.Archive.Path), 0755); err != nil {
			logger.Fatal().Err(err).Msg("Failed to create archive directory")
		}
		database, err = db.NewDatabase(cfg.Archive.Path)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize history archive")
		}
		defer database.Close()
	}

	client := eclair.NewClient(cfg.Node.URL, cfg.Node.User, cfg.Node.Password)

	// Probe optional plugins once; the poller never queries absent ones. A
	// transient failure here only disables plugin channels for this run, the
	// regular poll loop retries the node on its own schedule.
	plugins, err := client.SupportedPlugins()
	if err != nil {
		logger.Warn().Err(err).Msg("Plugin probe failed, polling without plugin channels")
		plugins = nil
	}
	for plugin, supported := range plugins {
		logger.Info().Str("plugin", string(plugin)).Bool("supported", supported).Msg("Plugin probe")
	}

	store := stats.NewStore(cfg.Poll.InitialWidth)

	var archive stats.Archive
	if database != nil {
		archive = database
	}
	poller := stats.NewPoller(client, store, stats.PollerConfig{
		Interval:      cfg.Poll.Interval,
		AuditLookback: cfg.Poll.AuditLookback,
		Plugins:       plugins,
		Archive:       archive,
		Logger:        logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go poller.Run(ctx)
	logger.Info().Dur("interval", cfg.Poll.Interval).Msg("Poller started")

	server := api.NewServer(store, database, logger)
	httpServer := &http.Server{
		Addr:    cfg.ListenAddr(),
		Handler: server.Handler(cfg.Server.AllowedOrigins),
	}

	go func() {
		logger.Info().Str("addr", cfg.ListenAddr()).Msg("Dashboard API listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info().Msg("Received shutdown signal, exiting...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown failed")
	}
}
