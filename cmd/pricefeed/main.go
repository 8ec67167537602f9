package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/marketpulse/pricefeed/internal/config"
	"github.com/marketpulse/pricefeed/internal/database"
	"github.com/marketpulse/pricefeed/internal/history"
	"github.com/marketpulse/pricefeed/internal/metrics"
	"github.com/marketpulse/pricefeed/internal/poller"
	"github.com/marketpulse/pricefeed/internal/server"
	"github.com/marketpulse/pricefeed/internal/source"
	"github.com/marketpulse/pricefeed/internal/version"
	"github.com/marketpulse/pricefeed/internal/window"
)

func main() {
	configPath := flag.String("config", "configs/pricefeed.yaml", "path to config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	// A .env file is optional; deployments usually set env directly.
	_ = godotenv.Load()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting pricefeed",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"primary", cfg.Sources.Primary.URL,
		"interval", cfg.Poller.Interval,
		"window_span", cfg.Poller.WindowSpan,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	m := metrics.New()
	win := window.New(cfg.Poller.WindowSpan)
	sources := buildSources(cfg, logger)

	// Optional price history sink
	var handler poller.PointHandler
	var histWriter *history.Writer
	if cfg.History.Enabled {
		logger.Info("connecting to history database",
			"host", cfg.History.Postgres.Host,
			"port", cfg.History.Postgres.Port,
			"database", cfg.History.Postgres.Name,
		)

		pool, err := database.Connect(ctx, cfg.History.Postgres)
		if err != nil {
			logger.Error("failed to connect to history database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		buf := history.NewBuffer(cfg.History.BufferSize)
		histWriter = history.NewWriter(history.Config{
			BatchSize:     cfg.History.BatchSize,
			FlushInterval: cfg.History.FlushInterval,
		}, buf, pool, cfg.Instance.ID, logger)

		if err := histWriter.Start(ctx); err != nil {
			logger.Error("failed to start history writer", "error", err)
			os.Exit(1)
		}
		handler = histWriter
	}

	// Start the price poller
	p := poller.New(poller.Config{
		Interval:       cfg.Poller.Interval,
		FetchTimeout:   cfg.Poller.FetchTimeout,
		ReadyThreshold: cfg.Poller.ReadyThreshold,
	}, sources, win, handler, m, logger)

	if err := p.Start(ctx); err != nil {
		logger.Error("failed to start poller", "error", err)
		os.Exit(1)
	}

	// Query surface and metrics listeners
	apiServer := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: server.New(win, p, server.Info{
			InstanceID: cfg.Instance.ID,
			Version:    version.Version,
		}, logger),
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle(cfg.Metrics.Path, m.Handler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: metricsMux,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting query server", "port", cfg.Server.Port)
		if err := apiServer.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("query server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})

	logger.Info("pricefeed running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Server.Port),
	)

	// Wait for shutdown signal or listener failure
	<-gctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	apiServer.Shutdown(shutdownCtx)
	metricsServer.Shutdown(shutdownCtx)
	p.Stop(shutdownCtx)
	if histWriter != nil {
		histWriter.Stop(shutdownCtx)
	}

	if err := g.Wait(); err != nil {
		logger.Error("listener error", "error", err)
		os.Exit(1)
	}

	logger.Info("pricefeed stopped")
}

// buildSources assembles the ordered source chain from config. The secondary
// source is optional; when its URL is empty only the primary is polled.
func buildSources(cfg *config.Config, logger *slog.Logger) []source.Source {
	sources := []source.Source{
		source.NewHTTPSource(
			cfg.Sources.Primary.Name,
			cfg.Sources.Primary.URL,
			cfg.Sources.Primary.PricePath,
			source.WithLogger(logger),
		),
	}

	if cfg.Sources.Secondary.URL != "" {
		sources = append(sources, source.NewHTTPSource(
			cfg.Sources.Secondary.Name,
			cfg.Sources.Secondary.URL,
			cfg.Sources.Secondary.PricePath,
			source.WithLogger(logger),
		))
	}

	return sources
}
