package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pinnacle/internal/config"
	"pinnacle/internal/constants"
	"pinnacle/internal/errors"
	"pinnacle/internal/retry"
	"pinnacle/internal/tracing"
	"pinnacle/pkg/circuitbreaker"
	"pinnacle/pkg/pinnacle/webhook"

	"github.com/sirupsen/logrus"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	// CLI flags
	configPath = flag.String("config", "", "Path to configuration file (defaults and environment only when empty)")
	version    = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("pinnacle-webhook %s\nBuild Time: %s\nGit Commit: %s\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := errors.NewLogger().Logger

	if err := run(ctx, *configPath, logger); err != nil {
		logger.Fatalf("Application error: %v", err)
	}
}

func run(ctx context.Context, path string, logger *logrus.Logger) error {
	logger.WithFields(logrus.Fields{
		"version": Version,
		"build":   BuildTime,
		"commit":  GitCommit,
	}).Info("Starting pinnacle webhook receiver")

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger.SetLevel(cfg.ParsedLogLevel())

	tracingManager := tracing.NewTracingManager(cfg.Tracing, logger)
	if err := tracingManager.Initialize(ctx); err != nil {
		logger.Warnf("Failed to initialize tracing: %v", err)
	}
	defer func() {
		if err := tracingManager.Shutdown(context.Background()); err != nil {
			logger.Warnf("Failed to shutdown tracing: %v", err)
		}
	}()

	breaker := circuitbreaker.New("webhook-handlers", circuitbreaker.DefaultConfig(), logger)
	dispatcher := webhook.NewDispatcher(
		webhook.WithLogger(logger),
		webhook.WithRetry(retry.DefaultBackoffConfig()),
		webhook.WithCircuitBreaker(breaker),
	)
	registerEventHandlers(dispatcher, logger)

	if path != "" && cfg.Server.ConfigReloadInterval > 0 {
		watcher := config.NewConfigWatcher(path, time.Duration(cfg.Server.ConfigReloadInterval)*time.Second, logger)
		watcher.OnConfigChange(func(updated *config.Config) {
			logger.SetLevel(updated.ParsedLogLevel())
		})
		go func() {
			if err := watcher.Start(ctx); err != nil {
				logger.WithError(err).Error("Configuration watcher stopped")
			}
		}()
	}

	server := NewServer(cfg, dispatcher, breaker, logger)
	serverErrCh := make(chan error, constants.ServerErrorChannelSize)
	go func() {
		if err := server.Start(); err != nil {
			serverErrCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Received shutdown signal")
	case err := <-serverErrCh:
		logger.Error(err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.GracefulShutdownSec)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server gracefully: %w", err)
	}

	logger.Info("Server shutdown completed")
	return nil
}
