package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"pulse-token-board/internal/api"
	"pulse-token-board/internal/app"
	"pulse-token-board/internal/config"
	"pulse-token-board/internal/logging"
)

// shutdownTimeout bounds graceful shutdown before the process is forced down.
const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load("server", os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	components, cleanup, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build services")
	}
	defer cleanup()

	logger.WithFields(logrus.Fields{
		"chain":   components.Chain.ID,
		"catalog": cfg.CatalogKind(),
		"redis":   cfg.RedisURL != "",
	}).Info("Services ready")

	server := api.NewServer(components.Tokens, components.Listing, components.Wallets, components.Chain, logger, api.WithDebug(cfg.Debug))
	fiberApp := server.App()

	// Channel to signal completion
	done := make(chan error, 1)

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigCh:
			logger.Infof("Received signal %v, initiating graceful shutdown...", sig)
		case <-ctx.Done():
			return
		}
		cancel()

		shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
		defer stop()
		if err := fiberApp.ShutdownWithContext(shutdownCtx); err != nil {
			logger.WithError(err).Warn("HTTP shutdown failed")
		}

		// Wait for second signal for immediate shutdown
		select {
		case sig := <-sigCh:
			logger.Warnf("Received second signal %v, forcing immediate shutdown", sig)
			os.Exit(1)
		case <-time.After(shutdownTimeout):
			logger.Warn("Graceful shutdown timed out after 30s, forcing exit")
			os.Exit(1)
		case <-done:
			// Normal shutdown completed
		}
	}()

	logger.WithField("addr", cfg.ListenAddr).Info("HTTP server listening")
	err = fiberApp.Listen(cfg.ListenAddr)
	done <- err
	cancel()

	if err != nil {
		logger.WithError(err).Fatal("Server error")
	}

	logger.Info("Shutdown complete")
}
