package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"pulse-token-board/internal/app"
	"pulse-token-board/internal/config"
	"pulse-token-board/internal/logging"
)

const usage = `usage: board [flags] <command> [args]

commands:
  list [-page N] [-size N] [-sort key] [-dir asc|desc] [-scope page|all]
  token <address>
  search <query>
  wallet <address>
  browse
`

func main() {
	cfg, err := config.Load("board", os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}
	if len(cfg.Args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// CLI output goes to stdout, logs stay on stderr and default to warnings.
	if cfg.LogLevel == "info" {
		cfg.LogLevel = "warn"
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger.SetOutput(os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	components, cleanup, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build services")
	}
	defer cleanup()

	c := newCLI(components, os.Stdout)
	if err := c.run(ctx, cfg.Args[0], cfg.Args[1:], os.Stdin); err != nil {
		fmt.Fprintln(os.Stderr, err)
		cleanup()
		os.Exit(1)
	}
}
