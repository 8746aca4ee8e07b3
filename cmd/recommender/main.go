// Command recommender scores the consolidated fundamentals table written by
// cmd/fetcher and prints the buy recommendations.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aristath/merval/internal/config"
	"github.com/aristath/merval/internal/di"
	"github.com/aristath/merval/internal/recommender"
	"github.com/aristath/merval/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	logger.SetGlobalLogger(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := di.Wire(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to wire dependencies")
	}

	_, err = container.Recommender(os.Stdout).Run(ctx)
	container.Close()

	if errors.Is(err, recommender.ErrMissingInput) {
		fmt.Fprintf(os.Stderr, "Could not find %s\n", cfg.FundamentalsPath())
		fmt.Fprintln(os.Stderr, "Run cmd/fetcher first to download the fundamentals.")
		os.Exit(1)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Recommendation failed")
	}
}
