// Command fetcher downloads five years of daily prices and a fundamentals
// snapshot for every MERVAL company listed in the US, writing one cleaned
// price file per ticker plus the consolidated fundamentals table.
//
// With FETCH_SCHEDULE set it keeps running and repeats the fetch on that
// cron schedule until interrupted.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aristath/merval/internal/config"
	"github.com/aristath/merval/internal/di"
	"github.com/aristath/merval/internal/modules/universe"
	"github.com/aristath/merval/internal/report"
	"github.com/aristath/merval/internal/scheduler"
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
	defer container.Close()

	pipeline := container.Pipeline()
	job := scheduler.NewFuncJob("fetch_yahoo", func(ctx context.Context) error {
		log.Info().Int("tickers", len(universe.YahooADRs)).Str("dir", cfg.DataDir).Msg("Starting Yahoo fetch")

		result, err := pipeline.Run(ctx, universe.YahooADRs)
		if result != nil {
			p := report.New(os.Stdout)
			p.Run("MERVAL DATA FETCH", result.Results, cfg.PricesDir())
			if result.FundamentalsFile != "" {
				p.Printf("\nFundamentals: %s (%d companies)\n", result.FundamentalsFile, len(result.Fundamentals))
			}
			if err := p.Err(); err != nil {
				log.Warn().Err(err).Msg("Failed to print report")
			}
		}
		return err
	})

	if err := scheduler.Serve(ctx, cfg.Schedule, job, container.Maintenance, log); err != nil {
		log.Error().Err(err).Msg("Fetch failed")
		container.Close()
		os.Exit(1)
	}
}
