// Command bolsamania downloads the last six months of daily prices of the
// MERVAL panel from Bolsamania, one CSV per ticker.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aristath/merval/internal/clients/bolsamania"
	"github.com/aristath/merval/internal/config"
	"github.com/aristath/merval/internal/di"
	"github.com/aristath/merval/internal/modules/universe"
	"github.com/aristath/merval/internal/report"
	"github.com/aristath/merval/internal/scheduler"
	"github.com/aristath/merval/pkg/logger"
)

const fileSuffix = "_6M.csv"

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

	source := bolsamania.NewSource(bolsamania.NewClient(cfg.Bolsamania.BaseURL, log), cfg.Bolsamania.Days)
	runner := container.HistoryRunner(source, cfg.BolsamaniaDir(), fileSuffix)

	job := scheduler.NewFuncJob("fetch_bolsamania", func(ctx context.Context) error {
		log.Info().Int("tickers", len(universe.Bolsamania)).Int("days", cfg.Bolsamania.Days).Msg("Starting Bolsamania download")

		result, err := runner.Run(ctx, universe.Bolsamania)
		if result != nil {
			p := report.New(os.Stdout)
			p.Run("BOLSAMANIA DOWNLOAD", result.Results, cfg.BolsamaniaDir())
			if err := p.Err(); err != nil {
				log.Warn().Err(err).Msg("Failed to print report")
			}
		}
		return err
	})

	if err := scheduler.Serve(ctx, cfg.Schedule, job, container.Maintenance, log); err != nil {
		log.Error().Err(err).Msg("Download failed")
		container.Close()
		os.Exit(1)
	}
}
