// Command investing captures the historical-data table of each MERVAL
// company from Investing.com with a headless Chrome, one CSV per ticker.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aristath/merval/internal/clients/investing"
	"github.com/aristath/merval/internal/config"
	"github.com/aristath/merval/internal/di"
	"github.com/aristath/merval/internal/modules/universe"
	"github.com/aristath/merval/internal/report"
	"github.com/aristath/merval/internal/scheduler"
	"github.com/aristath/merval/pkg/logger"
)

const fileSuffix = "_historico.csv"

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

	browser := investing.NewClient(investing.Options{
		Headless: cfg.Chrome.Headless,
		Timeout:  cfg.Chrome.Timeout,
	}, log)
	defer browser.Close()

	runner := container.HistoryRunner(investing.NewSource(browser), cfg.InvestingDir(), fileSuffix)

	job := scheduler.NewFuncJob("fetch_investing", func(ctx context.Context) error {
		log.Info().Int("tickers", len(universe.Investing)).Bool("headless", cfg.Chrome.Headless).Msg("Starting Investing.com capture")

		result, err := runner.Run(ctx, universe.Investing)
		if result != nil {
			p := report.New(os.Stdout)
			p.Run("INVESTING.COM DOWNLOAD", result.Results, cfg.InvestingDir())
			if err := p.Err(); err != nil {
				log.Warn().Err(err).Msg("Failed to print report")
			}
		}
		return err
	})

	if err := scheduler.Serve(ctx, cfg.Schedule, job, container.Maintenance, log); err != nil {
		log.Error().Err(err).Msg("Download failed")
		browser.Close()
		container.Close()
		os.Exit(1)
	}
}
