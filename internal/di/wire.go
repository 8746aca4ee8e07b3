// Package di wires configuration, storage and clients into the pipelines
// run by the command-line tools.
package di

import (
	"context"
	"fmt"
	"io"

	"github.com/aristath/merval/internal/clients/yahoo"
	"github.com/aristath/merval/internal/config"
	"github.com/aristath/merval/internal/database"
	"github.com/aristath/merval/internal/fetcher"
	"github.com/aristath/merval/internal/history"
	"github.com/aristath/merval/internal/recommender"
	"github.com/aristath/merval/internal/reliability"
	"github.com/rs/zerolog"
)

// Wire initializes all dependencies and returns a configured container
// Order of operations:
// 1. Open the history database and apply its schema
// 2. Build the object storage publisher
// 3. Build the Yahoo provider
func Wire(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Log: log}

	if cfg.HistoryDB != "" {
		db, err := database.New(database.Config{Path: cfg.HistoryDB, Name: "history"})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize history database: %w", err)
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema to %s: %w", db.Name(), err)
		}
		c.HistoryDB = db
		c.History = history.NewRepository(db.Conn(), log)
		log.Info().Str("path", db.Path()).Msg("History database ready")
	}

	if cfg.Storage != nil {
		pub, err := reliability.NewPublisher(ctx, cfg.Storage, cfg.DataDir, log)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize publisher: %w", err)
		}
		c.Publisher = pub
		log.Info().Str("bucket", cfg.Storage.Bucket).Msg("Publishing enabled")
	}

	provider, err := yahoo.New(cfg.Yahoo.Client, cfg.Yahoo.BaseURL, log)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Yahoo = provider

	c.Maintenance = reliability.NewMaintenanceJob(c.HistoryDB, cfg.DataDir, log)

	log.Debug().Msg("Dependency injection wiring completed")
	return c, nil
}

// Close releases the history database
func (c *Container) Close() {
	if c.HistoryDB != nil {
		if err := c.HistoryDB.Close(); err != nil {
			c.Log.Warn().Err(err).Msg("Failed to close history database")
		}
	}
}

// Policy is the shared retry and pacing policy
func (c *Container) Policy() fetcher.Policy {
	return fetcher.Policy{
		MaxAttempts:  c.Config.Fetch.MaxAttempts,
		RetryDelay:   c.Config.Fetch.RetryDelay,
		RequestDelay: c.Config.Fetch.RequestDelay,
	}
}

// Pipeline builds the Yahoo prices and fundamentals pipeline
func (c *Container) Pipeline() *fetcher.Pipeline {
	p := fetcher.NewPipeline(c.Yahoo, fetcher.Options{
		Policy:           c.Policy(),
		PricesDir:        c.Config.PricesDir(),
		FundamentalsPath: c.Config.FundamentalsPath(),
		HistoryYears:     c.Config.Yahoo.HistoryYears,
	}, c.Log)

	// Typed nils must not reach the interfaces
	if c.History != nil {
		p.WithRecorder(c.History)
	}
	if c.Publisher != nil {
		p.WithPublisher(c.Publisher)
	}
	return p
}

// HistoryRunner builds a price-only runner writing <dir>/<ticker><suffix>
func (c *Container) HistoryRunner(source fetcher.HistorySource, dir, suffix string) *fetcher.HistoryRunner {
	h := fetcher.NewHistoryRunner(source, c.Policy(), dir, suffix, c.Log)
	if c.History != nil {
		h.WithRecorder(c.History)
	}
	if c.Publisher != nil {
		h.WithPublisher(c.Publisher)
	}
	return h
}

// Recommender builds the recommender printing to out
func (c *Container) Recommender(out io.Writer) *recommender.Recommender {
	r := recommender.New(recommender.Options{
		FundamentalsPath:    c.Config.FundamentalsPath(),
		RecommendationsPath: c.Config.RecommendationsPath(),
		PricesDir:           c.Config.PricesDir(),
	}, out, c.Log)
	if c.History != nil {
		r.WithRecorder(c.History).WithHistory(c.History)
	}
	return r
}
