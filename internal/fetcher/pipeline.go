// Package fetcher walks a ticker table, downloads each ticker's history and
// fundamentals, and writes the cleaned CSV files.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/aristath/merval/internal/clients/yahoo"
	"github.com/aristath/merval/internal/domain"
	"github.com/aristath/merval/internal/modules/universe"
	"github.com/aristath/merval/internal/prices"
	"github.com/aristath/merval/internal/storage"
	"github.com/rs/zerolog"
)

// Policy is the retry and pacing policy of a run
type Policy struct {
	MaxAttempts  int
	RetryDelay   time.Duration
	RequestDelay time.Duration
}

// Options configures the Yahoo pipeline
type Options struct {
	Policy
	PricesDir        string
	FundamentalsPath string
	HistoryYears     int
}

// RunRecorder stores the outcome of a run and returns its id
type RunRecorder interface {
	SaveFetchRun(ctx context.Context, source string, startedAt time.Time, results []domain.TickerResult, records []domain.FundamentalsRecord) (string, error)
}

// Publisher copies generated files to external storage
type Publisher interface {
	Publish(ctx context.Context, paths []string) error
}

// RunResult is the outcome of one pass over a ticker table
type RunResult struct {
	RunID            string
	Source           string
	StartedAt        time.Time
	FinishedAt       time.Time
	Results          []domain.TickerResult
	Fundamentals     []domain.FundamentalsRecord
	FundamentalsFile string
	Files            []string
}

// Succeeded counts tickers with status OK
func (r *RunResult) Succeeded() int {
	n := 0
	for _, t := range r.Results {
		if t.Status == domain.StatusOK {
			n++
		}
	}
	return n
}

// Failed counts tickers whose status is a failure
func (r *RunResult) Failed() int {
	n := 0
	for _, t := range r.Results {
		if t.Status.Failed() {
			n++
		}
	}
	return n
}

// Warnings counts tickers that returned no usable data
func (r *RunResult) Warnings() int {
	n := 0
	for _, t := range r.Results {
		if t.Status.Warning() {
			n++
		}
	}
	return n
}

// Pipeline downloads Yahoo history and fundamentals for a ticker table
type Pipeline struct {
	provider  yahoo.Provider
	opts      Options
	recorder  RunRecorder
	publisher Publisher
	now       func() time.Time
	log       zerolog.Logger
}

// NewPipeline creates a pipeline over provider
func NewPipeline(provider yahoo.Provider, opts Options, log zerolog.Logger) *Pipeline {
	if opts.HistoryYears <= 0 {
		opts.HistoryYears = 5
	}
	return &Pipeline{
		provider: provider,
		opts:     opts,
		now:      time.Now,
		log:      log.With().Str("component", "fetcher").Logger(),
	}
}

// WithRecorder stores every run in r
func (p *Pipeline) WithRecorder(r RunRecorder) *Pipeline {
	p.recorder = r
	return p
}

// WithPublisher uploads the files of every run through pub
func (p *Pipeline) WithPublisher(pub Publisher) *Pipeline {
	p.publisher = pub
	return p
}

// PriceFileName is the per-ticker price file name
func (p *Pipeline) PriceFileName(ticker string) string {
	return fmt.Sprintf("%s_precios_%dA.csv", ticker, p.opts.HistoryYears)
}

// Run processes securities in order. A ticker that fails never stops the
// others; only output-directory and consolidated-file failures are
// returned. A cancelled ctx stops the loop between tickers and is returned
// after the partial results are written.
func (p *Pipeline) Run(ctx context.Context, securities []universe.Security) (*RunResult, error) {
	if err := storage.EnsureDir(p.opts.PricesDir); err != nil {
		return nil, err
	}
	if err := storage.EnsureDir(filepath.Dir(p.opts.FundamentalsPath)); err != nil {
		return nil, err
	}

	end := p.now()
	start := end.AddDate(-p.opts.HistoryYears, 0, 0)
	result := &RunResult{Source: "yahoo", StartedAt: end}

	p.log.Info().
		Int("tickers", len(securities)).
		Str("from", start.Format(domain.DateLayout)).
		Str("to", end.Format(domain.DateLayout)).
		Msg("Starting fetch run")

	throttle := NewThrottle(p.opts.RequestDelay)
	var runErr error
	for _, sec := range securities {
		if err := throttle.Wait(ctx); err != nil {
			runErr = ctx.Err()
			p.log.Warn().Err(runErr).Msg("Fetch run cancelled")
			break
		}

		tr, path, rec := p.fetchTicker(ctx, sec, start, end)
		result.Results = append(result.Results, tr)
		if path != "" {
			result.Files = append(result.Files, path)
		}
		if rec != nil {
			result.Fundamentals = append(result.Fundamentals, *rec)
		}
	}

	if len(result.Fundamentals) > 0 {
		if err := storage.WriteFundamentals(p.opts.FundamentalsPath, result.Fundamentals); err != nil {
			return result, fmt.Errorf("failed to write fundamentals: %w", err)
		}
		result.FundamentalsFile = p.opts.FundamentalsPath
		result.Files = append(result.Files, p.opts.FundamentalsPath)
		p.log.Info().
			Int("rows", len(result.Fundamentals)).
			Str("path", p.opts.FundamentalsPath).
			Msg("Fundamentals saved")
	}

	result.FinishedAt = p.now()
	finish(context.WithoutCancel(ctx), result, p.recorder, p.publisher, p.log)

	p.log.Info().
		Int("ok", result.Succeeded()).
		Int("failed", result.Failed()).
		Int("warnings", result.Warnings()).
		Dur("duration", result.FinishedAt.Sub(result.StartedAt)).
		Msg("Fetch run completed")

	return result, runErr
}

// fetchTicker returns the ticker's status, the written price file (empty
// when none) and its fundamentals row (nil when the history failed).
func (p *Pipeline) fetchTicker(ctx context.Context, sec universe.Security, start, end time.Time) (domain.TickerResult, string, *domain.FundamentalsRecord) {
	log := p.log.With().Str("ticker", sec.Symbol).Logger()
	tr := domain.TickerResult{Ticker: sec.Symbol, Name: sec.Name, File: "-"}

	var bars []domain.PriceBar
	err := Retry(ctx, p.opts.MaxAttempts, p.opts.RetryDelay, log, func(attempt int) error {
		b, err := p.provider.GetHistoricalPrices(ctx, sec.Symbol, start, end)
		if err != nil {
			return err
		}
		if len(b) == 0 {
			return yahoo.ErrNoData
		}
		bars = b
		return nil
	})
	if err != nil {
		tr.Err = err
		tr.Status = domain.StatusError
		if errors.Is(err, yahoo.ErrNoData) {
			tr.Status = domain.StatusNoData
		}
		log.Warn().Err(err).Str("status", string(tr.Status)).Msg("No historical data")
		return tr, "", nil
	}

	clean := prices.Clean(bars)
	if len(clean) == 0 {
		tr.Status = domain.StatusEmpty
		log.Warn().Int("raw", len(bars)).Msg("Nothing left after cleaning")
		return tr, "", nil
	}

	path := filepath.Join(p.opts.PricesDir, p.PriceFileName(sec.Symbol))
	if err := storage.WritePrices(path, clean); err != nil {
		tr.Err = err
		tr.Status = domain.StatusError
		log.Error().Err(err).Msg("Failed to save prices")
		return tr, "", nil
	}

	tr.Status = domain.StatusOK
	tr.Rows = len(clean)
	tr.File = filepath.Base(path)
	tr.Summary = prices.Summarize(clean)
	log.Info().Int("rows", tr.Rows).Str("file", tr.File).Msg("Prices saved")

	rec := p.fetchFundamentals(ctx, sec, log)
	return tr, path, &rec
}

func (p *Pipeline) fetchFundamentals(ctx context.Context, sec universe.Security, log zerolog.Logger) domain.FundamentalsRecord {
	var fd *yahoo.FundamentalData
	err := Retry(ctx, p.opts.MaxAttempts, p.opts.RetryDelay, log, func(attempt int) error {
		data, err := p.provider.GetFundamentalData(ctx, sec.Symbol)
		if err != nil {
			return err
		}
		fd = data
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Msg("Fundamentals unavailable, recording error row")
		return domain.ErrorRecord(sec.Symbol, sec.Name)
	}

	rec := fd.Record(sec.Symbol, sec.Name)
	log.Debug().
		Str("pe", rec.TrailingPE.String()).
		Str("dividend_yield", rec.DividendYield.String()).
		Msg("Fundamentals fetched")
	return rec
}

// finish hands a completed run to the optional sinks. Sink failures are
// logged and otherwise ignored.
func finish(ctx context.Context, result *RunResult, recorder RunRecorder, publisher Publisher, log zerolog.Logger) {
	if recorder != nil {
		id, err := recorder.SaveFetchRun(ctx, result.Source, result.StartedAt, result.Results, result.Fundamentals)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to record run history")
		} else {
			result.RunID = id
		}
	}

	if publisher != nil && len(result.Files) > 0 {
		if err := publisher.Publish(ctx, result.Files); err != nil {
			log.Warn().Err(err).Int("files", len(result.Files)).Msg("Failed to publish files")
		}
	}
}
