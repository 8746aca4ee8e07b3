package fetcher

import (
	"context"
	"path/filepath"
	"time"

	"github.com/aristath/merval/internal/domain"
	"github.com/aristath/merval/internal/modules/universe"
	"github.com/aristath/merval/internal/prices"
	"github.com/aristath/merval/internal/storage"
	"github.com/rs/zerolog"
)

// HistorySource is a page-based price provider such as Bolsamania or
// Investing.com
type HistorySource interface {
	// Name identifies the source in logs and run history
	Name() string
	// Fetch returns the raw bars of one security
	Fetch(ctx context.Context, sec universe.Security) ([]domain.PriceBar, error)
	// Status maps a Fetch error to a run status
	Status(err error) domain.Status
}

// HistoryRunner downloads price history only, one file per ticker
type HistoryRunner struct {
	source    HistorySource
	policy    Policy
	dir       string
	suffix    string
	recorder  RunRecorder
	publisher Publisher
	now       func() time.Time
	log       zerolog.Logger
}

// NewHistoryRunner writes <dir>/<ticker><suffix> for every ticker source
// returns data for.
func NewHistoryRunner(source HistorySource, policy Policy, dir, suffix string, log zerolog.Logger) *HistoryRunner {
	return &HistoryRunner{
		source: source,
		policy: policy,
		dir:    dir,
		suffix: suffix,
		now:    time.Now,
		log:    log.With().Str("component", "fetcher").Str("source", source.Name()).Logger(),
	}
}

// WithRecorder stores every run in r
func (h *HistoryRunner) WithRecorder(r RunRecorder) *HistoryRunner {
	h.recorder = r
	return h
}

// WithPublisher uploads the files of every run through pub
func (h *HistoryRunner) WithPublisher(pub Publisher) *HistoryRunner {
	h.publisher = pub
	return h
}

// Run processes securities in order; see Pipeline.Run for the error rules
func (h *HistoryRunner) Run(ctx context.Context, securities []universe.Security) (*RunResult, error) {
	if err := storage.EnsureDir(h.dir); err != nil {
		return nil, err
	}

	result := &RunResult{Source: h.source.Name(), StartedAt: h.now()}
	throttle := NewThrottle(h.policy.RequestDelay)

	var runErr error
	for _, sec := range securities {
		if err := throttle.Wait(ctx); err != nil {
			runErr = ctx.Err()
			h.log.Warn().Err(runErr).Msg("Run cancelled")
			break
		}

		tr, path := h.fetchTicker(ctx, sec)
		result.Results = append(result.Results, tr)
		if path != "" {
			result.Files = append(result.Files, path)
		}
	}

	result.FinishedAt = h.now()
	finish(context.WithoutCancel(ctx), result, h.recorder, h.publisher, h.log)

	h.log.Info().
		Int("ok", result.Succeeded()).
		Int("failed", result.Failed()).
		Int("warnings", result.Warnings()).
		Msg("Run completed")

	return result, runErr
}

func (h *HistoryRunner) fetchTicker(ctx context.Context, sec universe.Security) (domain.TickerResult, string) {
	log := h.log.With().Str("ticker", sec.Symbol).Logger()
	tr := domain.TickerResult{Ticker: sec.Symbol, Name: sec.Name, File: "-"}

	var bars []domain.PriceBar
	err := Retry(ctx, h.policy.MaxAttempts, h.policy.RetryDelay, log, func(attempt int) error {
		b, err := h.source.Fetch(ctx, sec)
		if err != nil {
			return err
		}
		bars = b
		return nil
	})
	if err != nil {
		tr.Err = err
		tr.Status = h.source.Status(err)
		log.Warn().Err(err).Str("status", string(tr.Status)).Msg("Download failed")
		return tr, ""
	}

	clean := prices.Clean(bars)
	if len(clean) == 0 {
		tr.Status = domain.StatusEmpty
		log.Warn().Int("raw", len(bars)).Msg("Nothing left after cleaning")
		return tr, ""
	}

	path := filepath.Join(h.dir, sec.Symbol+h.suffix)
	if err := storage.WritePrices(path, clean); err != nil {
		tr.Err = err
		tr.Status = domain.StatusError
		log.Error().Err(err).Msg("Failed to save prices")
		return tr, ""
	}

	tr.Status = domain.StatusOK
	tr.Rows = len(clean)
	tr.File = filepath.Base(path)
	tr.Summary = prices.Summarize(clean)
	log.Info().Int("rows", tr.Rows).Str("file", tr.File).Msg("Prices saved")
	return tr, path
}
