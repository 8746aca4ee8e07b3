// Package recommender scores the consolidated fundamentals table and
// produces the buy recommendations.
package recommender

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aristath/merval/internal/domain"
	"github.com/aristath/merval/internal/history"
	"github.com/aristath/merval/internal/modules/scoring/scorers"
	"github.com/aristath/merval/internal/report"
	"github.com/aristath/merval/internal/storage"
	"github.com/rs/zerolog"
)

// ErrMissingInput is returned when the fundamentals file does not exist yet
var ErrMissingInput = errors.New("fundamentals file not found, run cmd/fetcher first")

// ScoreRecorder persists the scores of one recommendation run
type ScoreRecorder interface {
	SaveScores(ctx context.Context, ranked []domain.ScoredRecord) (string, error)
}

// HistoryReader reads earlier runs back from the history store
type HistoryReader interface {
	ListRuns(ctx context.Context, limit int) ([]history.Run, error)
	ScoreHistory(ctx context.Context, ticker string) ([]history.ScorePoint, error)
}

// recentRuns bounds the search for the latest fetch run
const recentRuns = 20

// Options locates the input and output files
type Options struct {
	FundamentalsPath    string
	RecommendationsPath string
	PricesDir           string
}

// Recommender ranks the fundamentals table by buy score
type Recommender struct {
	opts     Options
	scorer   *scorers.BuyScorer
	recorder ScoreRecorder
	history  HistoryReader
	out      io.Writer
	log      zerolog.Logger
}

// New creates a recommender printing its report to out
func New(opts Options, out io.Writer, log zerolog.Logger) *Recommender {
	return &Recommender{
		opts:   opts,
		scorer: scorers.NewBuyScorer(),
		out:    out,
		log:    log.With().Str("component", "recommender").Logger(),
	}
}

// WithRecorder stores the scores of every run
func (r *Recommender) WithRecorder(rec ScoreRecorder) *Recommender {
	r.recorder = rec
	return r
}

// WithHistory reports the latest fetch run and the score changes since the
// previous analysis
func (r *Recommender) WithHistory(h HistoryReader) *Recommender {
	r.history = h
	return r
}

// Run loads, ranks, writes and reports. The ranked table is returned so
// callers can inspect it.
func (r *Recommender) Run(ctx context.Context) ([]domain.ScoredRecord, error) {
	records, err := storage.ReadFundamentals(r.opts.FundamentalsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingInput, r.opts.FundamentalsPath)
		}
		return nil, fmt.Errorf("failed to load fundamentals: %w", err)
	}
	r.log.Info().Int("records", len(records)).Str("path", r.opts.FundamentalsPath).Msg("Loaded fundamentals")

	p := report.New(r.out)
	p.Banner("MERVAL BUY ANALYSIS AND RECOMMENDATIONS")
	if run := r.lastFetch(ctx); run != nil {
		p.SourceRun(run.Source, run.FinishedAt, run.Succeeded, run.Failed)
	}
	p.Fundamentals(records)

	ranked := r.scorer.Rank(records)
	// read before this run's scores are recorded
	previous := r.previousScores(ctx, ranked)

	if err := storage.WriteRecommendations(r.opts.RecommendationsPath, ranked); err != nil {
		return ranked, fmt.Errorf("failed to write recommendations: %w", err)
	}
	r.log.Info().Str("path", r.opts.RecommendationsPath).Msg("Recommendations written")

	if r.recorder != nil {
		runID, err := r.recorder.SaveScores(ctx, ranked)
		if err != nil {
			r.log.Error().Err(err).Msg("Failed to record scores")
		} else {
			r.log.Debug().Str("run_id", runID).Msg("Scores recorded")
		}
	}

	p.Recommendations(ranked)
	if r.history != nil {
		p.ScoreChanges(ranked, previous)
	}
	p.Printf("\nAnalysis saved to: %s\n", r.opts.RecommendationsPath)
	p.NextSteps(r.opts.RecommendationsPath, r.opts.PricesDir)

	if err := p.Err(); err != nil {
		return ranked, fmt.Errorf("failed to print report: %w", err)
	}
	return ranked, nil
}

func (r *Recommender) lastFetch(ctx context.Context) *history.Run {
	if r.history == nil {
		return nil
	}
	runs, err := r.history.ListRuns(ctx, recentRuns)
	if err != nil {
		r.log.Warn().Err(err).Msg("Failed to read run history")
		return nil
	}
	for i := range runs {
		if runs[i].Kind == history.KindFetch {
			return &runs[i]
		}
	}
	return nil
}

// previousScores returns the most recent recorded score of each ranked
// ticker. Tickers never scored are absent.
func (r *Recommender) previousScores(ctx context.Context, ranked []domain.ScoredRecord) map[string]int {
	if r.history == nil {
		return nil
	}
	previous := make(map[string]int, len(ranked))
	for _, s := range ranked {
		points, err := r.history.ScoreHistory(ctx, s.Ticker)
		if err != nil {
			r.log.Warn().Err(err).Str("ticker", s.Ticker).Msg("Failed to read score history")
			return previous
		}
		if len(points) > 0 {
			previous[s.Ticker] = points[len(points)-1].Score
		}
	}
	return previous
}
