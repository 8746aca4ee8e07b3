// Package history records every fetch and recommendation run in SQLite so
// scores can be compared across runs.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/merval/internal/database"
	"github.com/aristath/merval/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	KindFetch     = "fetch"
	KindRecommend = "recommend"

	scoringSource = "scoring"
	tagSeparator  = " | "
)

// Run is one stored run
type Run struct {
	ID         string
	Kind       string
	Source     string
	StartedAt  time.Time
	FinishedAt time.Time
	Succeeded  int
	Failed     int
}

// ScorePoint is the score a ticker got in one recommendation run
type ScorePoint struct {
	RunID    string
	Ticker   string
	Score    int
	Tier     domain.Tier
	Tags     []string
	ScoredAt time.Time
}

// Repository stores runs in the history database
type Repository struct {
	db  *sql.DB
	now func() time.Time
	log zerolog.Logger
}

// NewRepository creates a new history repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		now: time.Now,
		log: log.With().Str("repository", "history").Logger(),
	}
}

// SaveFetchRun stores a fetch run with its per-ticker outcomes and the
// fundamentals snapshot. It returns the new run ID.
func (r *Repository) SaveFetchRun(ctx context.Context, source string, startedAt time.Time, results []domain.TickerResult, records []domain.FundamentalsRecord) (string, error) {
	runID := uuid.New().String()

	var succeeded, failed int
	for _, res := range results {
		if res.Status == domain.StatusOK {
			succeeded++
		} else {
			failed++
		}
	}

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if err := r.insertRun(ctx, tx, runID, KindFetch, source, startedAt, succeeded, failed); err != nil {
			return err
		}

		for _, res := range results {
			var errText sql.NullString
			if res.Err != nil {
				errText = sql.NullString{String: res.Err.Error(), Valid: true}
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO ticker_results (run_id, ticker, name, status, rows, file, error)
				VALUES (?, ?, ?, ?, ?, ?, ?)
			`, runID, res.Ticker, res.Name, string(res.Status), res.Rows, res.File, errText)
			if err != nil {
				return fmt.Errorf("failed to insert result for %s: %w", res.Ticker, err)
			}
		}

		for _, rec := range records {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO fundamentals
				(run_id, ticker, name, price, trailing_pe, roe, dividend_yield, debt_to_equity, current_ratio, failed)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`,
				runID,
				rec.Ticker,
				rec.Name,
				nullable(rec.Price),
				nullable(rec.TrailingPE),
				nullable(rec.ROE.Metric),
				nullable(rec.DividendYield.Metric),
				nullable(rec.DebtToEquity),
				nullable(rec.CurrentRatio),
				rec.Failed(),
			)
			if err != nil {
				return fmt.Errorf("failed to insert fundamentals for %s: %w", rec.Ticker, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to save fetch run: %w", err)
	}

	r.log.Debug().
		Str("run_id", runID).
		Str("source", source).
		Int("results", len(results)).
		Int("fundamentals", len(records)).
		Msg("Fetch run saved")
	return runID, nil
}

// SaveScores stores the ranked table of one recommendation run
func (r *Repository) SaveScores(ctx context.Context, ranked []domain.ScoredRecord) (string, error) {
	runID := uuid.New().String()
	now := r.now()

	var succeeded, failed int
	for _, s := range ranked {
		if s.Failed() {
			failed++
		} else {
			succeeded++
		}
	}

	err := database.WithTransaction(r.db, func(tx *sql.Tx) error {
		if err := r.insertRun(ctx, tx, runID, KindRecommend, scoringSource, now, succeeded, failed); err != nil {
			return err
		}
		for _, s := range ranked {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO scores (run_id, ticker, name, score, tier, tags)
				VALUES (?, ?, ?, ?, ?, ?)
			`, runID, s.Ticker, s.Name, s.Score, string(s.Tier), strings.Join(s.Tags, tagSeparator))
			if err != nil {
				return fmt.Errorf("failed to insert score for %s: %w", s.Ticker, err)
			}
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to save scores: %w", err)
	}

	r.log.Debug().Str("run_id", runID).Int("scores", len(ranked)).Msg("Scores saved")
	return runID, nil
}

func (r *Repository) insertRun(ctx context.Context, tx *sql.Tx, id, kind, source string, startedAt time.Time, succeeded, failed int) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, kind, source, started_at, finished_at, succeeded, failed)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, id, kind, source, startedAt.Unix(), r.now().Unix(), succeeded, failed)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, source, started_at, finished_at, succeeded, failed
		FROM runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var startedAt, finishedAt int64
		if err := rows.Scan(&run.ID, &run.Kind, &run.Source, &startedAt, &finishedAt, &run.Succeeded, &run.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.StartedAt = time.Unix(startedAt, 0).UTC()
		run.FinishedAt = time.Unix(finishedAt, 0).UTC()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ScoreHistory returns every recorded score for a ticker, oldest first
func (r *Repository) ScoreHistory(ctx context.Context, ticker string) ([]ScorePoint, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s.run_id, s.ticker, s.score, s.tier, s.tags, r.started_at
		FROM scores s
		JOIN runs r ON r.id = s.run_id
		WHERE s.ticker = ?
		ORDER BY r.started_at ASC, r.rowid ASC
	`, ticker)
	if err != nil {
		return nil, fmt.Errorf("failed to query score history: %w", err)
	}
	defer rows.Close()

	var points []ScorePoint
	for rows.Next() {
		var p ScorePoint
		var tier, tags string
		var scoredAt int64
		if err := rows.Scan(&p.RunID, &p.Ticker, &p.Score, &tier, &tags, &scoredAt); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		p.Tier = domain.Tier(tier)
		if tags != "" {
			p.Tags = strings.Split(tags, tagSeparator)
		}
		p.ScoredAt = time.Unix(scoredAt, 0).UTC()
		points = append(points, p)
	}
	return points, rows.Err()
}

// nullable maps an unavailable metric to SQL NULL
func nullable(m domain.Metric) sql.NullFloat64 {
	v, ok := m.Float64()
	return sql.NullFloat64{Float64: v, Valid: ok}
}
