package recommender

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aristath/merval/internal/domain"
	"github.com/aristath/merval/internal/history"
	"github.com/aristath/merval/internal/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRecorder struct {
	ranked []domain.ScoredRecord
	err    error
}

func (f *fakeRecorder) SaveScores(ctx context.Context, ranked []domain.ScoredRecord) (string, error) {
	f.ranked = ranked
	return "run-1", f.err
}

// fakeHistory serves stored runs and records saves, so a score saved during
// Run becomes visible to later ScoreHistory calls.
type fakeHistory struct {
	runs   []history.Run
	scores map[string][]history.ScorePoint
	err    error
}

func (f *fakeHistory) ListRuns(ctx context.Context, limit int) ([]history.Run, error) {
	return f.runs, f.err
}

func (f *fakeHistory) ScoreHistory(ctx context.Context, ticker string) ([]history.ScorePoint, error) {
	return f.scores[ticker], f.err
}

func (f *fakeHistory) SaveScores(ctx context.Context, ranked []domain.ScoredRecord) (string, error) {
	for _, r := range ranked {
		f.scores[r.Ticker] = append(f.scores[r.Ticker], history.ScorePoint{Ticker: r.Ticker, Score: r.Score})
	}
	return "run-2", nil
}

func testOptions(dir string) Options {
	return Options{
		FundamentalsPath:    filepath.Join(dir, "MERVAL_Fundamentales", "MERVAL_Fundamentales_Consolidado.csv"),
		RecommendationsPath: filepath.Join(dir, "MERVAL_Analisis_Recomendaciones.csv"),
		PricesDir:           filepath.Join(dir, "MERVAL_Datos_Limpio"),
	}
}

func writeFundamentals(t *testing.T, path string) {
	t.Helper()

	good := domain.NewFundamentalsRecord("GGAL", "Grupo Galicia")
	good.Price = domain.Value(52.5)
	good.TrailingPE = domain.Value(8)
	good.ROE = domain.PercentValue(18)
	good.DividendYield = domain.PercentValue(5)
	good.DebtToEquity = domain.Value(0.3)
	good.CurrentRatio = domain.Value(2)

	weak := domain.NewFundamentalsRecord("LOMA", "Loma Negra")
	weak.TrailingPE = domain.Value(-5)

	require.NoError(t, storage.WriteFundamentals(path, []domain.FundamentalsRecord{
		weak, good, domain.ErrorRecord("YPF", "YPF"),
	}))
}

func TestRecommender_Run(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions(dir)
	writeFundamentals(t, opts.FundamentalsPath)

	var out bytes.Buffer
	rec := &fakeRecorder{}
	r := New(opts, &out, zerolog.Nop()).WithRecorder(rec)

	ranked, err := r.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, ranked, 3)

	assert.Equal(t, "GGAL", ranked[0].Ticker)
	assert.Equal(t, 90, ranked[0].Score)
	assert.Equal(t, domain.TierStrongBuy, ranked[0].Tier)
	assert.Equal(t, "LOMA", ranked[1].Ticker)
	assert.Equal(t, "YPF", ranked[2].Ticker)
	assert.Len(t, rec.ranked, 3)

	data, err := os.ReadFile(opts.RecommendationsPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Ticker,Nombre,Precio,P/E Ratio (Trailing),ROE,Dividend Yield,Debt to Equity,Current Ratio,Score", lines[0])
	assert.Equal(t, "GGAL,Grupo Galicia,52.5,8,18%,5%,0.3,2,90", lines[1])
	assert.Equal(t, "YPF,YPF,Error,Error,Error,Error,Error,Error,0", lines[3])

	report := out.String()
	assert.Contains(t, report, "RECOMMENDED BUY (1 stocks):")
	assert.Contains(t, report, "Analysis saved to: "+opts.RecommendationsPath)
	assert.Contains(t, report, "Scores are out of 90.")
}

func TestRecommender_Run_MissingInput(t *testing.T) {
	opts := testOptions(t.TempDir())

	var out bytes.Buffer
	_, err := New(opts, &out, zerolog.Nop()).Run(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingInput))
	assert.Contains(t, err.Error(), "run cmd/fetcher first")
	assert.Empty(t, out.String())
	assert.NoFileExists(t, opts.RecommendationsPath)
}

func TestRecommender_Run_RecorderFailureIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions(dir)
	writeFundamentals(t, opts.FundamentalsPath)

	var out bytes.Buffer
	r := New(opts, &out, zerolog.Nop()).WithRecorder(&fakeRecorder{err: errors.New("db locked")})

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.FileExists(t, opts.RecommendationsPath)
}

func TestRecommender_Run_ReportsHistory(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions(dir)
	writeFundamentals(t, opts.FundamentalsPath)

	h := &fakeHistory{
		runs: []history.Run{
			{ID: "r2", Kind: history.KindRecommend, Source: "scoring"},
			{ID: "r1", Kind: history.KindFetch, Source: "yahoo", FinishedAt: time.Date(2025, 10, 17, 18, 30, 0, 0, time.UTC), Succeeded: 2, Failed: 1},
		},
		scores: map[string][]history.ScorePoint{
			"GGAL": {{Score: 40}, {Score: 75}},
			"YPF":  {{Score: 0}},
		},
	}

	var out bytes.Buffer
	_, err := New(opts, &out, zerolog.Nop()).WithRecorder(h).WithHistory(h).Run(context.Background())
	require.NoError(t, err)

	report := out.String()
	assert.Contains(t, report, "Data from the yahoo fetch of 2025-10-17 18:30 UTC (2 ok, 1 failed)")
	assert.Contains(t, report, "CHANGES SINCE LAST ANALYSIS")
	assert.Regexp(t, `GGAL\s+Grupo Galicia\s+75/90\s+90/90\s+\+15`, report)
	assert.Regexp(t, `LOMA\s+Loma Negra\s+-\s+0/90\s+new`, report)
	assert.Len(t, h.scores["GGAL"], 3)
}

func TestRecommender_Run_HistoryFailureIsNotFatal(t *testing.T) {
	dir := t.TempDir()
	opts := testOptions(dir)
	writeFundamentals(t, opts.FundamentalsPath)

	h := &fakeHistory{scores: map[string][]history.ScorePoint{}, err: errors.New("db locked")}

	var out bytes.Buffer
	ranked, err := New(opts, &out, zerolog.Nop()).WithHistory(h).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, ranked, 3)
	assert.NotContains(t, out.String(), "Data from the")
	assert.Contains(t, out.String(), "No earlier analysis recorded")
}
