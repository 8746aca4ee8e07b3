package fetcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/aristath/merval/internal/clients/yahoo"
	"github.com/aristath/merval/internal/domain"
	"github.com/aristath/merval/internal/modules/universe"
	"github.com/aristath/merval/internal/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	mu           sync.Mutex
	history      map[string][]error // errors returned per attempt, then success
	fundamentals map[string]error
	bars         []domain.PriceBar
	historyCalls map[string]int
	fundCalls    map[string]int
}

func newFakeProvider() *fakeProvider {
	day := time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC)
	return &fakeProvider{
		history:      map[string][]error{},
		fundamentals: map[string]error{},
		historyCalls: map[string]int{},
		fundCalls:    map[string]int{},
		bars: []domain.PriceBar{
			{Date: day.AddDate(0, 0, 1), Open: 11, High: 12, Low: 10, Close: 11.5, AdjClose: 11.5, Volume: 10},
			{Date: day, Open: 10, High: 11, Low: 9, Close: 10.5, AdjClose: 10.5, Volume: 20},
		},
	}
}

func (f *fakeProvider) GetHistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]domain.PriceBar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.historyCalls[symbol]
	f.historyCalls[symbol]++
	if errs := f.history[symbol]; n < len(errs) {
		return nil, errs[n]
	}
	return f.bars, nil
}

func (f *fakeProvider) GetFundamentalData(ctx context.Context, symbol string) (*yahoo.FundamentalData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fundCalls[symbol]++
	if err := f.fundamentals[symbol]; err != nil {
		return nil, err
	}
	pe := 8.0
	roe := 0.18
	return &yahoo.FundamentalData{Symbol: symbol, TrailingPE: &pe, ROE: &roe}, nil
}

type fakeRecorder struct {
	source  string
	results []domain.TickerResult
	records []domain.FundamentalsRecord
	err     error
}

func (r *fakeRecorder) SaveFetchRun(ctx context.Context, source string, startedAt time.Time, results []domain.TickerResult, records []domain.FundamentalsRecord) (string, error) {
	r.source = source
	r.results = results
	r.records = records
	return "run-1", r.err
}

type fakePublisher struct {
	paths []string
	err   error
}

func (p *fakePublisher) Publish(ctx context.Context, paths []string) error {
	p.paths = paths
	return p.err
}

func testOptions(dir string) Options {
	return Options{
		Policy: Policy{
			MaxAttempts: 2,
			RetryDelay:  time.Millisecond,
		},
		PricesDir:        filepath.Join(dir, "MERVAL_Datos_Limpio"),
		FundamentalsPath: filepath.Join(dir, "MERVAL_Fundamentales", "MERVAL_Fundamentales_Completo.csv"),
		HistoryYears:     5,
	}
}

var testTickers = []universe.Security{
	{Symbol: "GGAL", Name: "Grupo Galicia"},
	{Symbol: "YPF", Name: "YPF"},
	{Symbol: "BMA", Name: "Banco Macro"},
}

func TestPipeline_Run_AllSucceed(t *testing.T) {
	dir := t.TempDir()
	provider := newFakeProvider()
	pipeline := NewPipeline(provider, testOptions(dir), zerolog.Nop())

	result, err := pipeline.Run(context.Background(), testTickers)
	require.NoError(t, err)

	require.Len(t, result.Results, 3)
	assert.Equal(t, 3, result.Succeeded())
	for _, tr := range result.Results {
		assert.Equal(t, domain.StatusOK, tr.Status)
		assert.Equal(t, 2, tr.Rows)
		require.NotNil(t, tr.Summary)
	}
	assert.Equal(t, "GGAL_precios_5A.csv", result.Results[0].File)

	bars, err := storage.ReadPrices(filepath.Join(dir, "MERVAL_Datos_Limpio", "GGAL_precios_5A.csv"))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.True(t, bars[0].Date.Before(bars[1].Date), "bars are sorted")

	records, err := storage.ReadFundamentals(result.FundamentalsFile)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"GGAL", "YPF", "BMA"}, []string{records[0].Ticker, records[1].Ticker, records[2].Ticker})
	assert.Equal(t, "18%", records[0].ROE.String())

	assert.Len(t, result.Files, 4)
}

func TestPipeline_Run_FailingTickerDoesNotStopOthers(t *testing.T) {
	dir := t.TempDir()
	provider := newFakeProvider()
	boom := errors.New("connection reset")
	provider.history["YPF"] = []error{boom, boom, boom}
	provider.history["BMA"] = []error{yahoo.ErrNoData, yahoo.ErrNoData}

	result, err := NewPipeline(provider, testOptions(dir), zerolog.Nop()).Run(context.Background(), testTickers)
	require.NoError(t, err)

	require.Len(t, result.Results, 3)
	assert.Equal(t, domain.StatusOK, result.Results[0].Status)
	assert.Equal(t, domain.StatusError, result.Results[1].Status)
	assert.Equal(t, "-", result.Results[1].File)
	assert.ErrorIs(t, result.Results[1].Err, boom)
	assert.Equal(t, domain.StatusNoData, result.Results[2].Status)

	assert.Equal(t, 1, result.Succeeded())
	assert.Equal(t, 1, result.Failed())
	assert.Equal(t, 1, result.Warnings())

	// MaxAttempts bounds the calls per ticker
	assert.Equal(t, 2, provider.historyCalls["YPF"])
	assert.Equal(t, 2, provider.historyCalls["BMA"])
	// fundamentals are only fetched when history succeeded
	assert.Equal(t, 0, provider.fundCalls["YPF"])

	records, err := storage.ReadFundamentals(result.FundamentalsFile)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "GGAL", records[0].Ticker)
}

func TestPipeline_Run_RetryRecovers(t *testing.T) {
	dir := t.TempDir()
	provider := newFakeProvider()
	provider.history["GGAL"] = []error{errors.New("timeout")}

	result, err := NewPipeline(provider, testOptions(dir), zerolog.Nop()).Run(context.Background(), testTickers[:1])
	require.NoError(t, err)
	assert.Equal(t, domain.StatusOK, result.Results[0].Status)
	assert.Equal(t, 2, provider.historyCalls["GGAL"])
}

func TestPipeline_Run_FundamentalsFailureRecordsErrorRow(t *testing.T) {
	dir := t.TempDir()
	provider := newFakeProvider()
	provider.fundamentals["YPF"] = errors.New("quote unavailable")

	result, err := NewPipeline(provider, testOptions(dir), zerolog.Nop()).Run(context.Background(), testTickers)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusOK, result.Results[1].Status, "ticker status stays OK")
	assert.Equal(t, 2, provider.fundCalls["YPF"])

	records, err := storage.ReadFundamentals(result.FundamentalsFile)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.True(t, records[1].Failed())
	assert.Equal(t, "YPF", records[1].Ticker)
	assert.Equal(t, "YPF", records[1].Name)
	assert.False(t, records[0].Failed())
}

func TestPipeline_Run_EmptyAfterCleaning(t *testing.T) {
	dir := t.TempDir()
	provider := newFakeProvider()
	provider.bars = []domain.PriceBar{{Date: time.Now()}}
	provider.bars[0].Open = nan()

	result, err := NewPipeline(provider, testOptions(dir), zerolog.Nop()).Run(context.Background(), testTickers[:1])
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEmpty, result.Results[0].Status)
	assert.Empty(t, result.FundamentalsFile)

	_, err = os.Stat(filepath.Join(dir, "MERVAL_Fundamentales", "MERVAL_Fundamentales_Completo.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestPipeline_Run_Sinks(t *testing.T) {
	dir := t.TempDir()
	recorder := &fakeRecorder{}
	publisher := &fakePublisher{err: errors.New("bucket missing")}

	result, err := NewPipeline(newFakeProvider(), testOptions(dir), zerolog.Nop()).
		WithRecorder(recorder).
		WithPublisher(publisher).
		Run(context.Background(), testTickers[:2])
	require.NoError(t, err, "sink failures are not fatal")

	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, "yahoo", recorder.source)
	assert.Len(t, recorder.results, 2)
	assert.Len(t, recorder.records, 2)
	assert.Equal(t, result.Files, publisher.paths)
}

func TestPipeline_Run_Cancelled(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewPipeline(newFakeProvider(), testOptions(dir), zerolog.Nop()).Run(ctx, testTickers)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Empty(t, result.Results)
}

func TestPipeline_Run_OutputDirFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	opts := testOptions(dir)
	opts.PricesDir = filepath.Join(blocker, "prices")

	_, err := NewPipeline(newFakeProvider(), opts, zerolog.Nop()).Run(context.Background(), testTickers)
	assert.Error(t, err)
}

func TestPipeline_PriceFileName(t *testing.T) {
	p := NewPipeline(newFakeProvider(), Options{}, zerolog.Nop())
	assert.Equal(t, "GGAL_precios_5A.csv", p.PriceFileName("GGAL"))

	p = NewPipeline(newFakeProvider(), Options{HistoryYears: 3}, zerolog.Nop())
	assert.Equal(t, "GGAL_precios_3A.csv", p.PriceFileName("GGAL"))
}
