package storage

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aristath/merval/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndReadPrices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "MERVAL_Datos_Limpio", "GGAL_precios_5A.csv")
	bars := []domain.PriceBar{
		{
			Date:     time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC),
			Open:     10.5,
			High:     11,
			Low:      10,
			Close:    10.75,
			AdjClose: 10.7,
			Volume:   12345,
		},
		{
			Date:     time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC),
			Open:     10.8,
			High:     math.NaN(),
			Low:      10.6,
			Close:    10.9,
			AdjClose: 10.9,
		},
	}

	require.NoError(t, WritePrices(path, bars))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "fecha,Open,High,Low,Close,Adj Close,Volume", lines[0])
	assert.Equal(t, "2024-03-07,10.50000000,11.00000000,10.00000000,10.75000000,10.70000000,12345", lines[1])
	assert.Equal(t, "2024-03-08,10.80000000,,10.60000000,10.90000000,10.90000000,0", lines[2])

	read, err := ReadPrices(path)
	require.NoError(t, err)
	require.Len(t, read, 2)
	assert.Equal(t, bars[0], read[0])
	assert.True(t, math.IsNaN(read[1].High))
	assert.Equal(t, 10.9, read[1].Close)
}

func TestWriteAndReadFundamentals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "MERVAL_Fundamentales", "MERVAL_Fundamentales_Completo.csv")

	ggal := domain.NewFundamentalsRecord("GGAL", "Grupo Financiero Galicia")
	ggal.Price = domain.Value(45.2)
	ggal.TrailingPE = domain.Value(8.5)
	ggal.ROE = domain.PercentValue(18.25)
	ggal.DividendYield = domain.PercentValue(3.1)
	ggal.DebtToEquity = domain.Value(0.45)
	ggal.MarketCap = domain.Value(6.5e9)

	records := []domain.FundamentalsRecord{ggal, domain.ErrorRecord("LOMA", "Loma Negra")}
	require.NoError(t, WriteFundamentals(path, records))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Ticker,Nombre,Precio,P/E Ratio (Trailing),P/E Ratio (Forward),ROE,ROA,P/B Ratio,Dividend Yield,Market Cap,Beta,EPS (Trailing),Debt to Equity,Current Ratio,Quick Ratio", lines[0])
	assert.Equal(t, "GGAL,Grupo Financiero Galicia,45.2,8.5,N/A,18.25%,N/A,N/A,3.1%,6500000000,N/A,N/A,0.45,N/A,N/A", lines[1])
	assert.Equal(t, "LOMA,Loma Negra,Error,Error,Error,Error,Error,Error,Error,Error,Error,Error,Error,Error,Error", lines[2])

	read, err := ReadFundamentals(path)
	require.NoError(t, err)
	require.Len(t, read, 2)

	pe, ok := read[0].TrailingPE.Float64()
	assert.True(t, ok)
	assert.Equal(t, 8.5, pe)
	roe, ok := read[0].ROE.Float64()
	assert.True(t, ok)
	assert.Equal(t, 18.25, roe)
	assert.False(t, read[0].CurrentRatio.Available())
	assert.Equal(t, "N/A", read[0].CurrentRatio.String())

	assert.True(t, read[1].Failed())
	assert.True(t, read[1].ROE.IsError())
}

func TestReadFundamentals_MissingFile(t *testing.T) {
	_, err := ReadFundamentals(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadFundamentals_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	_, err := ReadFundamentals(path)
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestWriteRecommendations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "MERVAL_Analisis_Recomendaciones.csv")

	rec := domain.NewFundamentalsRecord("BMA", "Banco Macro")
	rec.Price = domain.Value(60)
	rec.TrailingPE = domain.Value(6)
	rec.ROE = domain.PercentValue(22)
	ranked := []domain.ScoredRecord{{FundamentalsRecord: rec, Score: 45, Tier: domain.TierModerateBuy}}

	require.NoError(t, WriteRecommendations(path, ranked))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Ticker,Nombre,Precio,P/E Ratio (Trailing),ROE,Dividend Yield,Debt to Equity,Current Ratio,Score", lines[0])
	assert.Equal(t, "BMA,Banco Macro,60,6,22%,N/A,N/A,N/A,45", lines[1])
}

func TestListCSV(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_6M.csv"), []byte("abc"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_6M.csv"), []byte("a"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.csv"), 0755))

	files, err := ListCSV(dir, "")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a_6M.csv", files[0].Name)
	assert.Equal(t, int64(1), files[0].Size)
	assert.Equal(t, "b_6M.csv", files[1].Name)
	assert.Equal(t, int64(3), files[1].Size)

	files, err = ListCSV(filepath.Join(dir, "missing"), "*_6M.csv")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir))
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
