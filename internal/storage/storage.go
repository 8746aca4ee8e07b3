// Package storage reads and writes the CSV files shared by the fetchers and
// the recommender.
package storage

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/merval/internal/domain"
	"github.com/gocarina/gocsv"
)

// ErrEmptyFile is returned when a CSV file has no header
var ErrEmptyFile = errors.New("csv file is empty")

// priceFloat renders prices with 8 decimals; NaN is written as an empty cell
type priceFloat float64

func (p priceFloat) MarshalCSV() (string, error) {
	if math.IsNaN(float64(p)) {
		return "", nil
	}
	return strconv.FormatFloat(float64(p), 'f', 8, 64), nil
}

func (p *priceFloat) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*p = priceFloat(math.NaN())
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", s, err)
	}
	*p = priceFloat(v)
	return nil
}

type priceRow struct {
	Date     string     `csv:"fecha"`
	Open     priceFloat `csv:"Open"`
	High     priceFloat `csv:"High"`
	Low      priceFloat `csv:"Low"`
	Close    priceFloat `csv:"Close"`
	AdjClose priceFloat `csv:"Adj Close"`
	Volume   int64      `csv:"Volume"`
}

type recommendationRow struct {
	Ticker        string         `csv:"Ticker"`
	Name          string         `csv:"Nombre"`
	Price         domain.Metric  `csv:"Precio"`
	TrailingPE    domain.Metric  `csv:"P/E Ratio (Trailing)"`
	ROE           domain.Percent `csv:"ROE"`
	DividendYield domain.Percent `csv:"Dividend Yield"`
	DebtToEquity  domain.Metric  `csv:"Debt to Equity"`
	CurrentRatio  domain.Metric  `csv:"Current Ratio"`
	Score         int            `csv:"Score"`
}

// FileInfo describes a generated file
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// EnsureDir creates dir and its parents if needed
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// WritePrices writes bars to path, one row per day, creating the directory
func WritePrices(path string, bars []domain.PriceBar) error {
	rows := make([]priceRow, 0, len(bars))
	for _, b := range bars {
		rows = append(rows, priceRow{
			Date:     b.Date.Format(domain.DateLayout),
			Open:     priceFloat(b.Open),
			High:     priceFloat(b.High),
			Low:      priceFloat(b.Low),
			Close:    priceFloat(b.Close),
			AdjClose: priceFloat(b.AdjClose),
			Volume:   b.Volume,
		})
	}
	return writeCSV(path, &rows)
}

// ReadPrices reads a file written by WritePrices
func ReadPrices(path string) ([]domain.PriceBar, error) {
	var rows []priceRow
	if err := readCSV(path, &rows); err != nil {
		return nil, err
	}

	bars := make([]domain.PriceBar, 0, len(rows))
	for _, r := range rows {
		date, err := time.Parse(domain.DateLayout, r.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q in %s: %w", r.Date, path, err)
		}
		bars = append(bars, domain.PriceBar{
			Date:     date,
			Open:     float64(r.Open),
			High:     float64(r.High),
			Low:      float64(r.Low),
			Close:    float64(r.Close),
			AdjClose: float64(r.AdjClose),
			Volume:   r.Volume,
		})
	}
	return bars, nil
}

// WriteFundamentals writes the consolidated fundamentals table
func WriteFundamentals(path string, records []domain.FundamentalsRecord) error {
	return writeCSV(path, &records)
}

// ReadFundamentals reads the consolidated fundamentals table. A missing
// file is reported with an error wrapping os.ErrNotExist.
func ReadFundamentals(path string) ([]domain.FundamentalsRecord, error) {
	var records []domain.FundamentalsRecord
	if err := readCSV(path, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// WriteRecommendations writes the ranked summary table
func WriteRecommendations(path string, ranked []domain.ScoredRecord) error {
	rows := make([]recommendationRow, 0, len(ranked))
	for _, r := range ranked {
		rows = append(rows, recommendationRow{
			Ticker:        r.Ticker,
			Name:          r.Name,
			Price:         r.Price,
			TrailingPE:    r.TrailingPE,
			ROE:           r.ROE,
			DividendYield: r.DividendYield,
			DebtToEquity:  r.DebtToEquity,
			CurrentRatio:  r.CurrentRatio,
			Score:         r.Score,
		})
	}
	return writeCSV(path, &rows)
}

// ListCSV lists the files in dir matching pattern (default "*.csv"),
// sorted by name. A missing directory yields an empty list.
func ListCSV(dir, pattern string) ([]FileInfo, error) {
	if pattern == "" {
		pattern = "*.csv"
	}
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	files := make([]FileInfo, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, FileInfo{Name: info.Name(), Path: m, Size: info.Size()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func writeCSV(path string, rows interface{}) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.MarshalFile(rows, f); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

func readCSV(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	if err := gocsv.UnmarshalFile(f, out); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return fmt.Errorf("%s: %w", path, ErrEmptyFile)
		}
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}
