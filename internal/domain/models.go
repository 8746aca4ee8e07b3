// Package domain holds the records passed between the fetchers, the CSV
// files and the recommender.
package domain

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the date format of every price file
const DateLayout = "2006-01-02"

// FundamentalsRecord is one row of the consolidated fundamentals table.
// It is produced once per fetch run and never modified afterwards.
type FundamentalsRecord struct {
	Ticker        string  `csv:"Ticker"`
	Name          string  `csv:"Nombre"`
	Price         Metric  `csv:"Precio"`
	TrailingPE    Metric  `csv:"P/E Ratio (Trailing)"`
	ForwardPE     Metric  `csv:"P/E Ratio (Forward)"`
	ROE           Percent `csv:"ROE"`
	ROA           Percent `csv:"ROA"`
	PriceToBook   Metric  `csv:"P/B Ratio"`
	DividendYield Percent `csv:"Dividend Yield"`
	MarketCap     Metric  `csv:"Market Cap"`
	Beta          Metric  `csv:"Beta"`
	TrailingEPS   Metric  `csv:"EPS (Trailing)"`
	DebtToEquity  Metric  `csv:"Debt to Equity"`
	CurrentRatio  Metric  `csv:"Current Ratio"`
	QuickRatio    Metric  `csv:"Quick Ratio"`
}

// NewFundamentalsRecord returns a record with every metric N/A
func NewFundamentalsRecord(ticker, name string) FundamentalsRecord {
	na := NotAvailable()
	naPct := Percent{na}
	return FundamentalsRecord{
		Ticker:        ticker,
		Name:          name,
		Price:         na,
		TrailingPE:    na,
		ForwardPE:     na,
		ROE:           naPct,
		ROA:           naPct,
		PriceToBook:   na,
		DividendYield: naPct,
		MarketCap:     na,
		Beta:          na,
		TrailingEPS:   na,
		DebtToEquity:  na,
		CurrentRatio:  na,
		QuickRatio:    na,
	}
}

// ErrorRecord is the row recorded when the snapshot for a ticker could not
// be fetched: every metric carries the Error sentinel.
func ErrorRecord(ticker, name string) FundamentalsRecord {
	e := Failed()
	ePct := Percent{e}
	return FundamentalsRecord{
		Ticker:        ticker,
		Name:          name,
		Price:         e,
		TrailingPE:    e,
		ForwardPE:     e,
		ROE:           ePct,
		ROA:           ePct,
		PriceToBook:   e,
		DividendYield: ePct,
		MarketCap:     e,
		Beta:          e,
		TrailingEPS:   e,
		DebtToEquity:  e,
		CurrentRatio:  e,
		QuickRatio:    e,
	}
}

// Failed reports whether the record is an error row
func (r FundamentalsRecord) Failed() bool {
	return r.Price.IsError() && r.TrailingPE.IsError()
}

// PriceBar is one daily OHLCV bar
type PriceBar struct {
	Date     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   int64
}

// Tier is the presentation bucket derived from a score
type Tier string

const (
	TierStrongBuy   Tier = "strong buy"
	TierModerateBuy Tier = "moderate buy"
	TierConsider    Tier = "consider"
	TierAvoid       Tier = "avoid"
)

// Label is the upper-case banner used in the console report
func (t Tier) Label() string {
	return strings.ToUpper(string(t))
}

// ScoredRecord is a fundamentals row with its derived score. It is never
// written back into the fundamentals file.
type ScoredRecord struct {
	FundamentalsRecord
	Score int
	Tags  []string
	Tier  Tier
}

// Status is the outcome of fetching one ticker
type Status string

const (
	StatusOK         Status = "OK"
	StatusNoData     Status = "Sin datos"
	StatusEmpty      Status = "Vacío"
	StatusError      Status = "Error"
	StatusParseError Status = "Parse error"
	StatusNoTable    Status = "Sin tabla"
)

// HTTPStatus renders a non-200 response code as a status
func HTTPStatus(code int) Status {
	return Status("HTTP " + strconv.Itoa(code))
}

// Failed reports whether the status counts as a failure in run summaries
func (s Status) Failed() bool {
	return s == StatusError || strings.HasPrefix(string(s), "HTTP ")
}

// Warning reports whether the status is a soft failure (no usable data)
func (s Status) Warning() bool {
	switch s {
	case StatusNoData, StatusEmpty, StatusParseError, StatusNoTable:
		return true
	}
	return false
}

// PriceSummary condenses a cleaned price series for the run report
type PriceSummary struct {
	Start      time.Time
	End        time.Time
	LastClose  float64
	MinLow     float64
	MaxHigh    float64
	ChangePct  float64
	AvgClose   float64
	Volatility *float64 // annualized, nil with fewer than two returns
	SMA50      *float64
	EMA20      *float64
	RSI14      *float64
}

// TickerResult is one line of a fetch run summary
type TickerResult struct {
	Ticker  string
	Name    string
	Status  Status
	Rows    int
	File    string
	Summary *PriceSummary
	Err     error
}
