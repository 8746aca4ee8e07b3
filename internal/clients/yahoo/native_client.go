package yahoo

import (
	"context"
	"fmt"
	"time"

	"github.com/aristath/merval/internal/domain"
	"github.com/rs/zerolog"
	"github.com/wnjoon/go-yfinance/pkg/models"
	"github.com/wnjoon/go-yfinance/pkg/ticker"
)

// NativeClient implements Provider on top of the go-yfinance library.
// Beta, ROA, EPS and quick ratio are not exposed there and stay N/A.
type NativeClient struct {
	log zerolog.Logger
}

// NewNativeClient creates a new native Yahoo Finance client
func NewNativeClient(log zerolog.Logger) *NativeClient {
	return &NativeClient{
		log: log.With().Str("client", "yahoo-native").Logger(),
	}
}

// historyPeriod picks the smallest Yahoo range that covers start
func historyPeriod(start, end time.Time) string {
	span := end.Sub(start)
	year := 366 * 24 * time.Hour
	switch {
	case span <= year:
		return "1y"
	case span <= 2*year:
		return "2y"
	case span <= 5*year:
		return "5y"
	case span <= 10*year:
		return "10y"
	default:
		return "max"
	}
}

// GetHistoricalPrices fetches daily bars and keeps those within [start, end]
func (c *NativeClient) GetHistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]domain.PriceBar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	params := models.HistoryParams{
		Period:     historyPeriod(start, end),
		Interval:   "1d",
		AutoAdjust: false,
	}

	bars, err := t.History(params)
	if err != nil {
		return nil, fmt.Errorf("failed to get historical prices: %w", err)
	}

	from, to := tradingDay(start), tradingDay(end)
	out := make([]domain.PriceBar, 0, len(bars))
	for _, bar := range bars {
		day := tradingDay(bar.Date)
		if day.Before(from) || day.After(to) {
			continue
		}
		out = append(out, domain.PriceBar{
			Date:     day,
			Open:     bar.Open,
			High:     bar.High,
			Low:      bar.Low,
			Close:    bar.Close,
			AdjClose: bar.AdjClose,
			Volume:   int64(bar.Volume),
		})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	return out, nil
}

// GetFundamentalData fetches the fundamentals snapshot
func (c *NativeClient) GetFundamentalData(ctx context.Context, symbol string) (*FundamentalData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t, err := ticker.New(symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to create ticker: %w", err)
	}
	defer t.Close()

	info, err := t.Info()
	if err != nil {
		return nil, fmt.Errorf("failed to get info: %w", err)
	}
	if info == nil {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}

	fd := &FundamentalData{Symbol: symbol}

	// Copy values before taking addresses; the library may reuse buffers
	if info.LongName != "" {
		name := info.LongName
		fd.Name = &name
	} else if info.ShortName != "" {
		name := info.ShortName
		fd.Name = &name
	}

	price := info.CurrentPrice
	if price == 0 {
		price = info.RegularMarketPreviousClose
	}
	fd.Price = positive(price)
	fd.TrailingPE = nonZero(info.TrailingPE)
	fd.ForwardPE = nonZero(info.ForwardPE)
	fd.ROE = nonZero(info.ReturnOnEquity)
	fd.PriceToBook = positive(info.PriceToBook)
	fd.DividendYield = positive(info.DividendYield)
	fd.DebtToEquity = positive(info.DebtToEquity)
	fd.CurrentRatio = positive(info.CurrentRatio)
	if info.MarketCap > 0 {
		marketCap := int64(info.MarketCap)
		fd.MarketCap = &marketCap
	}

	return fd, nil
}

func nonZero(v float64) *float64 {
	if v == 0 {
		return nil
	}
	return &v
}

func positive(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}
