// Package yahoo fetches daily history and fundamentals snapshots from
// Yahoo Finance.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/merval/internal/domain"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the public Yahoo Finance API root
const DefaultBaseURL = "https://query1.finance.yahoo.com"

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

var quoteFields = []string{
	"longName", "shortName", "regularMarketPrice", "currentPrice",
	"trailingPE", "forwardPE", "returnOnEquity", "returnOnAssets",
	"priceToBook", "dividendYield", "marketCap", "beta",
	"epsTrailingTwelveMonths", "trailingEps", "debtToEquity",
	"currentRatio", "quickRatio",
}

// Client is a Yahoo Finance HTTP/JSON client
type Client struct {
	client  *http.Client
	baseURL string
	log     zerolog.Logger
}

// NewClient creates a new Yahoo Finance client. An empty baseURL uses the
// public API.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		log:     log.With().Str("client", "yahoo").Logger(),
	}
}

// yahooQuoteResponse represents the response from the quote API
type yahooQuoteResponse struct {
	QuoteResponse struct {
		Result []map[string]interface{} `json:"result"`
		Error  interface{}              `json:"error"`
	} `json:"quoteResponse"`
}

// yahooChartResponse represents the response from the chart API. Quote
// arrays hold nulls for days without a print.
type yahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error interface{} `json:"error"`
	} `json:"chart"`
}

// GetHistoricalPrices fetches daily bars between start and end. Null
// entries come back as NaN so that cleaning drops them.
func (c *Client) GetHistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]domain.PriceBar, error) {
	params := url.Values{}
	params.Add("period1", strconv.FormatInt(start.Unix(), 10))
	params.Add("period2", strconv.FormatInt(end.Unix(), 10))
	params.Add("interval", "1d")
	params.Add("events", "div,splits")

	reqURL := c.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol) + "?" + params.Encode()

	var result yahooChartResponse
	if err := c.getJSON(ctx, reqURL, &result); err != nil {
		return nil, fmt.Errorf("failed to fetch historical data for %s: %w", symbol, err)
	}

	if result.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart error for %s: %v", symbol, result.Chart.Error)
	}
	if len(result.Chart.Result) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}

	chart := result.Chart.Result[0]
	if len(chart.Timestamp) == 0 || len(chart.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}

	loc := time.UTC
	if chart.Meta.ExchangeTimezoneName != "" {
		if l, err := time.LoadLocation(chart.Meta.ExchangeTimezoneName); err == nil {
			loc = l
		}
	}

	quote := chart.Indicators.Quote[0]
	var adjClose []*float64
	if len(chart.Indicators.AdjClose) > 0 {
		adjClose = chart.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]domain.PriceBar, 0, len(chart.Timestamp))
	for i, ts := range chart.Timestamp {
		closePrice := at(quote.Close, i)
		adj := at(adjClose, i)
		if math.IsNaN(adj) {
			adj = closePrice
		}

		var volume int64
		if v := at(quote.Volume, i); !math.IsNaN(v) {
			volume = int64(v)
		}

		bars = append(bars, domain.PriceBar{
			Date:     tradingDay(time.Unix(ts, 0).In(loc)),
			Open:     at(quote.Open, i),
			High:     at(quote.High, i),
			Low:      at(quote.Low, i),
			Close:    closePrice,
			AdjClose: adj,
			Volume:   volume,
		})
	}

	c.log.Debug().
		Str("symbol", symbol).
		Int("count", len(bars)).
		Msg("Fetched historical prices")

	return bars, nil
}

// GetFundamentalData fetches the fundamentals snapshot for a symbol
func (c *Client) GetFundamentalData(ctx context.Context, symbol string) (*FundamentalData, error) {
	info, err := c.getQuoteInfo(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get quote info: %w", err)
	}

	price := getFloat64(info, "currentPrice")
	if price == nil {
		price = getFloat64(info, "regularMarketPrice")
	}
	eps := getFloat64(info, "trailingEps")
	if eps == nil {
		eps = getFloat64(info, "epsTrailingTwelveMonths")
	}
	name := getStringPtr(info, "longName")
	if name == nil {
		name = getStringPtr(info, "shortName")
	}

	return &FundamentalData{
		Symbol:        symbol,
		Name:          name,
		Price:         price,
		TrailingPE:    getFloat64(info, "trailingPE"),
		ForwardPE:     getFloat64(info, "forwardPE"),
		ROE:           getFloat64(info, "returnOnEquity"),
		ROA:           getFloat64(info, "returnOnAssets"),
		PriceToBook:   getFloat64(info, "priceToBook"),
		DividendYield: getFloat64(info, "dividendYield"),
		MarketCap:     getInt64(info, "marketCap"),
		Beta:          getFloat64(info, "beta"),
		TrailingEPS:   eps,
		DebtToEquity:  getFloat64(info, "debtToEquity"),
		CurrentRatio:  getFloat64(info, "currentRatio"),
		QuickRatio:    getFloat64(info, "quickRatio"),
	}, nil
}

func (c *Client) getQuoteInfo(ctx context.Context, symbol string) (map[string]interface{}, error) {
	params := url.Values{}
	params.Add("symbols", symbol)
	params.Add("fields", strings.Join(quoteFields, ","))

	reqURL := c.baseURL + "/v7/finance/quote?" + params.Encode()

	var result yahooQuoteResponse
	if err := c.getJSON(ctx, reqURL, &result); err != nil {
		return nil, err
	}

	if result.QuoteResponse.Error != nil {
		return nil, fmt.Errorf("yahoo quote error: %v", result.QuoteResponse.Error)
	}
	if len(result.QuoteResponse.Result) == 0 {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}

	return result.QuoteResponse.Result[0], nil
}

func (c *Client) getJSON(ctx context.Context, reqURL string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	// Yahoo rejects requests without a browser user agent
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("yahoo returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// tradingDay keeps the exchange-local calendar day as a UTC midnight
func tradingDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return math.NaN()
	}
	return *values[i]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func getFloat64(m map[string]interface{}, key string) *float64 {
	if val, ok := m[key]; ok && val != nil {
		switch v := val.(type) {
		case float64:
			return &v
		case map[string]interface{}:
			// some endpoints wrap numbers as {"raw": 1.23, "fmt": "1.23"}
			return getFloat64(v, "raw")
		}
	}
	return nil
}

func getInt64(m map[string]interface{}, key string) *int64 {
	if f := getFloat64(m, key); f != nil {
		i := int64(*f)
		return &i
	}
	return nil
}

func getStringPtr(m map[string]interface{}, key string) *string {
	if val, ok := m[key]; ok && val != nil {
		if s, ok := val.(string); ok && s != "" {
			return &s
		}
	}
	return nil
}
