// Package investing reads the historical-data table of Investing.com
// equity pages through a headless Chrome.
package investing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aristath/merval/internal/clients/htmltable"
	"github.com/aristath/merval/internal/domain"
	"github.com/aristath/merval/internal/prices"
	"github.com/chromedp/chromedp"
	"github.com/rs/zerolog"
)

const (
	historicalSuffix = "-historical-data"
	tableSelector    = `table[data-test="historical-data-table"], table.freeze-column-w-1, #curr_table`
	userAgent        = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// ErrParse is returned when the table could not be read as prices
var ErrParse = errors.New("could not parse historical table")

// Options configures the browser
type Options struct {
	Headless bool
	Timeout  time.Duration // per ticker
}

// Client owns one Chrome process for its lifetime; each ticker runs in its
// own tab.
type Client struct {
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
	startOnce     sync.Once
	startErr      error
	timeout       time.Duration
	log           zerolog.Logger
}

// NewClient starts the browser allocator. Chrome itself is launched lazily
// on the first History call.
func NewClient(opts Options, log zerolog.Logger) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 45 * time.Second
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	return &Client{
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
		timeout:       opts.Timeout,
		log:           log.With().Str("client", "investing").Logger(),
	}
}

// Close shuts the browser down
func (c *Client) Close() {
	c.browserCancel()
	c.allocCancel()
}

// HistoricalURL returns the historical-data page of an equity page
func HistoricalURL(pageURL string) string {
	pageURL = strings.TrimSuffix(pageURL, "/")
	if strings.HasSuffix(pageURL, historicalSuffix) {
		return pageURL
	}
	return pageURL + historicalSuffix
}

// start launches Chrome on the browser context. The browser lives as long
// as the context of its first Run, so no timeout is attached here.
func (c *Client) start() error {
	c.startOnce.Do(func() {
		if err := chromedp.Run(c.browserCtx); err != nil {
			c.startErr = fmt.Errorf("failed to start browser: %w", err)
			return
		}
		c.log.Debug().Msg("Browser started")
	})
	return c.startErr
}

// History loads the historical-data page of pageURL and parses its table
func (c *Client) History(ctx context.Context, ticker, pageURL string) ([]domain.PriceBar, error) {
	if err := c.start(); err != nil {
		return nil, err
	}

	tabCtx, cancelTab := chromedp.NewContext(c.browserCtx)
	defer cancelTab()
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, c.timeout)
	defer cancelTimeout()

	// chromedp contexts derive from the browser, not from ctx
	stop := context.AfterFunc(ctx, cancelTab)
	defer stop()

	target := HistoricalURL(pageURL)
	var html string
	err := chromedp.Run(tabCtx,
		chromedp.Navigate(target),
		chromedp.WaitVisible(tableSelector, chromedp.ByQuery),
		chromedp.OuterHTML(tableSelector, &html, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%s: %w", ticker, htmltable.ErrNoTable)
		}
		return nil, fmt.Errorf("failed to load %s: %w", target, err)
	}

	c.log.Debug().Str("ticker", ticker).Int("bytes", len(html)).Msg("Captured historical table")
	return ParseHistoricalTable(html)
}

// ParseHistoricalTable turns the captured table HTML into bars
func ParseHistoricalTable(html string) ([]domain.PriceBar, error) {
	table, err := htmltable.Parse(strings.NewReader(html), "table")
	if err != nil {
		return nil, err
	}

	bars, err := prices.ParseRows(table.Header, table.Rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no readable rows", ErrParse)
	}
	return bars, nil
}

// Status maps a History error to the run status
func Status(err error) domain.Status {
	switch {
	case err == nil:
		return domain.StatusOK
	case errors.Is(err, htmltable.ErrNoTable):
		return domain.StatusNoTable
	case errors.Is(err, ErrParse):
		return domain.StatusParseError
	default:
		return domain.StatusError
	}
}
