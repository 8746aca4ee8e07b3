// Package bolsamania downloads daily price history from bolsamania.com.
package bolsamania

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aristath/merval/internal/clients/htmltable"
	"github.com/aristath/merval/internal/domain"
	"github.com/aristath/merval/internal/prices"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the Bolsamania site root
const DefaultBaseURL = "https://www.bolsamania.com"

const (
	userAgent  = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	dateLayout = "02/01/2006"
)

var (
	// ErrEmpty is returned when the download has no data rows
	ErrEmpty = errors.New("empty csv download")
	// ErrParse is returned when the rows could not be read as prices
	ErrParse = errors.New("could not parse price rows")
)

// HTTPError is a non-200 response
type HTTPError struct {
	Code int
	URL  string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("bolsamania returned status %d for %s", e.Code, e.URL)
}

// Client downloads Bolsamania history
type Client struct {
	client  *http.Client
	baseURL string
	log     zerolog.Logger
}

// NewClient creates a new Bolsamania client. An empty baseURL uses the
// public site.
func NewClient(baseURL string, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		log:     log.With().Str("client", "bolsamania").Logger(),
	}
}

// DownloadURL builds the CSV download address for ticker and window
func (c *Client) DownloadURL(ticker string, from, to time.Time) string {
	params := url.Values{}
	params.Add("accion", ticker)
	params.Add("date_from", from.Format(dateLayout))
	params.Add("date_to", to.Format(dateLayout))
	return c.baseURL + "/descargar-historico/?" + params.Encode()
}

// DownloadHistory fetches daily bars for ticker between from and to. When
// the download endpoint answers with an HTML page instead of CSV, the first
// table of pageURL is scraped instead.
func (c *Client) DownloadHistory(ctx context.Context, ticker, pageURL string, from, to time.Time) ([]domain.PriceBar, error) {
	body, contentType, err := c.get(ctx, c.DownloadURL(ticker, from, to))
	if err != nil {
		return nil, err
	}

	if isHTML(contentType, body) {
		if pageURL == "" {
			return nil, fmt.Errorf("%s: %w", ticker, htmltable.ErrNoTable)
		}
		c.log.Debug().Str("ticker", ticker).Str("url", pageURL).Msg("Download returned HTML, scraping price page")
		return c.scrapeHistory(ctx, pageURL)
	}

	return parseCSV(body)
}

func (c *Client) scrapeHistory(ctx context.Context, pageURL string) ([]domain.PriceBar, error) {
	body, _, err := c.get(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	table, err := htmltable.Parse(bytes.NewReader(body), "table")
	if err != nil {
		return nil, err
	}
	if len(table.Rows) == 0 {
		return nil, ErrEmpty
	}
	return toBars(table.Header, table.Rows)
}

func (c *Client) get(ctx context.Context, reqURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &HTTPError{Code: resp.StatusCode, URL: reqURL}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read response body: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

func isHTML(contentType string, body []byte) bool {
	if strings.Contains(contentType, "text/html") {
		return true
	}
	trimmed := bytes.TrimSpace(body)
	return bytes.HasPrefix(trimmed, []byte("<"))
}

// parseCSV reads the download body. Blank lines are dropped; anything short
// of a header plus one data line is empty.
func parseCSV(body []byte) ([]domain.PriceBar, error) {
	lines := make([]string, 0)
	for _, line := range strings.Split(string(body), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, strings.TrimRight(line, "\r"))
		}
	}
	if len(lines) < 2 {
		return nil, ErrEmpty
	}

	r := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	r.Comma = delimiter(lines[0])
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return toBars(records[0], records[1:])
}

func toBars(header []string, rows [][]string) ([]domain.PriceBar, error) {
	bars, err := prices.ParseRows(header, rows)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: no readable rows", ErrParse)
	}
	return bars, nil
}

// delimiter guesses between the semicolon used by Spanish exports and a comma
func delimiter(header string) rune {
	if strings.Count(header, ";") > strings.Count(header, ",") {
		return ';'
	}
	if strings.Count(header, "\t") > strings.Count(header, ",") {
		return '\t'
	}
	return ','
}

// Status maps a DownloadHistory error to the run status
func Status(err error) domain.Status {
	var httpErr *HTTPError
	switch {
	case err == nil:
		return domain.StatusOK
	case errors.As(err, &httpErr):
		return domain.HTTPStatus(httpErr.Code)
	case errors.Is(err, ErrEmpty):
		return domain.StatusEmpty
	case errors.Is(err, ErrParse):
		return domain.StatusParseError
	case errors.Is(err, htmltable.ErrNoTable):
		return domain.StatusNoTable
	default:
		return domain.StatusError
	}
}
