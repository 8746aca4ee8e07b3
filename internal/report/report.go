// Package report renders run summaries and recommendations as plain-text
// console tables.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/aristath/merval/internal/domain"
	"github.com/aristath/merval/internal/storage"
	"github.com/dustin/go-humanize"
)

const ruleWidth = 90

// Printer writes report sections to w. The first write error is kept and
// later writes are skipped.
type Printer struct {
	w   io.Writer
	err error
}

// New creates a printer writing to w
func New(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Err returns the first write error
func (p *Printer) Err() error {
	return p.err
}

// Printf writes a free-form line
func (p *Printer) Printf(format string, args ...interface{}) {
	p.printf(format, args...)
}

func (p *Printer) printf(format string, args ...interface{}) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) table(write func(tw *tabwriter.Writer)) {
	if p.err != nil {
		return
	}
	tw := tabwriter.NewWriter(p.w, 0, 0, 2, ' ', 0)
	write(tw)
	if err := tw.Flush(); err != nil {
		p.err = err
	}
}

// Banner prints a ruled section title
func (p *Printer) Banner(title string) {
	rule := strings.Repeat("=", ruleWidth)
	p.printf("\n%s\n%s\n%s\n\n", rule, title, rule)
}

// RunSummary prints one line per ticker with its status, row count and
// file, plus the price summary when there is one.
func (p *Printer) RunSummary(results []domain.TickerResult) {
	p.table(func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "Ticker\tNombre\tStatus\tDatos\tArchivo\tInicio\tFin\tPrecio\tVar%")
		for _, r := range results {
			start, end, last, change := "-", "-", "-", "-"
			if s := r.Summary; s != nil {
				start = s.Start.Format(domain.DateLayout)
				end = s.End.Format(domain.DateLayout)
				last = strconv.FormatFloat(s.LastClose, 'f', 2, 64)
				change = fmt.Sprintf("%+.2f%%", s.ChangePct)
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				r.Ticker, r.Name, r.Status, humanize.Comma(int64(r.Rows)), r.File, start, end, last, change)
		}
	})
}

// Technicals prints the indicators of every ticker that has a price
// summary. Indicators without enough history show "-".
func (p *Printer) Technicals(results []domain.TickerResult) {
	p.printf("\n")
	p.table(func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "Ticker\tMin\tMax\tMedia\tVol. anual\tSMA50\tEMA20\tRSI14")
		for _, r := range results {
			s := r.Summary
			if s == nil {
				continue
			}
			fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%s\t%s\t%s\t%s\n",
				r.Ticker, s.MinLow, s.MaxHigh, s.AvgClose,
				optional(s.Volatility, 100, "%.1f%%"),
				optional(s.SMA50, 1, "%.2f"),
				optional(s.EMA20, 1, "%.2f"),
				optional(s.RSI14, 1, "%.1f"))
		}
	})
}

func optional(v *float64, scale float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v*scale)
}

// Counts prints the success, warning and failure totals
func (p *Printer) Counts(results []domain.TickerResult) {
	var ok, warn, failed int
	for _, r := range results {
		switch {
		case r.Status == domain.StatusOK:
			ok++
		case r.Status.Warning():
			warn++
		case r.Status.Failed():
			failed++
		}
	}
	total := len(results)
	p.printf("\nOK: %d/%d\n", ok, total)
	if warn > 0 {
		p.printf("With warnings: %d/%d\n", warn, total)
	}
	p.printf("Failed: %d/%d\n", failed, total)
}

// Files lists generated files with their sizes and the total
func (p *Printer) Files(title, dir string, files []storage.FileInfo) {
	p.Banner(title)
	if len(files) == 0 {
		p.printf("No files found\n")
		p.printf("\nDirectory: %s\n", dir)
		return
	}

	var total uint64
	p.table(func(tw *tabwriter.Writer) {
		for i, f := range files {
			total += uint64(f.Size)
			fmt.Fprintf(tw, "%2d.\t%s\t%s\n", i+1, f.Name, humanize.Bytes(uint64(f.Size)))
		}
	})
	p.printf("\nTotal size: %s\n", humanize.Bytes(total))
	p.printf("Directory: %s\n", dir)
}

// Fundamentals prints the raw fundamentals table as loaded
func (p *Printer) Fundamentals(records []domain.FundamentalsRecord) {
	p.table(func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "Ticker\tNombre\tPrecio\tP/E\tP/E Fwd\tROE\tROA\tP/B\tDiv\tMarket Cap\tBeta\tEPS\tD/E\tCR\tQR")
		for _, r := range records {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				r.Ticker, r.Name, r.Price, r.TrailingPE, r.ForwardPE, r.ROE, r.ROA,
				r.PriceToBook, r.DividendYield, marketCap(r.MarketCap), r.Beta,
				r.TrailingEPS, r.DebtToEquity, r.CurrentRatio, r.QuickRatio)
		}
	})
}

func marketCap(m domain.Metric) string {
	v, ok := m.Float64()
	if !ok {
		return m.String()
	}
	return humanize.Comma(int64(v))
}

// Run prints the summary of one fetch run followed by the files in dir
func (p *Printer) Run(title string, results []domain.TickerResult, dir string) {
	p.Banner(title)
	p.RunSummary(results)
	p.Technicals(results)
	p.Counts(results)

	files, err := storage.ListCSV(dir, "")
	if err != nil {
		p.printf("\nCould not list %s: %v\n", dir, err)
		return
	}
	p.Files("GENERATED FILES", dir, files)
}
