package yahoo

import (
	"context"
	"errors"
	"time"

	"github.com/aristath/merval/internal/domain"
	"github.com/shopspring/decimal"
)

// ErrNoData is returned when Yahoo answers without any usable rows
var ErrNoData = errors.New("yahoo returned no data")

// Provider is the surface the fetch pipeline needs from a Yahoo client
type Provider interface {
	GetHistoricalPrices(ctx context.Context, symbol string, start, end time.Time) ([]domain.PriceBar, error)
	GetFundamentalData(ctx context.Context, symbol string) (*FundamentalData, error)
}

// FundamentalData holds the snapshot as Yahoo reports it. ROE, ROA and
// dividend yield are fractions (0.12 = 12%) and debt to equity is in
// percent (45 = 0.45). Nil means the field was absent.
type FundamentalData struct {
	Symbol        string
	Name          *string
	Price         *float64
	TrailingPE    *float64
	ForwardPE     *float64
	ROE           *float64
	ROA           *float64
	PriceToBook   *float64
	DividendYield *float64
	MarketCap     *int64
	Beta          *float64
	TrailingEPS   *float64
	DebtToEquity  *float64
	CurrentRatio  *float64
	QuickRatio    *float64
}

// Record converts the snapshot into a fundamentals row. Fractions become
// percentages rounded to two decimals. Debt to equity is rounded to two
// decimals in Yahoo's percent units and then becomes a ratio, so 49.6 is
// stored as 0.496. Absent or zero fields are N/A.
func (fd *FundamentalData) Record(ticker, name string) domain.FundamentalsRecord {
	r := domain.NewFundamentalsRecord(ticker, name)
	if fd == nil {
		return r
	}

	r.Price = metric(fd.Price, 1, false)
	r.TrailingPE = metric(fd.TrailingPE, 1, true)
	r.ForwardPE = metric(fd.ForwardPE, 1, true)
	r.ROE = domain.Percent{Metric: metric(fd.ROE, 100, true)}
	r.ROA = domain.Percent{Metric: metric(fd.ROA, 100, true)}
	r.PriceToBook = metric(fd.PriceToBook, 1, true)
	r.DividendYield = domain.Percent{Metric: metric(fd.DividendYield, 100, true)}
	if fd.MarketCap != nil {
		r.MarketCap = domain.NonZero(float64(*fd.MarketCap))
	}
	r.Beta = metric(fd.Beta, 1, true)
	r.TrailingEPS = metric(fd.TrailingEPS, 1, true)
	r.DebtToEquity = ratioFromPercent(fd.DebtToEquity)
	r.CurrentRatio = metric(fd.CurrentRatio, 1, true)
	r.QuickRatio = metric(fd.QuickRatio, 1, true)
	return r
}

func metric(v *float64, scale float64, round bool) domain.Metric {
	if v == nil || *v == 0 {
		return domain.NotAvailable()
	}
	d := decimal.NewFromFloat(*v).Mul(decimal.NewFromFloat(scale))
	if round {
		d = d.Round(2)
	}
	return domain.NonZero(d.InexactFloat64())
}

func ratioFromPercent(v *float64) domain.Metric {
	if v == nil || *v == 0 {
		return domain.NotAvailable()
	}
	d := decimal.NewFromFloat(*v).Round(2).Div(decimal.NewFromInt(100))
	return domain.NonZero(d.InexactFloat64())
}
