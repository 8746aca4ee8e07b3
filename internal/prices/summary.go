package prices

import (
	"github.com/aristath/merval/internal/domain"
	"github.com/aristath/merval/pkg/formulas"
)

const (
	smaPeriod = 50
	emaPeriod = 20
	rsiPeriod = 14
)

// Summarize condenses clean, date-ordered bars. It returns nil for an empty
// series. Indicators that need more bars than are available are left nil.
func Summarize(bars []domain.PriceBar) *domain.PriceSummary {
	if len(bars) == 0 {
		return nil
	}

	first, last := bars[0], bars[len(bars)-1]
	s := &domain.PriceSummary{
		Start:     first.Date,
		End:       last.Date,
		LastClose: last.Close,
		MinLow:    first.Low,
		MaxHigh:   first.High,
		ChangePct: formulas.ChangePercent(first.Close, last.Close),
	}

	closes := make([]float64, 0, len(bars))
	for _, b := range bars {
		closes = append(closes, b.Close)
		if finite(b.Low) && (b.Low < s.MinLow || !finite(s.MinLow)) {
			s.MinLow = b.Low
		}
		if finite(b.High) && (b.High > s.MaxHigh || !finite(s.MaxHigh)) {
			s.MaxHigh = b.High
		}
	}

	s.AvgClose = formulas.Mean(closes)
	s.Volatility = formulas.AnnualizedVolatility(closes)
	s.SMA50 = formulas.CalculateSMA(closes, smaPeriod)
	s.EMA20 = formulas.CalculateEMA(closes, emaPeriod)
	s.RSI14 = formulas.CalculateRSI(closes, rsiPeriod)
	return s
}
