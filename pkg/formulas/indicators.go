package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// CalculateSMA returns the latest simple moving average over length closes,
// or nil if there are not enough closes.
func CalculateSMA(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length {
		return nil
	}
	return last(talib.Sma(closes, length))
}

// CalculateRSI returns the latest Relative Strength Index (0-100)
//
//	RSI = 100 - (100 / (1 + RS)), RS = average gain / average loss
//
// Nil with fewer than length+1 closes.
func CalculateRSI(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length+1 {
		return nil
	}
	return last(talib.Rsi(closes, length))
}

// CalculateEMA returns the latest exponential moving average, or nil if
// there are not enough closes.
func CalculateEMA(closes []float64, length int) *float64 {
	if length <= 0 || len(closes) < length {
		return nil
	}
	return last(talib.Ema(closes, length))
}

func last(series []float64) *float64 {
	if len(series) == 0 {
		return nil
	}
	v := series[len(series)-1]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
