// Package formulas holds the statistics and technical indicators used to
// summarize a price series.
package formulas

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// TradingDaysPerYear annualizes daily statistics
const TradingDaysPerYear = 252

// Mean returns the arithmetic mean, 0 for an empty slice
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	return stat.Mean(data, nil)
}

// StdDev returns the sample standard deviation, 0 for fewer than two values
func StdDev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	return stat.StdDev(data, nil)
}

// LogReturns returns ln(p[i]/p[i-1]) for each consecutive pair of positive
// prices. Pairs with a non-positive price are skipped.
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return []float64{}
	}

	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 || prices[i] <= 0 {
			continue
		}
		returns = append(returns, math.Log(prices[i]/prices[i-1]))
	}
	return returns
}

// AnnualizedVolatility is the standard deviation of daily log returns scaled
// by sqrt(252). Nil when there are fewer than two returns.
func AnnualizedVolatility(prices []float64) *float64 {
	returns := LogReturns(prices)
	if len(returns) < 2 {
		return nil
	}
	vol := StdDev(returns) * math.Sqrt(TradingDaysPerYear)
	return &vol
}

// ChangePercent is the percent move from first to last, 0 when first is 0
func ChangePercent(first, last float64) float64 {
	if first == 0 {
		return 0
	}
	return (last - first) / first * 100
}
