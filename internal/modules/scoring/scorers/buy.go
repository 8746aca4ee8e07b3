// Package scorers computes the fundamentals buy score and ranks securities
// by it.
package scorers

import (
	"github.com/aristath/merval/internal/domain"
	"github.com/aristath/merval/internal/modules/scoring"
)

// Component keys of BuyScore.Components
const (
	ComponentPE        = "pe"
	ComponentROE       = "roe"
	ComponentDividend  = "dividend"
	ComponentDebt      = "debt"
	ComponentLiquidity = "liquidity"
)

// BuyScorer scores a fundamentals row by summing independent threshold
// bands over P/E, ROE, dividend yield, debt/equity and current ratio.
type BuyScorer struct{}

// BuyScore is the result of scoring one row
type BuyScore struct {
	Components map[string]int `json:"components"`
	Tags       []string       `json:"tags"`
	Score      int            `json:"score"`
}

// NewBuyScorer creates a new buy scorer
func NewBuyScorer() *BuyScorer {
	return &BuyScorer{}
}

// Calculate scores one record. Unavailable metrics add nothing and produce
// no tag. Tags follow metric order.
func (bs *BuyScorer) Calculate(r domain.FundamentalsRecord) BuyScore {
	result := BuyScore{
		Components: make(map[string]int, 5),
		Tags:       make([]string, 0, 5),
	}

	add := func(key string, points int, tag string) {
		result.Components[key] = points
		result.Score += points
		if tag != "" {
			result.Tags = append(result.Tags, tag)
		}
	}

	pts, tag := ScorePE(r.TrailingPE)
	add(ComponentPE, pts, tag)
	pts, tag = ScoreROE(r.ROE.Metric)
	add(ComponentROE, pts, tag)
	pts, tag = ScoreDividend(r.DividendYield.Metric)
	add(ComponentDividend, pts, tag)
	pts, tag = ScoreDebtToEquity(r.DebtToEquity)
	add(ComponentDebt, pts, tag)
	pts, tag = ScoreCurrentRatio(r.CurrentRatio)
	add(ComponentLiquidity, pts, tag)

	return result
}

// ScorePE scores the trailing P/E. Lower multiples score higher; a negative
// P/E (losses) scores nothing.
func ScorePE(m domain.Metric) (int, string) {
	pe, ok := m.Float64()
	if !ok {
		return 0, ""
	}
	switch {
	case pe < 0:
		return 0, "negative P/E"
	case pe < scoring.PEVeryCheap:
		return scoring.PEVeryCheapPoints, "very cheap P/E"
	case pe < scoring.PECheap:
		return scoring.PECheapPoints, "cheap P/E"
	case pe < scoring.PEFair:
		return scoring.PEFairPoints, "fair P/E"
	default:
		return scoring.PEExpensivePoints, "expensive P/E"
	}
}

// ScoreROE scores return on equity (percent)
func ScoreROE(m domain.Metric) (int, string) {
	roe, ok := m.Float64()
	if !ok {
		return 0, ""
	}
	switch {
	case roe > scoring.ROEExcellent:
		return scoring.ROEExcellentPoints, "excellent ROE"
	case roe > scoring.ROEGood:
		return scoring.ROEGoodPoints, "good ROE"
	case roe > scoring.ROEAverage:
		return scoring.ROEAveragePoints, "average ROE"
	default:
		return 0, "low ROE"
	}
}

// ScoreDividend scores dividend yield (percent)
func ScoreDividend(m domain.Metric) (int, string) {
	yield, ok := m.Float64()
	if !ok {
		return 0, ""
	}
	switch {
	case yield > scoring.DividendHigh:
		return scoring.DividendHighPoints, "high dividend"
	case yield > scoring.DividendGood:
		return scoring.DividendGoodPoints, "good dividend"
	case yield > scoring.DividendLow:
		return scoring.DividendLowPoints, "low dividend"
	case yield > scoring.DividendVeryLow:
		return scoring.DividendVeryLowPoints, "very low dividend"
	default:
		return 0, "no dividend"
	}
}

// ScoreDebtToEquity scores leverage; less debt scores higher
func ScoreDebtToEquity(m domain.Metric) (int, string) {
	de, ok := m.Float64()
	if !ok {
		return 0, ""
	}
	switch {
	case de < scoring.DebtLow:
		return scoring.DebtLowPoints, "low debt"
	case de < scoring.DebtNormal:
		return scoring.DebtNormalPoints, "normal debt"
	case de < scoring.DebtElevated:
		return scoring.DebtElevatedPoints, "elevated debt"
	default:
		return 0, "very high debt"
	}
}

// ScoreCurrentRatio scores short-term liquidity
func ScoreCurrentRatio(m domain.Metric) (int, string) {
	cr, ok := m.Float64()
	if !ok {
		return 0, ""
	}
	switch {
	case cr > scoring.LiquidityGood:
		return scoring.LiquidityGoodPoints, "good liquidity"
	case cr > scoring.LiquidityTight:
		return scoring.LiquidityTightPoints, "tight liquidity"
	default:
		return 0, "critical liquidity"
	}
}
