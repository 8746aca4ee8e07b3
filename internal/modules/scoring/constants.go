// Package scoring holds the thresholds and weights of the buy score.
package scoring

// =============================================================================
// P/E (trailing). Lower is cheaper; negative means the company lost money.
// =============================================================================

const (
	PEVeryCheap = 10.0
	PECheap     = 15.0
	PEFair      = 25.0

	PEVeryCheapPoints = 25
	PECheapPoints     = 20
	PEFairPoints      = 15
	PEExpensivePoints = 5
)

// =============================================================================
// ROE, percent. Bands are strict lower bounds (ROE of exactly 15 is "good").
// =============================================================================

const (
	ROEExcellent = 15.0
	ROEGood      = 10.0
	ROEAverage   = 5.0

	ROEExcellentPoints = 20
	ROEGoodPoints      = 15
	ROEAveragePoints   = 10
)

// =============================================================================
// Dividend yield, percent. Strict lower bounds.
// =============================================================================

const (
	DividendHigh    = 4.0
	DividendGood    = 2.0
	DividendLow     = 1.0
	DividendVeryLow = 0.0

	DividendHighPoints    = 20
	DividendGoodPoints    = 15
	DividendLowPoints     = 10
	DividendVeryLowPoints = 5
)

// =============================================================================
// Debt to equity, as a ratio (0.5 means debt is half of equity).
// =============================================================================

const (
	DebtLow      = 0.5
	DebtNormal   = 1.0
	DebtElevated = 1.5

	DebtLowPoints      = 15
	DebtNormalPoints   = 12
	DebtElevatedPoints = 8
)

// =============================================================================
// Current ratio. Strict lower bounds.
// =============================================================================

const (
	LiquidityGood  = 1.5
	LiquidityTight = 1.0

	LiquidityGoodPoints  = 10
	LiquidityTightPoints = 5
)

// MaxScore is the best attainable buy score: the top band of every metric.
// The scale is reported as 0-90; it is not stretched to 100.
const MaxScore = PEVeryCheapPoints + ROEExcellentPoints + DividendHighPoints +
	DebtLowPoints + LiquidityGoodPoints

// =============================================================================
// Tier cut-offs (inclusive lower bounds)
// =============================================================================

const (
	StrongBuyMin   = 60
	ModerateBuyMin = 40
	ConsiderMin    = 20

	// LeaderboardSize is how many names each report section lists
	LeaderboardSize = 5
)
