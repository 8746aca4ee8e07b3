package scorers

import (
	"sort"

	"github.com/aristath/merval/internal/domain"
	"github.com/aristath/merval/internal/modules/scoring"
)

// TierFor maps a score to its presentation tier
func TierFor(score int) domain.Tier {
	switch {
	case score >= scoring.StrongBuyMin:
		return domain.TierStrongBuy
	case score >= scoring.ModerateBuyMin:
		return domain.TierModerateBuy
	case score >= scoring.ConsiderMin:
		return domain.TierConsider
	default:
		return domain.TierAvoid
	}
}

// Rank scores every record and orders the result by score, highest first.
// Records with equal scores keep their input order.
func (bs *BuyScorer) Rank(records []domain.FundamentalsRecord) []domain.ScoredRecord {
	ranked := make([]domain.ScoredRecord, 0, len(records))
	for _, r := range records {
		s := bs.Calculate(r)
		ranked = append(ranked, domain.ScoredRecord{
			FundamentalsRecord: r,
			Score:              s.Score,
			Tags:               s.Tags,
			Tier:               TierFor(s.Score),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// Top returns the first n ranked records. n is clamped to [0, len(ranked)].
func Top(ranked []domain.ScoredRecord, n int) []domain.ScoredRecord {
	return ranked[:clamp(n, len(ranked))]
}

func clamp(n, limit int) int {
	if n < 0 {
		return 0
	}
	if n > limit {
		return limit
	}
	return n
}

// Leaderboard identifies one per-metric ranking
type Leaderboard string

const (
	LeaderboardPE       Leaderboard = "pe"
	LeaderboardROE      Leaderboard = "roe"
	LeaderboardDividend Leaderboard = "dividend"
	LeaderboardDebt     Leaderboard = "debt"
)

// Leaderboards lists the per-metric rankings in report order
var Leaderboards = []Leaderboard{LeaderboardPE, LeaderboardROE, LeaderboardDividend, LeaderboardDebt}

type leaderboardSpec struct {
	value     func(domain.FundamentalsRecord) domain.Metric
	keep      func(float64) bool
	ascending bool
}

var leaderboardSpecs = map[Leaderboard]leaderboardSpec{
	LeaderboardPE: {
		value:     func(r domain.FundamentalsRecord) domain.Metric { return r.TrailingPE },
		keep:      func(v float64) bool { return v > 0 },
		ascending: true,
	},
	LeaderboardROE: {
		value: func(r domain.FundamentalsRecord) domain.Metric { return r.ROE.Metric },
		keep:  func(v float64) bool { return v > 0 },
	},
	LeaderboardDividend: {
		value: func(r domain.FundamentalsRecord) domain.Metric { return r.DividendYield.Metric },
		keep:  func(v float64) bool { return v > 0 },
	},
	LeaderboardDebt: {
		value:     func(r domain.FundamentalsRecord) domain.Metric { return r.DebtToEquity },
		keep:      func(float64) bool { return true },
		ascending: true,
	},
}

// TopByMetric returns up to n records ordered by a single metric. P/E and
// debt rank ascending, ROE and dividend descending. Unavailable values and
// non-positive P/E, ROE and yield are left out. Ties keep input order.
func TopByMetric(ranked []domain.ScoredRecord, board Leaderboard, n int) []domain.ScoredRecord {
	spec, ok := leaderboardSpecs[board]
	if !ok {
		return nil
	}

	type entry struct {
		rec   domain.ScoredRecord
		value float64
	}
	entries := make([]entry, 0, len(ranked))
	for _, r := range ranked {
		v, ok := spec.value(r.FundamentalsRecord).Float64()
		if !ok || !spec.keep(v) {
			continue
		}
		entries = append(entries, entry{rec: r, value: v})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if spec.ascending {
			return entries[i].value < entries[j].value
		}
		return entries[i].value > entries[j].value
	})

	n = clamp(n, len(entries))
	out := make([]domain.ScoredRecord, 0, n)
	for _, e := range entries[:n] {
		out = append(out, e.rec)
	}
	return out
}

// TierGroups splits a ranking into the buy, consider and avoid lists
type TierGroups struct {
	Buy      []domain.ScoredRecord // score >= 40
	Consider []domain.ScoredRecord // 20-39
	Avoid    []domain.ScoredRecord // < 20
}

// GroupByTier buckets ranked records, preserving their order
func GroupByTier(ranked []domain.ScoredRecord) TierGroups {
	var g TierGroups
	for _, r := range ranked {
		switch {
		case r.Score >= scoring.ModerateBuyMin:
			g.Buy = append(g.Buy, r)
		case r.Score >= scoring.ConsiderMin:
			g.Consider = append(g.Consider, r)
		default:
			g.Avoid = append(g.Avoid, r)
		}
	}
	return g
}
