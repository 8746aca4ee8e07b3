package report

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/aristath/merval/internal/domain"
	"github.com/aristath/merval/internal/modules/scoring"
	"github.com/aristath/merval/internal/modules/scoring/scorers"
)

var leaderboardTitles = map[scorers.Leaderboard]string{
	scorers.LeaderboardPE:       "P/E RATIO (lower is cheaper)",
	scorers.LeaderboardROE:      "ROE (higher is better management)",
	scorers.LeaderboardDividend: "DIVIDEND YIELD (higher is more income)",
	scorers.LeaderboardDebt:     "D/E RATIO (lower is less debt)",
}

// Score renders a score against the maximum, e.g. "45/90"
func Score(score int) string {
	return fmt.Sprintf("%d/%d", score, scoring.MaxScore)
}

// Recommendations prints the top picks, the per-metric leaderboards and the
// buy, consider and avoid lists of an already ranked table.
func (p *Printer) Recommendations(ranked []domain.ScoredRecord) {
	p.Banner(fmt.Sprintf("BUY RANKING - TOP %d", scoring.LeaderboardSize))
	for i, r := range scorers.Top(ranked, scoring.LeaderboardSize) {
		p.printf("%d. %-10s | %-35s | Score: %6s %s\n", i+1, r.Ticker, r.Name, Score(r.Score), r.Tier.Label())
		p.printf("   Price: %10s | P/E: %8s | ROE: %8s | Div: %8s\n", r.Price, r.TrailingPE, r.ROE, r.DividendYield)
		if len(r.Tags) > 0 {
			p.printf("   -> %s\n", strings.Join(r.Tags, " | "))
		}
		p.printf("\n")
	}

	p.Banner("DETAILED ANALYSIS BY METRIC")
	for _, board := range scorers.Leaderboards {
		p.leaderboard(board, scorers.TopByMetric(ranked, board, scoring.LeaderboardSize))
	}

	groups := scorers.GroupByTier(ranked)
	p.Banner("FINAL RECOMMENDATIONS")
	if len(groups.Buy) > 0 {
		p.tierList(fmt.Sprintf("RECOMMENDED BUY (%d stocks):", len(groups.Buy)), groups.Buy)
	} else {
		p.printf("No buy recommendations right now\n")
	}
	if len(groups.Consider) > 0 {
		p.tierList(fmt.Sprintf("CONSIDER CAREFULLY (%d stocks):", len(groups.Consider)), groups.Consider)
	}
	if len(groups.Avoid) > 0 {
		p.tierList(fmt.Sprintf("AVOID FOR NOW (%d stocks):", len(groups.Avoid)), groups.Avoid)
	}
}

func (p *Printer) leaderboard(board scorers.Leaderboard, rows []domain.ScoredRecord) {
	p.printf("%s\n%s\n", leaderboardTitles[board], strings.Repeat("-", 70))
	p.table(func(tw *tabwriter.Writer) {
		for _, r := range rows {
			fmt.Fprintf(tw, "  %s\t%s\t%s\n", r.Ticker, leaderValue(board, r), r.Name)
		}
	})
	p.printf("\n")
}

func leaderValue(board scorers.Leaderboard, r domain.ScoredRecord) string {
	switch board {
	case scorers.LeaderboardPE:
		return "P/E = " + fixed(r.TrailingPE)
	case scorers.LeaderboardROE:
		return "ROE = " + fixed(r.ROE.Metric) + "%"
	case scorers.LeaderboardDividend:
		return "Div = " + fixed(r.DividendYield.Metric) + "%"
	default:
		return "D/E = " + fixed(r.DebtToEquity)
	}
}

func fixed(m domain.Metric) string {
	v, ok := m.Float64()
	if !ok {
		return m.String()
	}
	return fmt.Sprintf("%6.2f", v)
}

func (p *Printer) tierList(title string, rows []domain.ScoredRecord) {
	p.printf("\n%s\n", title)
	for _, r := range rows {
		p.printf("   * %-10s - %s (Score: %s)\n", r.Ticker, r.Name, Score(r.Score))
	}
}

// NextSteps prints the closing checklist
func (p *Printer) NextSteps(recommendationsPath, pricesDir string) {
	p.Banner("NEXT STEPS")
	p.printf("1. Open %s for the full ranking.\n", recommendationsPath)
	p.printf("2. For each candidate, review %s/<TICKER>_precios_5A.csv:\n", pricesDir)
	p.printf("   chart the history, check support and resistance levels.\n")
	p.printf("3. Before investing, read the annual reports and recent news and\n")
	p.printf("   require a 20-30%% margin of safety.\n")
	p.printf("4. Suggested split: 40%% %s (score >= %d), 40%% %s (%d-%d), 20%% cash or %s.\n",
		domain.TierStrongBuy.Label(), scoring.StrongBuyMin,
		domain.TierModerateBuy.Label(), scoring.ModerateBuyMin, scoring.StrongBuyMin-1,
		domain.TierConsider.Label())
	p.printf("\nScores are out of %d.\n", scoring.MaxScore)
}

// SourceRun names the fetch run the analysed data comes from
func (p *Printer) SourceRun(source string, finished time.Time, succeeded, failed int) {
	p.printf("Data from the %s fetch of %s (%d ok, %d failed)\n",
		source, finished.Format("2006-01-02 15:04 MST"), succeeded, failed)
}

// ScoreChanges compares the ranking with the previous analysis. Tickers
// without an earlier score are listed as new; unchanged ones are left out.
func (p *Printer) ScoreChanges(ranked []domain.ScoredRecord, previous map[string]int) {
	p.Banner("CHANGES SINCE LAST ANALYSIS")
	if len(previous) == 0 {
		p.printf("No earlier analysis recorded\n")
		return
	}

	var rows []string
	for _, r := range ranked {
		before, ok := previous[r.Ticker]
		switch {
		case !ok:
			rows = append(rows, fmt.Sprintf("%s\t%s\t-\t%s\tnew", r.Ticker, r.Name, Score(r.Score)))
		case before != r.Score:
			rows = append(rows, fmt.Sprintf("%s\t%s\t%s\t%s\t%+d", r.Ticker, r.Name, Score(before), Score(r.Score), r.Score-before))
		}
	}
	if len(rows) == 0 {
		p.printf("No score changes\n")
		return
	}

	p.table(func(tw *tabwriter.Writer) {
		fmt.Fprintln(tw, "Ticker\tNombre\tBefore\tNow\tChange")
		for _, row := range rows {
			fmt.Fprintln(tw, row)
		}
	})
}
