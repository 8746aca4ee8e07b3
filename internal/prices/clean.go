// Package prices turns raw provider rows into clean daily bars and
// summarizes them.
package prices

import (
	"math"
	"sort"

	"github.com/aristath/merval/internal/domain"
)

// Clean drops bars without a date or without a finite open and close,
// orders the rest by date and keeps the last bar of any repeated day.
// The input slice is not modified.
func Clean(bars []domain.PriceBar) []domain.PriceBar {
	kept := make([]domain.PriceBar, 0, len(bars))
	for _, b := range bars {
		if b.Date.IsZero() || !finite(b.Open) || !finite(b.Close) {
			continue
		}
		kept = append(kept, b)
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return dayKey(kept[i]) < dayKey(kept[j])
	})

	out := kept[:0]
	for i, b := range kept {
		if i+1 < len(kept) && dayKey(kept[i+1]) == dayKey(b) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func dayKey(b domain.PriceBar) string {
	return b.Date.Format(domain.DateLayout)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
