package universe

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTables_UniqueSymbolsAndNames(t *testing.T) {
	for name, table := range map[string][]Security{
		"yahoo":      YahooADRs,
		"bolsamania": Bolsamania,
		"investing":  Investing,
	} {
		t.Run(name, func(t *testing.T) {
			assert.NotEmpty(t, table)
			seen := make(map[string]bool)
			for _, s := range table {
				assert.NotEmpty(t, s.Symbol)
				assert.NotEmpty(t, s.Name)
				assert.False(t, seen[s.Symbol], "duplicate symbol %s", s.Symbol)
				seen[s.Symbol] = true
			}
		})
	}
}

func TestPageTables_HaveURLs(t *testing.T) {
	for _, s := range Bolsamania {
		assert.True(t, strings.HasPrefix(s.URL, "https://www.bolsamania.com/acciones/"), s.Symbol)
		assert.Contains(t, s.URL, strings.ToLower(s.Symbol))
	}
	for _, s := range Investing {
		assert.True(t, strings.HasPrefix(s.URL, "https://es.investing.com/equities/"), s.Symbol)
	}
}
