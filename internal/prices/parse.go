package prices

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/merval/internal/domain"
)

// ErrMissingColumn is returned when a table has no date or close column
var ErrMissingColumn = errors.New("price table has no date or close column")

var dateLayouts = []string{
	"02/01/2006",
	"2/1/2006",
	domain.DateLayout,
	"2006-01-02 15:04:05",
	"Jan 02, 2006",
	"Jan 2, 2006",
	"02.01.2006",
	"02-01-2006",
}

type field int

const (
	fieldDate field = iota
	fieldOpen
	fieldHigh
	fieldLow
	fieldClose
	fieldAdjClose
	fieldVolume
)

var headerAliases = map[string]field{
	"fecha":           fieldDate,
	"date":            fieldDate,
	"open":            fieldOpen,
	"apertura":        fieldOpen,
	"abrir":           fieldOpen,
	"high":            fieldHigh,
	"maximo":          fieldHigh,
	"max":             fieldHigh,
	"alto":            fieldHigh,
	"low":             fieldLow,
	"minimo":          fieldLow,
	"min":             fieldLow,
	"bajo":            fieldLow,
	"close":           fieldClose,
	"cierre":          fieldClose,
	"ultimo":          fieldClose,
	"price":           fieldClose,
	"precio":          fieldClose,
	"last":            fieldClose,
	"adj close":       fieldAdjClose,
	"adj_close":       fieldAdjClose,
	"adjclose":        fieldAdjClose,
	"cierre ajustado": fieldAdjClose,
	"volume":          fieldVolume,
	"volumen":         fieldVolume,
	"vol":             fieldVolume,
}

var accents = strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u")

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.TrimSuffix(h, ".")
	h = strings.Trim(h, `"`)
	return accents.Replace(h)
}

// ParseRows converts a string table into bars. Columns are matched by
// header name in English or Spanish; only date and close are required,
// a missing open, high, low or adj close falls back to the close.
// The decimal separator is inferred once for the whole table so that 245.300
// reads as 245300 next to 1.850,00. Rows whose date or close cannot be read
// are dropped.
func ParseRows(header []string, rows [][]string) ([]domain.PriceBar, error) {
	cols := map[field]int{}
	for i, h := range header {
		if f, ok := headerAliases[normalizeHeader(h)]; ok {
			if _, seen := cols[f]; !seen {
				cols[f] = i
			}
		}
	}

	if _, ok := cols[fieldDate]; !ok {
		return nil, fmt.Errorf("%w: %v", ErrMissingColumn, header)
	}
	if _, ok := cols[fieldClose]; !ok {
		return nil, fmt.Errorf("%w: %v", ErrMissingColumn, header)
	}

	cell := func(row []string, f field) (string, bool) {
		i, ok := cols[f]
		if !ok || i >= len(row) {
			return "", false
		}
		return row[i], true
	}

	var numeric []string
	for _, row := range rows {
		for f := fieldOpen; f <= fieldVolume; f++ {
			if s, ok := cell(row, f); ok {
				numeric = append(numeric, s)
			}
		}
	}
	decimal := decimalSeparator(numeric)

	number := func(row []string, f field, fallback float64) float64 {
		s, ok := cell(row, f)
		if !ok {
			return fallback
		}
		parse := parseNumber
		if f == fieldVolume {
			parse = parseVolume
		}
		v, err := parse(s, decimal)
		if err != nil {
			return math.NaN()
		}
		return v
	}

	bars := make([]domain.PriceBar, 0, len(rows))
	for _, row := range rows {
		ds, _ := cell(row, fieldDate)
		date, err := ParseDate(ds)
		if err != nil {
			continue
		}
		cs, _ := cell(row, fieldClose)
		closePrice, err := parseNumber(cs, decimal)
		if err != nil {
			continue
		}

		bar := domain.PriceBar{
			Date:     date,
			Open:     number(row, fieldOpen, closePrice),
			High:     number(row, fieldHigh, closePrice),
			Low:      number(row, fieldLow, closePrice),
			Close:    closePrice,
			AdjClose: number(row, fieldAdjClose, closePrice),
		}
		if vol := number(row, fieldVolume, 0); finite(vol) {
			bar.Volume = int64(math.Round(vol))
		}
		bars = append(bars, bar)
	}
	return bars, nil
}

// ParseDate reads a date in any of the layouts used by the price sources
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// parseNumber reads a number written either as 1.234,56 or 1,234.56. A
// trailing K, M or B multiplies by a thousand, million or billion and a
// trailing percent sign is dropped. With a known decimal ('.' or ',') the
// other separator only groups thousands. A zero decimal guesses per cell: a
// single occurrence of the only separator is the decimal point and repeated
// ones group thousands.
func parseNumber(raw string, decimal byte) (float64, error) {
	s, multiplier := cleanNumber(raw)
	if s == "" || s == "-" {
		return 0, fmt.Errorf("empty number %q", raw)
	}

	switch decimal {
	case '.':
		s = strings.ReplaceAll(s, ",", "")
	case ',':
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	default:
		s = guessSeparators(s)
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q: %w", raw, err)
	}
	return v * multiplier, nil
}

func cleanNumber(s string) (string, float64) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimSuffix(s, "%")
	if s == "" {
		return s, 1
	}

	multiplier := 1.0
	switch s[len(s)-1] {
	case 'K', 'k':
		multiplier = 1e3
	case 'M', 'm':
		multiplier = 1e6
	case 'B', 'b':
		multiplier = 1e9
	}
	if multiplier != 1 {
		s = s[:len(s)-1]
	}
	return s, multiplier
}

func guessSeparators(s string) string {
	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")
	switch {
	case dots > 0 && commas > 0:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case commas == 1:
		s = strings.Replace(s, ",", ".", 1)
	case commas > 1:
		s = strings.ReplaceAll(s, ",", "")
	case dots > 1:
		s = strings.ReplaceAll(s, ".", "")
	}
	return s
}

// decimalSeparator infers the decimal separator of a table from its
// unambiguous cells: one holding both separators, one repeating a
// separator, or one with a lone separator not followed by exactly three
// digits. It returns 0 when every cell is ambiguous.
func decimalSeparator(cells []string) byte {
	for _, c := range cells {
		s, _ := cleanNumber(c)
		dot := strings.LastIndex(s, ".")
		comma := strings.LastIndex(s, ",")
		switch {
		case dot >= 0 && comma >= 0:
			if comma > dot {
				return ','
			}
			return '.'
		case strings.Count(s, ".") > 1:
			return ','
		case strings.Count(s, ",") > 1:
			return '.'
		case dot >= 0 && len(s)-dot-1 != 3:
			return '.'
		case comma >= 0 && len(s)-comma-1 != 3:
			return ','
		}
	}
	return 0
}

// parseVolume reads a share count. Without a table-wide decimal separator
// a lone separator followed by exactly three digits groups thousands, since
// volumes are whole numbers.
func parseVolume(s string, decimal byte) (float64, error) {
	if decimal == 0 {
		clean, _ := cleanNumber(s)
		sep := strings.IndexAny(clean, ".,")
		if sep >= 0 && len(clean)-sep-1 == 3 && !strings.ContainsAny(clean[sep+1:], ".,") {
			decimal = '.'
			if clean[sep] == '.' {
				decimal = ','
			}
		}
	}
	return parseNumber(s, decimal)
}
