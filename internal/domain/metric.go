package domain

import (
	"math"
	"strconv"
	"strings"
)

// Sentinels written in place of a number when a metric is unavailable.
const (
	SentinelNotAvailable = "N/A"
	SentinelError        = "Error"
)

// Metric is a fundamentals field: either a finite number or an unavailable
// sentinel. The zero value is unavailable ("N/A").
type Metric struct {
	value    float64
	valid    bool
	sentinel string
}

// Value returns an available metric. NaN and infinities are not numbers a
// provider can report, so they become N/A.
func Value(v float64) Metric {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NotAvailable()
	}
	return Metric{value: v, valid: true}
}

// NonZero treats a zero reading as missing, which is how Yahoo reports
// fields it has no data for.
func NonZero(v float64) Metric {
	if v == 0 {
		return NotAvailable()
	}
	return Value(v)
}

// NotAvailable is a metric the provider had no value for
func NotAvailable() Metric {
	return Metric{sentinel: SentinelNotAvailable}
}

// Failed marks a metric whose snapshot fetch failed
func Failed() Metric {
	return Metric{sentinel: SentinelError}
}

// ParseMetric reads a CSV cell. A trailing percent sign is ignored; anything
// that is not a finite number is unavailable, keeping the Error sentinel when
// that is what the cell says.
func ParseMetric(s string) Metric {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, SentinelError) {
		return Failed()
	}
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))
	if s == "" {
		return NotAvailable()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return NotAvailable()
	}
	return Value(v)
}

// Float64 returns the value and whether it is available
func (m Metric) Float64() (float64, bool) {
	return m.value, m.valid
}

// Available reports whether the metric holds a number
func (m Metric) Available() bool {
	return m.valid
}

// IsError reports whether the metric carries the Error sentinel
func (m Metric) IsError() bool {
	return !m.valid && m.sentinel == SentinelError
}

// String renders the number with the shortest exact form, or the sentinel
func (m Metric) String() string {
	if !m.valid {
		if m.sentinel == "" {
			return SentinelNotAvailable
		}
		return m.sentinel
	}
	return strconv.FormatFloat(m.value, 'f', -1, 64)
}

// MarshalCSV implements gocsv.TypeMarshaller
func (m Metric) MarshalCSV() (string, error) {
	return m.String(), nil
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller. Malformed cells degrade to
// N/A instead of failing the whole file.
func (m *Metric) UnmarshalCSV(s string) error {
	*m = ParseMetric(s)
	return nil
}

// Percent is a metric in percent units rendered with a trailing "%"
// (12.5 is written as "12.5%").
type Percent struct {
	Metric
}

// PercentValue returns an available percent metric
func PercentValue(v float64) Percent {
	return Percent{Value(v)}
}

// String renders the percentage, or the sentinel
func (p Percent) String() string {
	if !p.valid {
		return p.Metric.String()
	}
	return p.Metric.String() + "%"
}

// MarshalCSV implements gocsv.TypeMarshaller
func (p Percent) MarshalCSV() (string, error) {
	return p.String(), nil
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller
func (p *Percent) UnmarshalCSV(s string) error {
	p.Metric = ParseMetric(s)
	return nil
}
