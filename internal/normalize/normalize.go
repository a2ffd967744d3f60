// Package normalize canonicalizes cell values so that comparisons can be
// made on text alone: dates become "YYYY-MM-DD[ HH:MM:SS]" and numbers are
// rounded to two decimal places.
package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/sells-group/tablediff/internal/table"
)

// Tuned bounds carried over from the spreadsheet exports this tool targets.
const (
	// SerialMin is the smallest number read as a spreadsheet date (1980-01-01).
	// Smaller integers are far more likely to be counts or codes.
	SerialMin = 29221
	// SerialMax is the largest number read as a spreadsheet date (year 2500).
	SerialMax = 219146
	// TwoDigitYearPivot splits two-digit years: <= pivot is 20xx, else 19xx.
	TwoDigitYearPivot = 30
	// MinTextYear and MaxTextYear bound years accepted from textual dates.
	MinTextYear = 1900
	MaxTextYear = 2100
	// MaxSerialYear bounds years produced by serial conversion.
	MaxSerialYear = 2500
	// MaxExactDigits is the most significant digits a float64 round-trips.
	MaxExactDigits = 15
)

var numericRe = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// Value normalizes a single cell. Values that match no rule are returned
// unchanged; Value never fails.
func Value(c table.Cell, isDateColumn bool) table.Cell {
	if !isDateColumn {
		return roundCell(c, false)
	}

	switch c.Kind {
	case table.KindTime:
		t := c.Time
		if t.Year() < MinTextYear || t.Year() > MaxTextYear {
			return c
		}
		return table.Date(stamp{
			year: t.Year(), month: int(t.Month()), day: t.Day(),
			hour: t.Hour(), minute: t.Minute(), second: t.Second(), hasTime: true,
		}.String())
	case table.KindDate:
		return c
	case table.KindNumber:
		if s, ok := FromSerial(c.Num); ok {
			return table.Date(s)
		}
		return roundCell(c, true)
	case table.KindString:
		if s, ok := ParseDate(c.Str); ok {
			return table.Date(s)
		}
		return roundCell(c, true)
	default:
		return c
	}
}

// Row normalizes every cell of r using the per-column date flags.
func Row(r table.Row, dateColumns []bool) table.Row {
	out := make(table.Row, len(r))
	for i, c := range r {
		out[i] = Value(c, i < len(dateColumns) && dateColumns[i])
	}
	return out
}

// Table normalizes every data row of t in place.
func Table(t *table.Table, dateColumns []bool) {
	for i, r := range t.Rows {
		t.Rows[i] = Row(r, dateColumns)
	}
}

// Round rounds half up to two decimal places.
func Round(f float64) float64 {
	if f == math.Trunc(f) {
		return f
	}
	return math.Floor(f*100+0.5) / 100
}

// FitsFloat reports whether numeric text survives a float64 round-trip
// digit for digit.
func FitsFloat(s string) bool {
	return significantDigits(s) <= MaxExactDigits
}

// significantDigits counts the digits of a numeric string's mantissa,
// ignoring sign, leading zeros and trailing fraction zeros.
func significantDigits(s string) int {
	s = strings.TrimLeft(strings.TrimSpace(s), "+-")
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		s = s[:i]
	}
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
	}
	s = strings.TrimLeft(strings.Replace(s, ".", "", 1), "0")
	return len(s)
}

// ParseNumber parses plain decimal text, rejecting hex, NaN and infinities.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if !numericRe.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// roundCell rounds numeric cells and numeric strings. Inside a date column
// a numeric string stays a string so that a second pass cannot reread it
// as a spreadsheet serial. Strings with more digits than a float64 holds,
// such as long account numbers, are left as text.
func roundCell(c table.Cell, keepString bool) table.Cell {
	switch c.Kind {
	case table.KindNumber:
		return table.Number(Round(c.Num))
	case table.KindString:
		f, ok := ParseNumber(c.Str)
		if !ok || !FitsFloat(c.Str) {
			return c
		}
		if keepString {
			return table.String(table.FormatNumber(Round(f)))
		}
		return table.Number(Round(f))
	default:
		return c
	}
}
