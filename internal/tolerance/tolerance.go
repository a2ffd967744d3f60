// Package tolerance classifies a pair of cell values as identical, close
// enough to be noise, or different.
package tolerance

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Result is the relationship between two values.
type Result int

// Results, ordered from best to worst.
const (
	Identical Result = iota
	Tolerance
	Different
)

func (r Result) String() string {
	switch r {
	case Identical:
		return "identical"
	case Tolerance:
		return "tolerance"
	default:
		return "different"
	}
}

// MarshalText renders the result name in JSON and YAML reports.
func (r Result) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText parses a result name written by MarshalText.
func (r *Result) UnmarshalText(b []byte) error {
	switch string(b) {
	case "identical":
		*r = Identical
	case "tolerance":
		*r = Tolerance
	case "different":
		*r = Different
	default:
		return eris.Errorf("tolerance: unknown result %q", b)
	}
	return nil
}

// DefaultThreshold is the relative difference two numbers may have and
// still count as a tolerance match.
const DefaultThreshold = 0.015

var (
	// Leading date shapes; anything may follow (usually a time of day).
	dateShapeRe = regexp.MustCompile(`^(?:\d{4}-\d{2}-\d{2}|\d{2}/\d{2}/\d{4}|\d{2}\.\d{2}\.\d{4}|\d{1,2}/\d{1,2}/\d{4}|\d{1,2}-\d{1,2}-\d{4})`)
	datePartRe  = regexp.MustCompile(`\d{4}-\d{2}-\d{2}|\d{2}/\d{2}/\d{4}|\d{2}\.\d{2}\.\d{4}|\d{1,2}/\d{1,2}/\d{4}|\d{1,2}-\d{1,2}-\d{4}`)
	numberRe    = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

	quotes      = strings.NewReplacer(`"`, "", `'`, "")
	numberNoise = strings.NewReplacer(`"`, "", `'`, "", ",", "", "$", "", "€", "", "£", "", "₽", "", "¥", "", " ", "", "\u00a0", "", "\t", "")
)

// Comparator compares values with a configurable numeric threshold.
type Comparator struct {
	Threshold float64
}

// Default is the comparator used by the package-level Compare.
var Default = Comparator{Threshold: DefaultThreshold}

// Compare classifies a and b with the default threshold.
func Compare(a, b string) Result {
	return Default.Compare(a, b)
}

// Compare classifies a and b. It is symmetric in its arguments.
func (c Comparator) Compare(a, b string) Result {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	switch {
	case a == "" && b == "":
		return Identical
	case a == "" || b == "":
		return Different
	case strings.ToUpper(a) == strings.ToUpper(b):
		return Identical
	}

	if da, ok := dateOnly(a); ok {
		if db, ok := dateOnly(b); ok && da == db {
			return Tolerance
		}
	}

	na, okA := parseNumber(a)
	nb, okB := parseNumber(b)
	if okA && okB {
		switch {
		case na == 0 && nb == 0:
			return Identical
		case na == 0 || nb == 0:
			return Different
		}
		avg := (math.Abs(na) + math.Abs(nb)) / 2
		if math.Abs(na-nb)/avg <= c.threshold() {
			return Tolerance
		}
	}
	return Different
}

// Equal is the strict cell equality used outside tolerance mode.
func Equal(a, b string) bool {
	return strings.ToUpper(a) == strings.ToUpper(b)
}

func (c Comparator) threshold() float64 {
	if c.Threshold <= 0 {
		return DefaultThreshold
	}
	return c.Threshold
}

// dateOnly returns the date portion of a value that starts like a date.
func dateOnly(s string) (string, bool) {
	clean := strings.TrimSpace(quotes.Replace(s))
	if !dateShapeRe.MatchString(clean) {
		return "", false
	}
	return datePartRe.FindString(clean), true
}

// parseNumber strips quotes, currency symbols and thousands separators.
func parseNumber(s string) (float64, bool) {
	clean := numberNoise.Replace(s)
	if !numberRe.MatchString(clean) {
		return 0, false
	}
	f, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
