package table

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Kind identifies which variant a Cell holds.
type Kind int

// Cell kinds.
const (
	KindEmpty Kind = iota
	KindString
	KindNumber
	KindDate
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	default:
		return "empty"
	}
}

// Cell is a single tabular value. Date cells carry the canonical
// "YYYY-MM-DD" or "YYYY-MM-DD HH:MM:SS" text; Time cells carry a native
// timestamp read from a spreadsheet or supplied by a caller.
type Cell struct {
	Kind Kind
	Str  string
	Num  float64
	Time time.Time
}

// Empty returns an empty cell.
func Empty() Cell { return Cell{} }

// String returns a text cell.
func String(s string) Cell { return Cell{Kind: KindString, Str: s} }

// Number returns a numeric cell. NaN and infinities become text.
func Number(f float64) Cell {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return String(strconv.FormatFloat(f, 'g', -1, 64))
	}
	return Cell{Kind: KindNumber, Num: f}
}

// Date returns a normalized date cell.
func Date(s string) Cell { return Cell{Kind: KindDate, Str: s} }

// Time returns a native timestamp cell.
func Time(t time.Time) Cell { return Cell{Kind: KindTime, Time: t} }

// IsEmpty reports whether the cell has no content. Whitespace-only text is empty.
func (c Cell) IsEmpty() bool {
	switch c.Kind {
	case KindEmpty:
		return true
	case KindString, KindDate:
		return strings.TrimSpace(c.Str) == ""
	default:
		return false
	}
}

// Text renders the cell in the form every comparison works on.
func (c Cell) Text() string {
	switch c.Kind {
	case KindString, KindDate:
		return c.Str
	case KindNumber:
		return FormatNumber(c.Num)
	case KindTime:
		if c.Time.Hour() == 0 && c.Time.Minute() == 0 && c.Time.Second() == 0 {
			return c.Time.Format("2006-01-02")
		}
		return c.Time.Format("2006-01-02 15:04:05")
	default:
		return ""
	}
}

// FormatNumber renders f with the shortest exact representation and no
// trailing fraction for integers.
func FormatNumber(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// MarshalJSON writes numbers as JSON numbers, empty cells as null and
// everything else as strings.
func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case KindEmpty:
		return []byte("null"), nil
	case KindNumber:
		return json.Marshal(c.Num)
	default:
		return json.Marshal(c.Text())
	}
}

// UnmarshalJSON accepts null, numbers, strings and booleans.
func (c *Cell) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return eris.Wrap(err, "table: decode cell")
	}
	switch t := v.(type) {
	case nil:
		*c = Empty()
	case float64:
		*c = Number(t)
	case string:
		*c = String(t)
	case bool:
		*c = String(strconv.FormatBool(t))
	default:
		return eris.Errorf("table: unsupported cell value %s", string(data))
	}
	return nil
}

// MarshalYAML mirrors MarshalJSON for YAML reports.
func (c Cell) MarshalYAML() (any, error) {
	switch c.Kind {
	case KindEmpty:
		return nil, nil
	case KindNumber:
		return c.Num, nil
	default:
		return c.Text(), nil
	}
}
