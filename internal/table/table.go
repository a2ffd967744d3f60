package table

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Row is an ordered sequence of cells.
type Row []Cell

// Texts returns the textual form of every cell.
func (r Row) Texts() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.Text()
	}
	return out
}

// IsEmpty reports whether every cell in the row is empty.
func (r Row) IsEmpty() bool {
	for _, c := range r {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// At returns cell i, or an empty cell when the row is too short.
func (r Row) At(i int) Cell {
	if i < 0 || i >= len(r) {
		return Empty()
	}
	return r[i]
}

// Table is a decoded file: a header row and data rows.
type Table struct {
	Name   string   `json:"name,omitempty" yaml:"name,omitempty"`
	Header []string `json:"header" yaml:"header"`
	Rows   []Row    `json:"rows" yaml:"rows"`
}

// Width is the widest of the header and every row.
func (t *Table) Width() int {
	w := len(t.Header)
	for _, r := range t.Rows {
		if len(r) > w {
			w = len(r)
		}
	}
	return w
}

// Column returns the cells of column i across all data rows.
func (t *Table) Column(i int) []Cell {
	out := make([]Cell, len(t.Rows))
	for j, r := range t.Rows {
		out[j] = r.At(i)
	}
	return out
}

// Pad extends the header and every row to the table width.
func (t *Table) Pad() {
	w := t.Width()
	for len(t.Header) < w {
		t.Header = append(t.Header, "")
	}
	for i, r := range t.Rows {
		for len(r) < w {
			r = append(r, Empty())
		}
		t.Rows[i] = r
	}
}

var upper = cases.Upper(language.Und)

// Prepare applies the load-time cleanup every input goes through: empty
// rows are dropped, headers are trimmed and upper-cased, columns with no
// content at all are removed, and short rows are padded.
func (t *Table) Prepare() {
	rows := t.Rows[:0]
	for _, r := range t.Rows {
		if !r.IsEmpty() {
			rows = append(rows, r)
		}
	}
	t.Rows = rows

	for i, h := range t.Header {
		t.Header[i] = upper.String(strings.TrimSpace(h))
	}

	t.Pad()
	t.removeEmptyColumns()
}

func (t *Table) removeEmptyColumns() {
	w := t.Width()
	keep := make([]int, 0, w)
	for col := 0; col < w; col++ {
		if col < len(t.Header) && t.Header[col] != "" {
			keep = append(keep, col)
			continue
		}
		for _, r := range t.Rows {
			if !r.At(col).IsEmpty() {
				keep = append(keep, col)
				break
			}
		}
	}
	if len(keep) == w {
		return
	}

	header := make([]string, len(keep))
	for i, col := range keep {
		header[i] = t.Header[col]
	}
	t.Header = header
	for j, r := range t.Rows {
		nr := make(Row, len(keep))
		for i, col := range keep {
			nr[i] = r.At(col)
		}
		t.Rows[j] = nr
	}
}

// Clone returns a deep copy of the header and row slices.
func (t *Table) Clone() *Table {
	out := &Table{Name: t.Name, Header: append([]string(nil), t.Header...)}
	out.Rows = make([]Row, len(t.Rows))
	for i, r := range t.Rows {
		out.Rows[i] = append(Row(nil), r...)
	}
	return out
}
