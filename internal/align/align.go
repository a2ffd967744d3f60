// Package align matches the columns of two tables by header name and
// projects rows of both tables into one shared schema.
package align

import (
	"strings"

	"github.com/sells-group/tablediff/internal/table"
)

// Column is a header present in both tables.
type Column struct {
	Name   string `json:"name" yaml:"name"`
	IndexA int    `json:"index_a" yaml:"index_a"`
	IndexB int    `json:"index_b" yaml:"index_b"`
}

// Alignment is the result of matching two header rows.
type Alignment struct {
	Common  []Column `json:"common" yaml:"common"`
	OnlyInA []string `json:"only_in_a" yaml:"only_in_a"`
	OnlyInB []string `json:"only_in_b" yaml:"only_in_b"`
}

// Columns matches headerA against headerB ignoring case and surrounding
// whitespace. Matching is greedy in A's order; each B column is used at
// most once and empty headers never match.
func Columns(headerA, headerB []string) Alignment {
	keyB := make([]string, len(headerB))
	for j, h := range headerB {
		keyB[j] = fold(h)
	}
	usedB := make([]bool, len(headerB))

	var out Alignment
	for i, h := range headerA {
		k := fold(h)
		if k == "" {
			continue
		}
		matched := false
		for j := range headerB {
			if !usedB[j] && keyB[j] == k {
				usedB[j] = true
				out.Common = append(out.Common, Column{Name: strings.TrimSpace(h), IndexA: i, IndexB: j})
				matched = true
				break
			}
		}
		if !matched {
			out.OnlyInA = append(out.OnlyInA, strings.TrimSpace(h))
		}
	}
	for j, h := range headerB {
		if !usedB[j] && keyB[j] != "" {
			out.OnlyInB = append(out.OnlyInB, strings.TrimSpace(h))
		}
	}
	return out
}

// Positional reports that no header matched, so columns are compared by
// position instead of by name.
func (a Alignment) Positional() bool {
	return len(a.Common) == 0
}

// Schema is the shared column layout rows are projected into. A and B
// hold the source column of each schema column, or -1 when that side has
// no such column.
type Schema struct {
	Headers []string `json:"headers" yaml:"headers"`
	A       []int    `json:"-" yaml:"-"`
	B       []int    `json:"-" yaml:"-"`
}

// Schema builds the shared layout. Named alignments keep the common
// columns in A's order. Positional alignments span the wider table and
// take their headers from it.
func (a Alignment) Schema(headerA, headerB []string) Schema {
	var s Schema
	if !a.Positional() {
		for _, c := range a.Common {
			s.Headers = append(s.Headers, c.Name)
			s.A = append(s.A, c.IndexA)
			s.B = append(s.B, c.IndexB)
		}
		return s
	}

	longer := headerA
	if len(headerB) > len(headerA) {
		longer = headerB
	}
	for i := range longer {
		s.Headers = append(s.Headers, strings.TrimSpace(longer[i]))
		s.A = append(s.A, indexOrMissing(i, len(headerA)))
		s.B = append(s.B, indexOrMissing(i, len(headerB)))
	}
	return s
}

// Width is the number of schema columns.
func (s Schema) Width() int {
	return len(s.Headers)
}

// Exclude drops every column whose header equals one of names, ignoring
// case and surrounding whitespace.
func (s Schema) Exclude(names []string) Schema {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		if k := fold(n); k != "" {
			drop[k] = true
		}
	}
	if len(drop) == 0 {
		return s
	}

	var out Schema
	for i, h := range s.Headers {
		if drop[fold(h)] {
			continue
		}
		out.Headers = append(out.Headers, h)
		out.A = append(out.A, s.A[i])
		out.B = append(out.B, s.B[i])
	}
	return out
}

// ProjectA reorders a row of table A into the schema.
func (s Schema) ProjectA(r table.Row) table.Row {
	return project(r, s.A)
}

// ProjectB reorders a row of table B into the schema.
func (s Schema) ProjectB(r table.Row) table.Row {
	return project(r, s.B)
}

// ProjectRowsA projects every row of table A.
func (s Schema) ProjectRowsA(rows []table.Row) []table.Row {
	return projectAll(rows, s.A)
}

// ProjectRowsB projects every row of table B.
func (s Schema) ProjectRowsB(rows []table.Row) []table.Row {
	return projectAll(rows, s.B)
}

func projectAll(rows []table.Row, idx []int) []table.Row {
	out := make([]table.Row, len(rows))
	for i, r := range rows {
		out[i] = project(r, idx)
	}
	return out
}

func project(r table.Row, idx []int) table.Row {
	out := make(table.Row, len(idx))
	for i, src := range idx {
		out[i] = r.At(src)
	}
	return out
}

func indexOrMissing(i, n int) int {
	if i < n {
		return i
	}
	return -1
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
