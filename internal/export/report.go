// Package export writes comparison results as spreadsheets, CSV and
// structured reports.
package export

import (
	"encoding/json"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/tablediff/internal/align"
	"github.com/sells-group/tablediff/internal/compare"
	"github.com/sells-group/tablediff/internal/match"
	"github.com/sells-group/tablediff/internal/table"
)

// Source labels used when a table has no name.
const (
	DefaultNameA = "File 1"
	DefaultNameB = "File 2"
	BothLabel    = "Both files"
)

// Report is the structured form of a comparison written as JSON or YAML.
type Report struct {
	ID         string            `json:"id" yaml:"id"`
	CreatedAt  time.Time         `json:"created_at" yaml:"created_at"`
	FileA      string            `json:"file_a" yaml:"file_a"`
	FileB      string            `json:"file_b" yaml:"file_b"`
	Strategy   string            `json:"strategy" yaml:"strategy"`
	Tolerance  bool              `json:"tolerance" yaml:"tolerance"`
	Headers    []string          `json:"headers" yaml:"headers"`
	KeyColumns []string          `json:"key_columns" yaml:"key_columns"`
	Alignment  align.Alignment   `json:"alignment" yaml:"alignment"`
	Summary    compare.Summary   `json:"summary" yaml:"summary"`
	Warnings   []compare.Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Pairs      []match.RowPair   `json:"pairs" yaml:"pairs"`
}

// NewReport builds a report for s. pairs is usually a filtered or sorted
// view of s.Pairs; nil means all pairs.
func NewReport(s *compare.Session, pairs []match.RowPair) Report {
	if pairs == nil {
		pairs = s.Pairs
	}
	nameA, nameB := Names(s)
	return Report{
		ID:         s.ID,
		CreatedAt:  s.CreatedAt,
		FileA:      nameA,
		FileB:      nameB,
		Strategy:   s.Strategy,
		Tolerance:  s.Tolerance,
		Headers:    s.Schema.Headers,
		KeyColumns: s.KeyNames(),
		Alignment:  s.Alignment,
		Summary:    s.Summary,
		Warnings:   s.Warnings,
		Pairs:      pairs,
	}
}

// WriteJSON writes the report as indented JSON.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return eris.Wrap(err, "export: encode json")
	}
	return nil
}

// WriteYAML writes the report as YAML.
func WriteYAML(w io.Writer, r Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return eris.Wrap(err, "export: encode yaml")
	}
	if err := enc.Close(); err != nil {
		return eris.Wrap(err, "export: flush yaml")
	}
	return nil
}

// Names returns the display names of both sides of s.
func Names(s *compare.Session) (string, string) {
	return tableName(s.A, DefaultNameA), tableName(s.B, DefaultNameB)
}

func tableName(t *table.Table, fallback string) string {
	if t == nil || t.Name == "" {
		return fallback
	}
	return t.Name
}

// line is one output row: its source label, values and the pair it came
// from.
type line struct {
	source string
	row    table.Row
	pair   *match.RowPair
	first  bool // first line of a two-line pair
	second bool // second line of a two-line pair
}

// lines flattens pairs into output rows. Identical pairs and one-sided
// pairs take one row; tolerance and different pairs take two, A first.
func lines(pairs []match.RowPair, nameA, nameB string) []line {
	out := make([]line, 0, len(pairs))
	for i := range pairs {
		p := &pairs[i]
		switch p.Kind {
		case match.Identical:
			out = append(out, line{source: BothLabel, row: p.A, pair: p})
		case match.OnlyInA:
			out = append(out, line{source: nameA, row: p.A, pair: p})
		case match.OnlyInB:
			out = append(out, line{source: nameB, row: p.B, pair: p})
		default:
			out = append(out,
				line{source: nameA, row: p.A, pair: p, first: true},
				line{source: nameB, row: p.B, pair: p, second: true},
			)
		}
	}
	return out
}
