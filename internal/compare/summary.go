package compare

import (
	"math"

	"github.com/sells-group/tablediff/internal/match"
)

// Similarity classes.
const (
	ClassLow    = "low"
	ClassMedium = "medium"
	ClassHigh   = "high"
)

// Summary counts the outcome of a comparison.
type Summary struct {
	RowsA     int `json:"rows_a" yaml:"rows_a"`
	RowsB     int `json:"rows_b" yaml:"rows_b"`
	Identical int `json:"identical" yaml:"identical"`
	Tolerance int `json:"tolerance" yaml:"tolerance"`
	Different int `json:"different" yaml:"different"`
	OnlyInA   int `json:"only_in_a" yaml:"only_in_a"`
	OnlyInB   int `json:"only_in_b" yaml:"only_in_b"`

	// Both is the number of pairs counted as present in both files:
	// identical pairs, plus tolerance pairs in tolerance mode.
	Both int `json:"both" yaml:"both"`

	// Similarity is Both as a percentage of the larger file, capped at 100
	// and rounded to two decimals.
	Similarity float64 `json:"similarity" yaml:"similarity"`
	Class      string  `json:"class" yaml:"class"`
}

// Summarize counts pairs by kind.
func Summarize(pairs []match.RowPair, rowsA, rowsB int, toleranceMode bool) Summary {
	s := Summary{RowsA: rowsA, RowsB: rowsB}
	for _, p := range pairs {
		switch p.Kind {
		case match.Identical:
			s.Identical++
		case match.Tolerance:
			s.Tolerance++
		case match.Different:
			s.Different++
		case match.OnlyInA:
			s.OnlyInA++
		case match.OnlyInB:
			s.OnlyInB++
		}
	}

	s.Both = s.Identical
	if toleranceMode {
		s.Both += s.Tolerance
	}
	if larger := max(rowsA, rowsB); larger > 0 {
		pct := math.Min(float64(s.Both)/float64(larger)*100, 100)
		s.Similarity = math.Round(pct*100) / 100
	}
	s.Class = Class(s.Similarity)
	return s
}

// Class buckets a similarity percentage.
func Class(similarity float64) string {
	switch {
	case similarity < 30:
		return ClassLow
	case similarity < 70:
		return ClassMedium
	default:
		return ClassHigh
	}
}
