// Package match pairs the rows of two tables that share a column layout.
package match

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/tablediff/internal/table"
	"github.com/sells-group/tablediff/internal/tolerance"
)

// Kind classifies a RowPair.
type Kind int

// Pair kinds.
const (
	Identical Kind = iota
	Tolerance
	Different
	OnlyInA
	OnlyInB
)

func (k Kind) String() string {
	switch k {
	case Identical:
		return "identical"
	case Tolerance:
		return "tolerance"
	case Different:
		return "different"
	case OnlyInA:
		return "only_a"
	default:
		return "only_b"
	}
}

// MarshalText renders the kind name in JSON and YAML reports.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name written by MarshalText.
func (k *Kind) UnmarshalText(b []byte) error {
	for c := Identical; c <= OnlyInB; c++ {
		if c.String() == string(b) {
			*k = c
			return nil
		}
	}
	return eris.Errorf("match: unknown pair kind %q", b)
}

// RowPair is one unit of comparison output. A single-sided pair has a nil
// row and an index of -1 on the missing side.
type RowPair struct {
	A      table.Row          `json:"a" yaml:"a"`
	B      table.Row          `json:"b" yaml:"b"`
	IndexA int                `json:"index_a" yaml:"index_a"`
	IndexB int                `json:"index_b" yaml:"index_b"`
	Kind   Kind               `json:"kind" yaml:"kind"`
	Cells  []tolerance.Result `json:"cells,omitempty" yaml:"cells,omitempty"`
	Score  float64            `json:"score" yaml:"score"`
}

// Progress reports how many rows of A a matcher has processed.
type Progress struct {
	Done  int
	Total int
}

// Input is everything a matcher needs. Rows must already be projected into
// the shared schema and normalized.
type Input struct {
	A           []table.Row
	B           []table.Row
	KeyColumns  []int
	ColumnCount int
	Tolerance   bool
	Comparator  tolerance.Comparator
	Progress    func(Progress)
}

// Matcher is a row pairing strategy. Every strategy returns each row of A
// and each row of B in exactly one pair.
type Matcher interface {
	Match(ctx context.Context, in Input) ([]RowPair, error)
}

// Strategy names accepted by New.
const (
	StrategyGreedy = "greedy"
	StrategyExact  = "exact"
	StrategySQL    = "sql"
)

// ErrTooLarge is returned by strategies that cap their input size.
var ErrTooLarge = eris.New("match: input too large for strategy")

// New returns the matcher registered under name. exactMaxRows caps the
// exact strategy.
func New(name string, exactMaxRows int) (Matcher, error) {
	switch name {
	case "", StrategyGreedy:
		return Greedy{}, nil
	case StrategyExact:
		return Exact{MaxRows: exactMaxRows}, nil
	case StrategySQL:
		return SQL{}, nil
	default:
		return nil, eris.Errorf("match: unknown strategy %q", name)
	}
}
