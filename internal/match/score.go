package match

import (
	"math"
	"strings"

	"github.com/sells-group/tablediff/internal/table"
	"github.com/sells-group/tablediff/internal/tolerance"
)

// Scoring weights and acceptance thresholds.
const (
	// KeyWeight multiplies agreement on a key column.
	KeyWeight = 3
	// ToleranceCredit is the partial credit for a near match in tolerance mode.
	ToleranceCredit = 0.7

	keyShare       = 0.6
	columnShare    = 0.5
	tolKeyShare    = 0.8
	tolColumnShare = 0.7
)

// prepared caches the text forms of a row so scoring never re-renders cells.
type prepared struct {
	text  []string
	upper []string
}

func prepare(rows []table.Row, width int) []prepared {
	out := make([]prepared, len(rows))
	for i, r := range rows {
		p := prepared{text: make([]string, width), upper: make([]string, width)}
		for c := 0; c < width; c++ {
			p.text[c] = r.At(c).Text()
			p.upper[c] = strings.ToUpper(strings.TrimSpace(p.text[c]))
		}
		out[i] = p
	}
	return out
}

// scorer computes weighted agreement between prepared rows.
type scorer struct {
	width     int
	isKey     []bool
	tolerance bool
	cmp       tolerance.Comparator
	minKey    float64
	minTotal  float64
}

func newScorer(in Input) scorer {
	width := max(in.ColumnCount, 0)
	keys := validKeys(in.KeyColumns, width)
	isKey := make([]bool, width)
	for _, k := range keys {
		isKey[k] = true
	}

	ks, cs := keyShare, columnShare
	if in.Tolerance {
		ks, cs = tolKeyShare, tolColumnShare
	}
	return scorer{
		width:     width,
		isKey:     isKey,
		tolerance: in.Tolerance,
		cmp:       in.Comparator,
		minKey:    math.Ceil(float64(len(keys))*ks) * KeyWeight,
		minTotal:  math.Ceil(float64(width) * cs),
	}
}

// validKeys drops out-of-range key columns. With nothing left, column 0
// is the key.
func validKeys(keys []int, width int) []int {
	var out []int
	for _, k := range keys {
		if k >= 0 && k < width {
			out = append(out, k)
		}
	}
	if len(out) == 0 && width > 0 {
		out = []int{0}
	}
	return out
}

func (s scorer) cell(a, b prepared, c int) tolerance.Result {
	if a.upper[c] == b.upper[c] {
		return tolerance.Identical
	}
	if !s.tolerance {
		return tolerance.Different
	}
	return s.cmp.Compare(a.text[c], b.text[c])
}

// score is keyMatches*3 + otherMatches, with near matches earning
// ToleranceCredit of a full match in tolerance mode.
func (s scorer) score(a, b prepared) float64 {
	var total float64
	for c := 0; c < s.width; c++ {
		var credit float64
		switch s.cell(a, b, c) {
		case tolerance.Identical:
			credit = 1
		case tolerance.Tolerance:
			credit = ToleranceCredit
		default:
			continue
		}
		if s.isKey[c] {
			credit *= KeyWeight
		}
		total += credit
	}
	return total
}

// accept reports whether a best score is strong enough to pair two rows.
func (s scorer) accept(score float64) bool {
	return score >= s.minKey || score >= s.minTotal
}

// pair builds a two-sided RowPair with per-cell results.
func (s scorer) pair(in Input, a, b prepared, ia, ib int, score float64) RowPair {
	cells := make([]tolerance.Result, s.width)
	kind := Identical
	for c := 0; c < s.width; c++ {
		r := s.cell(a, b, c)
		cells[c] = r
		switch {
		case r == tolerance.Different:
			kind = Different
		case r == tolerance.Tolerance && kind == Identical:
			kind = Tolerance
		}
	}
	return RowPair{A: in.A[ia], B: in.B[ib], IndexA: ia, IndexB: ib, Kind: kind, Cells: cells, Score: score}
}

func onlyA(in Input, i int) RowPair {
	return RowPair{A: in.A[i], IndexA: i, IndexB: -1, Kind: OnlyInA}
}

func onlyB(in Input, j int) RowPair {
	return RowPair{B: in.B[j], IndexA: -1, IndexB: j, Kind: OnlyInB}
}

// Classify compares two rows outside any matcher, for callers that pair
// rows themselves.
func Classify(a, b table.Row, columnCount int, tolMode bool, cmp tolerance.Comparator) RowPair {
	in := Input{A: []table.Row{a}, B: []table.Row{b}, ColumnCount: columnCount, Tolerance: tolMode, Comparator: cmp}
	s := newScorer(in)
	pa, pb := prepare(in.A, s.width), prepare(in.B, s.width)
	return s.pair(in, pa[0], pb[0], 0, 0, s.score(pa[0], pb[0]))
}
