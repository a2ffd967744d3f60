package compare

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/sells-group/tablediff/internal/match"
	"github.com/sells-group/tablediff/internal/table"
)

// ViewOptions selects and orders the pairs shown to a user.
type ViewOptions struct {
	HideIdentical bool
	HideOnlyA     bool
	HideOnlyB     bool
	// HideDifferent hides every two-sided pair that is not identical,
	// tolerance pairs included.
	HideDifferent bool

	// ColumnFilters keeps pairs whose value in the column contains the
	// substring on either side, ignoring case.
	ColumnFilters map[int]string

	// Sort orders pairs by SortColumn's text; otherwise match order is kept.
	Sort       bool
	SortColumn int
	SortDesc   bool

	// Language drives collation. The zero value sorts by root collation.
	Language language.Tag
}

// View filters and sorts pairs. The input is not modified.
func View(pairs []match.RowPair, opts ViewOptions) []match.RowPair {
	filters := make(map[int]string, len(opts.ColumnFilters))
	for col, f := range opts.ColumnFilters {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			filters[col] = f
		}
	}

	out := make([]match.RowPair, 0, len(pairs))
	for _, p := range pairs {
		if hidden(p, opts) || !matchesFilters(p, filters) {
			continue
		}
		out = append(out, p)
	}

	if opts.Sort {
		out = sortPairs(out, opts)
	}
	return out
}

// sortPairs is a stable sort on collated column text.
func sortPairs(pairs []match.RowPair, opts ViewOptions) []match.RowPair {
	col := collate.New(opts.Language)
	texts := make([]string, len(pairs))
	idx := make([]int, len(pairs))
	for i, p := range pairs {
		texts[i] = sortText(p, opts.SortColumn)
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		c := col.CompareString(texts[idx[i]], texts[idx[j]])
		if opts.SortDesc {
			return c > 0
		}
		return c < 0
	})

	out := make([]match.RowPair, len(pairs))
	for i, k := range idx {
		out[i] = pairs[k]
	}
	return out
}

func hidden(p match.RowPair, opts ViewOptions) bool {
	switch p.Kind {
	case match.Identical:
		return opts.HideIdentical
	case match.OnlyInA:
		return opts.HideOnlyA
	case match.OnlyInB:
		return opts.HideOnlyB
	case match.Different, match.Tolerance:
		return opts.HideDifferent
	}
	return false
}

func matchesFilters(p match.RowPair, filters map[int]string) bool {
	for col, f := range filters {
		if !contains(p.A, col, f) && !contains(p.B, col, f) {
			return false
		}
	}
	return true
}

func contains(r table.Row, col int, f string) bool {
	if r == nil {
		return false
	}
	return strings.Contains(strings.ToLower(r.At(col).Text()), f)
}

// sortText uses the A value when present, otherwise the B value.
func sortText(p match.RowPair, col int) string {
	if p.A != nil {
		return p.A.At(col).Text()
	}
	return p.B.At(col).Text()
}
