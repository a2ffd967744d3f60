package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/tablediff/internal/match"
	"github.com/sells-group/tablediff/internal/table"
)

func pair(kind match.Kind, a, b []string) match.RowPair {
	p := match.RowPair{Kind: kind, IndexA: -1, IndexB: -1}
	if a != nil {
		p.A = textRow(a)
	}
	if b != nil {
		p.B = textRow(b)
	}
	return p
}

func textRow(vals []string) table.Row {
	r := make(table.Row, len(vals))
	for i, v := range vals {
		r[i] = table.String(v)
	}
	return r
}

func firstCells(pairs []match.RowPair) []string {
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = sortText(p, 0)
	}
	return out
}

func samplePairs() []match.RowPair {
	return []match.RowPair{
		pair(match.Identical, []string{"banana", "1"}, []string{"banana", "1"}),
		pair(match.Different, []string{"apple", "2"}, []string{"apple", "3"}),
		pair(match.Tolerance, []string{"Cherry", "100"}, []string{"Cherry", "101"}),
		pair(match.OnlyInA, []string{"date", "4"}, nil),
		pair(match.OnlyInB, nil, []string{"elder", "5"}),
	}
}

func TestView_NoOptionsKeepsOrder(t *testing.T) {
	got := View(samplePairs(), ViewOptions{})
	assert.Equal(t, []string{"banana", "apple", "Cherry", "date", "elder"}, firstCells(got))
}

func TestView_HideFlags(t *testing.T) {
	got := View(samplePairs(), ViewOptions{HideIdentical: true, HideOnlyB: true})
	assert.Equal(t, []string{"apple", "Cherry", "date"}, firstCells(got))

	got = View(samplePairs(), ViewOptions{HideDifferent: true, HideOnlyA: true})
	assert.Equal(t, []string{"banana", "elder"}, firstCells(got))
}

func TestView_ColumnFilters(t *testing.T) {
	got := View(samplePairs(), ViewOptions{ColumnFilters: map[int]string{1: "3"}})
	assert.Equal(t, []string{"apple"}, firstCells(got))

	got = View(samplePairs(), ViewOptions{ColumnFilters: map[int]string{0: "CHER", 1: " "}})
	assert.Equal(t, []string{"Cherry"}, firstCells(got))
}

func TestView_SortCollated(t *testing.T) {
	got := View(samplePairs(), ViewOptions{Sort: true, SortColumn: 0})
	assert.Equal(t, []string{"apple", "banana", "Cherry", "date", "elder"}, firstCells(got))

	got = View(samplePairs(), ViewOptions{Sort: true, SortColumn: 0, SortDesc: true})
	assert.Equal(t, []string{"elder", "date", "Cherry", "banana", "apple"}, firstCells(got))
}

func TestView_SortIsStable(t *testing.T) {
	pairs := []match.RowPair{
		pair(match.Identical, []string{"x", "1"}, []string{"x", "1"}),
		pair(match.Identical, []string{"x", "2"}, []string{"x", "2"}),
		pair(match.Identical, []string{"a", "3"}, []string{"a", "3"}),
	}
	got := View(pairs, ViewOptions{Sort: true, SortColumn: 0})
	assert.Equal(t, "3", got[0].A[1].Text())
	assert.Equal(t, "1", got[1].A[1].Text())
	assert.Equal(t, "2", got[2].A[1].Text())
}

func TestView_DoesNotModifyInput(t *testing.T) {
	pairs := samplePairs()
	View(pairs, ViewOptions{Sort: true, SortColumn: 0, HideIdentical: true})
	assert.Equal(t, []string{"banana", "apple", "Cherry", "date", "elder"}, firstCells(pairs))
}
