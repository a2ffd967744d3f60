package compare

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/tablediff/internal/match"
	"github.com/sells-group/tablediff/internal/table"
)

func tbl(header []string, rows ...[]string) *table.Table {
	t := &table.Table{Header: append([]string(nil), header...)}
	for _, r := range rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = table.String(v)
		}
		t.Rows = append(t.Rows, row)
	}
	t.Prepare()
	return t
}

func kinds(pairs []match.RowPair) []match.Kind {
	out := make([]match.Kind, len(pairs))
	for i, p := range pairs {
		out[i] = p.Kind
	}
	return out
}

func TestRun_IdenticalTables(t *testing.T) {
	a := tbl([]string{"id", "name"}, []string{"1", "alpha"}, []string{"2", "beta"})
	b := tbl([]string{"ID", "Name"}, []string{"1", "alpha"}, []string{"2", "beta"})

	s, err := Run(context.Background(), a, b, Options{})
	require.NoError(t, err)

	assert.NotEmpty(t, s.ID)
	assert.True(t, s.Compared())
	assert.Equal(t, []string{"ID", "NAME"}, s.Schema.Headers)
	assert.Equal(t, []match.Kind{match.Identical, match.Identical}, kinds(s.Pairs))
	assert.Equal(t, 2, s.Summary.Both)
	assert.InDelta(t, 100.0, s.Summary.Similarity, 1e-9)
	assert.Equal(t, ClassHigh, s.Summary.Class)
	assert.Equal(t, match.StrategyGreedy, s.Strategy)
	assert.Empty(t, s.Warnings)
}

func TestRun_LongIDsKeepAllDigits(t *testing.T) {
	a := tbl([]string{"Account", "Amount"}, []string{"12345678901234567890", "10"})
	b := tbl([]string{"Account", "Amount"}, []string{"12345678901234567891", "10"})

	s, err := Run(context.Background(), a, b, Options{})
	require.NoError(t, err)

	assert.NotContains(t, kinds(s.Pairs), match.Identical)
	var texts []string
	for _, p := range s.Pairs {
		if p.A != nil {
			texts = append(texts, p.A[0].Text())
		}
		if p.B != nil {
			texts = append(texts, p.B[0].Text())
		}
	}
	assert.ElementsMatch(t, []string{"12345678901234567890", "12345678901234567891"}, texts)
	assert.Equal(t, 0, s.Summary.Identical)
}

func TestRun_DoesNotModifyInputs(t *testing.T) {
	a := tbl([]string{"ID", "AMOUNT"}, []string{"1", "10.005"})
	b := tbl([]string{"ID", "AMOUNT"}, []string{"1", "10.01"})

	_, err := Run(context.Background(), a, b, Options{})
	require.NoError(t, err)
	assert.Equal(t, table.String("10.005"), a.Rows[0][1])
}

func TestRun_DifferentAndOneSided(t *testing.T) {
	a := tbl([]string{"ID", "CITY"},
		[]string{"1", "Paris"},
		[]string{"2", "Rome"},
		[]string{"3", "Oslo"},
	)
	b := tbl([]string{"ID", "CITY"},
		[]string{"1", "Paris"},
		[]string{"2", "Milan"},
		[]string{"4", "Bern"},
	)

	s, err := Run(context.Background(), a, b, Options{KeyColumns: []string{"id"}})
	require.NoError(t, err)

	assert.Equal(t, []int{0}, s.KeyColumns)
	assert.Equal(t, []string{"ID"}, s.KeyNames())
	assert.Equal(t, 1, s.Summary.Identical)
	assert.Equal(t, 1, s.Summary.Different)
	assert.Equal(t, 1, s.Summary.OnlyInA)
	assert.Equal(t, 1, s.Summary.OnlyInB)
	assert.InDelta(t, 33.33, s.Summary.Similarity, 1e-9)
	assert.Equal(t, ClassMedium, s.Summary.Class)
}

func TestRun_DateNormalizationAcrossFormats(t *testing.T) {
	a := tbl([]string{"ID", "DATE"}, []string{"1", "31.12.2020"}, []string{"2", "01.01.2021"})
	b := &table.Table{
		Header: []string{"ID", "DATE"},
		Rows: []table.Row{
			{table.String("1"), table.Number(44196)},
			{table.String("2"), table.Number(44197)},
		},
	}
	b.Prepare()

	s, err := Run(context.Background(), a, b, Options{KeyColumns: []string{"ID"}})
	require.NoError(t, err)

	assert.Equal(t, []bool{false, true}, s.DateColumns)
	assert.Equal(t, []match.Kind{match.Identical, match.Identical}, kinds(s.Pairs))
	assert.Equal(t, "2020-12-31", s.Pairs[0].B[1].Text())
}

func TestRun_ToleranceMode(t *testing.T) {
	a := tbl([]string{"ID", "PRICE"}, []string{"1", "100.00"}, []string{"2", "50"})
	b := tbl([]string{"ID", "PRICE"}, []string{"1", "101.00"}, []string{"2", "50"})

	s, err := Run(context.Background(), a, b, Options{Tolerance: true, KeyColumns: []string{"ID"}})
	require.NoError(t, err)

	assert.Equal(t, []match.Kind{match.Tolerance, match.Identical}, kinds(s.Pairs))
	assert.Equal(t, 1, s.Summary.Tolerance)
	assert.Equal(t, 2, s.Summary.Both)
	assert.True(t, s.Tolerance)

	strict, err := Run(context.Background(), a, b, Options{KeyColumns: []string{"ID"}})
	require.NoError(t, err)
	assert.Equal(t, 1, strict.Summary.Different)
	assert.Equal(t, 1, strict.Summary.Both)
}

func TestRun_RowCapacity(t *testing.T) {
	a := tbl([]string{"ID"}, []string{"1"}, []string{"2"}, []string{"3"})
	b := tbl([]string{"ID"}, []string{"1"})

	_, err := Run(context.Background(), a, b, Options{Limits: Limits{MaxRows: 2}})
	require.Error(t, err)

	ce, ok := AsCapacity(err)
	require.True(t, ok)
	assert.Equal(t, "A", ce.Side)
	assert.Equal(t, DimensionRows, ce.Dimension)
	assert.Equal(t, 3, ce.Count)
	assert.Equal(t, 2, ce.Limit)
	assert.Equal(t, 1, ce.Excess())
	assert.Contains(t, err.Error(), "1 over the limit of 2")
}

func TestRun_ColumnCapacity(t *testing.T) {
	a := tbl([]string{"A"}, []string{"1"})
	b := tbl([]string{"A", "B", "C"}, []string{"1", "2", "3"})

	_, err := Run(context.Background(), a, b, Options{Limits: Limits{MaxColumns: 2}})
	ce, ok := AsCapacity(err)
	require.True(t, ok)
	assert.Equal(t, "B", ce.Side)
	assert.Equal(t, DimensionColumns, ce.Dimension)
	assert.False(t, IsConfig(err))
}

func TestRun_ExcludeEverything(t *testing.T) {
	a := tbl([]string{"ID", "NAME"}, []string{"1", "x"})
	b := tbl([]string{"ID", "NAME"}, []string{"1", "x"})

	_, err := Run(context.Background(), a, b, Options{Exclude: []string{"id", " Name "}})
	require.Error(t, err)
	assert.True(t, IsConfig(err))
	assert.True(t, errors.Is(err, ErrNoColumns))
}

func TestRun_ExcludeColumn(t *testing.T) {
	a := tbl([]string{"ID", "UPDATED"}, []string{"1", "mon"})
	b := tbl([]string{"ID", "UPDATED"}, []string{"1", "tue"})

	s, err := Run(context.Background(), a, b, Options{Exclude: []string{"updated"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"ID"}, s.Schema.Headers)
	assert.Equal(t, []match.Kind{match.Identical}, kinds(s.Pairs))
}

func TestRun_UnknownStrategy(t *testing.T) {
	a := tbl([]string{"ID"}, []string{"1"})

	_, err := Run(context.Background(), a, a, Options{Strategy: "random"})
	assert.True(t, IsConfig(err))
}

func TestRun_ExactTooLarge(t *testing.T) {
	a := tbl([]string{"ID"}, []string{"1"}, []string{"2"}, []string{"3"})

	_, err := Run(context.Background(), a, a, Options{Strategy: match.StrategyExact, ExactMaxRows: 2})
	assert.True(t, IsConfig(err))
	assert.ErrorIs(t, err, match.ErrTooLarge)
}

func TestRun_PositionalWarning(t *testing.T) {
	a := tbl([]string{"X", "Y"}, []string{"1", "2"})
	b := tbl([]string{"P", "Q", "R"}, []string{"1", "2", "3"})

	s, err := Run(context.Background(), a, b, Options{})
	require.NoError(t, err)

	require.Len(t, s.Warnings, 1)
	assert.Equal(t, WarnPositional, s.Warnings[0].Code)
	assert.Equal(t, []string{"P", "Q", "R"}, s.Schema.Headers)
	assert.Equal(t, []match.Kind{match.Different}, kinds(s.Pairs))
}

func TestRun_UnknownKeyFallsBackToDetection(t *testing.T) {
	a := tbl([]string{"ID", "COLOR"},
		[]string{"A1", "red"},
		[]string{"A2", "red"},
		[]string{"A3", "blue"},
	)

	s, err := Run(context.Background(), a, a, Options{KeyColumns: []string{"sku"}})
	require.NoError(t, err)

	require.Len(t, s.Warnings, 1)
	assert.Equal(t, WarnUnknownKeyColumn, s.Warnings[0].Code)
	assert.Contains(t, s.Warnings[0].Message, "sku")
	assert.Equal(t, []int{0}, s.KeyColumns)
	assert.Len(t, s.KeyScores, 2)
}

func TestRun_EmptySide(t *testing.T) {
	a := tbl([]string{"ID"}, []string{"1"}, []string{"2"})
	b := tbl([]string{"ID"})

	s, err := Run(context.Background(), a, b, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Summary.OnlyInA)
	assert.InDelta(t, 0.0, s.Summary.Similarity, 1e-9)
	assert.Equal(t, ClassLow, s.Summary.Class)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	a := tbl([]string{"ID"}, []string{"1"})
	_, err := Run(ctx, a, a, Options{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRun_ReportsProgress(t *testing.T) {
	a := tbl([]string{"ID"}, []string{"1"}, []string{"2"})

	var got []match.Progress
	_, err := Run(context.Background(), a, a, Options{Progress: func(p match.Progress) { got = append(got, p) }})
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, match.Progress{Done: 2, Total: 2}, got[len(got)-1])
}
