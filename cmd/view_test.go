package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewParams_Options(t *testing.T) {
	headers := []string{"ID", "CITY", "PRICE"}
	p := viewParams{
		HideIdentical: true,
		HideOnlyB:     true,
		Filters:       []string{"city=par", " price =1.5"},
		Sort:          "Price",
		Desc:          true,
		Lang:          "ru",
	}

	opts, err := p.options(headers)
	require.NoError(t, err)
	assert.True(t, opts.HideIdentical)
	assert.False(t, opts.HideOnlyA)
	assert.True(t, opts.HideOnlyB)
	assert.Equal(t, map[int]string{1: "par", 2: "1.5"}, opts.ColumnFilters)
	assert.True(t, opts.Sort)
	assert.Equal(t, 2, opts.SortColumn)
	assert.True(t, opts.SortDesc)
	assert.Equal(t, "ru", opts.Language.String())
}

func TestViewParams_Empty(t *testing.T) {
	opts, err := viewParams{}.options([]string{"ID"})
	require.NoError(t, err)
	assert.False(t, opts.Sort)
	assert.Nil(t, opts.ColumnFilters)
}

func TestViewParams_Errors(t *testing.T) {
	headers := []string{"ID"}
	tests := []struct {
		name string
		p    viewParams
		msg  string
	}{
		{"filter without equals", viewParams{Filters: []string{"id"}}, "COLUMN=TEXT"},
		{"filter unknown column", viewParams{Filters: []string{"x=1"}}, `unknown column "x"`},
		{"sort unknown column", viewParams{Sort: "x"}, `unknown column "x"`},
		{"bad language", viewParams{Lang: "not a tag!"}, "parse language"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.p.options(headers)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
