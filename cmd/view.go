package main

import (
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"

	"github.com/sells-group/tablediff/internal/compare"
)

// viewParams are the filter and sort settings shared by the compare flags
// and the HTTP query string.
type viewParams struct {
	HideIdentical bool
	HideDifferent bool
	HideOnlyA     bool
	HideOnlyB     bool
	Filters       []string // COLUMN=TEXT
	Sort          string
	Desc          bool
	Lang          string
}

// options resolves column names against the compared headers.
func (p viewParams) options(headers []string) (compare.ViewOptions, error) {
	opts := compare.ViewOptions{
		HideIdentical: p.HideIdentical,
		HideDifferent: p.HideDifferent,
		HideOnlyA:     p.HideOnlyA,
		HideOnlyB:     p.HideOnlyB,
		SortDesc:      p.Desc,
	}

	for _, f := range p.Filters {
		name, text, ok := strings.Cut(f, "=")
		if !ok {
			return opts, eris.Errorf("view: filter %q must look like COLUMN=TEXT", f)
		}
		col, err := columnIndex(headers, name)
		if err != nil {
			return opts, err
		}
		if opts.ColumnFilters == nil {
			opts.ColumnFilters = make(map[int]string)
		}
		opts.ColumnFilters[col] = text
	}

	if p.Sort != "" {
		col, err := columnIndex(headers, p.Sort)
		if err != nil {
			return opts, err
		}
		opts.Sort = true
		opts.SortColumn = col
	}

	if p.Lang != "" {
		tag, err := language.Parse(p.Lang)
		if err != nil {
			return opts, eris.Wrapf(err, "view: parse language %q", p.Lang)
		}
		opts.Language = tag
	}
	return opts, nil
}

func columnIndex(headers []string, name string) (int, error) {
	want := strings.TrimSpace(name)
	for i, h := range headers {
		if strings.EqualFold(strings.TrimSpace(h), want) {
			return i, nil
		}
	}
	return 0, eris.Errorf("view: unknown column %q", name)
}
