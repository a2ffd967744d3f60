package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/sells-group/tablediff/internal/compare"
	"github.com/sells-group/tablediff/internal/export"
	"github.com/sells-group/tablediff/internal/match"
)

var (
	colorTitle     = color.New(color.FgWhite, color.Bold)
	colorHeader    = color.New(color.FgCyan)
	colorIdentical = color.New(color.FgWhite)
	colorTolerance = color.New(color.FgYellow)
	colorDifferent = color.New(color.FgRed)
	colorOnlyA     = color.New(color.FgGreen)
	colorOnlyB     = color.New(color.FgBlue)
	colorWarning   = color.New(color.FgYellow)

	classColors = map[string]*color.Color{
		compare.ClassLow:    color.New(color.FgRed, color.Bold),
		compare.ClassMedium: color.New(color.FgYellow, color.Bold),
		compare.ClassHigh:   color.New(color.FgGreen, color.Bold),
	}
)

func disableColor() {
	color.NoColor = true
}

// renderText prints the summary and, unless there are more than
// detailedRows pairs, one line per row. Zero detailedRows disables the cap.
func renderText(out io.Writer, s *compare.Session, pairs []match.RowPair, detailedRows int) error {
	nameA, nameB := export.Names(s)

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = colorTitle.Fprintf(w, "%s vs %s\n", nameA, nameB)
	_, _ = fmt.Fprintf(w, "Rows:\t%d / %d\n", s.Summary.RowsA, s.Summary.RowsB)
	_, _ = fmt.Fprintf(w, "Key columns:\t%s\n", strings.Join(s.KeyNames(), ", "))
	_, _ = fmt.Fprintf(w, "Identical:\t%d\n", s.Summary.Identical)
	if s.Tolerance {
		_, _ = fmt.Fprintf(w, "Tolerance:\t%d\n", s.Summary.Tolerance)
	}
	_, _ = fmt.Fprintf(w, "Different:\t%d\n", s.Summary.Different)
	_, _ = fmt.Fprintf(w, "Only in %s:\t%d\n", nameA, s.Summary.OnlyInA)
	_, _ = fmt.Fprintf(w, "Only in %s:\t%d\n", nameB, s.Summary.OnlyInB)
	_, _ = fmt.Fprintf(w, "Similarity:\t%s\n", classColor(s.Summary.Class).Sprintf("%.2f%% (%s)", s.Summary.Similarity, s.Summary.Class))
	if len(s.Alignment.OnlyInA) > 0 {
		_, _ = fmt.Fprintf(w, "Columns only in %s:\t%s\n", nameA, strings.Join(s.Alignment.OnlyInA, ", "))
	}
	if len(s.Alignment.OnlyInB) > 0 {
		_, _ = fmt.Fprintf(w, "Columns only in %s:\t%s\n", nameB, strings.Join(s.Alignment.OnlyInB, ", "))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for _, warn := range s.Warnings {
		_, _ = colorWarning.Fprintf(out, "warning: %s\n", warn.Message)
	}

	if detailedRows > 0 && len(pairs) > detailedRows {
		_, _ = fmt.Fprintf(out, "\n%d rows to show, above the limit of %d; use --format or --output for the full result.\n",
			len(pairs), detailedRows)
		return nil
	}
	if len(pairs) == 0 {
		return nil
	}

	_, _ = fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	// Every source cell carries one single-attribute color so the escape
	// codes have equal width and the columns stay aligned.
	printRow(w, colorHeader, "SOURCE", s.Schema.Headers)
	for _, p := range pairs {
		switch p.Kind {
		case match.Identical:
			printRow(w, colorIdentical, export.BothLabel, p.A.Texts())
		case match.OnlyInA:
			printRow(w, colorOnlyA, nameA, p.A.Texts())
		case match.OnlyInB:
			printRow(w, colorOnlyB, nameB, p.B.Texts())
		default:
			c := colorDifferent
			if p.Kind == match.Tolerance {
				c = colorTolerance
			}
			printRow(w, c, nameA, p.A.Texts())
			printRow(w, c, nameB, p.B.Texts())
		}
	}
	return w.Flush()
}

func printRow(w io.Writer, c *color.Color, source string, values []string) {
	_, _ = fmt.Fprintf(w, "%s\t%s\n", c.Sprint(source), strings.Join(values, "\t"))
}

func classColor(class string) *color.Color {
	if c, ok := classColors[class]; ok {
		return c
	}
	return colorTitle
}
