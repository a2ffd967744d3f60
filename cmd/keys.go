package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/tablediff/internal/align"
	"github.com/sells-group/tablediff/internal/classify"
	"github.com/sells-group/tablediff/internal/fetcher"
	"github.com/sells-group/tablediff/internal/keydetect"
	"github.com/sells-group/tablediff/internal/normalize"
	"github.com/sells-group/tablediff/internal/table"
)

var (
	keysSheet string
	keysJSON  bool
)

// columnReport describes one column of a key analysis.
type columnReport struct {
	keydetect.Score
	Type classify.Type `json:"type"`
	Key  bool          `json:"key"`
}

var keysCmd = &cobra.Command{
	Use:   "keys <file> [file-b]",
	Short: "Show detected key columns and column types",
	Long:  "Scores every column as a row identifier. With two files the columns are aligned first and both files are scored together, as compare does.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		csvOpts, err := csvOptions(cfg.Input, cmd.Flags())
		if err != nil {
			return err
		}
		opts := fetcher.Options{Sheet: keysSheet, CSV: csvOpts}
		loader := newLoader(cfg.Input)

		var tables []*table.Table
		if len(args) == 1 {
			t, err := loader.Load(ctx, args[0], opts)
			if err != nil {
				return eris.Wrap(err, "keys: load input")
			}
			tables = append(tables, t)
		} else {
			a, b, err := loader.LoadPair(ctx, args[0], args[1], opts, opts)
			if err != nil {
				return eris.Wrap(err, "keys: load inputs")
			}
			tables = append(tables, a, b)
		}

		report := analyzeKeys(tables...)
		if keysJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		}
		return printKeys(cmd.OutOrStdout(), report)
	},
}

// analyzeKeys scores the columns of one table, or of two tables projected
// into their shared schema.
func analyzeKeys(tables ...*table.Table) []columnReport {
	prepared := make([]*table.Table, len(tables))
	for i, t := range tables {
		c := t.Clone()
		c.Pad()
		normalize.Table(c, classify.DateColumns(c))
		prepared[i] = c
	}

	merged := prepared[0]
	if len(prepared) > 1 {
		a, b := prepared[0], prepared[1]
		schema := align.Columns(a.Header, b.Header).Schema(a.Header, b.Header)
		merged = &table.Table{
			Header: schema.Headers,
			Rows:   append(schema.ProjectRowsA(a.Rows), schema.ProjectRowsB(b.Rows)...),
		}
	}

	scores := keydetect.Analyze(merged.Header, merged.Rows)
	keys := keydetect.Select(scores)
	types := classify.ColumnTypes(merged)

	out := make([]columnReport, len(scores))
	for i, s := range scores {
		out[i] = columnReport{Score: s, Key: contains(keys, s.Index)}
		if i < len(types) {
			out[i].Type = types[i]
		}
	}
	return out
}

func printKeys(out io.Writer, report []columnReport) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "COLUMN\tTYPE\tSCORE\tUNIQUE\tAGGREGATE\tKEY")
	_, _ = fmt.Fprintln(w, "------\t----\t-----\t------\t---------\t---")
	for _, c := range report {
		key := ""
		if c.Key {
			key = "*"
		}
		agg := ""
		if c.Aggregation {
			agg = fmt.Sprintf("%.0f%%", c.Confidence*100)
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.1f\t%.0f%%\t%s\t%s\n",
			c.Header, c.Type, c.Total, c.Uniqueness*100, agg, key)
	}
	return w.Flush()
}

func contains(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

func init() {
	keysCmd.Flags().StringVar(&keysSheet, "sheet", "", "sheet to read when an input is a workbook")
	keysCmd.Flags().BoolVar(&keysJSON, "json", false, "print the analysis as JSON")
	rootCmd.AddCommand(keysCmd)
}
