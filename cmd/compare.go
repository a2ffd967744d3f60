package main

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/sells-group/tablediff/internal/compare"
	"github.com/sells-group/tablediff/internal/config"
	"github.com/sells-group/tablediff/internal/export"
	"github.com/sells-group/tablediff/internal/fetcher"
	"github.com/sells-group/tablediff/internal/match"
)

// Output formats.
const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatCSV   = "csv"
	formatXLSX  = "xlsx"
)

var (
	cmpTolerance bool
	cmpThreshold float64
	cmpKeys      []string
	cmpExclude   []string
	cmpStrategy  string
	cmpSheetA    string
	cmpSheetB    string
	cmpEncoding  string
	cmpDelimiter string
	cmpFormat    string
	cmpOutput    string
	cmpNoColor   bool
	cmpView      viewParams
)

var compareCmd = &cobra.Command{
	Use:   "compare <file-a> <file-b>",
	Short: "Compare two tabular files",
	Long: "Compares two CSV, XLSX or JSON files (local paths, http(s) or ftp URLs, optionally zipped). " +
		"Prints a summary and the differing rows, or writes a JSON, YAML, CSV or XLSX report.",
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("compare"); err != nil {
			return err
		}
		ctx := cmd.Context()

		opts := compare.OptionsFromConfig(cfg)
		applyCompareFlags(cmd.Flags(), &opts)

		csvOpts, err := csvOptions(cfg.Input, cmd.Flags())
		if err != nil {
			return err
		}

		a, b, err := newLoader(cfg.Input).LoadPair(ctx, args[0], args[1],
			fetcher.Options{Sheet: cmpSheetA, CSV: csvOpts},
			fetcher.Options{Sheet: cmpSheetB, CSV: csvOpts},
		)
		if err != nil {
			return eris.Wrap(err, "compare: load inputs")
		}

		s, err := compare.Run(ctx, a, b, opts)
		if err != nil {
			return err
		}

		viewOpts, err := cmpView.options(s.Schema.Headers)
		if err != nil {
			return err
		}
		pairs := compare.View(s.Pairs, viewOpts)

		format, err := resolveFormat(cmpFormat, cmpOutput)
		if err != nil {
			return err
		}
		if cmpNoColor {
			disableColor()
		}

		if cmpOutput == "" {
			return writeResult(cmd.OutOrStdout(), s, pairs, format)
		}
		f, err := os.Create(cmpOutput)
		if err != nil {
			return eris.Wrap(err, "compare: create output")
		}
		if err := writeFileResult(f, s, pairs, format); err != nil {
			return err
		}
		zap.L().Info("compare: report written",
			zap.String("path", cmpOutput),
			zap.String("format", format),
			zap.Int("pairs", len(pairs)),
		)
		return nil
	},
}

// writeFileResult writes the report to f and closes it. A failed close
// fails the write.
func writeFileResult(f io.WriteCloser, s *compare.Session, pairs []match.RowPair, format string) error {
	if err := writeResult(f, s, pairs, format); err != nil {
		f.Close() //nolint:errcheck,gosec
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrap(err, "compare: close output")
	}
	return nil
}

// applyCompareFlags overrides configured options with flags the user set.
func applyCompareFlags(flags *pflag.FlagSet, opts *compare.Options) {
	if flags.Changed("tolerance") {
		opts.Tolerance = cmpTolerance
	}
	if flags.Changed("threshold") {
		opts.Threshold = cmpThreshold
	}
	if flags.Changed("keys") {
		opts.KeyColumns = cmpKeys
	}
	if flags.Changed("exclude") {
		opts.Exclude = cmpExclude
	}
	if flags.Changed("strategy") {
		opts.Strategy = cmpStrategy
	}
}

func csvOptions(in config.InputConfig, flags *pflag.FlagSet) (fetcher.CSVOptions, error) {
	enc, delim := in.Encoding, in.Delimiter
	if flags.Changed("encoding") {
		enc = cmpEncoding
	}
	if flags.Changed("delimiter") {
		delim = cmpDelimiter
	}
	r, err := parseDelimiter(delim)
	if err != nil {
		return fetcher.CSVOptions{}, err
	}
	return fetcher.CSVOptions{Encoding: enc, Delimiter: r}, nil
}

// newLoader builds a loader whose downloads honor input.max_download_mb.
func newLoader(in config.InputConfig) *fetcher.Loader {
	limit := int64(in.MaxDownloadMB) << 20
	return fetcher.NewLoader(
		fetcher.HTTPOptions{MaxBytes: limit},
		fetcher.FTPOptions{MaxBytes: limit},
	)
}

// parseDelimiter accepts a single character, "tab" or `\t`. Empty means
// auto-detect.
func parseDelimiter(s string) (rune, error) {
	switch strings.ToLower(s) {
	case "":
		return 0, nil
	case "tab", `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, eris.Errorf("compare: delimiter %q must be a single character", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

// resolveFormat picks the output format from the flag, or from the output
// file extension when the flag is empty.
func resolveFormat(format, output string) (string, error) {
	if format == "" {
		switch strings.ToLower(filepath.Ext(output)) {
		case ".json":
			format = formatJSON
		case ".yaml", ".yml":
			format = formatYAML
		case ".csv":
			format = formatCSV
		case ".xlsx":
			format = formatXLSX
		default:
			format = formatTable
		}
	}
	switch format {
	case formatTable, formatJSON, formatYAML, formatCSV:
		return format, nil
	case formatXLSX:
		if output == "" {
			return "", eris.New("compare: xlsx output needs --output")
		}
		return format, nil
	default:
		return "", eris.Errorf("compare: unknown format %q", format)
	}
}

func writeResult(w io.Writer, s *compare.Session, pairs []match.RowPair, format string) error {
	switch format {
	case formatJSON:
		return export.WriteJSON(w, export.NewReport(s, pairs))
	case formatYAML:
		return export.WriteYAML(w, export.NewReport(s, pairs))
	case formatCSV:
		return export.WriteCSV(w, s, pairs)
	case formatXLSX:
		return export.WriteXLSX(w, s, pairs)
	default:
		return renderText(w, s, pairs, cfg.Limits.DetailedRows)
	}
}

func init() {
	f := compareCmd.Flags()
	f.BoolVar(&cmpTolerance, "tolerance", false, "treat small numeric and formatting differences as matches")
	f.Float64Var(&cmpThreshold, "threshold", 0, "relative numeric difference allowed in tolerance mode (default from config)")
	f.StringSliceVar(&cmpKeys, "keys", nil, "key columns used to pair rows (default: detected)")
	f.StringSliceVar(&cmpExclude, "exclude", nil, "columns left out of the comparison")
	f.StringVar(&cmpStrategy, "strategy", "", "row matching strategy: greedy, exact or sql (default from config)")
	f.StringVar(&cmpSheetA, "sheet-a", "", "sheet of the first file when it is a workbook")
	f.StringVar(&cmpSheetB, "sheet-b", "", "sheet of the second file when it is a workbook")
	f.StringVar(&cmpEncoding, "encoding", "", "CSV character encoding, e.g. windows-1251 (default from config)")
	f.StringVar(&cmpDelimiter, "delimiter", "", "CSV delimiter; empty detects it")
	f.StringVarP(&cmpFormat, "format", "f", "", "output format: table, json, yaml, csv or xlsx (default: from --output, else table)")
	f.StringVarP(&cmpOutput, "output", "o", "", "write the result to a file")
	f.BoolVar(&cmpNoColor, "no-color", false, "disable colored output")

	f.BoolVar(&cmpView.HideIdentical, "hide-identical", false, "hide identical rows")
	f.BoolVar(&cmpView.HideDifferent, "hide-different", false, "hide differing and tolerance rows")
	f.BoolVar(&cmpView.HideOnlyA, "hide-only-a", false, "hide rows found only in the first file")
	f.BoolVar(&cmpView.HideOnlyB, "hide-only-b", false, "hide rows found only in the second file")
	f.StringArrayVar(&cmpView.Filters, "filter", nil, "keep rows whose COLUMN contains TEXT (COLUMN=TEXT, repeatable)")
	f.StringVar(&cmpView.Sort, "sort", "", "sort rows by this column")
	f.BoolVar(&cmpView.Desc, "desc", false, "sort descending")
	f.StringVar(&cmpView.Lang, "lang", "", "collation language for sorting, e.g. ru or de")

	rootCmd.AddCommand(compareCmd)
}
