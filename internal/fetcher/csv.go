// Package fetcher loads comparison inputs from CSV, XLSX and JSON files,
// local or remote, into tables.
package fetcher

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/sells-group/tablediff/internal/table"
)

// Delimiters tried by DetectDelimiter, in priority order.
var Delimiters = []rune{',', ';', '\t', '|'}

// sniffSize bounds how much input DetectDelimiter looks at.
const sniffSize = 64 * 1024

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// garbledNumericRe matches digit groups split by '?' or '.', the shape a
// date takes when its separator was lost to a bad charset conversion.
var garbledNumericRe = regexp.MustCompile(`^\d+(?:[.?]\d+)+$`)

// CSVOptions configures the streaming CSV parser.
type CSVOptions struct {
	Delimiter  rune   // 0 detects from the first line
	Encoding   string // charset label such as "windows-1251"; empty means UTF-8
	Comment    rune   // comment character (0 = none)
	LazyQuotes bool
	TrimSpace  bool
}

// StreamCSV reads a CSV file and sends rows to a channel.
// Caller must consume the returned row channel. Errors are sent on the error channel.
// Both channels are closed when processing completes.
func StreamCSV(ctx context.Context, r io.Reader, opts CSVOptions) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)

		src, delim, err := openCSV(r, opts)
		if err != nil {
			errCh <- err
			return
		}

		reader := csv.NewReader(src)
		reader.Comma = delim
		if opts.Comment != 0 {
			reader.Comment = opts.Comment
		}
		reader.LazyQuotes = opts.LazyQuotes
		reader.FieldsPerRecord = -1 // allow variable fields

		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}

			if opts.TrimSpace {
				for i, field := range record {
					record[i] = strings.TrimSpace(field)
				}
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}

// ReadCSV parses a whole CSV input into a table. The first record is the
// header. Fields are trimmed, "null" becomes empty and garbled date
// separators are repaired.
func ReadCSV(ctx context.Context, r io.Reader, opts CSVOptions) (*table.Table, error) {
	opts.TrimSpace = true
	rowCh, errCh := StreamCSV(ctx, r, opts)

	t := &table.Table{}
	first := true
	for record := range rowCh {
		if first {
			t.Header = record
			first = false
			continue
		}
		row := make(table.Row, len(record))
		for i, field := range record {
			row[i] = CleanValue(field)
		}
		t.Rows = append(t.Rows, row)
	}
	if err := <-errCh; err != nil {
		return nil, err
	}
	return t, nil
}

// CleanValue turns a raw text field into a cell.
func CleanValue(s string) table.Cell {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "null") {
		return table.Empty()
	}
	if strings.Contains(s, "?") && garbledNumericRe.MatchString(s) {
		s = strings.ReplaceAll(s, "?", ".")
	}
	return table.String(s)
}

// DetectDelimiter picks the candidate that occurs most often on the first
// line, defaulting to a comma.
func DetectDelimiter(firstLine string) rune {
	best, bestCount := ',', 0
	for _, d := range Delimiters {
		if n := strings.Count(firstLine, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

// openCSV applies charset decoding and BOM stripping, and resolves the
// delimiter when none was given.
func openCSV(r io.Reader, opts CSVOptions) (io.Reader, rune, error) {
	if enc := strings.TrimSpace(opts.Encoding); enc != "" && !strings.EqualFold(enc, "utf-8") && !strings.EqualFold(enc, "utf8") {
		e, err := htmlindex.Get(enc)
		if err != nil {
			return nil, 0, eris.Wrapf(err, "csv: unknown encoding %q", enc)
		}
		r = e.NewDecoder().Reader(r)
	}

	br := bufio.NewReaderSize(r, sniffSize)
	if head, _ := br.Peek(len(utf8BOM)); bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	delim := opts.Delimiter
	if delim == 0 {
		head, err := br.Peek(sniffSize)
		if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
			return nil, 0, eris.Wrap(err, "csv: sniff delimiter")
		}
		line, _, _ := strings.Cut(string(head), "\n")
		delim = DetectDelimiter(line)
	}
	return br, delim, nil
}
