package export

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/tablediff/internal/compare"
	"github.com/sells-group/tablediff/internal/match"
)

// WriteCSV writes pairs as CSV with a leading "Source" column.
func WriteCSV(w io.Writer, s *compare.Session, pairs []match.RowPair) error {
	nameA, nameB := Names(s)
	width := s.Schema.Width()

	cw := csv.NewWriter(w)
	if err := cw.Write(append([]string{"Source"}, s.Schema.Headers...)); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, l := range lines(pairs, nameA, nameB) {
		rec := make([]string, 0, width+1)
		rec = append(rec, l.source)
		for c := 0; c < width; c++ {
			rec = append(rec, l.row.At(c).Text())
		}
		if err := cw.Write(rec); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}
	return nil
}
