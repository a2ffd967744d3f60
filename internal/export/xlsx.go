package export

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/xuri/excelize/v2"

	"github.com/sells-group/tablediff/internal/compare"
	"github.com/sells-group/tablediff/internal/match"
	"github.com/sells-group/tablediff/internal/table"
	"github.com/sells-group/tablediff/internal/tolerance"
)

// SheetName is the name of the comparison worksheet.
const SheetName = "Comparison"

// Fill colors.
const (
	ColorHeader    = "F8F9FA"
	ColorDifferent = "F8D7DA"
	ColorTolerance = "FFE5B4"
	ColorOnlyA     = "D4EDDA"
	ColorOnlyB     = "CFE2FF"
)

const (
	sourceWidth = 20
	dataWidth   = 15

	borderThin  = 1
	borderThick = 5
	gridColor   = "D4D4D4"
	groupColor  = "000000"
	textColor   = "212529"
)

// styleKey identifies one combination of cell formatting.
type styleKey struct {
	fill   string
	bold   bool
	top    bool // thick top border
	bottom bool // thick bottom border
}

// styler creates excelize styles on demand and reuses them.
type styler struct {
	f   *excelize.File
	ids map[styleKey]int
}

func (s *styler) id(k styleKey) (int, error) {
	if id, ok := s.ids[k]; ok {
		return id, nil
	}

	border := func(side string, thick bool) excelize.Border {
		if thick {
			return excelize.Border{Type: side, Color: groupColor, Style: borderThick}
		}
		return excelize.Border{Type: side, Color: gridColor, Style: borderThin}
	}
	st := &excelize.Style{
		Font: &excelize.Font{Bold: k.bold, Color: textColor},
		Border: []excelize.Border{
			border("left", false),
			border("right", false),
			border("top", k.top),
			border("bottom", k.bottom),
		},
	}
	if k.fill != "" {
		st.Fill = excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{k.fill}}
	}

	id, err := s.f.NewStyle(st)
	if err != nil {
		return 0, eris.Wrap(err, "export: create style")
	}
	s.ids[k] = id
	return id, nil
}

// WriteXLSX writes pairs as a styled workbook. Each row starts with its
// source; differing pairs take two rows framed by a thick border, with
// red cells for differences and orange cells for tolerance matches.
// Rows present in one file only are filled green (first file) or blue
// (second file).
func WriteXLSX(w io.Writer, s *compare.Session, pairs []match.RowPair) error {
	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return eris.Wrap(err, "export: rename sheet")
	}

	st := &styler{f: f, ids: make(map[styleKey]int)}
	width := s.Schema.Width()
	nameA, nameB := Names(s)

	header := make([]any, 0, width+1)
	header = append(header, "Source")
	for _, h := range s.Schema.Headers {
		header = append(header, h)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return eris.Wrap(err, "export: write header")
	}
	headerStyle, err := st.id(styleKey{fill: ColorHeader, bold: true})
	if err != nil {
		return err
	}
	if err := setRowStyle(f, 1, width, headerStyle); err != nil {
		return err
	}

	for i, l := range lines(pairs, nameA, nameB) {
		rowNum := i + 2
		values := make([]any, 0, width+1)
		values = append(values, l.source)
		for c := 0; c < width; c++ {
			values = append(values, cellValue(l.row.At(c)))
		}
		start, _ := excelize.CoordinatesToCellName(1, rowNum)
		if err := f.SetSheetRow(SheetName, start, &values); err != nil {
			return eris.Wrapf(err, "export: write row %d", rowNum)
		}
		if err := styleLine(f, st, l, rowNum, width); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(SheetName, "A", "A", sourceWidth); err != nil {
		return eris.Wrap(err, "export: set source width")
	}
	if width > 0 {
		last, _ := excelize.ColumnNumberToName(width + 1)
		if err := f.SetColWidth(SheetName, "B", last, dataWidth); err != nil {
			return eris.Wrap(err, "export: set column width")
		}
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return eris.Wrap(err, "export: freeze header")
	}

	if err := f.Write(w); err != nil {
		return eris.Wrap(err, "export: write workbook")
	}
	return nil
}

func styleLine(f *excelize.File, st *styler, l line, rowNum, width int) error {
	base := styleKey{top: l.first, bottom: l.second}
	switch l.pair.Kind {
	case match.OnlyInA:
		base.fill = ColorOnlyA
	case match.OnlyInB:
		base.fill = ColorOnlyB
	case match.Different, match.Tolerance:
		base.fill = rowFill(l.pair)
	}

	source := base
	source.bold = true
	id, err := st.id(source)
	if err != nil {
		return err
	}
	if err := setCellStyle(f, 1, rowNum, id); err != nil {
		return err
	}

	for c := 0; c < width; c++ {
		k := base
		if l.pair.Kind == match.Different || l.pair.Kind == match.Tolerance {
			k.fill = cellFill(l.pair, c)
		}
		id, err := st.id(k)
		if err != nil {
			return err
		}
		if err := setCellStyle(f, c+2, rowNum, id); err != nil {
			return err
		}
	}
	return nil
}

// rowFill colors the source cell of a two-line pair by its worst cell.
func rowFill(p *match.RowPair) string {
	if p.Kind == match.Tolerance {
		return ColorTolerance
	}
	return ColorDifferent
}

func cellFill(p *match.RowPair, col int) string {
	if col >= len(p.Cells) {
		return ""
	}
	switch p.Cells[col] {
	case tolerance.Different:
		return ColorDifferent
	case tolerance.Tolerance:
		return ColorTolerance
	default:
		return ""
	}
}

func setCellStyle(f *excelize.File, col, row, id int) error {
	cell, _ := excelize.CoordinatesToCellName(col, row)
	if err := f.SetCellStyle(SheetName, cell, cell, id); err != nil {
		return eris.Wrapf(err, "export: style %s", cell)
	}
	return nil
}

func setRowStyle(f *excelize.File, row, width, id int) error {
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(width+1, row)
	if err := f.SetCellStyle(SheetName, first, last, id); err != nil {
		return eris.Wrapf(err, "export: style row %d", row)
	}
	return nil
}

// cellValue keeps numbers numeric in the workbook.
func cellValue(c table.Cell) any {
	if c.Kind == table.KindNumber {
		return c.Num
	}
	return c.Text()
}
