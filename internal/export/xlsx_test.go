package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sells-group/tablediff/internal/match"
	"github.com/sells-group/tablediff/internal/table"
)

func openWorkbook(t *testing.T, data []byte) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func styleOf(t *testing.T, f *excelize.File, cell string) int {
	t.Helper()
	id, err := f.GetCellStyle(SheetName, cell)
	require.NoError(t, err)
	return id
}

func TestWriteXLSX_Rows(t *testing.T) {
	s := testSession()
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, s, s.Pairs))

	f := openWorkbook(t, buf.Bytes())
	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 8)
	assert.Equal(t, []string{"Source", "ID", "PRICE"}, rows[0])
	assert.Equal(t, []string{BothLabel, "1", "10"}, rows[1])
	assert.Equal(t, []string{"old.csv", "3", "5"}, rows[4])
	assert.Equal(t, []string{"new.csv", "3", "9"}, rows[5])
	assert.Equal(t, []string{"new.csv", "5", "2"}, rows[7])
}

func TestWriteXLSX_Styles(t *testing.T) {
	s := testSession()
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, s, s.Pairs))
	f := openWorkbook(t, buf.Bytes())

	header, err := f.GetStyle(styleOf(t, f, "B1"))
	require.NoError(t, err)
	require.NotNil(t, header.Font)
	assert.True(t, header.Font.Bold)

	source, err := f.GetStyle(styleOf(t, f, "A2"))
	require.NoError(t, err)
	require.NotNil(t, source.Font)
	assert.True(t, source.Font.Bold)

	// Row 5 is the first line of the different pair: ID matches, PRICE differs.
	assert.NotEqual(t, styleOf(t, f, "B5"), styleOf(t, f, "C5"))
	// Row 3 is the tolerance pair; its PRICE cell is styled apart from the different one.
	assert.NotEqual(t, styleOf(t, f, "C3"), styleOf(t, f, "C5"))
	// One-sided rows are filled per side.
	assert.NotEqual(t, styleOf(t, f, "B7"), styleOf(t, f, "B8"))
	// Identical rows carry no fill, unlike the matching cell of a one-sided row.
	assert.NotEqual(t, styleOf(t, f, "B2"), styleOf(t, f, "B7"))

	w, err := f.GetColWidth(SheetName, "A")
	require.NoError(t, err)
	assert.InDelta(t, 20, w, 0.01)
	w, err = f.GetColWidth(SheetName, "C")
	require.NoError(t, err)
	assert.InDelta(t, 15, w, 0.01)
}

func TestWriteXLSX_NumbersStayNumeric(t *testing.T) {
	s := testSession()
	s.Pairs[0].A[1] = table.Number(12.5)

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, s, s.Pairs[:1]))
	f := openWorkbook(t, buf.Bytes())

	typ, err := f.GetCellType(SheetName, "C2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ)
	assert.NotEqual(t, excelize.CellTypeInlineString, typ)

	v, err := f.GetCellValue(SheetName, "C2")
	require.NoError(t, err)
	assert.Equal(t, "12.5", v)
}

func TestWriteXLSX_Empty(t *testing.T) {
	s := testSession()
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, s, []match.RowPair{}))

	rows, err := openWorkbook(t, buf.Bytes()).GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
