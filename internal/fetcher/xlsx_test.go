package fetcher

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/tablediff/internal/table"
)

type testSheet struct {
	name string
	rows [][]any
}

func createTestXLSX(t *testing.T, sheets ...testSheet) string {
	t.Helper()
	f := xlsx.NewFile()
	for _, s := range sheets {
		sheet, err := f.AddSheet(s.name)
		require.NoError(t, err)
		for _, rowData := range s.rows {
			row := sheet.AddRow()
			for _, v := range rowData {
				cell := row.AddCell()
				switch x := v.(type) {
				case float64:
					cell.SetFloat(x)
				case int:
					cell.SetInt(x)
				case string:
					cell.SetString(x)
				}
			}
		}
	}
	path := filepath.Join(t.TempDir(), "test.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSX_Basic(t *testing.T) {
	path := createTestXLSX(t, testSheet{"Sheet1", [][]any{
		{"Name", "Age", "City"},
		{"Alice", "30", "NYC"},
		{"Bob", "null", " LA "},
	}})

	tbl, err := ReadXLSX(context.Background(), path, XLSXOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Age", "City"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, table.Row{table.String("Alice"), table.String("30"), table.String("NYC")}, tbl.Rows[0])
	assert.Equal(t, table.Row{table.String("Bob"), table.Empty(), table.String("LA")}, tbl.Rows[1])
}

func TestReadXLSX_NumericCellsStayNumbers(t *testing.T) {
	path := createTestXLSX(t, testSheet{"Sheet1", [][]any{
		{"Date", "Amount"},
		{44196, 12.5},
	}})

	tbl, err := ReadXLSX(context.Background(), path, XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, table.Number(44196), tbl.Rows[0][0])
	assert.Equal(t, table.Number(12.5), tbl.Rows[0][1])
}

func TestReadXLSX_SheetName(t *testing.T) {
	path := createTestXLSX(t,
		testSheet{"First", [][]any{{"a", "b"}}},
		testSheet{"Second", [][]any{{"x", "y"}, {"1", "2"}}},
	)

	tbl, err := ReadXLSX(context.Background(), path, XLSXOptions{SheetName: "Second"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, tbl.Header)
	require.Len(t, tbl.Rows, 1)

	byIndex, err := ReadXLSX(context.Background(), path, XLSXOptions{SheetIndex: 1})
	require.NoError(t, err)
	assert.Equal(t, tbl.Header, byIndex.Header)
}

func TestReadXLSX_SheetNameNotFound(t *testing.T) {
	path := createTestXLSX(t, testSheet{"Sheet1", [][]any{{"a"}}})

	_, err := ReadXLSX(context.Background(), path, XLSXOptions{SheetName: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestReadXLSX_SheetIndexOutOfRange(t *testing.T) {
	path := createTestXLSX(t, testSheet{"Sheet1", [][]any{{"a"}}})

	_, err := ReadXLSX(context.Background(), path, XLSXOptions{SheetIndex: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestReadXLSX_FileNotFound(t *testing.T) {
	_, err := ReadXLSX(context.Background(), "/nonexistent/file.xlsx", XLSXOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xlsx: open file")
}

func TestReadXLSX_ContextCancelled(t *testing.T) {
	path := createTestXLSX(t, testSheet{"Sheet1", [][]any{{"a"}, {"1"}}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ReadXLSX(ctx, path, XLSXOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "context cancelled")
}

func TestSheetNames(t *testing.T) {
	path := createTestXLSX(t,
		testSheet{"Jan", [][]any{{"a"}}},
		testSheet{"Feb", [][]any{{"a"}}},
	)

	names, err := SheetNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Jan", "Feb"}, names)
}
