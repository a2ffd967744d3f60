package fetcher

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/tablediff/internal/table"
)

type testRecord struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func TestDecodeJSONArray(t *testing.T) {
	input := `[{"name":"a","value":1},{"name":"b","value":2}]`
	outCh, errCh := DecodeJSONArray[testRecord](context.Background(), strings.NewReader(input))

	var got []testRecord
	for r := range outCh {
		got = append(got, r)
	}
	require.NoError(t, <-errCh)
	assert.Equal(t, []testRecord{{"a", 1}, {"b", 2}}, got)
}

func TestDecodeJSONArray_InvalidFormat(t *testing.T) {
	outCh, errCh := DecodeJSONArray[testRecord](context.Background(), strings.NewReader(`{"name":"a"}`))
	for range outCh {
	}
	err := <-errCh
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected '['")
}

func TestDecodeJSONArray_EmptyInput(t *testing.T) {
	outCh, errCh := DecodeJSONArray[testRecord](context.Background(), strings.NewReader(""))
	for range outCh {
	}
	assert.NoError(t, <-errCh)
}

func TestReadJSON(t *testing.T) {
	input := `[
		{"id": 1, "name": "Alice", "active": true},
		{"id": 2, "city": "Oslo", "name": null},
		{"id": 3.5, "name": " null ", "tags": ["x"]}
	]`
	tbl, err := ReadJSON(context.Background(), strings.NewReader(input))
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name", "active", "city", "tags"}, tbl.Header)
	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, table.Row{table.Number(1), table.String("Alice"), table.String("true"), table.Empty(), table.Empty()}, tbl.Rows[0])
	assert.Equal(t, table.Row{table.Number(2), table.Empty(), table.Empty(), table.String("Oslo"), table.Empty()}, tbl.Rows[1])
	assert.Equal(t, table.Number(3.5), tbl.Rows[2][0])
	assert.Equal(t, table.Empty(), tbl.Rows[2][1])
	assert.Equal(t, table.String(`["x"]`), tbl.Rows[2][4])
}

func TestReadJSON_LongNumbersStayText(t *testing.T) {
	input := `[{"account": 12345678901234567890, "amount": 10}]`
	tbl, err := ReadJSON(context.Background(), strings.NewReader(input))
	require.NoError(t, err)

	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, table.String("12345678901234567890"), tbl.Rows[0][0])
	assert.Equal(t, table.Number(10), tbl.Rows[0][1])
}

func TestReadJSON_NotObjects(t *testing.T) {
	_, err := ReadJSON(context.Background(), strings.NewReader(`[1, 2]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected object")
}
