package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/tablediff/internal/table"
)

func TestLoad_LocalCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.csv")
	writeTestFile(t, path, " id ;name;unused\n1;Ann;\n\n2;Bob;\n")

	tbl, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Equal(t, "people.csv", tbl.Name)
	assert.Equal(t, []string{"ID", "NAME", "UNUSED"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, table.Row{table.String("2"), table.String("Bob"), table.Empty()}, tbl.Rows[1])
}

func TestLoad_TSVDefaultsToTab(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.tsv")
	writeTestFile(t, path, "a,b\tc\n1,2\t3\n")

	tbl, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"A,B", "C"}, tbl.Header)
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.json")
	writeTestFile(t, path, `[{"id":1,"name":"Ann"},{"id":2,"name":null}]`)

	tbl, err := Load(context.Background(), path, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "NAME"}, tbl.Header)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, table.Number(2), tbl.Rows[1][0])
	assert.True(t, tbl.Rows[1][1].IsEmpty())
}

func TestLoad_XLSXSheetName(t *testing.T) {
	path := createTestXLSX(t,
		testSheet{"First", [][]any{{"x"}, {"1"}}},
		testSheet{"Second", [][]any{{"y"}, {"2"}}},
	)

	tbl, err := Load(context.Background(), path, Options{Sheet: "Second"})
	require.NoError(t, err)
	assert.Equal(t, "test.xlsx (Second)", tbl.Name)
	assert.Equal(t, []string{"Y"}, tbl.Header)
}

func TestLoad_ZIPWithCSV(t *testing.T) {
	zipPath := createTestZIP(t, [2]string{"inner/report.csv", "k,v\n1,a\n"})

	tbl, err := Load(context.Background(), zipPath, Options{})
	require.NoError(t, err)
	assert.Equal(t, "test.zip", tbl.Name)
	assert.Equal(t, []string{"K", "V"}, tbl.Header)
	assert.Len(t, tbl.Rows, 1)
}

func TestLoad_HTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/exports/sales.csv", r.URL.Path)
		fmt.Fprint(w, "region,total\nnorth,10\n")
	}))
	defer srv.Close()

	l := &Loader{HTTP: newTestFetcher()}
	tbl, err := l.Load(context.Background(), srv.URL+"/exports/sales.csv?token=abc", Options{})
	require.NoError(t, err)
	assert.Equal(t, "sales.csv", tbl.Name)
	assert.Equal(t, []string{"REGION", "TOTAL"}, tbl.Header)
}

func TestLoad_FTP(t *testing.T) {
	srv := newMiniFTPServer(t, map[string]string{"/pub/stock.csv": "sku,qty\nA1,4\n"})

	l := &Loader{FTP: NewFTPFetcher(FTPOptions{Timeout: 5 * time.Second})}
	tbl, err := l.Load(context.Background(), fmt.Sprintf("ftp://%s/pub/stock.csv", srv.addr()), Options{})
	require.NoError(t, err)
	assert.Equal(t, "stock.csv", tbl.Name)
	assert.Equal(t, []string{"SKU", "QTY"}, tbl.Header)
}

func TestLoad_NoDownloaderForScheme(t *testing.T) {
	l := &Loader{}
	_, err := l.Load(context.Background(), "https://example.com/a.csv", Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no downloader")
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.pdf")
	writeTestFile(t, path, "%PDF")

	_, err := Load(context.Background(), path, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported file type ".pdf"`)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(context.Background(), filepath.Join(t.TempDir(), "gone.csv"), Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open file")
}

func TestLoadPair(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	b := filepath.Join(dir, "b.csv")
	writeTestFile(t, a, "x\n1\n")
	writeTestFile(t, b, "y\n2\n")

	ta, tb, err := LoadPair(context.Background(), a, b, Options{}, Options{})
	require.NoError(t, err)
	assert.Equal(t, "a.csv", ta.Name)
	assert.Equal(t, "b.csv", tb.Name)
}

func TestLoadPair_Error(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.csv")
	writeTestFile(t, a, "x\n1\n")

	ta, tb, err := LoadPair(context.Background(), a, filepath.Join(dir, "b.doc"), Options{}, Options{})
	require.Error(t, err)
	assert.Nil(t, ta)
	assert.Nil(t, tb)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "a.csv", displayName("/tmp/x/a.csv", ""))
	assert.Equal(t, "book.xlsx (Q1)", displayName("book.xlsx", "Q1"))
	assert.Equal(t, "r.csv", displayName("https://host/files/r.csv?x=1", ""))
}

func TestRemoteName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://host/files/r.csv", "r.csv"},
		{"https://host/", "download"},
		{"https://host", "download"},
		{"ftp://host/pub/data.zip", "data.zip"},
	}
	for _, tt := range tests {
		u, err := url.Parse(tt.raw)
		require.NoError(t, err)
		assert.Equal(t, tt.want, remoteName(u), tt.raw)
	}
}
