package fetcher

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// createTestZIP writes entries in order; names ending in "/" become directories.
func createTestZIP(t *testing.T, entries ...[2]string) string {
	t.Helper()
	zipPath := filepath.Join(t.TempDir(), "test.zip")
	f, err := os.Create(zipPath)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	w := zip.NewWriter(f)
	for _, e := range entries {
		fw, err := w.Create(e[0])
		require.NoError(t, err)
		_, err = fw.Write([]byte(e[1]))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return zipPath
}

func TestExtractTable(t *testing.T) {
	zipPath := createTestZIP(t, [2]string{"only.csv", "x,y,z"})

	destDir := t.TempDir()
	path, err := ExtractTable(zipPath, destDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(destDir, "only.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "x,y,z", string(data))
}

func TestExtractTable_FlattensAndSkipsNoise(t *testing.T) {
	zipPath := createTestZIP(t,
		[2]string{"export/", ""},
		[2]string{"export/report.xlsx", "PK"},
		[2]string{"export/README.md", "notes"},
		[2]string{"export/.hidden.csv", "a\n"},
		[2]string{"__MACOSX/export/._report.xlsx", "junk"},
	)

	destDir := t.TempDir()
	path, err := ExtractTable(zipPath, destDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(destDir, "report.xlsx"), path)
}

func TestExtractTable_MultipleTables(t *testing.T) {
	zipPath := createTestZIP(t, [2]string{"a.csv", "aaa"}, [2]string{"b.json", "[]"})

	_, err := ExtractTable(zipPath, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected one table file, found 2: a.csv, b.json")
}

func TestExtractTable_NoTable(t *testing.T) {
	for name, entries := range map[string][][2]string{
		"empty":       nil,
		"no tables":   {{"notes.pdf", "%PDF"}},
		"only hidden": {{".data.csv", "a"}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ExtractTable(createTestZIP(t, entries...), t.TempDir())
			require.Error(t, err)
			assert.Contains(t, err.Error(), "no table file")
		})
	}
}

func TestExtractTable_ZipSlipPrevention(t *testing.T) {
	zipPath := createTestZIP(t, [2]string{"../../../tmp/evil.csv", "malicious"})

	_, err := ExtractTable(zipPath, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zip slip")
}

func TestExtractTable_InvalidArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.zip")
	writeTestFile(t, path, "not a zip")

	_, err := ExtractTable(path, t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zip: open archive")
}
