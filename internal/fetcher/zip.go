package fetcher

import (
	"archive/zip"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ExtractTable unpacks the one table file (CSV, TSV, TXT, JSON or XLSX) held
// by a zip archive into destDir and returns its path. Directories, hidden
// files and macOS resource forks are skipped; any other entries are ignored.
func ExtractTable(zipPath, destDir string) (string, error) {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", eris.Wrap(err, "zip: open archive")
	}
	defer r.Close() //nolint:errcheck

	var tables []*zip.File
	for _, f := range r.File {
		if !isTableEntry(f) {
			continue
		}
		tables = append(tables, f)
	}

	switch len(tables) {
	case 1:
		return extractFlat(tables[0], destDir)
	case 0:
		return "", eris.New("zip: no table file in archive")
	default:
		names := make([]string, len(tables))
		for i, f := range tables {
			names[i] = f.Name
		}
		return "", eris.Errorf("zip: expected one table file, found %d: %s",
			len(tables), strings.Join(names, ", "))
	}
}

func isTableEntry(f *zip.File) bool {
	if f.FileInfo().IsDir() || strings.HasPrefix(f.Name, "__MACOSX/") {
		return false
	}
	base := path.Base(f.Name)
	if strings.HasPrefix(base, ".") {
		return false
	}
	return supportedExt(path.Ext(base))
}

// extractFlat writes the entry to destDir under its base name.
func extractFlat(f *zip.File, destDir string) (string, error) {
	if strings.Contains(filepath.ToSlash(f.Name), "../") || path.IsAbs(f.Name) {
		return "", eris.Errorf("zip: illegal path %q (zip slip attempt)", f.Name)
	}
	destPath := filepath.Join(destDir, path.Base(f.Name))

	rc, err := f.Open()
	if err != nil {
		return "", eris.Wrap(err, "zip: open entry")
	}
	defer rc.Close() //nolint:errcheck

	out, err := os.Create(destPath)
	if err != nil {
		return "", eris.Wrap(err, "zip: create file")
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close() //nolint:errcheck,gosec
		return "", eris.Wrap(err, "zip: write file")
	}
	if err := out.Close(); err != nil {
		return "", eris.Wrap(err, "zip: close file")
	}
	return destPath, nil
}
