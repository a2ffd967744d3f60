package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/tablediff/internal/table"
)

// ErrDownloadTooLarge is returned when a remote file exceeds the configured
// download limit.
var ErrDownloadTooLarge = eris.New("fetcher: download exceeds size limit")

// Downloader retrieves a remote file.
type Downloader interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// Options configures how one input is read.
type Options struct {
	Sheet      string // XLSX sheet name; overrides SheetIndex
	SheetIndex int
	CSV        CSVOptions
}

// Loader resolves a source (local path, http(s) or ftp URL, optionally a
// single-file zip) and reads it into a prepared table.
type Loader struct {
	HTTP Downloader
	FTP  Downloader
}

// NewLoader returns a loader with network downloaders configured.
func NewLoader(httpOpts HTTPOptions, ftpOpts FTPOptions) *Loader {
	return &Loader{
		HTTP: NewHTTPFetcher(httpOpts),
		FTP:  NewFTPFetcher(ftpOpts),
	}
}

// Load reads src with a default loader.
func Load(ctx context.Context, src string, opts Options) (*table.Table, error) {
	return NewLoader(HTTPOptions{}, FTPOptions{}).Load(ctx, src, opts)
}

// LoadPair reads both inputs concurrently with a default loader.
func LoadPair(ctx context.Context, srcA, srcB string, optsA, optsB Options) (*table.Table, *table.Table, error) {
	return NewLoader(HTTPOptions{}, FTPOptions{}).LoadPair(ctx, srcA, srcB, optsA, optsB)
}

// Load reads src into a table and applies table.Prepare.
func (l *Loader) Load(ctx context.Context, src string, opts Options) (*table.Table, error) {
	tmp, err := os.MkdirTemp("", "tablediff-*")
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: create temp dir")
	}
	defer os.RemoveAll(tmp) //nolint:errcheck

	local, err := l.localPath(ctx, src, tmp)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: fetch %s", src)
	}

	if strings.EqualFold(filepath.Ext(local), ".zip") {
		local, err = ExtractTable(local, tmp)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: unpack %s", src)
		}
	}

	t, err := read(ctx, local, opts)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: read %s", src)
	}

	t.Name = displayName(src, opts.Sheet)
	t.Prepare()

	zap.L().Debug("fetcher: loaded",
		zap.String("source", src),
		zap.Int("rows", len(t.Rows)),
		zap.Int("columns", t.Width()),
	)
	return t, nil
}

// LoadPair reads both inputs concurrently. Either failure cancels the other.
func (l *Loader) LoadPair(ctx context.Context, srcA, srcB string, optsA, optsB Options) (*table.Table, *table.Table, error) {
	var a, b *table.Table
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		a, err = l.Load(gctx, srcA, optsA)
		return err
	})
	g.Go(func() error {
		var err error
		b, err = l.Load(gctx, srcB, optsB)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// localPath downloads remote sources into dir and returns a local path.
func (l *Loader) localPath(ctx context.Context, src, dir string) (string, error) {
	u, err := url.Parse(src)
	if err != nil {
		return src, nil
	}

	var d Downloader
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		d = l.HTTP
	case "ftp":
		d = l.FTP
	default:
		return src, nil
	}
	if d == nil {
		return "", eris.Errorf("no downloader for scheme %q", u.Scheme)
	}

	dest := filepath.Join(dir, remoteName(u))
	n, err := d.DownloadToFile(ctx, src, dest)
	if err != nil {
		return "", err
	}
	zap.L().Debug("fetcher: downloaded", zap.String("url", src), zap.Int64("bytes", n))
	return dest, nil
}

// supportedExt reports whether a file extension names a readable table.
func supportedExt(ext string) bool {
	switch strings.ToLower(ext) {
	case ".xlsx", ".xlsm", ".csv", ".tsv", ".txt", ".json":
		return true
	}
	return false
}

func read(ctx context.Context, local string, opts Options) (*table.Table, error) {
	ext := strings.ToLower(filepath.Ext(local))
	if !supportedExt(ext) {
		return nil, eris.Errorf("unsupported file type %q", ext)
	}
	if ext == ".xlsx" || ext == ".xlsm" {
		return ReadXLSX(ctx, local, XLSXOptions{SheetName: opts.Sheet, SheetIndex: opts.SheetIndex})
	}

	f, err := os.Open(local)
	if err != nil {
		return nil, eris.Wrap(err, "open file")
	}
	defer f.Close() //nolint:errcheck

	if ext == ".json" {
		return ReadJSON(ctx, f)
	}
	csvOpts := opts.CSV
	if ext == ".tsv" && csvOpts.Delimiter == 0 {
		csvOpts.Delimiter = '\t'
	}
	csvOpts.LazyQuotes = true
	return ReadCSV(ctx, f, csvOpts)
}

func remoteName(u *url.URL) string {
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "download"
	}
	return name
}

// displayName is the file name shown in reports, with the sheet when one
// was chosen.
func displayName(src, sheet string) string {
	name := filepath.Base(src)
	if u, err := url.Parse(src); err == nil && u.Scheme != "" && u.Host != "" {
		name = remoteName(u)
	}
	if sheet != "" {
		return name + " (" + sheet + ")"
	}
	return name
}
