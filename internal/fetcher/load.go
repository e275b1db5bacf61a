package fetcher

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/sells-group/retail-eda/internal/model"
)

// LoadOptions configures source resolution and decoding.
type LoadOptions struct {
	Delimiter  rune // CSV delimiter; '\t' is implied for .tsv
	Comment    rune // CSV lines starting with this rune are skipped; 0 = none
	LazyQuotes bool
	TrimSpace  bool   // trim surrounding whitespace from CSV cells
	Encoding   string // text encoding label, e.g. "windows-1252"; empty = utf-8
	Sheet      XLSXOptions
	ZipMember  string // member to load from a multi-file archive
	TempDir    string // spool directory for downloads and archives

	HTTP Downloader
	FTP  Downloader
}

// Load resolves source and decodes it into a raw table. Every failure here
// is fatal to the run: a missing or unreadable source has no fallback.
func Load(ctx context.Context, source string, opts LoadOptions) (*model.RawTable, error) {
	u, err := url.Parse(source)
	if err == nil && isRemote(u.Scheme) {
		return loadRemote(ctx, u, source, opts)
	}
	return loadFile(ctx, source, opts, 0)
}

func isRemote(scheme string) bool {
	switch strings.ToLower(scheme) {
	case "http", "https", "ftp":
		return true
	}
	return false
}

// loadRemote downloads source into a temp dir and loads the local copy.
func loadRemote(ctx context.Context, u *url.URL, source string, opts LoadOptions) (*model.RawTable, error) {
	var dl Downloader
	if strings.EqualFold(u.Scheme, "ftp") {
		dl = opts.FTP
		if dl == nil {
			dl = NewFTPFetcher(FTPOptions{})
		}
	} else {
		dl = opts.HTTP
		if dl == nil {
			dl = NewHTTPFetcher(HTTPOptions{})
		}
	}

	dir, err := makeTempDir(opts.TempDir)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	name := path.Base(u.Path)
	if name == "." || name == "/" || filepath.Ext(name) == "" {
		name = "download.csv"
	}
	local := filepath.Join(dir, name)

	n, err := dl.DownloadToFile(ctx, source, local)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: download %s", source)
	}
	zap.L().Debug("fetcher: downloaded source",
		zap.String("source", source),
		zap.Int64("bytes", n),
	)

	return loadFile(ctx, local, opts, 0)
}

// loadFile decodes a local file by extension. depth guards against archives
// nested inside archives.
func loadFile(ctx context.Context, p string, opts LoadOptions, depth int) (*model.RawTable, error) {
	ext := strings.ToLower(filepath.Ext(p))

	var rows [][]string
	switch ext {
	case ".zip":
		if depth > 0 {
			return nil, eris.Errorf("fetcher: nested archive %s", filepath.Base(p))
		}
		return loadZIP(ctx, p, opts)

	case ".xlsx":
		r, err := ReadXLSX(p, opts.Sheet)
		if err != nil {
			return nil, eris.Wrap(err, "fetcher: read xlsx")
		}
		rows = r

	case ".json":
		r, err := withDecodedFile(p, opts.Encoding, func(rd io.Reader) ([][]string, error) {
			return ReadJSONRecords(ctx, rd)
		})
		if err != nil {
			return nil, err
		}
		rows = r

	case ".csv", ".tsv", ".txt", "":
		csvOpts := CSVOptions{
			Delimiter:  opts.Delimiter,
			Comment:    opts.Comment,
			LazyQuotes: opts.LazyQuotes,
			TrimSpace:  opts.TrimSpace,
		}
		if ext == ".tsv" {
			csvOpts.Delimiter = '\t'
		}
		r, err := withDecodedFile(p, opts.Encoding, func(rd io.Reader) ([][]string, error) {
			return ReadCSV(ctx, rd, csvOpts)
		})
		if err != nil {
			return nil, err
		}
		rows = r

	default:
		return nil, eris.Errorf("fetcher: unsupported file type %q", ext)
	}

	return toRawTable(rows)
}

func loadZIP(ctx context.Context, p string, opts LoadOptions) (*model.RawTable, error) {
	dir, err := makeTempDir(opts.TempDir)
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir) //nolint:errcheck

	var member string
	if opts.ZipMember != "" {
		member, err = ExtractZIPFile(p, opts.ZipMember, dir)
	} else {
		member, err = ExtractZIPSingle(p, dir)
	}
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: extract archive")
	}

	return loadFile(ctx, member, opts, 1)
}

// withDecodedFile opens p, converts it to UTF-8 and hands it to read.
func withDecodedFile(p, encoding string, read func(io.Reader) ([][]string, error)) ([][]string, error) {
	f, err := os.Open(p)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: open source")
	}
	defer f.Close() //nolint:errcheck

	r, err := DecodeText(f, encoding)
	if err != nil {
		return nil, err
	}
	return read(r)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText wraps r so it yields UTF-8. A leading UTF-8 byte order mark is
// dropped.
func DecodeText(r io.Reader, encoding string) (io.Reader, error) {
	label := strings.ToLower(strings.TrimSpace(encoding))
	if label != "" && label != "utf-8" && label != "utf8" {
		enc, err := htmlindex.Get(label)
		if err != nil {
			return nil, eris.Wrapf(err, "fetcher: unsupported encoding %q", encoding)
		}
		r = enc.NewDecoder().Reader(r)
	}

	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}
	return br, nil
}

// toRawTable splits off the header and drops rows with no content.
func toRawTable(rows [][]string) (*model.RawTable, error) {
	var kept [][]string
	for _, row := range rows {
		if !blankRow(row) {
			kept = append(kept, row)
		}
	}
	if len(kept) == 0 {
		return nil, eris.New("fetcher: source has no header row")
	}
	return &model.RawTable{Header: kept[0], Rows: kept[1:]}, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func makeTempDir(base string) (string, error) {
	if base != "" {
		if err := os.MkdirAll(base, 0o755); err != nil {
			return "", eris.Wrap(err, "fetcher: create temp dir")
		}
	}
	dir, err := os.MkdirTemp(base, "retail-eda-*")
	if err != nil {
		return "", eris.Wrap(err, "fetcher: create temp dir")
	}
	return dir, nil
}
