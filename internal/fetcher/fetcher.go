// Package fetcher resolves a data source (local path, HTTP or FTP URL) and
// decodes CSV, XLSX, JSON and ZIP inputs into a raw table.
package fetcher

import (
	"context"
	"io"
)

// Downloader fetches a remote source.
type Downloader interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}
