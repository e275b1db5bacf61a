package fetcher

import (
	"archive/zip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTestFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

// createTestZIP builds an archive in a temp dir from name -> content pairs.
func createTestZIP(t *testing.T, files map[string]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.zip")
	f, err := os.Create(path)
	require.NoError(t, err)

	w := zip.NewWriter(f)
	for name, content := range files {
		fw, err := w.Create(name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	return path
}

// fakeDownloader serves fixed content for any URL and records requests.
type fakeDownloader struct {
	content string
	err     error
	urls    []string
}

func (d *fakeDownloader) Download(_ context.Context, url string) (io.ReadCloser, error) {
	d.urls = append(d.urls, url)
	if d.err != nil {
		return nil, d.err
	}
	return io.NopCloser(strings.NewReader(d.content)), nil
}

func (d *fakeDownloader) DownloadToFile(ctx context.Context, url string, path string) (int64, error) {
	rc, err := d.Download(ctx, url)
	if err != nil {
		return 0, err
	}
	defer rc.Close() //nolint:errcheck
	return writeFile(path, rc)
}
