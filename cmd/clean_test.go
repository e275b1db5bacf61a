package main

import (
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/retail-eda/internal/export"
)

func TestClean_Stdout(t *testing.T) {
	src := writeSales(t, t.TempDir(), "sales.csv")

	out, err := runCLI(t, "clean", src)
	require.NoError(t, err)

	rows, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4, "header plus three dated rows")

	assert.Equal(t, []string{
		"Transaction ID", "Category", "Item", "Price Per Unit", "Quantity",
		"Total Spent", "Payment Method", "Location", "Date", "Discount Applied",
	}, rows[0])
	assert.Equal(t, []string{"TXN_1", "Food", "Item_1_FOOD", "10", "2", "20", "Cash", "Online", "2024-01-02", "True"}, rows[1])
	assert.Equal(t, []string{"TXN_2", "Toys", "Unknown Item", "5", "2", "25", "Credit Card", "In-Store", "2024-01-03", "False"}, rows[2])
	assert.Equal(t, []string{"TXN_4", "Electronics", "Item_3_ELE", "30", "3", "20", "Digital Wallet", "In-Store", "2024-01-04", "False"}, rows[3])
}

func TestClean_OutputJSON(t *testing.T) {
	dir := t.TempDir()
	src := writeSales(t, dir, "sales.csv")
	dst := filepath.Join(dir, "cleaned.json")

	_, err := runCLI(t, "clean", src, "--output", dst)
	require.NoError(t, err)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	var records []map[string]any
	require.NoError(t, json.Unmarshal(data, &records))
	require.Len(t, records, 3)
	assert.Equal(t, "Toys", records[1]["Category"])
	assert.InDelta(t, 2.0, records[1]["Quantity"], 0.001)
}

func TestClean_OutputXLSX(t *testing.T) {
	dir := t.TempDir()
	src := writeSales(t, dir, "sales.csv")
	dst := filepath.Join(dir, "cleaned.xlsx")

	_, err := runCLI(t, "clean", src, "-o", dst)
	require.NoError(t, err)

	f, err := xlsx.OpenFile(dst)
	require.NoError(t, err)
	require.Len(t, f.Sheets, 1)
	assert.Len(t, f.Sheets[0].Rows, 4)
}

func TestClean_XLSXToStdoutRejected(t *testing.T) {
	src := writeSales(t, t.TempDir(), "sales.csv")

	_, err := runCLI(t, "clean", src, "--format", "xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xlsx output needs --output")
}

func TestClean_OutputDir(t *testing.T) {
	dir := t.TempDir()
	a := writeSales(t, dir, "jan.csv")
	b := writeSales(t, dir, "feb.csv")
	outDir := filepath.Join(dir, "cleaned")

	_, err := runCLI(t, "clean", a, b, "--output-dir", outDir, "--format", "json", "--concurrency", "2")
	require.NoError(t, err)

	for _, name := range []string{"jan_cleaned.json", "feb_cleaned.json"} {
		_, statErr := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, statErr, name)
	}
}

func TestClean_SharesHostRateLimit(t *testing.T) {
	var (
		mu   sync.Mutex
		hits []time.Time
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits = append(hits, time.Now())
		mu.Unlock()
		_, _ = w.Write([]byte(salesCSV))
	}))
	defer srv.Close()

	// One request per second with a burst of one.
	t.Setenv("RETAIL_INPUT_HTTP_RATE_PER_HOST", "1")
	outDir := filepath.Join(t.TempDir(), "out")

	_, err := runCLI(t, "clean", srv.URL+"/jan.csv", srv.URL+"/feb.csv", "--output-dir", outDir, "--concurrency", "2")
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, hits, 2)
	gap := hits[1].Sub(hits[0])
	if gap < 0 {
		gap = -gap
	}
	assert.GreaterOrEqual(t, gap, 800*time.Millisecond, "both sources wait on the same host limiter")

	for _, name := range []string{"jan_cleaned.csv", "feb_cleaned.csv"} {
		_, statErr := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, statErr, name)
	}
}

func TestClean_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	good := writeSales(t, dir, "good.csv")
	missing := filepath.Join(dir, "missing.csv")
	outDir := filepath.Join(dir, "out")

	_, err := runCLI(t, "clean", missing, good, "--output-dir", outDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 sources failed")
	assert.Contains(t, err.Error(), "missing.csv")

	_, statErr := os.Stat(filepath.Join(outDir, "good_cleaned.csv"))
	assert.NoError(t, statErr, "the good source is still written")
}

func TestClean_ArgumentErrors(t *testing.T) {
	dir := t.TempDir()
	a := writeSales(t, dir, "a.csv")
	b := writeSales(t, dir, "b.csv")

	_, err := runCLI(t, "clean", a, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "several sources need --output-dir")

	_, err = runCLI(t, "clean", a, b, "--output", filepath.Join(dir, "x.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--output takes a single source")

	_, err = runCLI(t, "clean", a, "--format", "parquet")
	require.Error(t, err)

	_, err = runCLI(t, "clean", a, "--concurrency", "100", "--output-dir", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_concurrent_files")
}

func TestOutputPaths(t *testing.T) {
	got := outputPaths([]string{
		"data/sales.csv",
		"other/sales.xlsx",
		"https://example.com/exports/march.zip?sig=abc",
		"ftp://ftp.example.com/",
	}, "out", export.FormatJSON)

	assert.Equal(t, []string{
		filepath.Join("out", "sales_cleaned.json"),
		filepath.Join("out", "sales_cleaned_2.json"),
		filepath.Join("out", "march_cleaned.json"),
		filepath.Join("out", "source_cleaned.json"),
	}, got)
}

func TestResolveCleanFormat(t *testing.T) {
	t.Cleanup(resetFlags)
	cfg = validTestConfig()

	tests := []struct {
		name   string
		flag   string
		output string
		conf   string
		want   export.Format
	}{
		{name: "flag wins", flag: "json", output: "x.xlsx", conf: "csv", want: export.FormatJSON},
		{name: "output extension", output: "x.xlsx", conf: "csv", want: export.FormatXLSX},
		{name: "config", conf: "json", want: export.FormatJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cleanFormat, cleanOutput = tt.flag, tt.output
			cfg.Output.Format = tt.conf
			got, err := resolveCleanFormat()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
