package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/retail-eda/internal/config"
)

const salesCSV = `Transaction ID, Category ,Item,Price Per Unit,Quantity,Total Spent,Payment Method,Location,Transaction Date,Discount Applied
TXN_1, food ,Item_1_FOOD,10,2,20, cash ,Online,2024-01-02,TRUE
TXN_2,toys,,5,,25,Credit Card,in-store,2024-01-03,
TXN_3,food,Item_2_FOOD,,1,8,cash,Online,not a date,False
TXN_4,ELECTRONICS,Item_3_ELE,30,3,,digital wallet,In-store,2024-01-04,false
`

// writeSales writes the sample export under dir and returns its path.
func writeSales(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(salesCSV), 0o644))
	return path
}

func resetFlags() {
	cleanOutput = ""
	cleanOutputDir = ""
	cleanFormat = ""
	cleanConcurrency = 0
	inspectFormat = "text"
	reportFormat = ""
}

// runCLI executes the root command with args and returns what it printed.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("RETAIL_LOG_LEVEL", "error")
	resetFlags()
	t.Cleanup(resetFlags)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

// validTestConfig mirrors the config defaults for tests that bypass Load.
func validTestConfig() *config.Config {
	c := &config.Config{}
	c.Input.Delimiter = ","
	c.Input.HTTPMaxRetries = 3
	c.Input.HTTPRatePerHost = 5
	c.Output.Format = "csv"
	c.Output.ReportFormat = "text"
	c.Batch.MaxConcurrentFiles = 4
	c.Log = config.LogConfig{Level: "error", Format: "json"}
	return c
}
