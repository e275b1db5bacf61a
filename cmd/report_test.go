package main

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestReport_Text(t *testing.T) {
	src := writeSales(t, t.TempDir(), "sales.csv")

	out, err := runCLI(t, "report", src)
	require.NoError(t, err)

	assert.Contains(t, out, "Rows: 3")
	assert.Contains(t, out, "Total sales by category")
	assert.Contains(t, out, "- The majority of transactions were done via Cash")
	assert.Contains(t, out, "- The most sold category is: Toys")
	assert.Contains(t, out, "- Around 33.33 % of transactions used discounts.")
}

func TestReport_JSON(t *testing.T) {
	src := writeSales(t, t.TempDir(), "sales.csv")

	out, err := runCLI(t, "report", src, "--format", "json")
	require.NoError(t, err)

	var got struct {
		Cleaning struct {
			RowsIn      int   `json:"rows_in"`
			RowsOut     int   `json:"rows_out"`
			DroppedRows []int `json:"dropped_rows"`
		} `json:"cleaning"`
		Analysis struct {
			Insights struct {
				TopPaymentMethod string  `json:"top_payment_method"`
				TopCategory      string  `json:"top_category"`
				DiscountPercent  float64 `json:"discount_percent"`
			} `json:"insights"`
		} `json:"analysis"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	assert.Equal(t, 4, got.Cleaning.RowsIn)
	assert.Equal(t, 3, got.Cleaning.RowsOut)
	assert.Equal(t, []int{3}, got.Cleaning.DroppedRows)
	assert.Equal(t, "Cash", got.Analysis.Insights.TopPaymentMethod)
	assert.Equal(t, "Toys", got.Analysis.Insights.TopCategory)
	assert.InDelta(t, 33.33, got.Analysis.Insights.DiscountPercent, 0.001)
}

func TestReport_YAML(t *testing.T) {
	src := writeSales(t, t.TempDir(), "sales.csv")

	out, err := runCLI(t, "report", src, "--format", "yaml")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Contains(t, got, "cleaning")
	assert.Contains(t, got, "analysis")
}

func TestReport_Errors(t *testing.T) {
	dir := t.TempDir()
	src := writeSales(t, dir, "sales.csv")

	_, err := runCLI(t, "report", src, "--format", "html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report_format")

	_, err = runCLI(t, "report", filepath.Join(dir, "missing.csv"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetcher: open source")
}

func TestInspect_Text(t *testing.T) {
	src := writeSales(t, t.TempDir(), "sales.csv")

	out, err := runCLI(t, "inspect", src)
	require.NoError(t, err)

	assert.Contains(t, out, "Rows: 4")
	assert.Contains(t, out, "Date")
	assert.NotContains(t, out, "Transaction Date")
	assert.Contains(t, out, "Price Per Unit")
	assert.Contains(t, out, "NUMERIC")
	assert.Contains(t, out, "TEXT")
}

func TestInspect_JSON(t *testing.T) {
	src := writeSales(t, t.TempDir(), "sales.csv")

	out, err := runCLI(t, "inspect", src, "--format", "json")
	require.NoError(t, err)

	var profiles []struct {
		Name  string `json:"name"`
		Kind  string `json:"kind"`
		Nulls int    `json:"nulls"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &profiles))
	require.Len(t, profiles, 10)

	byName := make(map[string]string)
	nulls := make(map[string]int)
	for _, p := range profiles {
		byName[p.Name] = p.Kind
		nulls[p.Name] = p.Nulls
	}
	assert.Equal(t, "numeric", byName["Quantity"])
	assert.Equal(t, 1, nulls["Quantity"])
	assert.Equal(t, 1, nulls["Item"])
	assert.Equal(t, "text", byName["Category"])
	assert.Contains(t, byName, "Date")
	assert.NotContains(t, byName, "Transaction Date")
}
