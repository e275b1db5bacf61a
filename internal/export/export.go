// Package export writes cleaned tables and reports in CSV, JSON, XLSX, YAML
// and plain-text form.
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/retail-eda/internal/model"
)

// Format names an output encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
	FormatText Format = "text"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a table output format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatJSON, FormatXLSX:
		return f, nil
	}
	return "", eris.Errorf("export: unsupported table format %q", s)
}

// FormatFromPath guesses the format from a file extension, defaulting to CSV.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".xlsx":
		return FormatXLSX
	}
	return FormatCSV
}

// WriteCSV writes the table with a header row in column order.
func WriteCSV(w io.Writer, tb *model.Table) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(tb.Columns); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for _, row := range tb.ToRaw().Rows {
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "export: flush csv")
	}
	return nil
}

// WriteJSON writes the table as an array of objects keyed by column name, with
// keys in column order. Numeric columns stay numbers; dates use the table's
// text rendering.
func WriteJSON(w io.Writer, tb *model.Table) error {
	records := make([]orderedRecord, 0, len(tb.Rows))
	for _, tx := range tb.Rows {
		rec := orderedRecord{keys: tb.Columns, values: make([]any, len(tb.Columns))}
		for i, col := range tb.Columns {
			switch col {
			case model.ColPricePerUnit:
				rec.values[i] = tx.PricePerUnit
			case model.ColQuantity:
				rec.values[i] = tx.Quantity
			case model.ColTotalSpent:
				rec.values[i] = tx.TotalSpent
			default:
				rec.values[i] = tx.Value(col)
			}
		}
		records = append(records, rec)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return eris.Wrap(err, "export: encode json")
	}
	return nil
}

// orderedRecord is a JSON object whose keys keep their slice order.
type orderedRecord struct {
	keys   []string
	values []any
}

// MarshalJSON implements json.Marshaler.
func (r orderedRecord) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range r.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[i])
		if err != nil {
			return nil, eris.Wrapf(err, "export: encode column %q", key)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// WriteXLSX saves the table to a single-sheet workbook at path.
func WriteXLSX(path string, tb *model.Table) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("cleaned")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	header := sheet.AddRow()
	for _, col := range tb.Columns {
		header.AddCell().SetString(col)
	}

	for _, tx := range tb.Rows {
		row := sheet.AddRow()
		for _, col := range tb.Columns {
			cell := row.AddCell()
			switch col {
			case model.ColPricePerUnit:
				cell.SetFloat(tx.PricePerUnit)
			case model.ColQuantity:
				cell.SetFloat(tx.Quantity)
			case model.ColTotalSpent:
				cell.SetFloat(tx.TotalSpent)
			default:
				cell.SetString(tx.Value(col))
			}
		}
	}

	if err := f.Save(path); err != nil {
		return eris.Wrap(err, "export: save xlsx")
	}
	return nil
}

// WriteFile writes the table to path in the given format.
func WriteFile(path string, format Format, tb *model.Table) error {
	if format == FormatXLSX {
		return WriteXLSX(path, tb)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "export: create file")
	}
	defer f.Close() //nolint:errcheck

	if err := Write(f, format, tb); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return eris.Wrap(err, "export: close file")
	}
	return nil
}

// Write encodes the table to w. XLSX needs a file path; use WriteFile.
func Write(w io.Writer, format Format, tb *model.Table) error {
	switch format {
	case FormatCSV:
		return WriteCSV(w, tb)
	case FormatJSON:
		return WriteJSON(w, tb)
	}
	return eris.Errorf("export: format %q cannot be streamed", format)
}
