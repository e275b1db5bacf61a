// Package normalize turns a raw retail transactions table into a typed,
// imputed and standardized table. Normalize never fails: malformed cells
// degrade to nulls, nulls are filled by per-column policy, and rows without a
// usable date are dropped. Every anomaly is counted in the returned Report.
package normalize

import (
	"math"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/retail-eda/internal/model"
	"github.com/sells-group/retail-eda/internal/stats"
)

// DefaultDateLayouts are tried in order when coercing the Date column.
var DefaultDateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
}

// DefaultNAValues are the cell texts treated as missing.
var DefaultNAValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None",
	"n/a", "nan", "null",
}

// Options configures coercion and fill policies.
type Options struct {
	DateLayouts     []string
	NAValues        []string
	UnknownItem     string // fill for null Item
	DiscountDefault string // fill for null Discount Applied
	UnknownLabel    string // fill for null Category, Payment Method, Location
}

// DefaultOptions returns the standard cleaning policy.
func DefaultOptions() Options {
	return Options{
		DateLayouts:     DefaultDateLayouts,
		NAValues:        DefaultNAValues,
		UnknownItem:     "Unknown Item",
		DiscountDefault: "False",
		UnknownLabel:    "Unknown",
	}
}

// withDefaults fills zero-valued fields from DefaultOptions.
func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if len(o.DateLayouts) == 0 {
		o.DateLayouts = d.DateLayouts
	}
	if o.NAValues == nil {
		o.NAValues = d.NAValues
	}
	if o.UnknownItem == "" {
		o.UnknownItem = d.UnknownItem
	}
	if o.DiscountDefault == "" {
		o.DiscountDefault = d.DiscountDefault
	}
	if o.UnknownLabel == "" {
		o.UnknownLabel = d.UnknownLabel
	}
	return o
}

// Imputation records how a numeric column was filled.
type Imputation struct {
	Median  float64 `json:"median" yaml:"median"`
	Filled  int     `json:"filled" yaml:"filled"`
	AllNull bool    `json:"all_null" yaml:"all_null"` // no values to take a median of; filled with 0
}

// Report summarizes what Normalize changed.
type Report struct {
	RowsIn           int                   `json:"rows_in" yaml:"rows_in"`
	RowsOut          int                   `json:"rows_out" yaml:"rows_out"`
	DroppedRows      []int                 `json:"dropped_rows,omitempty" yaml:"dropped_rows,omitempty"` // 1-based data row numbers
	MissingColumns   []string              `json:"missing_columns,omitempty" yaml:"missing_columns,omitempty"`
	NullCounts       map[string]int        `json:"null_counts" yaml:"null_counts"`
	CoercionFailures map[string]int        `json:"coercion_failures" yaml:"coercion_failures"`
	Imputations      map[string]Imputation `json:"imputations" yaml:"imputations"`
	DefaultFills     map[string]int        `json:"default_fills" yaml:"default_fills"`
}

// Normalize cleans raw into a typed table. raw is not modified.
func Normalize(raw model.RawTable, opts Options) (*model.Table, Report) {
	opts = opts.withDefaults()
	na := NewNAMatcher(opts.NAValues)

	report := Report{
		RowsIn:           len(raw.Rows),
		NullCounts:       make(map[string]int),
		CoercionFailures: make(map[string]int),
		Imputations:      make(map[string]Imputation),
		DefaultFills:     make(map[string]int),
	}

	// Header hygiene.
	columns, colIdx := CleanHeader(raw.Header)
	for _, col := range model.RequiredColumns {
		if _, ok := colIdx[col]; !ok {
			report.MissingColumns = append(report.MissingColumns, col)
			columns = append(columns, col)
		}
	}

	// cell returns the raw text of a column and whether it is null.
	cell := func(row []string, col string) (string, bool) {
		idx, ok := colIdx[col]
		if !ok || idx >= len(row) {
			return "", true
		}
		v := row[idx]
		return v, na.IsNull(v)
	}

	for _, col := range columns {
		for _, row := range raw.Rows {
			if _, isNull := cell(row, col); isNull {
				report.NullCounts[col]++
			}
		}
	}

	// Type coercion.
	dates := make([]time.Time, len(raw.Rows))
	hasDate := make([]bool, len(raw.Rows))
	for i, row := range raw.Rows {
		v, isNull := cell(row, model.ColDate)
		if isNull {
			continue
		}
		d, ok := ParseDate(v, opts.DateLayouts)
		if !ok {
			report.CoercionFailures[model.ColDate]++
			continue
		}
		dates[i] = d
		hasDate[i] = true
	}

	numeric := make(map[string][]float64, len(model.NumericColumns))
	for _, col := range model.NumericColumns {
		vals := make([]float64, len(raw.Rows))
		for i, row := range raw.Rows {
			vals[i] = math.NaN()
			v, isNull := cell(row, col)
			if isNull {
				continue
			}
			f, ok := ParseNumber(v)
			if !ok {
				report.CoercionFailures[col]++
				continue
			}
			vals[i] = f
		}
		numeric[col] = vals
	}

	// Numeric imputation over every row, before any are dropped.
	for _, col := range model.NumericColumns {
		vals := numeric[col]
		median, ok := stats.Median(vals)
		imp := Imputation{Median: median, AllNull: !ok}
		for i, v := range vals {
			if math.IsNaN(v) {
				vals[i] = median
				imp.Filled++
			}
		}
		report.Imputations[col] = imp
	}

	// Categorical null-filling.
	fill := func(row []string, col, def string) string {
		v, isNull := cell(row, col)
		if isNull {
			report.DefaultFills[col]++
			return def
		}
		return v
	}

	title := cases.Title(language.Und)
	standardize := func(s string) string {
		return title.String(strings.TrimSpace(s))
	}

	extras := make([]string, 0, len(columns))
	for _, col := range columns {
		if !isTypedColumn(col) {
			extras = append(extras, col)
		}
	}

	table := &model.Table{
		Columns: columns,
		Rows:    make([]model.Transaction, 0, len(raw.Rows)),
	}

	for i, row := range raw.Rows {
		item := fill(row, model.ColItem, opts.UnknownItem)
		discount := fill(row, model.ColDiscountApplied, opts.DiscountDefault)
		category := fill(row, model.ColCategory, opts.UnknownLabel)
		payment := fill(row, model.ColPaymentMethod, opts.UnknownLabel)
		location := fill(row, model.ColLocation, opts.UnknownLabel)

		// Row filtering.
		if !hasDate[i] {
			report.DroppedRows = append(report.DroppedRows, i+1)
			continue
		}

		tx := model.Transaction{
			Date:            dates[i],
			PricePerUnit:    numeric[model.ColPricePerUnit][i],
			Quantity:        numeric[model.ColQuantity][i],
			TotalSpent:      numeric[model.ColTotalSpent][i],
			Item:            item,
			DiscountApplied: standardize(discount),
			Category:        standardize(category),
			PaymentMethod:   standardize(payment),
			Location:        standardize(location),
		}
		if len(extras) > 0 {
			tx.Extra = make(map[string]string, len(extras))
			for _, col := range extras {
				v, _ := cell(row, col)
				tx.Extra[col] = v
			}
		}
		table.Rows = append(table.Rows, tx)
	}

	report.RowsOut = len(table.Rows)
	return table, report
}

// CleanHeader trims column names, renames Transaction Date to Date, and
// indexes each name by its first occurrence. Later duplicates are dropped.
func CleanHeader(header []string) ([]string, map[string]int) {
	columns := make([]string, 0, len(header))
	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == model.ColTransactionDate {
			name = model.ColDate
		}
		if _, dup := colIdx[name]; dup {
			continue
		}
		colIdx[name] = i
		columns = append(columns, name)
	}
	return columns, colIdx
}

func isTypedColumn(col string) bool {
	for _, c := range model.RequiredColumns {
		if c == col {
			return true
		}
	}
	return false
}

// ParseDate tries each layout in order. Results are in UTC.
func ParseDate(s string, layouts []string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range layouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseNumber parses a float, rejecting NaN and infinities.
func ParseNumber(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// NAMatcher reports whether a cell holds a missing-value marker.
type NAMatcher struct {
	values map[string]struct{}
}

// NewNAMatcher builds a matcher for the given markers. The empty string is
// always a marker. Matching ignores case, so title-cased output such as
// "None" stays null when a cleaned table is normalized again.
func NewNAMatcher(values []string) NAMatcher {
	m := NAMatcher{values: make(map[string]struct{}, len(values)+1)}
	m.values[""] = struct{}{}
	for _, v := range values {
		m.values[strings.ToLower(strings.TrimSpace(v))] = struct{}{}
	}
	return m
}

// IsNull compares the trimmed, lower-cased cell against the markers.
func (m NAMatcher) IsNull(v string) bool {
	_, ok := m.values[strings.ToLower(strings.TrimSpace(v))]
	return ok
}
