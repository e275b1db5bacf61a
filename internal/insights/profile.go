// Package insights computes the descriptive summaries printed by the inspect
// and report commands: a missing-value profile of the raw table, grouped
// aggregates of the cleaned table, and the headline insights.
package insights

import (
	"sort"

	"github.com/sells-group/retail-eda/internal/model"
	"github.com/sells-group/retail-eda/internal/normalize"
	"github.com/sells-group/retail-eda/internal/stats"
)

// ColumnKind is the type a raw column's non-null values coerce to.
type ColumnKind string

const (
	KindNumeric ColumnKind = "numeric"
	KindDate    ColumnKind = "date"
	KindText    ColumnKind = "text"
	KindEmpty   ColumnKind = "empty"
)

// NumericSummary describes a numeric column.
type NumericSummary struct {
	stats.FiveNumber `yaml:",inline"`

	Mean float64 `json:"mean" yaml:"mean"`
	Std  float64 `json:"std" yaml:"std"`
}

// TextSummary describes a text column.
type TextSummary struct {
	Unique int    `json:"unique" yaml:"unique"`
	Top    string `json:"top" yaml:"top"`
	Freq   int    `json:"freq" yaml:"freq"`
}

// ColumnProfile is the initial data check for one raw column.
type ColumnProfile struct {
	Name    string          `json:"name" yaml:"name"`
	Kind    ColumnKind      `json:"kind" yaml:"kind"`
	Count   int             `json:"count" yaml:"count"` // non-null cells
	Nulls   int             `json:"nulls" yaml:"nulls"`
	Numeric *NumericSummary `json:"numeric,omitempty" yaml:"numeric,omitempty"`
	Text    *TextSummary    `json:"text,omitempty" yaml:"text,omitempty"`
}

// Profile inspects raw before cleaning. Column names go through the same
// header cleanup as normalize, so Transaction Date is reported as Date. Kinds are inferred from the non-null cells using the same
// coercion rules as normalize.
func Profile(raw model.RawTable, opts normalize.Options) []ColumnProfile {
	defaults := normalize.DefaultOptions()
	if opts.NAValues == nil {
		opts.NAValues = defaults.NAValues
	}
	if len(opts.DateLayouts) == 0 {
		opts.DateLayouts = defaults.DateLayouts
	}
	na := normalize.NewNAMatcher(opts.NAValues)

	columns, colIdx := normalize.CleanHeader(raw.Header)
	profiles := make([]ColumnProfile, 0, len(columns))
	for _, name := range columns {
		idx := colIdx[name]
		p := ColumnProfile{Name: name}

		var values []string
		for _, row := range raw.Rows {
			if idx >= len(row) || na.IsNull(row[idx]) {
				p.Nulls++
				continue
			}
			values = append(values, row[idx])
		}
		p.Count = len(values)
		p.Kind = inferKind(values, opts.DateLayouts)

		switch p.Kind {
		case KindNumeric:
			nums := make([]float64, len(values))
			for i, v := range values {
				nums[i], _ = normalize.ParseNumber(v)
			}
			p.Numeric = summarizeNumeric(nums)
		case KindDate, KindText:
			p.Text = summarizeText(values)
		}
		profiles = append(profiles, p)
	}
	return profiles
}

func inferKind(values []string, layouts []string) ColumnKind {
	if len(values) == 0 {
		return KindEmpty
	}
	numeric, date := true, true
	for _, v := range values {
		if numeric {
			_, numeric = normalize.ParseNumber(v)
		}
		if date {
			_, date = normalize.ParseDate(v, layouts)
		}
		if !numeric && !date {
			return KindText
		}
	}
	if numeric {
		return KindNumeric
	}
	return KindDate
}

func summarizeNumeric(nums []float64) *NumericSummary {
	five, _ := stats.Summarize(nums)
	mean, _ := stats.Mean(nums)
	std, _ := stats.StdDev(nums) // zero for a single value
	return &NumericSummary{Mean: mean, Std: std, FiveNumber: five}
}

// summarizeText counts distinct values. Ties for the most frequent value go
// to the lexically smallest.
func summarizeText(values []string) *TextSummary {
	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s := &TextSummary{Unique: len(counts)}
	for _, k := range keys {
		if counts[k] > s.Freq {
			s.Top, s.Freq = k, counts[k]
		}
	}
	return s
}
