package insights

import (
	"math"
	"sort"
	"time"

	"github.com/sells-group/retail-eda/internal/model"
	"github.com/sells-group/retail-eda/internal/stats"
)

// DateTotal is the sum of Total Spent on one date.
type DateTotal struct {
	Date  time.Time `json:"date" yaml:"date"`
	Total float64   `json:"total" yaml:"total"`
}

// GroupTotal is the sum of Total Spent for one group key.
type GroupTotal struct {
	Key   string  `json:"key" yaml:"key"`
	Total float64 `json:"total" yaml:"total"`
}

// GroupSummary is the distribution of a value within one group.
type GroupSummary struct {
	Key              string `json:"key" yaml:"key"`
	stats.FiveNumber `yaml:",inline"`
}

// ValueCount is how often a value occurs and its share of all rows.
type ValueCount struct {
	Value   string  `json:"value" yaml:"value"`
	Count   int     `json:"count" yaml:"count"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// CorrelationMatrix holds pairwise Pearson coefficients. A nil cell means the
// coefficient is undefined (constant column or fewer than two rows).
type CorrelationMatrix struct {
	Columns []string     `json:"columns" yaml:"columns"`
	Values  [][]*float64 `json:"values" yaml:"values"`
}

// SalesByDate sums Total Spent per calendar date, oldest first.
func SalesByDate(tb *model.Table) []DateTotal {
	totals := make(map[time.Time]float64)
	for _, tx := range tb.Rows {
		totals[tx.Date] += tx.TotalSpent
	}
	out := make([]DateTotal, 0, len(totals))
	for d, total := range totals {
		out = append(out, DateTotal{Date: d, Total: total})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// SalesByCategory sums Total Spent per category, smallest total first.
func SalesByCategory(tb *model.Table) []GroupTotal {
	totals := make(map[string]float64)
	for _, tx := range tb.Rows {
		totals[tx.Category] += tx.TotalSpent
	}
	out := make([]GroupTotal, 0, len(totals))
	for k, total := range totals {
		out = append(out, GroupTotal{Key: k, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total < out[j].Total
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// QuantityByPaymentMethod summarizes Quantity per payment method, by name.
func QuantityByPaymentMethod(tb *model.Table) []GroupSummary {
	groups := make(map[string][]float64)
	for _, tx := range tb.Rows {
		groups[tx.PaymentMethod] = append(groups[tx.PaymentMethod], tx.Quantity)
	}
	out := make([]GroupSummary, 0, len(groups))
	for k, qty := range groups {
		five, _ := stats.Summarize(qty)
		out = append(out, GroupSummary{Key: k, FiveNumber: five})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// DiscountCounts counts Discount Applied values, most frequent first.
func DiscountCounts(tb *model.Table) []ValueCount {
	counts := make(map[string]int)
	for _, tx := range tb.Rows {
		counts[tx.DiscountApplied]++
	}
	out := make([]ValueCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, ValueCount{
			Value:   v,
			Count:   n,
			Percent: round2(100 * float64(n) / float64(len(tb.Rows))),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})
	return out
}

// Correlation computes the Pearson matrix of the numeric columns.
func Correlation(tb *model.Table) CorrelationMatrix {
	series := map[string][]float64{}
	for _, tx := range tb.Rows {
		series[model.ColPricePerUnit] = append(series[model.ColPricePerUnit], tx.PricePerUnit)
		series[model.ColQuantity] = append(series[model.ColQuantity], tx.Quantity)
		series[model.ColTotalSpent] = append(series[model.ColTotalSpent], tx.TotalSpent)
	}

	cols := model.NumericColumns
	m := CorrelationMatrix{
		Columns: append([]string(nil), cols...),
		Values:  make([][]*float64, len(cols)),
	}
	for i, a := range cols {
		m.Values[i] = make([]*float64, len(cols))
		for j, b := range cols {
			if r, ok := stats.Pearson(series[a], series[b]); ok {
				r = round2(r)
				m.Values[i][j] = &r
			}
		}
	}
	return m
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
