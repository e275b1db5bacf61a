package insights

import (
	"sort"

	"github.com/sells-group/retail-eda/internal/model"
)

// KeyInsights are the headline findings of a cleaned table.
type KeyInsights struct {
	TopPaymentMethod string  `json:"top_payment_method" yaml:"top_payment_method"`
	TopCategory      string  `json:"top_category" yaml:"top_category"`
	DiscountPercent  float64 `json:"discount_percent" yaml:"discount_percent"`
}

// Report bundles every aggregate the report command prints.
type Report struct {
	Rows                    int               `json:"rows" yaml:"rows"`
	Correlation             CorrelationMatrix `json:"correlation" yaml:"correlation"`
	SalesByDate             []DateTotal       `json:"sales_by_date" yaml:"sales_by_date"`
	SalesByCategory         []GroupTotal      `json:"sales_by_category" yaml:"sales_by_category"`
	QuantityByPaymentMethod []GroupSummary    `json:"quantity_by_payment_method" yaml:"quantity_by_payment_method"`
	DiscountCounts          []ValueCount      `json:"discount_counts" yaml:"discount_counts"`
	Insights                KeyInsights       `json:"insights" yaml:"insights"`
}

// Build computes the full report for tb.
func Build(tb *model.Table) Report {
	return Report{
		Rows:                    len(tb.Rows),
		Correlation:             Correlation(tb),
		SalesByDate:             SalesByDate(tb),
		SalesByCategory:         SalesByCategory(tb),
		QuantityByPaymentMethod: QuantityByPaymentMethod(tb),
		DiscountCounts:          DiscountCounts(tb),
		Insights:                Summarize(tb),
	}
}

// Summarize computes the key insights. An empty table yields zero values.
func Summarize(tb *model.Table) KeyInsights {
	return KeyInsights{
		TopPaymentMethod: ModePaymentMethod(tb),
		TopCategory:      TopCategory(tb),
		DiscountPercent:  DiscountPercent(tb),
	}
}

// ModePaymentMethod returns the most used payment method. Ties go to the
// lexically smallest name.
func ModePaymentMethod(tb *model.Table) string {
	counts := make(map[string]int)
	for _, tx := range tb.Rows {
		counts[tx.PaymentMethod]++
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var best string
	var bestN int
	for _, k := range keys {
		if counts[k] > bestN {
			best, bestN = k, counts[k]
		}
	}
	return best
}

// TopCategory returns the category with the largest Total Spent.
func TopCategory(tb *model.Table) string {
	totals := SalesByCategory(tb)
	if len(totals) == 0 {
		return ""
	}
	top := totals[len(totals)-1]
	// SalesByCategory breaks ties by ascending key; prefer the smallest key.
	for _, g := range totals {
		if g.Total == top.Total {
			return g.Key
		}
	}
	return top.Key
}

// DiscountPercent is the share of rows with Discount Applied "True", as a
// percentage rounded to two decimals.
func DiscountPercent(tb *model.Table) float64 {
	if len(tb.Rows) == 0 {
		return 0
	}
	var n int
	for _, tx := range tb.Rows {
		if tx.DiscountApplied == "True" {
			n++
		}
	}
	return round2(100 * float64(n) / float64(len(tb.Rows)))
}
