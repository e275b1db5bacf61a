package model

import (
	"strconv"
	"time"
)

// Column names of the retail transactions table after header cleanup.
const (
	ColDate            = "Date"
	ColTransactionDate = "Transaction Date"
	ColPricePerUnit    = "Price Per Unit"
	ColQuantity        = "Quantity"
	ColTotalSpent      = "Total Spent"
	ColItem            = "Item"
	ColDiscountApplied = "Discount Applied"
	ColCategory        = "Category"
	ColPaymentMethod   = "Payment Method"
	ColLocation        = "Location"
)

// NumericColumns are coerced to float64 and median-imputed.
var NumericColumns = []string{ColPricePerUnit, ColQuantity, ColTotalSpent}

// CategoricalColumns are trimmed and title-cased.
var CategoricalColumns = []string{ColCategory, ColPaymentMethod, ColLocation, ColDiscountApplied}

// RequiredColumns lists every column the cleaned table has a typed field for.
var RequiredColumns = []string{
	ColDate,
	ColPricePerUnit,
	ColQuantity,
	ColTotalSpent,
	ColItem,
	ColDiscountApplied,
	ColCategory,
	ColPaymentMethod,
	ColLocation,
}

// RawTable is a loaded record set where every cell is still text.
type RawTable struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

// Transaction is one cleaned retail transaction.
type Transaction struct {
	Date            time.Time         `json:"date"`
	PricePerUnit    float64           `json:"price_per_unit"`
	Quantity        float64           `json:"quantity"`
	TotalSpent      float64           `json:"total_spent"`
	Item            string            `json:"item"`
	DiscountApplied string            `json:"discount_applied"`
	Category        string            `json:"category"`
	PaymentMethod   string            `json:"payment_method"`
	Location        string            `json:"location"`
	Extra           map[string]string `json:"extra,omitempty"` // passthrough columns keyed by cleaned header
}

// Table is the typed, analysis-ready record set.
type Table struct {
	Columns []string      `json:"columns"`
	Rows    []Transaction `json:"rows"`
}

// Value returns the text rendering of a column for the transaction.
// Unknown columns fall back to Extra.
func (t Transaction) Value(col string) string {
	switch col {
	case ColDate:
		return FormatDate(t.Date)
	case ColPricePerUnit:
		return FormatFloat(t.PricePerUnit)
	case ColQuantity:
		return FormatFloat(t.Quantity)
	case ColTotalSpent:
		return FormatFloat(t.TotalSpent)
	case ColItem:
		return t.Item
	case ColDiscountApplied:
		return t.DiscountApplied
	case ColCategory:
		return t.Category
	case ColPaymentMethod:
		return t.PaymentMethod
	case ColLocation:
		return t.Location
	}
	return t.Extra[col]
}

// ToRaw renders the table back into text cells, in column order.
func (tb *Table) ToRaw() RawTable {
	raw := RawTable{
		Header: append([]string(nil), tb.Columns...),
		Rows:   make([][]string, 0, len(tb.Rows)),
	}
	for _, tx := range tb.Rows {
		row := make([]string, len(tb.Columns))
		for i, col := range tb.Columns {
			row[i] = tx.Value(col)
		}
		raw.Rows = append(raw.Rows, row)
	}
	return raw
}

// FormatDate renders a date as 2006-01-02, adding the clock only when set.
func FormatDate(d time.Time) string {
	if d.IsZero() {
		return ""
	}
	if d.Hour() == 0 && d.Minute() == 0 && d.Second() == 0 && d.Nanosecond() == 0 {
		return d.Format(time.DateOnly)
	}
	return d.Format(time.DateTime)
}

// FormatFloat renders a float with the shortest exact representation.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
