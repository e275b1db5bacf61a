package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/retail-eda/internal/insights"
	"github.com/sells-group/retail-eda/internal/model"
)

// ParseReportFormat validates a report output format.
func ParseReportFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	}
	return "", eris.Errorf("export: unsupported report format %q", s)
}

// WriteStructured encodes v as JSON or YAML.
func WriteStructured(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "export: encode json report")
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return eris.Wrap(err, "export: encode yaml report")
		}
		if err := enc.Close(); err != nil {
			return eris.Wrap(err, "export: close yaml encoder")
		}
		return nil
	}
	return eris.Errorf("export: format %q is not structured", format)
}

// WriteProfileText prints the initial data check as aligned tables.
func WriteProfileText(w io.Writer, profiles []insights.ColumnProfile, rows int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Rows: %d  Columns: %d\n\n", rows, len(profiles))
	fmt.Fprintln(tw, "COLUMN\tKIND\tNON-NULL\tMISSING")
	for _, p := range profiles {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", p.Name, p.Kind, p.Count, p.Nulls)
	}

	fmt.Fprintln(tw, "\nNUMERIC\tMEAN\tSTD\tMIN\t25%\t50%\t75%\tMAX")
	for _, p := range profiles {
		if n := p.Numeric; n != nil {
			fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\n",
				p.Name, n.Mean, n.Std, n.Min, n.Q1, n.Median, n.Q3, n.Max)
		}
	}

	fmt.Fprintln(tw, "\nTEXT\tUNIQUE\tTOP\tFREQ")
	for _, p := range profiles {
		if t := p.Text; t != nil {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%d\n", p.Name, t.Unique, t.Top, t.Freq)
		}
	}

	if err := tw.Flush(); err != nil {
		return eris.Wrap(err, "export: flush profile")
	}
	return nil
}

// WriteReportText prints the aggregates and key insights.
func WriteReportText(w io.Writer, r insights.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Rows: %d\n", r.Rows)

	fmt.Fprintln(tw, "\nCorrelation")
	fmt.Fprintf(tw, "\t%s\n", strings.Join(r.Correlation.Columns, "\t"))
	for i, col := range r.Correlation.Columns {
		cells := make([]string, len(r.Correlation.Values[i]))
		for j, v := range r.Correlation.Values[i] {
			if v == nil {
				cells[j] = "-"
			} else {
				cells[j] = fmt.Sprintf("%.2f", *v)
			}
		}
		fmt.Fprintf(tw, "%s\t%s\n", col, strings.Join(cells, "\t"))
	}

	fmt.Fprintln(tw, "\nTotal sales over time")
	for _, d := range r.SalesByDate {
		fmt.Fprintf(tw, "%s\t%.2f\n", model.FormatDate(d.Date), d.Total)
	}

	fmt.Fprintln(tw, "\nTotal sales by category")
	for _, g := range r.SalesByCategory {
		fmt.Fprintf(tw, "%s\t%.2f\n", g.Key, g.Total)
	}

	fmt.Fprintln(tw, "\nQuantity by payment method\tMIN\tQ1\tMEDIAN\tQ3\tMAX\tN")
	for _, g := range r.QuantityByPaymentMethod {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%.2f\t%d\n",
			g.Key, g.Min, g.Q1, g.Median, g.Q3, g.Max, g.Count)
	}

	fmt.Fprintln(tw, "\nDiscount usage")
	for _, v := range r.DiscountCounts {
		fmt.Fprintf(tw, "%s\t%d\t%.1f%%\n", v.Value, v.Count, v.Percent)
	}

	fmt.Fprintln(tw, "\nInsights:")
	fmt.Fprintf(tw, "- The majority of transactions were done via %s\n", r.Insights.TopPaymentMethod)
	fmt.Fprintf(tw, "- The most sold category is: %s\n", r.Insights.TopCategory)
	fmt.Fprintf(tw, "- Around %.2f %% of transactions used discounts.\n", r.Insights.DiscountPercent)

	if err := tw.Flush(); err != nil {
		return eris.Wrap(err, "export: flush report")
	}
	return nil
}
