package analysis

import (
	"fmt"
	"strings"
)

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Result) Markdown() string {
	var b strings.Builder
	cur := r.currency()

	b.WriteString("[DATASET SUMMARY]\n")
	if r.DatasetName != "" {
		b.WriteString(fmt.Sprintf("Dataset: %s\n", r.DatasetName))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(r.Columns)))
	for _, role := range Roles {
		res, ok := r.Roles[role]
		if !ok || res.Column == "" {
			continue
		}
		mark := ""
		if !res.Matched {
			mark = " (fallback)"
		}
		b.WriteString(fmt.Sprintf("- %s → %s%s\n", role, res.Column, mark))
	}

	b.WriteString("\n[COLUMNS]\n")
	for _, p := range r.Profiles {
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %d, unique %d)", p.Name, p.Type, p.NonNull, p.Missing, p.Unique))
		switch {
		case p.First != "":
			b.WriteString(fmt.Sprintf(" - %s to %s", p.First, p.Last))
		case p.Mean != 0 || p.Std != 0 || p.Max != 0:
			b.WriteString(fmt.Sprintf(" - min %.4g, max %.4g, mean %.4g, median %.4g", p.Min, p.Max, p.Mean, p.Median))
			if p.Outliers > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d", p.Outliers))
			}
		case len(p.TopValues) > 0:
			b.WriteString(" - top: ")
			for i, kv := range p.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", kv.Value, kv.Count))
			}
		}
		b.WriteString("\n")
	}

	k := r.KPIs
	b.WriteString("\n[KPIS]\n")
	b.WriteString(fmt.Sprintf("- Total sales: %s%.2f\n", cur, k.TotalSales))
	b.WriteString(fmt.Sprintf("- Orders: %d\n", k.TotalOrders))
	b.WriteString(fmt.Sprintf("- Unique customers: %d\n", k.UniqueCustomers))
	b.WriteString(fmt.Sprintf("- Average order value: %s%.2f\n", cur, k.AverageOrderValue))
	b.WriteString(fmt.Sprintf("- Repeat customer rate: %.2f%%\n", k.RepeatCustomerRatePct))
	b.WriteString(fmt.Sprintf("- Sales growth: %.2f%%\n", k.SalesGrowthPct))
	b.WriteString(fmt.Sprintf("- Customer lifetime value: %s%.2f\n", cur, k.CustomerLifetimeValue))
	b.WriteString(fmt.Sprintf("- Orders per customer: %.2f\n", k.AvgOrdersPerCustomer))
	b.WriteString(fmt.Sprintf("- Products: %d (top share %.2f%%)\n", k.ProductDiversity, k.TopProductSharePct))
	b.WriteString(fmt.Sprintf("- Momentum: %.4f\n", k.MomentumScore))

	if len(k.TopProductsBySales) > 0 || len(k.TopProductsByQty) > 0 {
		b.WriteString("\n[TOP PRODUCTS]\n")
		b.WriteString("| # | By sales | Sales | By quantity | Units |\n")
		b.WriteString("| --- | --- | --- | --- | --- |\n")
		n := max(len(k.TopProductsBySales), len(k.TopProductsByQty))
		for i := 0; i < n; i++ {
			var sp, sv, qp, qv string
			if i < len(k.TopProductsBySales) {
				sp = k.TopProductsBySales[i].Product
				sv = fmt.Sprintf("%s%.2f", cur, k.TopProductsBySales[i].Value)
			}
			if i < len(k.TopProductsByQty) {
				qp = k.TopProductsByQty[i].Product
				qv = fmt.Sprintf("%g", k.TopProductsByQty[i].Value)
			}
			b.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n", i+1, sp, sv, qp, qv))
		}
	}

	ts := r.TimeSeries
	b.WriteString("\n[TIME SERIES]\n")
	b.WriteString(fmt.Sprintf("Buckets: %d daily, %d weekly, %d monthly\n", len(ts.Daily), len(ts.Weekly), len(ts.Monthly)))
	b.WriteString(fmt.Sprintf("Trend: %s\n", ts.Trend))
	if ts.Seasonality.Evaluated {
		b.WriteString(fmt.Sprintf("Seasonality: weekly r=%.3f, monthly r=%.3f (detected: %t)\n",
			ts.Seasonality.Weekly, ts.Seasonality.Monthly, ts.Seasonality.Detected))
	}
	for _, bk := range ts.Monthly {
		b.WriteString(fmt.Sprintf("- %s: %s%.2f\n", bk.Key, cur, bk.Value))
	}

	b.WriteString("\n[ANOMALIES]\n")
	if len(r.Anomalies) == 0 {
		b.WriteString("- none\n")
	}
	for _, a := range r.Anomalies {
		b.WriteString(fmt.Sprintf("- [%s] %s (%s)\n", a.Severity, a.Explanation, a.Method))
	}

	writeList(&b, "INSIGHTS", r.Insights)
	writeList(&b, "SUGGESTIONS", r.Suggestions)
	if len(r.Notes) > 0 {
		writeList(&b, "NOTES", r.Notes)
	}
	return b.String()
}

func writeList(b *strings.Builder, title string, items []string) {
	b.WriteString("\n[" + title + "]\n")
	if len(items) == 0 {
		b.WriteString("- none\n")
		return
	}
	for _, s := range items {
		b.WriteString("- ")
		b.WriteString(s)
		b.WriteString("\n")
	}
}

// Markdown renders the alert bundle.
func (a Alerts) Markdown() string {
	var b strings.Builder
	b.WriteString("[HEALTH]\n")
	b.WriteString(fmt.Sprintf("Score: %d/100 (%s)\n", a.Health.Score, a.Health.Grade))
	for _, f := range a.Health.Factors {
		b.WriteString(fmt.Sprintf("- %s: %d/%d\n", f.Name, f.Points, f.Max))
	}
	writeAlerts(&b, "ALERTS", a.Smart)
	writeAlerts(&b, "THRESHOLDS", a.Threshold)
	b.WriteString("\n[RECOMMENDATIONS]\n")
	if len(a.Recommendations) == 0 {
		b.WriteString("- none\n")
	}
	for _, r := range a.Recommendations {
		b.WriteString(fmt.Sprintf("- [%s/%s] %s: %s\n", r.Impact, r.Type, r.Title, r.Description))
	}
	return b.String()
}

func writeAlerts(b *strings.Builder, title string, alerts []Alert) {
	b.WriteString("\n[" + title + "]\n")
	if len(alerts) == 0 {
		b.WriteString("- none\n")
		return
	}
	for _, al := range alerts {
		b.WriteString(fmt.Sprintf("- [%s] %s: %s\n", al.Level, al.Title, al.Message))
	}
}
