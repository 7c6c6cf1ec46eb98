package analysis

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/salesloom-cli/internal/anomaly"
	"github.com/KaramelBytes/salesloom-cli/internal/timeseries"
)

// InsightOptions bounds the generated text lists.
type InsightOptions struct {
	InsightLimit    int
	SuggestionLimit int
	Currency        string
}

func (o InsightOptions) withDefaults() InsightOptions {
	if o.InsightLimit <= 0 {
		o.InsightLimit = 5
	}
	if o.SuggestionLimit <= 0 {
		o.SuggestionLimit = 3
	}
	if o.Currency == "" {
		o.Currency = "$"
	}
	return o
}

// GenerateInsights fills fixed templates from KPI thresholds. The check order
// is fixed, so identical input always yields identical text. monthly may be
// nil; with three or more months it adds a recent-trend insight.
func GenerateInsights(k KPIResult, monthly []timeseries.Bucket, anomalies []anomaly.Anomaly, opt InsightOptions) (insights, suggestions []string) {
	opt = opt.withDefaults()
	cur := opt.Currency

	switch {
	case k.SalesGrowthPct > 10:
		insights = append(insights, fmt.Sprintf("Strong sales growth of %.1f%% indicates healthy business expansion", k.SalesGrowthPct))
	case k.SalesGrowthPct < -10:
		insights = append(insights, fmt.Sprintf("Sales decline of %.1f%% requires immediate attention", math.Abs(k.SalesGrowthPct)))
	default:
		insights = append(insights, fmt.Sprintf("Sales growth is stable at %.1f%%, showing consistent performance", k.SalesGrowthPct))
	}

	switch {
	case k.RepeatCustomerRatePct > 30:
		insights = append(insights, fmt.Sprintf("High repeat customer rate of %.1f%% shows strong customer loyalty", k.RepeatCustomerRatePct))
	case k.RepeatCustomerRatePct < 15:
		insights = append(insights, fmt.Sprintf("Low repeat customer rate of %.1f%% suggests need for retention strategies", k.RepeatCustomerRatePct))
	}

	switch {
	case k.AverageOrderValue > 100:
		insights = append(insights, fmt.Sprintf("High average order value of %s%.2f indicates premium customer base", cur, k.AverageOrderValue))
	case k.AverageOrderValue < 25:
		insights = append(insights, fmt.Sprintf("Low average order value of %s%.2f presents upselling opportunities", cur, k.AverageOrderValue))
	}

	if len(k.TopProductsBySales) > 0 {
		top := k.TopProductsBySales[0]
		insights = append(insights, fmt.Sprintf("%q is your star performer with %s%.2f in sales", top.Product, cur, top.Value))
	}

	if len(monthly) >= 3 {
		recent := monthly[len(monthly)-3:]
		trend := "decreasing"
		if recent[2].Value > recent[0].Value {
			trend = "increasing"
		}
		insights = append(insights, fmt.Sprintf("Recent 3-month trend shows %s sales pattern", trend))
	}

	if k.SalesGrowthPct < 5 {
		suggestions = append(suggestions, fmt.Sprintf("Focus on marketing campaigns to boost sales - current growth of %.1f%% is below optimal", k.SalesGrowthPct))
	}
	if k.RepeatCustomerRatePct < 25 {
		suggestions = append(suggestions, fmt.Sprintf("Implement loyalty programs to improve repeat customer rate from %.1f%%", k.RepeatCustomerRatePct))
	}
	if k.AverageOrderValue < 50 {
		suggestions = append(suggestions, fmt.Sprintf("Consider bundling products or offering free shipping thresholds to increase AOV from %s%.2f", cur, k.AverageOrderValue))
	}
	if len(k.TopProductsBySales) > 0 {
		suggestions = append(suggestions, fmt.Sprintf("Expand inventory and marketing for %q - your top performer", k.TopProductsBySales[0].Product))
	}
	if len(anomalies) > 0 {
		suggestions = append(suggestions, fmt.Sprintf("Investigate %d unusual sales patterns to understand market dynamics", len(anomalies)))
	}

	return truncate(insights, opt.InsightLimit), truncate(suggestions, opt.SuggestionLimit)
}

func truncate(list []string, n int) []string {
	if len(list) > n {
		return list[:n]
	}
	return list
}
