package analysis

import (
	"fmt"
	"time"

	"github.com/KaramelBytes/salesloom-cli/internal/anomaly"
	"github.com/KaramelBytes/salesloom-cli/internal/dataset"
	"github.com/KaramelBytes/salesloom-cli/internal/timeseries"
)

// AlertLevel is the urgency of an alert.
type AlertLevel string

const (
	LevelCritical AlertLevel = "critical"
	LevelWarning  AlertLevel = "warning"
	LevelInfo     AlertLevel = "info"
	LevelSuccess  AlertLevel = "success"
)

// AlertCategory groups alerts by origin.
type AlertCategory string

const (
	CategoryPerformance AlertCategory = "performance"
	CategoryTrend       AlertCategory = "trend"
	CategoryAnomaly     AlertCategory = "anomaly"
	CategoryOpportunity AlertCategory = "opportunity"
	CategoryThreshold   AlertCategory = "threshold"
)

// Alert is a notification about a dataset.
type Alert struct {
	ID             string        `json:"id"`
	DatasetID      string        `json:"dataset_id"`
	Level          AlertLevel    `json:"level"`
	Category       AlertCategory `json:"category"`
	Title          string        `json:"title"`
	Message        string        `json:"message"`
	Metric         string        `json:"metric,omitempty"`
	Value          float64       `json:"value,omitempty"`
	Threshold      float64       `json:"threshold,omitempty"`
	ActionRequired bool          `json:"action_required"`
	CreatedAt      time.Time     `json:"created_at"`
}

const maxSmartAlerts = 15

// SmartAlerts turns an analysis into performance, trend, anomaly and
// opportunity alerts, capped at fifteen.
func SmartAlerts(r *Result, s Stamper) []Alert {
	k := r.KPIs
	cur := r.currency()
	var out []Alert
	add := func(level AlertLevel, cat AlertCategory, title, msg, metric string, value float64) {
		id, at := s.stamp()
		out = append(out, Alert{
			ID: id, DatasetID: r.DatasetID, Level: level, Category: cat,
			Title: title, Message: msg, Metric: metric, Value: value,
			ActionRequired: level == LevelCritical || level == LevelWarning,
			CreatedAt:      at,
		})
	}

	if k.SalesGrowthPct < -15 {
		add(LevelCritical, CategoryPerformance, "Significant Sales Decline",
			fmt.Sprintf("Sales dropped %.1f%% between the first and second half of the period.", -k.SalesGrowthPct),
			"sales_growth_pct", k.SalesGrowthPct)
	}
	if k.TotalOrders > 0 && k.RepeatCustomerRatePct < 15 {
		add(LevelWarning, CategoryPerformance, "Low Customer Retention",
			fmt.Sprintf("Only %.1f%% of customers are returning buyers.", k.RepeatCustomerRatePct),
			"repeat_customer_rate_pct", k.RepeatCustomerRatePct)
	}
	if r.TimeSeries.Trend == timeseries.TrendDownward && k.SalesGrowthPct > 0 {
		add(LevelWarning, CategoryTrend, "Daily Trend Turning Down",
			"Overall growth is positive but the daily series is sloping downward.",
			"trend", 0)
	}
	if k.MomentumScore > 0.2 {
		add(LevelSuccess, CategoryTrend, "Strong Momentum",
			fmt.Sprintf("Recent order batches are growing by %.0f%% on average.", k.MomentumScore*100),
			"momentum_score", k.MomentumScore)
	}
	for i, a := range r.Anomalies {
		if i == 3 {
			break
		}
		level := LevelWarning
		if a.Severity == anomaly.SeverityHigh {
			level = LevelCritical
		}
		add(level, CategoryAnomaly, "Unusual Activity on "+a.Key, a.Explanation, a.Metric, a.Value)
	}
	if k.CustomerLifetimeValue > 300 {
		add(LevelInfo, CategoryOpportunity, "High-Value Customers",
			fmt.Sprintf("Customers spend %s%.2f on average over their lifetime. Consider a premium tier.", cur, k.CustomerLifetimeValue),
			"customer_lifetime_value", k.CustomerLifetimeValue)
	}
	if p := k.TopProductsBySales; len(p) > 1 && p[0].Value > 2*p[1].Value {
		add(LevelInfo, CategoryOpportunity, "Dominant Product",
			fmt.Sprintf("%q sells more than twice as much as %q.", p[0].Product, p[1].Product),
			"top_product_sales", p[0].Value)
	}

	if len(out) > maxSmartAlerts {
		out = out[:maxSmartAlerts]
	}
	return out
}

// Bounds is an optional minimum and maximum for a metric. A nil bound is unchecked.
type Bounds struct {
	Min   *float64   `json:"min,omitempty" yaml:"min,omitempty" mapstructure:"min"`
	Max   *float64   `json:"max,omitempty" yaml:"max,omitempty" mapstructure:"max"`
	Level AlertLevel `json:"level,omitempty" yaml:"level,omitempty" mapstructure:"level"`
}

// Threshold metric names.
const (
	MetricTotalSales      = "total_sales"
	MetricAvgOrderValue   = "avg_order_value"
	MetricGrowthRate      = "growth_rate"
	MetricOrderCount      = "order_count"
	MetricUniqueCustomers = "unique_customers"
)

var thresholdOrder = []string{MetricTotalSales, MetricAvgOrderValue, MetricGrowthRate, MetricOrderCount, MetricUniqueCustomers}

// RecentRows is how many trailing rows CheckThresholds evaluates.
const RecentRows = 24

func bound(v float64) *float64 { return &v }

// DefaultThresholds returns the built-in bounds.
func DefaultThresholds() map[string]Bounds {
	return map[string]Bounds{
		MetricTotalSales:      {Min: bound(1000)},
		MetricAvgOrderValue:   {Min: bound(25), Max: bound(1000)},
		MetricGrowthRate:      {Min: bound(-20), Max: bound(500)},
		MetricOrderCount:      {Min: bound(5)},
		MetricUniqueCustomers: {Min: bound(1)},
	}
}

// CheckThresholds computes KPIs over the last RecentRows rows of ds and
// reports every metric outside its bounds.
func CheckThresholds(ds *dataset.Dataset, roles RoleMap, thresholds map[string]Bounds, loc *time.Location, s Stamper) []Alert {
	if len(ds.Rows) == 0 {
		return nil
	}
	recent := *ds
	if len(recent.Rows) > RecentRows {
		recent.Rows = recent.Rows[len(recent.Rows)-RecentRows:]
	}
	k := Aggregate(&recent, roles, KPIOptions{Location: loc})
	current := map[string]float64{
		MetricTotalSales:      k.TotalSales,
		MetricAvgOrderValue:   k.AverageOrderValue,
		MetricGrowthRate:      k.SalesGrowthPct,
		MetricOrderCount:      float64(k.TotalOrders),
		MetricUniqueCustomers: float64(k.UniqueCustomers),
	}

	var out []Alert
	for _, metric := range thresholdOrder {
		b, ok := thresholds[metric]
		if !ok {
			continue
		}
		v := current[metric]
		var msg string
		var limit float64
		switch {
		case b.Min != nil && v < *b.Min:
			limit = *b.Min
			msg = fmt.Sprintf("%s (%.2f) is below minimum threshold (%g)", metric, v, limit)
		case b.Max != nil && v > *b.Max:
			limit = *b.Max
			msg = fmt.Sprintf("%s (%.2f) exceeds maximum threshold (%g)", metric, v, limit)
		default:
			continue
		}
		level := b.Level
		if level == "" {
			level = LevelWarning
		}
		id, at := s.stamp()
		out = append(out, Alert{
			ID: id, DatasetID: ds.ID, Level: level, Category: CategoryThreshold,
			Title: "Threshold Alert: " + metric, Message: msg,
			Metric: metric, Value: v, Threshold: limit,
			ActionRequired: level == LevelCritical,
			CreatedAt:      at,
		})
	}
	return out
}
