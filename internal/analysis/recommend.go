package analysis

import (
	"fmt"
	"sort"
	"time"

	"github.com/KaramelBytes/salesloom-cli/internal/anomaly"
)

// RecommendationType classifies a recommendation.
type RecommendationType string

const (
	RecOptimization RecommendationType = "optimization"
	RecAlert        RecommendationType = "alert"
	RecOpportunity  RecommendationType = "opportunity"
)

// Impact ranks a recommendation.
type Impact string

const (
	ImpactHigh   Impact = "high"
	ImpactMedium Impact = "medium"
	ImpactLow    Impact = "low"
)

func (i Impact) score() int {
	switch i {
	case ImpactHigh:
		return 3
	case ImpactMedium:
		return 2
	default:
		return 1
	}
}

// Recommendation is an actionable suggestion derived from an analysis.
type Recommendation struct {
	ID          string             `json:"id"`
	Type        RecommendationType `json:"type"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Impact      Impact             `json:"impact"`
	Actionable  bool               `json:"actionable"`
	CreatedAt   time.Time          `json:"created_at"`
}

const maxRecommendations = 5

// Recommendations derives recommendations from r, ordered by impact (stable)
// and capped at five.
func Recommendations(r *Result, s Stamper) []Recommendation {
	k := r.KPIs
	cur := r.currency()
	var out []Recommendation
	add := func(t RecommendationType, impact Impact, title, desc string) {
		id, at := s.stamp()
		out = append(out, Recommendation{ID: id, Type: t, Title: title, Description: desc, Impact: impact, Actionable: true, CreatedAt: at})
	}

	if k.TotalOrders > 0 && k.RepeatCustomerRatePct < 20 {
		add(RecOptimization, ImpactHigh, "Improve Customer Retention",
			fmt.Sprintf("Only %.1f%% of customers ordered more than once. A loyalty or win-back program could lift repeat purchases.", k.RepeatCustomerRatePct))
	}
	if k.TotalOrders > 0 && k.AverageOrderValue < 50 {
		add(RecOpportunity, ImpactHigh, "Increase Average Order Value",
			fmt.Sprintf("Average order value is %s%.2f. Bundles, volume discounts or a free-shipping threshold can raise basket size.", cur, k.AverageOrderValue))
	}
	if k.TopProductSharePct > 40 && len(k.TopProductsBySales) > 0 {
		add(RecAlert, ImpactMedium, "Reduce Revenue Concentration",
			fmt.Sprintf("%q accounts for %.1f%% of sales. Diversifying the catalog lowers dependence on a single product.", k.TopProductsBySales[0].Product, k.TopProductSharePct))
	}
	if k.SalesGrowthPct > 20 {
		add(RecOpportunity, ImpactMedium, "Scale Successful Channels",
			fmt.Sprintf("Sales grew %.1f%% between the first and second half of the period. Increase investment where the growth came from.", k.SalesGrowthPct))
	}
	for _, a := range r.Anomalies {
		impact := ImpactMedium
		if a.Severity == anomaly.SeverityHigh {
			impact = ImpactHigh
		}
		add(RecAlert, impact, "Sales Anomaly Detected", a.Explanation)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Impact.score() > out[j].Impact.score() })
	if len(out) > maxRecommendations {
		out = out[:maxRecommendations]
	}
	return out
}
