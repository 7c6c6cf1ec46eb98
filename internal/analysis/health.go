package analysis

// HealthFactor is one scored component of the business health score.
type HealthFactor struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
	Max    int    `json:"max"`
}

// Health is a 0-100 score with a grade.
type Health struct {
	Score   int            `json:"score"`
	Grade   string         `json:"grade"`
	Factors []HealthFactor `json:"factors"`
}

// tier awards the points of the first threshold v exceeds.
func tier(v float64, thresholds []float64, points []int) int {
	for i, t := range thresholds {
		if v > t {
			return points[i]
		}
	}
	return 0
}

// HealthScore grades growth, retention, momentum, order value and catalog
// breadth.
func HealthScore(k KPIResult) Health {
	factors := []HealthFactor{
		{Name: "growth", Max: 30, Points: tier(k.SalesGrowthPct, []float64{20, 10, 0}, []int{30, 20, 10})},
		{Name: "retention", Max: 25, Points: tier(k.RepeatCustomerRatePct, []float64{40, 25, 15}, []int{25, 18, 10})},
		{Name: "momentum", Max: 20, Points: tier(k.MomentumScore, []float64{0.1, 0, -0.1}, []int{20, 15, 10})},
		{Name: "order_value", Max: 15, Points: tier(k.AverageOrderValue, []float64{100, 50, 25}, []int{15, 10, 5})},
		{Name: "diversity", Max: 10, Points: tier(float64(k.ProductDiversity), []float64{20, 10, 5}, []int{10, 7, 4})},
	}
	h := Health{Factors: factors}
	for _, f := range factors {
		h.Score += f.Points
	}
	switch {
	case h.Score >= 80:
		h.Grade = "excellent"
	case h.Score >= 60:
		h.Grade = "good"
	case h.Score >= 40:
		h.Grade = "fair"
	default:
		h.Grade = "poor"
	}
	return h
}
