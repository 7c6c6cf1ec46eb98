package anomaly

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/salesloom-cli/internal/timeseries"
)

// ZScoreDetector flags buckets whose distance from the series mean exceeds
// Multiplier population standard deviations. Distances above HighMultiplier
// are graded high.
type ZScoreDetector struct {
	Metric         string
	Multiplier     float64
	HighMultiplier float64
	MinPoints      int
	Limit          int
	method         string
}

// NewZScoreDetector is the simple global detector: 2σ over at least 3 buckets.
func NewZScoreDetector(metric string) *ZScoreDetector {
	return &ZScoreDetector{Metric: metric, Multiplier: 2, HighMultiplier: 3, MinPoints: 3, Limit: DefaultLimit, method: "zscore"}
}

// NewStatisticalDetector is the stricter outlier variant: 2.5σ over at least 7 buckets.
func NewStatisticalDetector(metric string) *ZScoreDetector {
	return &ZScoreDetector{Metric: metric, Multiplier: 2.5, HighMultiplier: 3, MinPoints: 7, Limit: DefaultLimit, method: "statistical"}
}

func (d *ZScoreDetector) Name() string { return d.method }

func (d *ZScoreDetector) Detect(buckets []timeseries.Bucket) ([]Anomaly, error) {
	if err := timeseries.Require(d.method+" anomaly detection", len(buckets), d.MinPoints); err != nil {
		return nil, err
	}
	mean, std := meanStd(timeseries.Values(buckets))
	limit := limitOr(d.Limit)

	var out []Anomaly
	for _, b := range buckets {
		dev := math.Abs(b.Value - mean)
		// strictly greater: a point exactly on the threshold is not flagged
		if dev <= d.Multiplier*std {
			continue
		}
		sev := SeverityMedium
		if dev > d.HighMultiplier*std {
			sev = SeverityHigh
		}
		level := "high"
		if b.Value < mean {
			level = "low"
		}
		score := 0.0
		if std > 0 {
			score = dev / std
		}
		out = append(out, Anomaly{
			Key:      b.Key,
			Metric:   d.Metric,
			Value:    b.Value,
			Expected: mean,
			Score:    score,
			Explanation: fmt.Sprintf("Unusually %s %s on %s - %s",
				level, d.Metric, b.Key, relativeToMean(b.Value, mean)),
			Severity: sev,
			Method:   d.method,
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
