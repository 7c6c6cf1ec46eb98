package anomaly

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/salesloom-cli/internal/timeseries"
	"github.com/montanaflynn/stats"
)

// ChangePointDetector compares the mean of the Window buckets before index i
// with the mean of the Window buckets starting at i. A relative change above
// Threshold flags bucket i; a change of HighThreshold or more is graded high.
type ChangePointDetector struct {
	Metric        string
	Window        int
	Threshold     float64
	HighThreshold float64
	Limit         int
}

func NewChangePointDetector(metric string) *ChangePointDetector {
	return &ChangePointDetector{Metric: metric, Window: 7, Threshold: 0.5, HighThreshold: 1.0, Limit: DefaultLimit}
}

func (d *ChangePointDetector) Name() string { return "change_point" }

func (d *ChangePointDetector) Detect(buckets []timeseries.Bucket) ([]Anomaly, error) {
	w := d.Window
	if err := timeseries.Require("change-point detection", len(buckets), 2*w); err != nil {
		return nil, err
	}
	values := timeseries.Values(buckets)
	limit := limitOr(d.Limit)

	var out []Anomaly
	for i := w; i <= len(values)-w; i++ {
		before, _ := stats.Mean(values[i-w : i])
		after, _ := stats.Mean(values[i : i+w])
		if before == 0 {
			continue
		}
		change := math.Abs(after-before) / math.Abs(before)
		if change <= d.Threshold {
			continue
		}
		sev := SeverityMedium
		if change >= d.HighThreshold {
			sev = SeverityHigh
		}
		dir := "increase"
		if after < before {
			dir = "decrease"
		}
		out = append(out, Anomaly{
			Key:      buckets[i].Key,
			Metric:   d.Metric,
			Value:    buckets[i].Value,
			Expected: before,
			Score:    change,
			Explanation: fmt.Sprintf("Significant %s change on %s - %d%% %s versus the previous %d periods",
				d.Metric, buckets[i].Key, int64(math.Round(change*100)), dir, w),
			Severity: sev,
			Method:   d.Name(),
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
