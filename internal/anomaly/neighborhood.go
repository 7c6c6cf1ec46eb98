package anomaly

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/salesloom-cli/internal/timeseries"
)

// NeighborhoodDetector compares each bucket with the buckets up to Radius
// positions on either side of it (itself included).
type NeighborhoodDetector struct {
	Metric    string
	Radius    int
	Ratio     float64
	HighRatio float64
	MinPoints int
	Limit     int
}

func NewNeighborhoodDetector(metric string) *NeighborhoodDetector {
	return &NeighborhoodDetector{Metric: metric, Radius: 3, Ratio: 2, HighRatio: 3, MinPoints: 7, Limit: DefaultLimit}
}

func (d *NeighborhoodDetector) Name() string { return "neighborhood" }

func (d *NeighborhoodDetector) Detect(buckets []timeseries.Bucket) ([]Anomaly, error) {
	if err := timeseries.Require("neighborhood anomaly detection", len(buckets), d.MinPoints); err != nil {
		return nil, err
	}
	values := timeseries.Values(buckets)
	limit := limitOr(d.Limit)

	var out []Anomaly
	for i, b := range buckets {
		lo := max(0, i-d.Radius)
		hi := min(len(values), i+d.Radius+1)
		mean, std := meanStd(values[lo:hi])
		if std == 0 {
			continue
		}
		ratio := math.Abs(b.Value-mean) / std
		if ratio <= d.Ratio {
			continue
		}
		sev := SeverityMedium
		if ratio > d.HighRatio {
			sev = SeverityHigh
		}
		out = append(out, Anomaly{
			Key:      b.Key,
			Metric:   d.Metric,
			Value:    b.Value,
			Expected: mean,
			Score:    ratio,
			Explanation: fmt.Sprintf("Isolated %s spike on %s - %.1fx the local deviation, %s",
				d.Metric, b.Key, ratio, relativeToMean(b.Value, mean)),
			Severity: sev,
			Method:   d.Name(),
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
