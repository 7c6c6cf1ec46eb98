// Package anomaly flags time-series buckets whose values stand out from the
// rest of the series.
package anomaly

import (
	"errors"
	"fmt"
	"math"

	"github.com/KaramelBytes/salesloom-cli/internal/timeseries"
	"github.com/montanaflynn/stats"
)

// DefaultLimit caps how many anomalies a detector reports.
const DefaultLimit = 5

// Severity grades an anomaly.
type Severity string

const (
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Anomaly is a flagged bucket.
type Anomaly struct {
	Key         string   `json:"key"`
	Metric      string   `json:"metric"`
	Value       float64  `json:"value"`
	Expected    float64  `json:"expected"`
	Score       float64  `json:"score"`
	Explanation string   `json:"explanation"`
	Severity    Severity `json:"severity,omitempty"`
	Method      string   `json:"method"`
}

// Detector finds anomalies in an ordered bucket series. Detectors return a
// *timeseries.InsufficientDataError when the series is too short to judge.
type Detector interface {
	Name() string
	Detect(buckets []timeseries.Bucket) ([]Anomaly, error)
}

// Combine concatenates results in detection order, keeps the first anomaly per
// bucket key and caps the list at limit.
func Combine(limit int, results ...[]Anomaly) []Anomaly {
	seen := make(map[string]struct{})
	out := make([]Anomaly, 0, limit)
	for _, list := range results {
		for _, a := range list {
			if len(out) >= limit {
				return out
			}
			if _, dup := seen[a.Key]; dup {
				continue
			}
			seen[a.Key] = struct{}{}
			out = append(out, a)
		}
	}
	return out
}

// MultiDetector runs several detectors and merges their output with Combine.
// A detector lacking data is skipped; the call only reports insufficient data
// when every detector did.
type MultiDetector struct {
	Detectors []Detector
	Limit     int
}

// NewMultiDetector returns the statistical, neighborhood and change-point
// detectors for metric with the default limit.
func NewMultiDetector(metric string) *MultiDetector {
	return &MultiDetector{
		Detectors: []Detector{
			NewStatisticalDetector(metric),
			NewNeighborhoodDetector(metric),
			NewChangePointDetector(metric),
		},
		Limit: DefaultLimit,
	}
}

func (m *MultiDetector) Name() string { return "combined" }

func (m *MultiDetector) Detect(buckets []timeseries.Bucket) ([]Anomaly, error) {
	var (
		results [][]Anomaly
		lastErr error
	)
	for _, d := range m.Detectors {
		found, err := d.Detect(buckets)
		if err != nil {
			var ide *timeseries.InsufficientDataError
			if errors.As(err, &ide) {
				lastErr = err
				continue
			}
			return nil, fmt.Errorf("%s detector: %w", d.Name(), err)
		}
		results = append(results, found)
	}
	if len(results) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return Combine(limitOr(m.Limit), results...), nil
}

func limitOr(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	return n
}

func meanStd(values []float64) (mean, std float64) {
	mean, _ = stats.Mean(values)
	std, _ = stats.StandardDeviationPopulation(values)
	return mean, std
}

// relativeToMean describes v against mean as "N% above/below average".
func relativeToMean(v, mean float64) string {
	dir := "above"
	if v < mean {
		dir = "below"
	}
	pct := 0.0
	if mean != 0 {
		pct = math.Abs(v-mean) / math.Abs(mean) * 100
	}
	return fmt.Sprintf("%d%% %s average", int64(math.Round(pct)), dir)
}
