package timeseries

import (
	"time"

	"github.com/KaramelBytes/salesloom-cli/internal/dataset"
	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"
)

// Trend is the direction of a series.
type Trend string

const (
	TrendUpward   Trend = "upward"
	TrendDownward Trend = "downward"
	TrendStable   Trend = "stable"
)

const (
	trendSlope           = 0.1
	seasonalityMinPoints = 28
	seasonalityThreshold = 0.3
)

// Seasonality holds autocorrelations at weekly (7) and monthly (30) lags of the
// daily series. Evaluated is false when the series was too short.
type Seasonality struct {
	Evaluated bool    `json:"evaluated"`
	Detected  bool    `json:"detected"`
	Weekly    float64 `json:"weekly"`
	Monthly   float64 `json:"monthly"`
}

// Summary bundles the bucketed series an analysis reports.
type Summary struct {
	Daily       []Bucket    `json:"daily"`
	Weekly      []Bucket    `json:"weekly"`
	Monthly     []Bucket    `json:"monthly"`
	Trend       Trend       `json:"trend"`
	Seasonality Seasonality `json:"seasonality"`
}

// Summarize buckets metric by day, week and month and derives trend and seasonality.
func Summarize(ds *dataset.Dataset, metric, date string, loc *time.Location) Summary {
	s := Summary{
		Daily:   Bucketize(ds, metric, date, Day, loc),
		Weekly:  Bucketize(ds, metric, date, Week, loc),
		Monthly: Bucketize(ds, metric, date, Month, loc),
	}
	daily := Values(s.Daily)
	s.Trend = TrendOf(daily)
	s.Seasonality = DetectSeasonality(daily)
	return s
}

// Slope returns the least-squares slope of values against their index.
func Slope(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	xs := make([]float64, len(values))
	for i := range xs {
		xs[i] = float64(i)
	}
	_, beta := stat.LinearRegression(xs, values, nil, false)
	return beta
}

// TrendOf classifies the slope of values.
func TrendOf(values []float64) Trend {
	slope := Slope(values)
	switch {
	case slope > trendSlope:
		return TrendUpward
	case slope < -trendSlope:
		return TrendDownward
	default:
		return TrendStable
	}
}

// DetectSeasonality computes lag-7 and lag-30 autocorrelations when at least
// 28 points exist.
func DetectSeasonality(values []float64) Seasonality {
	if len(values) < seasonalityMinPoints {
		return Seasonality{}
	}
	s := Seasonality{
		Evaluated: true,
		Weekly:    Autocorrelation(values, 7),
		Monthly:   Autocorrelation(values, 30),
	}
	s.Detected = s.Weekly > seasonalityThreshold || s.Monthly > seasonalityThreshold
	return s
}

// Autocorrelation at lag; 0 when the series is constant or shorter than lag.
func Autocorrelation(values []float64, lag int) float64 {
	if lag <= 0 || len(values) <= lag {
		return 0
	}
	mean, err := stats.Mean(values)
	if err != nil {
		return 0
	}
	var num, den float64
	for i := 0; i < len(values)-lag; i++ {
		num += (values[i] - mean) * (values[i+lag] - mean)
	}
	for _, v := range values {
		den += (v - mean) * (v - mean)
	}
	if den == 0 {
		return 0
	}
	return num / den
}
