package timeseries

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/salesloom-cli/internal/dataset"
	"github.com/shopspring/decimal"
)

// Period is a bucketing granularity.
type Period string

const (
	Day   Period = "day"
	Week  Period = "week"
	Month Period = "month"
)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// ParsePeriod accepts day|week|month (case-insensitive, with plural and -ly forms).
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "day", "days", "daily":
		return Day, nil
	case "week", "weeks", "weekly":
		return Week, nil
	case "month", "months", "monthly":
		return Month, nil
	}
	return "", fmt.Errorf("unsupported period %q (use day|week|month)", s)
}

// Key returns the bucket key for t. Weeks start on Sunday.
func (p Period) Key(t time.Time) string {
	switch p {
	case Week:
		return t.AddDate(0, 0, -int(t.Weekday())).Format(dayLayout)
	case Month:
		return t.Format(monthLayout)
	default:
		return t.Format(dayLayout)
	}
}

// Advance returns the key steps periods after key.
func (p Period) Advance(key string, steps int) (string, error) {
	switch p {
	case Month:
		t, err := time.Parse(monthLayout, key)
		if err != nil {
			return "", fmt.Errorf("parse month key %q: %w", key, err)
		}
		return t.AddDate(0, steps, 0).Format(monthLayout), nil
	case Week:
		steps *= 7
	}
	t, err := time.Parse(dayLayout, key)
	if err != nil {
		return "", fmt.Errorf("parse day key %q: %w", key, err)
	}
	return t.AddDate(0, 0, steps).Format(dayLayout), nil
}

// Bucket is one aggregated period.
type Bucket struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// Bucketize groups rows of ds by the period of their date value in loc and sums
// metric per bucket. Rows with a missing or unparsable date or metric are
// dropped. The result is ordered by key.
func Bucketize(ds *dataset.Dataset, metric, date string, p Period, loc *time.Location) []Bucket {
	if ds == nil {
		return nil
	}
	sums := make(map[string]decimal.Decimal)
	for _, r := range ds.Rows {
		t, ok := dataset.Time(r[date], loc)
		if !ok {
			continue
		}
		v, ok := dataset.Number(r[metric])
		if !ok {
			continue
		}
		k := p.Key(t)
		sums[k] = sums[k].Add(decimal.NewFromFloat(v))
	}
	out := make([]Bucket, 0, len(sums))
	for k, s := range sums {
		out = append(out, Bucket{Key: k, Value: s.InexactFloat64()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Values extracts bucket values in order.
func Values(buckets []Bucket) []float64 {
	vals := make([]float64, len(buckets))
	for i, b := range buckets {
		vals[i] = b.Value
	}
	return vals
}
