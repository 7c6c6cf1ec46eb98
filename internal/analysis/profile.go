package analysis

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/salesloom-cli/internal/dataset"
	"github.com/montanaflynn/stats"
)

const (
	profileTopValues  = 3
	robustZThreshold  = 3.5
	robustZScale      = 0.6745
	profileTimeLayout = "2006-01-02"
)

// CategoryCount is a value and how often it occurs.
type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// ColumnProfile summarizes one column over every row of a dataset.
type ColumnProfile struct {
	Name    string             `json:"name"`
	Type    dataset.ColumnType `json:"type"`
	NonNull int                `json:"non_null"`
	Missing int                `json:"missing"`
	Unique  int                `json:"unique"`

	Min    float64 `json:"min,omitempty"`
	Max    float64 `json:"max,omitempty"`
	Mean   float64 `json:"mean,omitempty"`
	Std    float64 `json:"std,omitempty"`
	Median float64 `json:"median,omitempty"`
	// Outliers counts values with robust |z| (MAD based) above 3.5.
	Outliers int `json:"outliers,omitempty"`

	First string `json:"first,omitempty"`
	Last  string `json:"last,omitempty"`

	TopValues []CategoryCount `json:"top_values,omitempty"`
}

// Profile computes per-column statistics. Numeric statistics only cover
// values that parse as numbers, whatever the declared column type.
func Profile(ds *dataset.Dataset, loc *time.Location) []ColumnProfile {
	out := make([]ColumnProfile, 0, len(ds.Columns))
	for _, c := range ds.Columns {
		p := ColumnProfile{Name: c.Name, Type: c.Type}
		counts := make(map[string]int)
		var order []string
		var nums []float64
		var first, last time.Time
		for _, r := range ds.Rows {
			v := r[c.Name]
			if dataset.IsMissing(v) {
				p.Missing++
				continue
			}
			p.NonNull++
			key := strings.TrimSpace(dataset.Text(v))
			if _, ok := counts[key]; !ok {
				order = append(order, key)
			}
			counts[key]++
			switch c.Type {
			case dataset.TypeNumber:
				if f, ok := dataset.Number(v); ok {
					nums = append(nums, f)
				}
			case dataset.TypeDate:
				if t, ok := dataset.Time(v, loc); ok {
					if first.IsZero() || t.Before(first) {
						first = t
					}
					if t.After(last) {
						last = t
					}
				}
			}
		}
		p.Unique = len(counts)

		switch c.Type {
		case dataset.TypeNumber:
			profileNumbers(&p, nums)
		case dataset.TypeDate:
			if !first.IsZero() {
				p.First = first.Format(profileTimeLayout)
				p.Last = last.Format(profileTimeLayout)
			}
		default:
			sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
			for i := 0; i < len(order) && i < profileTopValues; i++ {
				p.TopValues = append(p.TopValues, CategoryCount{Value: order[i], Count: counts[order[i]]})
			}
		}
		out = append(out, p)
	}
	return out
}

func profileNumbers(p *ColumnProfile, nums []float64) {
	if len(nums) == 0 {
		return
	}
	p.Min, _ = stats.Min(nums)
	p.Max, _ = stats.Max(nums)
	p.Mean, _ = stats.Mean(nums)
	p.Std, _ = stats.StandardDeviationPopulation(nums)
	p.Median, _ = stats.Median(nums)
	mad, _ := stats.MedianAbsoluteDeviationPopulation(nums)
	if mad == 0 {
		return
	}
	for _, v := range nums {
		if math.Abs(robustZScale*(v-p.Median)/mad) > robustZThreshold {
			p.Outliers++
		}
	}
}
