package forecast

import (
	"math"

	"github.com/KaramelBytes/salesloom-cli/internal/timeseries"
)

// Estimate is one projected step of a single model.
type Estimate struct {
	Value      float64 `json:"value"`
	Confidence float64 `json:"confidence"`
}

const (
	smoothingAlpha = 0.3
	seasonLength   = 7
)

// Linear extrapolates the least-squares slope from the last value:
// step i (0-based) projects last + slope*(i+1), floored at zero. Confidence
// starts at 0.9 and loses 0.05 per step down to 0.3.
func Linear(values []float64, horizon int) []Estimate {
	if len(values) == 0 || horizon <= 0 {
		return nil
	}
	slope := timeseries.Slope(values)
	last := values[len(values)-1]
	out := make([]Estimate, horizon)
	for i := range out {
		out[i] = Estimate{
			Value:      math.Max(0, last+slope*float64(i+1)),
			Confidence: decay(0.9, 0.05, 0.3, i),
		}
	}
	return out
}

// Smoothing applies single exponential smoothing (alpha 0.3) over the whole
// history and repeats the final level, scaled by jitter within ±5%.
// Confidence starts at 0.8 and loses 0.03 per step down to 0.4.
func Smoothing(values []float64, horizon int, j Jitter) []Estimate {
	if len(values) == 0 || horizon <= 0 {
		return nil
	}
	j = jitterOr(j)
	level := values[0]
	for _, v := range values[1:] {
		level = smoothingAlpha*v + (1-smoothingAlpha)*level
	}
	out := make([]Estimate, horizon)
	for i := range out {
		out[i] = Estimate{
			Value:      math.Max(0, level*j.Factor(0.05)),
			Confidence: decay(0.8, 0.03, 0.4, i),
		}
	}
	return out
}

// Seasonal averages every historical value sharing the step's position modulo
// seven, scaled by jitter within ±7.5%. Confidence starts at 0.85 and loses
// 0.02 per step down to 0.5.
func Seasonal(values []float64, horizon int, j Jitter) []Estimate {
	if len(values) == 0 || horizon <= 0 {
		return nil
	}
	j = jitterOr(j)
	n := len(values)
	out := make([]Estimate, horizon)
	for i := range out {
		pos := (n + i) % seasonLength
		var sum float64
		var count int
		for k := pos; k < n; k += seasonLength {
			sum += values[k]
			count++
		}
		avg := 0.0
		if count > 0 {
			avg = sum / float64(count)
		}
		out[i] = Estimate{
			Value:      math.Max(0, avg*j.Factor(0.075)),
			Confidence: decay(0.85, 0.02, 0.5, i),
		}
	}
	return out
}

// Accuracy holds out the last min(7, 20%) values, projects them with Linear
// from the rest and reports 1-MAPE clamped to [0.5, 0.95]. MAPE here is the
// total absolute error over the total absolute actual value.
func Accuracy(values []float64) float64 {
	test := min(7, len(values)/5)
	if test < 1 || len(values)-test < 1 {
		return minAccuracy
	}
	train, actual := values[:len(values)-test], values[len(values)-test:]
	pred := Linear(train, test)
	var errSum, actSum float64
	for i, a := range actual {
		errSum += math.Abs(a - pred[i].Value)
		actSum += math.Abs(a)
	}
	if actSum == 0 {
		return minAccuracy
	}
	return math.Min(maxAccuracy, math.Max(minAccuracy, 1-errSum/actSum))
}

const (
	minAccuracy = 0.5
	maxAccuracy = 0.95
)

func decay(start, step, floor float64, i int) float64 {
	return math.Max(floor, start-step*float64(i))
}

func jitterOr(j Jitter) Jitter {
	if j == nil {
		return NoJitter{}
	}
	return j
}
