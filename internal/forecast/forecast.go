// Package forecast projects a bucketed series a few periods ahead with a
// blend of simple models.
package forecast

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/KaramelBytes/salesloom-cli/internal/timeseries"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Mode selects the forecasting method.
type Mode string

const (
	// ModeShort extrapolates a linear trend over the most recent values.
	ModeShort Mode = "short"
	// ModeEnsemble blends linear, smoothing and seasonal models.
	ModeEnsemble Mode = "ensemble"
)

// ParseMode accepts short|ensemble.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeShort:
		return ModeShort, nil
	case ModeEnsemble, "":
		return ModeEnsemble, nil
	}
	return "", fmt.Errorf("unsupported forecast mode %q (use short|ensemble)", s)
}

const (
	shortMinPoints    = 7
	ensembleMinPoints = 14
	shortWindow       = 30

	weightLinear    = 0.3
	weightSmoothing = 0.4
	weightSeasonal  = 0.3
)

// Point is one forecast step.
type Point struct {
	Date       string  `json:"date"`
	Value      float64 `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Forecast is a projected series with an accuracy estimate in [0,1].
type Forecast struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Mode        Mode      `json:"mode"`
	Horizon     int       `json:"horizon"`
	Accuracy    float64   `json:"accuracy"`
	Predictions []Point   `json:"predictions"`
	TrainedOn   int       `json:"trained_on"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Options configures a forecast. The zero value is usable: a 7-step
// ensemble over daily buckets without jitter.
type Options struct {
	Horizon int
	Mode    Mode
	Period  timeseries.Period
	Metric  string
	// LinearWindow limits the ensemble's linear model to the last N values; 0 uses all.
	LinearWindow int
	Jitter       Jitter
	Now          func() time.Time
	NewID        func() string
}

func (o Options) withDefaults() Options {
	if o.Horizon <= 0 {
		o.Horizon = 7
	}
	if o.Mode == "" {
		o.Mode = ModeEnsemble
	}
	if o.Period == "" {
		o.Period = timeseries.Day
	}
	if o.Metric == "" {
		o.Metric = "sales"
	}
	if o.Jitter == nil {
		o.Jitter = NoJitter{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

// New forecasts buckets according to opt.Mode. It returns a
// *timeseries.InsufficientDataError when the series is shorter than 7
// buckets (short) or 14 buckets (ensemble).
func New(buckets []timeseries.Bucket, opt Options) (*Forecast, error) {
	opt = opt.withDefaults()
	switch opt.Mode {
	case ModeShort:
		return Short(buckets, opt)
	case ModeEnsemble:
		return Ensemble(buckets, opt)
	}
	return nil, fmt.Errorf("unsupported forecast mode %q", opt.Mode)
}

// Short projects the linear trend of the last 30 values:
// last + slope*i for i = 1..horizon, jittered within ±10%. Confidence starts
// at 0.85 and loses 0.05 per step down to 0.6.
func Short(buckets []timeseries.Bucket, opt Options) (*Forecast, error) {
	opt = opt.withDefaults()
	if err := timeseries.Require("short forecast", len(buckets), shortMinPoints); err != nil {
		return nil, err
	}
	values := timeseries.Values(buckets)
	recent := values
	if len(recent) > shortWindow {
		recent = recent[len(recent)-shortWindow:]
	}
	slope := timeseries.Slope(recent)
	last := recent[len(recent)-1]

	preds := make([]Point, opt.Horizon)
	for i := range preds {
		step := i + 1
		v := math.Max(0, (last+slope*float64(step))*opt.Jitter.Factor(0.1))
		preds[i] = Point{Value: round2(v), Confidence: decay(0.9, 0.05, 0.6, step)}
	}
	return finish(buckets, preds, values, opt)
}

// Ensemble blends Linear, Smoothing and Seasonal with weights 0.3/0.4/0.3
// for both value and confidence.
func Ensemble(buckets []timeseries.Bucket, opt Options) (*Forecast, error) {
	opt = opt.withDefaults()
	if err := timeseries.Require("ensemble forecast", len(buckets), ensembleMinPoints); err != nil {
		return nil, err
	}
	values := timeseries.Values(buckets)
	linearInput := values
	if opt.LinearWindow > 0 && len(linearInput) > opt.LinearWindow {
		linearInput = linearInput[len(linearInput)-opt.LinearWindow:]
	}
	lin := Linear(linearInput, opt.Horizon)
	smo := Smoothing(values, opt.Horizon, opt.Jitter)
	sea := Seasonal(values, opt.Horizon, opt.Jitter)

	preds := make([]Point, opt.Horizon)
	for i := range preds {
		v := weightLinear*lin[i].Value + weightSmoothing*smo[i].Value + weightSeasonal*sea[i].Value
		c := weightLinear*lin[i].Confidence + weightSmoothing*smo[i].Confidence + weightSeasonal*sea[i].Confidence
		preds[i] = Point{Value: round2(v), Confidence: c}
	}
	return finish(buckets, preds, values, opt)
}

func finish(buckets []timeseries.Bucket, preds []Point, values []float64, opt Options) (*Forecast, error) {
	lastKey := buckets[len(buckets)-1].Key
	for i := range preds {
		key, err := opt.Period.Advance(lastKey, i+1)
		if err != nil {
			return nil, fmt.Errorf("forecast dates: %w", err)
		}
		preds[i].Date = key
		preds[i].Confidence = round3(preds[i].Confidence)
		// never let confidence grow with distance
		if i > 0 && preds[i].Confidence > preds[i-1].Confidence {
			preds[i].Confidence = preds[i-1].Confidence
		}
	}
	unit := map[timeseries.Period]string{timeseries.Day: "Day", timeseries.Week: "Week", timeseries.Month: "Month"}[opt.Period]
	return &Forecast{
		ID:          opt.NewID(),
		Name:        fmt.Sprintf("%d-%s %s Forecast", opt.Horizon, unit, title(opt.Metric)),
		Type:        opt.Metric + "_forecast",
		Mode:        opt.Mode,
		Horizon:     opt.Horizon,
		Accuracy:    round3(Accuracy(values)),
		Predictions: preds,
		TrainedOn:   len(values),
		GeneratedAt: opt.Now(),
	}, nil
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func round2(v float64) float64 { return decimal.NewFromFloat(v).Round(2).InexactFloat64() }
func round3(v float64) float64 { return decimal.NewFromFloat(v).Round(3).InexactFloat64() }
