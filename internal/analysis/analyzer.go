package analysis

import (
	"errors"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/salesloom-cli/internal/anomaly"
	"github.com/KaramelBytes/salesloom-cli/internal/dataset"
	"github.com/KaramelBytes/salesloom-cli/internal/forecast"
	"github.com/KaramelBytes/salesloom-cli/internal/timeseries"
	"go.uber.org/zap"
)

// AnomalyMode selects which detectors an analysis runs.
type AnomalyMode string

const (
	// AnomalyAuto runs the combined detectors with 7+ buckets and the simple
	// z-score with 3-6 buckets.
	AnomalyAuto     AnomalyMode = "auto"
	AnomalySimple   AnomalyMode = "simple"
	AnomalyCombined AnomalyMode = "combined"
)

// ParseAnomalyMode validates a mode name; "" means auto.
func ParseAnomalyMode(s string) (AnomalyMode, error) {
	switch AnomalyMode(s) {
	case "", AnomalyAuto:
		return AnomalyAuto, nil
	case AnomalySimple, AnomalyCombined:
		return AnomalyMode(s), nil
	}
	return "", fmt.Errorf("invalid anomaly mode %q (want auto, simple or combined)", s)
}

const revenueMetric = "sales"

// Options configures an Analyzer.
type Options struct {
	Roles    RoleTable
	Location *time.Location
	// Period is the bucket granularity anomaly detection runs on.
	Period          timeseries.Period
	AnomalyMode     AnomalyMode
	AnomalyLimit    int
	TopN            int
	InsightLimit    int
	SuggestionLimit int
	Currency        string
	// StrictRoles turns a first-column fallback into a *ColumnResolutionError.
	StrictRoles bool
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{
		Roles:           DefaultRoleTable(),
		Location:        time.Local,
		Period:          timeseries.Day,
		AnomalyMode:     AnomalyAuto,
		AnomalyLimit:    anomaly.DefaultLimit,
		TopN:            5,
		InsightLimit:    5,
		SuggestionLimit: 3,
		Currency:        "$",
	}
}

// Fingerprint hashes every option that changes an analysis result. Role
// candidates are hashed in sorted role order.
func (o Options) Fingerprint() string {
	o = o.withDefaults()
	h := fnv.New64a()
	fmt.Fprintf(h, "period=%s|tz=%s|anomaly=%s|limit=%d|top=%d|insights=%d|suggestions=%d|currency=%s|strict=%t",
		o.Period, o.Location, o.AnomalyMode, o.AnomalyLimit, o.TopN, o.InsightLimit, o.SuggestionLimit, o.Currency, o.StrictRoles)
	roles := make([]string, 0, len(o.Roles))
	for r := range o.Roles {
		roles = append(roles, string(r))
	}
	sort.Strings(roles)
	for _, r := range roles {
		fmt.Fprintf(h, "|%s=%s", r, strings.Join(o.Roles[Role(r)], ","))
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Roles == nil {
		o.Roles = d.Roles
	}
	if o.Location == nil {
		o.Location = d.Location
	}
	if o.Period == "" {
		o.Period = d.Period
	}
	if o.AnomalyMode == "" {
		o.AnomalyMode = d.AnomalyMode
	}
	if o.AnomalyLimit <= 0 {
		o.AnomalyLimit = d.AnomalyLimit
	}
	if o.TopN <= 0 {
		o.TopN = d.TopN
	}
	if o.InsightLimit <= 0 {
		o.InsightLimit = d.InsightLimit
	}
	if o.SuggestionLimit <= 0 {
		o.SuggestionLimit = d.SuggestionLimit
	}
	if o.Currency == "" {
		o.Currency = d.Currency
	}
	return o
}

// Result is the outcome of analyzing one dataset.
type Result struct {
	DatasetID   string             `json:"dataset_id"`
	DatasetName string             `json:"dataset_name"`
	Rows        int                `json:"rows"`
	Columns     []dataset.Column   `json:"columns"`
	Roles       RoleMap            `json:"roles"`
	Profiles    []ColumnProfile    `json:"profiles"`
	KPIs        KPIResult          `json:"kpis"`
	TimeSeries  timeseries.Summary `json:"timeseries"`
	Anomalies   []anomaly.Anomaly  `json:"anomalies"`
	Insights    []string           `json:"insights"`
	Suggestions []string           `json:"suggestions"`
	Notes       []string           `json:"notes,omitempty"`
	Currency    string             `json:"currency"`
}

func (r *Result) currency() string {
	if r.Currency == "" {
		return "$"
	}
	return r.Currency
}

// Analyzer runs the analysis pipeline. It keeps no state between calls and
// is safe for concurrent use.
type Analyzer struct {
	opts   Options
	logger *zap.Logger
}

// NewAnalyzer returns an Analyzer. A nil logger discards output.
func NewAnalyzer(logger *zap.Logger, opts Options) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{opts: opts.withDefaults(), logger: logger}
}

// Options returns the effective options.
func (a *Analyzer) Options() Options { return a.opts }

// Roles resolves the column roles of ds. Fallbacks are logged; in strict
// mode the first fallback of a required role is returned as an error.
// Quantity is never required since rows count as one unit without it.
func (a *Analyzer) Roles(ds *dataset.Dataset) (RoleMap, []string, error) {
	roles := ResolveAll(ds, a.opts.Roles)
	var notes []string
	for _, r := range Roles {
		res := roles[r]
		if res.Matched || res.Column == "" {
			continue
		}
		if r == RoleQuantity {
			notes = append(notes, "No quantity column found; each order counts as one unit.")
			continue
		}
		if a.opts.StrictRoles {
			return nil, nil, &ColumnResolutionError{Role: r, Fallback: res.Column}
		}
		a.logger.Warn("column role fell back to first column",
			zap.String("role", string(r)),
			zap.String("column", res.Column),
			zap.String("dataset", ds.ID))
		notes = append(notes, fmt.Sprintf("No column matched role %q; using first column %q.", r, res.Column))
	}
	return roles, notes, nil
}

// Analyze computes KPIs, time series, anomalies, insights and suggestions for ds.
func (a *Analyzer) Analyze(ds *dataset.Dataset) (*Result, error) {
	if ds == nil {
		return nil, &dataset.MalformedInputError{Reason: "nil dataset"}
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	roles, notes, err := a.Roles(ds)
	if err != nil {
		return nil, err
	}
	loc := a.opts.Location
	revenue, date := roles.Column(RoleRevenue), roles.Column(RoleDate)

	res := &Result{
		DatasetID:   ds.ID,
		DatasetName: ds.Name,
		Rows:        ds.Len(),
		Columns:     ds.Columns,
		Roles:       roles,
		Profiles:    Profile(ds, loc),
		KPIs:        Aggregate(ds, roles, KPIOptions{TopN: a.opts.TopN, Location: loc}),
		TimeSeries:  timeseries.Summarize(ds, revenue, date, loc),
		Notes:       notes,
		Currency:    a.opts.Currency,
	}

	series := res.TimeSeries.Daily
	switch a.opts.Period {
	case timeseries.Week:
		series = res.TimeSeries.Weekly
	case timeseries.Month:
		series = res.TimeSeries.Monthly
	}
	found, err := a.detect(series)
	if err != nil {
		var ide *timeseries.InsufficientDataError
		if !errors.As(err, &ide) {
			return nil, err
		}
		a.logger.Debug("anomaly detection skipped", zap.String("dataset", ds.ID), zap.Error(err))
		res.Notes = append(res.Notes, fmt.Sprintf("Anomaly detection skipped: %v.", err))
	}
	res.Anomalies = found
	if !res.TimeSeries.Seasonality.Evaluated {
		res.Notes = append(res.Notes, "Seasonality needs at least 28 days of data.")
	}

	res.Insights, res.Suggestions = GenerateInsights(res.KPIs, res.TimeSeries.Monthly, res.Anomalies, InsightOptions{
		InsightLimit:    a.opts.InsightLimit,
		SuggestionLimit: a.opts.SuggestionLimit,
		Currency:        a.opts.Currency,
	})
	if res.Anomalies == nil {
		res.Anomalies = []anomaly.Anomaly{}
	}
	return res, nil
}

func (a *Analyzer) detector(n int) anomaly.Detector {
	simple := anomaly.NewZScoreDetector(revenueMetric)
	simple.Limit = a.opts.AnomalyLimit
	multi := anomaly.NewMultiDetector(revenueMetric)
	multi.Limit = a.opts.AnomalyLimit
	switch a.opts.AnomalyMode {
	case AnomalySimple:
		return simple
	case AnomalyCombined:
		return multi
	}
	if n >= 7 {
		return multi
	}
	return simple
}

func (a *Analyzer) detect(series []timeseries.Bucket) ([]anomaly.Anomaly, error) {
	return a.detector(len(series)).Detect(series)
}

// Forecast projects the revenue series of ds. Jitter, clock and id
// generation come from opt; the period defaults to the analyzer's.
func (a *Analyzer) Forecast(ds *dataset.Dataset, opt forecast.Options) (*forecast.Forecast, error) {
	if ds == nil {
		return nil, &dataset.MalformedInputError{Reason: "nil dataset"}
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	roles, _, err := a.Roles(ds)
	if err != nil {
		return nil, err
	}
	if opt.Period == "" {
		opt.Period = a.opts.Period
	}
	if opt.Metric == "" {
		opt.Metric = revenueMetric
	}
	buckets := timeseries.Bucketize(ds, roles.Column(RoleRevenue), roles.Column(RoleDate), opt.Period, a.opts.Location)
	fc, err := forecast.New(buckets, opt)
	if err != nil {
		return nil, fmt.Errorf("forecast %s: %w", ds.Name, err)
	}
	return fc, nil
}

// Alerts bundles the alerting views of a dataset.
type Alerts struct {
	Smart           []Alert          `json:"smart"`
	Threshold       []Alert          `json:"threshold"`
	Health          Health           `json:"health"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Alerts derives smart alerts, threshold alerts, the health score and
// recommendations from an analysis of ds.
func (a *Analyzer) Alerts(ds *dataset.Dataset, res *Result, thresholds map[string]Bounds, s Stamper) Alerts {
	if thresholds == nil {
		thresholds = DefaultThresholds()
	}
	return Alerts{
		Smart:           SmartAlerts(res, s),
		Threshold:       CheckThresholds(ds, res.Roles, thresholds, a.opts.Location, s),
		Health:          HealthScore(res.KPIs),
		Recommendations: Recommendations(res, s),
	}
}
