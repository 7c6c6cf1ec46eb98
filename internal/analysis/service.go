package analysis

import (
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/KaramelBytes/salesloom-cli/internal/dataset"
	"github.com/KaramelBytes/salesloom-cli/internal/forecast"
	"github.com/KaramelBytes/salesloom-cli/internal/store"
	"go.uber.org/zap"
)

// DatasetIndex is the store index linking cache entries to their dataset.
const DatasetIndex = "dataset"

// Service fronts an Analyzer with an optional result cache. Keys embed the
// dataset's UpdatedAt and a fingerprint of the effective options, so neither
// a revised dataset nor a different option set reads another's results.
type Service struct {
	analyzer    *Analyzer
	cache       *store.Cache
	forecastTTL time.Duration
	logger      *zap.Logger
}

// NewService returns a Service. cache may be nil to disable caching;
// forecastTTL <= 0 falls back to the cache's default TTL.
func NewService(a *Analyzer, cache *store.Cache, forecastTTL time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{analyzer: a, cache: cache, forecastTTL: forecastTTL, logger: logger}
}

// Analyzer returns the wrapped analyzer.
func (s *Service) Analyzer() *Analyzer { return s.analyzer }

// AnalysisKey is the cache key of an analysis of ds under opt.
func AnalysisKey(ds *dataset.Dataset, opt Options) string {
	return fmt.Sprintf("analysis_%s_%d_%s", ds.ID, ds.UpdatedAt.UnixNano(), opt.Fingerprint())
}

// ForecastKey is the cache key of a forecast of ds. Horizon, mode, period,
// metric and linear window must already carry their defaults.
func ForecastKey(ds *dataset.Dataset, opt Options, fopt forecast.Options) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%s|%d|%s", fopt.Period, fopt.Metric, fopt.LinearWindow, opt.Fingerprint())
	return fmt.Sprintf("forecast_%s_%d_%s_%d_%x", ds.ID, fopt.Horizon, fopt.Mode, ds.UpdatedAt.UnixNano(), h.Sum64())
}

// Analyze returns the cached analysis of ds or computes and stores it.
// The boolean reports a cache hit. Cache failures are logged and never
// fail the call.
func (s *Service) Analyze(ds *dataset.Dataset) (*Result, bool, error) {
	if ds == nil {
		return nil, false, &dataset.MalformedInputError{Reason: "nil dataset"}
	}
	key := AnalysisKey(ds, s.analyzer.Options())
	if s.cache != nil {
		var res Result
		err := s.cache.GetJSON(key, &res)
		if err == nil {
			s.logger.Debug("analysis cache hit", zap.String("key", key))
			return &res, true, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("analysis cache read failed", zap.String("key", key), zap.Error(err))
		}
	}
	res, err := s.analyzer.Analyze(ds)
	if err != nil {
		return nil, false, err
	}
	s.put(key, ds.ID, res, 0)
	return res, false, nil
}

// Forecast returns the cached forecast of ds or computes and stores it.
// Jittered forecasts are never cached.
func (s *Service) Forecast(ds *dataset.Dataset, opt forecast.Options) (*forecast.Forecast, bool, error) {
	if ds == nil {
		return nil, false, &dataset.MalformedInputError{Reason: "nil dataset"}
	}
	keyed := opt
	if keyed.Horizon <= 0 {
		keyed.Horizon = 7
	}
	if keyed.Mode == "" {
		keyed.Mode = forecast.ModeEnsemble
	}
	if keyed.Period == "" {
		keyed.Period = s.analyzer.Options().Period
	}
	if keyed.Metric == "" {
		keyed.Metric = revenueMetric
	}
	_, plain := opt.Jitter.(forecast.NoJitter)
	cacheable := s.cache != nil && (opt.Jitter == nil || plain)
	key := ForecastKey(ds, s.analyzer.Options(), keyed)
	if cacheable {
		var fc forecast.Forecast
		err := s.cache.GetJSON(key, &fc)
		if err == nil {
			s.logger.Debug("forecast cache hit", zap.String("key", key))
			return &fc, true, nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("forecast cache read failed", zap.String("key", key), zap.Error(err))
		}
	}
	fc, err := s.analyzer.Forecast(ds, opt)
	if err != nil {
		return nil, false, err
	}
	if cacheable {
		s.put(key, ds.ID, fc, s.forecastTTL)
	}
	return fc, false, nil
}

// Invalidate drops every cached result of a dataset.
func (s *Service) Invalidate(datasetID string) (int, error) {
	if s.cache == nil {
		return 0, nil
	}
	return s.cache.Invalidate(DatasetIndex, datasetID)
}

func (s *Service) put(key, datasetID string, v any, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetJSON(key, v, ttl, map[string]string{DatasetIndex: datasetID}); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
