package timeseries

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrendOf(t *testing.T) {
	assert.Equal(t, TrendUpward, TrendOf([]float64{1, 2, 3, 4}))
	assert.Equal(t, TrendDownward, TrendOf([]float64{4, 3, 2, 1}))
	assert.Equal(t, TrendStable, TrendOf([]float64{5, 5, 5}))
	assert.Equal(t, TrendStable, TrendOf([]float64{5}))
}

func TestSlope(t *testing.T) {
	assert.InDelta(t, 2.0, Slope([]float64{1, 3, 5, 7}), 1e-9)
	assert.Equal(t, 0.0, Slope(nil))
}

func TestDetectSeasonality(t *testing.T) {
	assert.False(t, DetectSeasonality(make([]float64, 27)).Evaluated)

	weekly := make([]float64, 56)
	for i := range weekly {
		if i%7 == 5 || i%7 == 6 {
			weekly[i] = 300
		} else {
			weekly[i] = 100
		}
	}
	s := DetectSeasonality(weekly)
	assert.True(t, s.Evaluated)
	assert.True(t, s.Detected)
	assert.Greater(t, s.Weekly, 0.3)
}

func TestAutocorrelationConstantSeries(t *testing.T) {
	assert.Equal(t, 0.0, Autocorrelation([]float64{2, 2, 2, 2, 2, 2, 2, 2}, 7))
	assert.Equal(t, 0.0, Autocorrelation([]float64{1, 2}, 7))
}
