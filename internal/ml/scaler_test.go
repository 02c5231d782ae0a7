package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinMaxScaler_RoundTrip(t *testing.T) {
	s := FitScaler([]float64{10, 20, 30, 40})
	assert.Equal(t, 10.0, s.Min)
	assert.Equal(t, 40.0, s.Max)

	assert.InDelta(t, 0.0, s.Scale(10), 1e-9)
	assert.InDelta(t, 1.0, s.Scale(40), 1e-9)
	assert.InDelta(t, 25.0, s.Unscale(s.Scale(25)), 1e-9)
}

func TestMinMaxScaler_ZeroRange(t *testing.T) {
	s := FitScaler([]float64{5, 5, 5})

	assert.Equal(t, 0.0, s.Scale(5), "zero-range scaler maps every value to 0")
	assert.Equal(t, 5.0, s.Unscale(0.7), "zero-range scaler unscales to the constant value")
}

func TestMinMaxScaler_Empty(t *testing.T) {
	s := FitScaler(nil)
	assert.Equal(t, 0.0, s.Min)
	assert.Equal(t, 0.0, s.Max)
}

func TestScalers_TargetsShareFeatureScalers(t *testing.T) {
	var s Scalers
	s.Features[FeatureTemperature] = MinMaxScaler{Min: 0, Max: 50}
	s.Features[FeatureRainfall] = MinMaxScaler{Min: 0, Max: 10}

	scaled := s.ScaleTargets([]float64{25, 5})
	assert.InDelta(t, 0.5, scaled[0], 1e-9)
	assert.InDelta(t, 0.5, scaled[1], 1e-9)

	unscaled := s.UnscaleTargets(scaled)
	assert.InDelta(t, 25.0, unscaled[0], 1e-9)
	assert.InDelta(t, 5.0, unscaled[1], 1e-9)
}
