package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	forecast_entity "github.com/marina21-cs/weteweta.github.io/internal/domain/entity"
	"github.com/marina21-cs/weteweta.github.io/internal/ml"
	"github.com/marina21-cs/weteweta.github.io/internal/support/exception"
)

// stubPredictor records every window it is asked to predict on.
type stubPredictor struct {
	fn      func(step int, window [][]float64) ([]float64, error)
	windows [][][]float64
}

func (s *stubPredictor) Predict(window [][]float64) ([]float64, error) {
	copied := make([][]float64, len(window))
	for i, row := range window {
		copied[i] = append([]float64(nil), row...)
	}
	step := len(s.windows)
	s.windows = append(s.windows, copied)
	return s.fn(step, copied)
}

// identityScalers map [0,1] onto itself so scaled and physical units match.
func identityScalers() ml.Scalers {
	var s ml.Scalers
	for i := range s.Features {
		s.Features[i] = ml.MinMaxScaler{Min: 0, Max: 1}
	}
	return s
}

func history(city string, days int) []forecast_entity.DailyRecord {
	records := make([]forecast_entity.DailyRecord, days)
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range records {
		records[i] = forecast_entity.DailyRecord{
			CityName:    city,
			Date:        start.AddDate(0, 0, i),
			Temperature: 0.5,
			Rainfall:    0.2,
			WindSpeed:   0.4,
			CloudCover:  0.6,
			Visibility:  0.8,
		}
	}
	return records
}

func startDate() time.Time {
	return time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
}

func TestForecastCity_ProducesOnePointPerDate(t *testing.T) {
	predictor := &stubPredictor{fn: func(step int, window [][]float64) ([]float64, error) {
		return []float64{0.5, 0.2}, nil
	}}
	f := NewForecaster(predictor, identityScalers(), 5, startDate(), 30)

	trajectory, err := f.ForecastCity(context.Background(), "Manila", history("Manila", 10))
	require.NoError(t, err)

	require.Len(t, trajectory.Points, 30)
	assert.Empty(t, trajectory.Failures)
	for i, p := range trajectory.Points {
		assert.Equal(t, startDate().AddDate(0, 0, i), p.Date, "dates increase strictly by one day")
		assert.Equal(t, "Manila", p.CityName)
	}
	assert.Equal(t, time.Date(2025, 4, 30, 0, 0, 0, 0, time.UTC), trajectory.Points[29].Date)
}

func TestForecastCity_ClampsPredictions(t *testing.T) {
	var scalers ml.Scalers
	for i := range scalers.Features {
		scalers.Features[i] = ml.MinMaxScaler{Min: 0, Max: 1}
	}
	// Temperature unscales into [-20, 120]; rainfall into [-5, 5].
	scalers.Features[ml.FeatureTemperature] = ml.MinMaxScaler{Min: -20, Max: 120}
	scalers.Features[ml.FeatureRainfall] = ml.MinMaxScaler{Min: -5, Max: 5}

	predictor := &stubPredictor{fn: func(step int, window [][]float64) ([]float64, error) {
		if step == 0 {
			return []float64{1.0, 0.0}, nil // 120 degrees, -5 mm
		}
		return []float64{0.0, 1.0}, nil // -20 degrees, 5 mm
	}}
	f := NewForecaster(predictor, scalers, 5, startDate(), 2)

	trajectory, err := f.ForecastCity(context.Background(), "Manila", history("Manila", 5))
	require.NoError(t, err)
	require.Len(t, trajectory.Points, 2)

	assert.Equal(t, MaxTemperature, trajectory.Points[0].Temperature)
	assert.Equal(t, 0.0, trajectory.Points[0].Rainfall)
	assert.Equal(t, MinTemperature, trajectory.Points[1].Temperature)
	assert.Equal(t, 5.0, trajectory.Points[1].Rainfall)
}

func TestForecastCity_AuxiliaryFeaturesStayFrozen(t *testing.T) {
	predictor := &stubPredictor{fn: func(step int, window [][]float64) ([]float64, error) {
		return []float64{0.7, 0.1}, nil
	}}
	f := NewForecaster(predictor, identityScalers(), 5, startDate(), 10)

	_, err := f.ForecastCity(context.Background(), "Manila", history("Manila", 5))
	require.NoError(t, err)

	// Every synthetic day carries the seed window's mean auxiliaries.
	for step := 1; step < len(predictor.windows); step++ {
		newest := predictor.windows[step][4]
		assert.InDelta(t, 0.4, newest[ml.FeatureWindSpeed], 1e-9)
		assert.InDelta(t, 0.6, newest[ml.FeatureCloudCover], 1e-9)
		assert.InDelta(t, 0.8, newest[ml.FeatureVisibility], 1e-9)
	}
}

func TestForecastCity_WindowAdvancesWithPredictions(t *testing.T) {
	predictor := &stubPredictor{fn: func(step int, window [][]float64) ([]float64, error) {
		return []float64{0.9, 0.3}, nil
	}}
	f := NewForecaster(predictor, identityScalers(), 5, startDate(), 3)

	_, err := f.ForecastCity(context.Background(), "Manila", history("Manila", 5))
	require.NoError(t, err)

	// The second step's newest day is the first step's prediction.
	newest := predictor.windows[1][4]
	assert.InDelta(t, 0.9, newest[ml.FeatureTemperature], 1e-9)
	assert.InDelta(t, 0.3, newest[ml.FeatureRainfall], 1e-9)
}

func TestForecastCity_FailedStepDoesNotAdvanceWindow(t *testing.T) {
	predictor := &stubPredictor{fn: func(step int, window [][]float64) ([]float64, error) {
		if step == 1 {
			return nil, errors.New("prediction blew up")
		}
		return []float64{0.5, 0.2}, nil
	}}
	f := NewForecaster(predictor, identityScalers(), 5, startDate(), 3)

	trajectory, err := f.ForecastCity(context.Background(), "Manila", history("Manila", 5))
	require.NoError(t, err)

	// One failure recorded, the failed date absent from the points.
	require.Len(t, trajectory.Failures, 1)
	assert.Equal(t, startDate().AddDate(0, 0, 1), trajectory.Failures[0].Date)
	require.Len(t, trajectory.Points, 2)
	assert.Equal(t, startDate(), trajectory.Points[0].Date)
	assert.Equal(t, startDate().AddDate(0, 0, 2), trajectory.Points[1].Date)

	// The window the failed step saw is retried unchanged on the next date.
	assert.Equal(t, predictor.windows[1], predictor.windows[2])
}

func TestForecastCity_InsufficientHistory(t *testing.T) {
	predictor := &stubPredictor{fn: func(step int, window [][]float64) ([]float64, error) {
		return []float64{0.5, 0.2}, nil
	}}
	f := NewForecaster(predictor, identityScalers(), 5, startDate(), 30)

	_, err := f.ForecastCity(context.Background(), "Manila", history("Manila", 3))
	assert.Error(t, err)
	assert.Empty(t, predictor.windows)
}

func TestForecastAll_CityFailureIsIsolated(t *testing.T) {
	predictor := &stubPredictor{fn: func(step int, window [][]float64) ([]float64, error) {
		return []float64{0.5, 0.2}, nil
	}}
	f := NewForecaster(predictor, identityScalers(), 5, startDate(), 5)

	series := map[string][]forecast_entity.DailyRecord{
		"Baguio": history("Baguio", 2), // too short
		"Manila": history("Manila", 8),
	}

	trajectories, err := f.ForecastAll(context.Background(), series)
	require.Error(t, err)
	assert.True(t, exception.IsSkippable(err), "per-city failures must not abort the pipeline")

	require.Len(t, trajectories, 1)
	assert.Equal(t, "Manila", trajectories[0].CityName)
	assert.Len(t, trajectories[0].Points, 5)
}
