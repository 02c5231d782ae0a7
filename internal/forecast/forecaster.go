// Package forecast rolls the trained day-ahead model forward to produce a
// multi-day forecast per city.
package forecast

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/go-multierror"

	forecast_entity "github.com/marina21-cs/weteweta.github.io/internal/domain/entity"
	"github.com/marina21-cs/weteweta.github.io/internal/domain/model"
	"github.com/marina21-cs/weteweta.github.io/internal/ml"
	"github.com/marina21-cs/weteweta.github.io/internal/support/exception"
	"github.com/marina21-cs/weteweta.github.io/internal/support/logger"
)

const moduleName = "forecast"

// Physical bounds applied to every prediction before it becomes a point.
const (
	MinTemperature = 0.0
	MaxTemperature = 50.0
)

// Forecaster produces autoregressive forecasts: each day's prediction is
// fed back as the newest day of the input window. The auxiliary features
// (wind, clouds, visibility) are frozen at the mean of the original window
// since the model does not predict them.
type Forecaster struct {
	predictor    ml.Predictor
	scalers      ml.Scalers
	windowLength int
	startDate    time.Time
	days         int
	now          func() time.Time
}

// NewForecaster creates a Forecaster for the given horizon.
func NewForecaster(predictor ml.Predictor, scalers ml.Scalers, windowLength int, startDate time.Time, days int) *Forecaster {
	return &Forecaster{
		predictor:    predictor,
		scalers:      scalers,
		windowLength: windowLength,
		startDate:    startDate,
		days:         days,
		now:          time.Now,
	}
}

// ForecastAll forecasts every city in the map. Cities are processed in
// name order and isolated from each other: one city failing never aborts
// the others. The returned error aggregates the per-city failures and is
// skippable.
func (f *Forecaster) ForecastAll(ctx context.Context, seriesByCity map[string][]forecast_entity.DailyRecord) ([]model.Trajectory, error) {
	cities := make([]string, 0, len(seriesByCity))
	for city := range seriesByCity {
		cities = append(cities, city)
	}
	sort.Strings(cities)

	var trajectories []model.Trajectory
	var errs *multierror.Error

	for _, city := range cities {
		if err := ctx.Err(); err != nil {
			return trajectories, exception.New(moduleName, "forecast canceled", err, false)
		}
		trajectory, err := f.ForecastCity(ctx, city, seriesByCity[city])
		if err != nil {
			logger.Warnf("Skipping forecast for city '%s': %v", city, err)
			errs = multierror.Append(errs, err)
			continue
		}
		trajectories = append(trajectories, trajectory)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return trajectories, exception.New(moduleName,
			fmt.Sprintf("%d of %d cities could not be forecast", len(errs.Errors), len(cities)), err, true)
	}
	return trajectories, nil
}

// ForecastCity rolls the model over the horizon for one city. A failed
// prediction step records a ForecastError for that date and leaves the
// input window unchanged; later dates are still attempted.
func (f *Forecaster) ForecastCity(ctx context.Context, cityName string, history []forecast_entity.DailyRecord) (model.Trajectory, error) {
	trajectory := model.Trajectory{CityName: cityName}

	if len(history) < f.windowLength {
		return trajectory, exception.Newf(moduleName,
			"city '%s' has %d daily records, need at least %d to seed the forecast window",
			cityName, len(history), f.windowLength)
	}

	// Seed the window with the last windowLength days, scaled.
	window := make([][]float64, f.windowLength)
	for i, record := range history[len(history)-f.windowLength:] {
		window[i] = f.scalers.ScaleFeatures(record.FeatureVector())
	}

	// Freeze the auxiliary features at the seed window's mean. The model
	// only predicts temperature and rainfall.
	frozen := make([]float64, ml.NumFeatures)
	for _, day := range window {
		for k := ml.NumTargets; k < ml.NumFeatures; k++ {
			frozen[k] += day[k]
		}
	}
	for k := ml.NumTargets; k < ml.NumFeatures; k++ {
		frozen[k] /= float64(f.windowLength)
	}

	for i := 0; i < f.days; i++ {
		if err := ctx.Err(); err != nil {
			return trajectory, exception.New(moduleName, "forecast canceled", err, false)
		}
		date := f.startDate.AddDate(0, 0, i)

		scaled, err := f.predictor.Predict(window)
		if err != nil || len(scaled) != ml.NumTargets {
			if err == nil {
				err = fmt.Errorf("predictor returned %d values, expected %d", len(scaled), ml.NumTargets)
			}
			trajectory.Failures = append(trajectory.Failures, model.ForecastError{
				CityName: cityName,
				Date:     date,
				Reason:   err,
			})
			// The window stays as it is; the next date retries from the
			// same state.
			continue
		}

		targets := f.scalers.UnscaleTargets(scaled)
		temperature := clamp(targets[0], MinTemperature, MaxTemperature)
		rainfall := targets[1]
		if rainfall < 0 {
			rainfall = 0
		}

		trajectory.Points = append(trajectory.Points, forecast_entity.ForecastPoint{
			CityName:    cityName,
			Date:        date,
			Temperature: temperature,
			Rainfall:    rainfall,
			CreatedAt:   f.now(),
		})

		// Advance the window: drop the oldest day, append the prediction
		// (re-scaled after clamping) with the frozen auxiliaries.
		next := make([]float64, ml.NumFeatures)
		next[ml.FeatureTemperature] = f.scalers.Features[ml.FeatureTemperature].Scale(temperature)
		next[ml.FeatureRainfall] = f.scalers.Features[ml.FeatureRainfall].Scale(rainfall)
		copy(next[ml.NumTargets:], frozen[ml.NumTargets:])
		window = append(window[1:], next)
	}

	return trajectory, nil
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
