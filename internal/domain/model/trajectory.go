package model

import (
	"fmt"
	"time"

	forecast_entity "github.com/marina21-cs/weteweta.github.io/internal/domain/entity"
)

// ForecastError describes a single failed forecast step for one city and
// date. Failed steps are recorded and skipped; they never abort the run.
type ForecastError struct {
	CityName string
	Date     time.Time
	Reason   error
}

// Error implements the error interface.
func (e *ForecastError) Error() string {
	return fmt.Sprintf("forecast failed for city '%s' on %s: %v",
		e.CityName, e.Date.Format("2006-01-02"), e.Reason)
}

// Unwrap returns the underlying cause.
func (e *ForecastError) Unwrap() error {
	return e.Reason
}

// Trajectory is one city's ordered multi-day forecast. Points holds the
// successful predictions in date order; Failures records the dates that
// could not be predicted.
type Trajectory struct {
	CityName string
	Points   []forecast_entity.ForecastPoint
	Failures []ForecastError
}

// Average returns the mean predicted temperature and rainfall over the
// trajectory. ok is false when the trajectory holds no points.
func (t Trajectory) Average() (temperature, rainfall float64, ok bool) {
	if len(t.Points) == 0 {
		return 0, 0, false
	}
	for _, p := range t.Points {
		temperature += p.Temperature
		rainfall += p.Rainfall
	}
	n := float64(len(t.Points))
	return temperature / n, rainfall / n, true
}

// PointOn returns the forecast point for the given date, if present.
func (t Trajectory) PointOn(date time.Time) (forecast_entity.ForecastPoint, bool) {
	for _, p := range t.Points {
		if p.Date.Equal(date) {
			return p, true
		}
	}
	return forecast_entity.ForecastPoint{}, false
}

// CityAverage joins a city's mean forecast values with its map coordinates.
// It is the unit of data behind the contour maps.
type CityAverage struct {
	CityName    string
	Latitude    float64
	Longitude   float64
	Temperature float64
	Rainfall    float64
}
