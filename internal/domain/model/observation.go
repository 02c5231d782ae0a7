// Package model holds the in-memory value objects of the forecast pipeline:
// raw observations, forecast trajectories and the static city lookup table.
package model

import (
	"math"
	"time"
)

// Observation is a single raw hourly weather reading for one city, as parsed
// from the input CSV. Optional columns that could not be parsed are NaN so
// the aggregation stage can impute them.
type Observation struct {
	CityName    string
	Timestamp   time.Time
	Temperature float64
	Rainfall    float64
	WindSpeed   float64
	WindGust    float64
	CloudCover  float64
	Visibility  float64
}

// HasWindGust reports whether the wind gust reading is present.
func (o Observation) HasWindGust() bool {
	return !math.IsNaN(o.WindGust)
}

// HasVisibility reports whether the visibility reading is present.
func (o Observation) HasVisibility() bool {
	return !math.IsNaN(o.Visibility)
}
