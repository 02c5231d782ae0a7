// Package processor cleans hourly observations and aggregates them into one
// daily record per (city, day).
package processor

import (
	"math"
	"sort"
	"time"

	forecast_entity "github.com/marina21-cs/weteweta.github.io/internal/domain/entity"
	"github.com/marina21-cs/weteweta.github.io/internal/domain/model"
	"github.com/marina21-cs/weteweta.github.io/internal/support/exception"
	"github.com/marina21-cs/weteweta.github.io/internal/support/logger"
)

const ModuleAggregator = "Aggregator"

// Aggregator turns a month of hourly observations into daily city series.
//
// Cleaning rules: missing rainfall counts as zero; missing wind speed, wind
// gust and visibility are imputed with that city's median over the loaded
// month. Temperature, wind, clouds and visibility are averaged per day;
// rainfall is summed.
type Aggregator struct{}

// NewAggregator creates a new Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Aggregate cleans and aggregates the observations. The output is sorted by
// city name, then date.
func (a *Aggregator) Aggregate(observations []model.Observation) ([]forecast_entity.DailyRecord, error) {
	if len(observations) == 0 {
		return nil, exception.New(ModuleAggregator, "no observations to aggregate", nil, false)
	}

	cleaned := a.impute(observations)

	type dayKey struct {
		city string
		date time.Time
	}
	groups := make(map[dayKey][]model.Observation)
	for _, obs := range cleaned {
		key := dayKey{
			city: obs.CityName,
			date: time.Date(obs.Timestamp.Year(), obs.Timestamp.Month(), obs.Timestamp.Day(), 0, 0, 0, 0, time.UTC),
		}
		groups[key] = append(groups[key], obs)
	}

	records := make([]forecast_entity.DailyRecord, 0, len(groups))
	for key, obs := range groups {
		n := float64(len(obs))
		record := forecast_entity.DailyRecord{CityName: key.city, Date: key.date}
		for _, o := range obs {
			record.Temperature += o.Temperature
			record.Rainfall += o.Rainfall
			record.WindSpeed += o.WindSpeed
			record.CloudCover += o.CloudCover
			record.Visibility += o.Visibility
		}
		record.Temperature /= n
		record.WindSpeed /= n
		record.CloudCover /= n
		record.Visibility /= n
		records = append(records, record)
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].CityName != records[j].CityName {
			return records[i].CityName < records[j].CityName
		}
		return records[i].Date.Before(records[j].Date)
	})

	logger.Infof("Aggregated %d hourly observations into %d daily records.", len(observations), len(records))
	return records, nil
}

// impute fills the optional columns: rainfall missing means no rain; wind
// speed, gust, clouds and visibility fall back to the city's median.
func (a *Aggregator) impute(observations []model.Observation) []model.Observation {
	windMedians := cityMedians(observations, func(o model.Observation) float64 { return o.WindSpeed })
	gustMedians := cityMedians(observations, func(o model.Observation) float64 { return o.WindGust })
	cloudMedians := cityMedians(observations, func(o model.Observation) float64 { return o.CloudCover })
	visMedians := cityMedians(observations, func(o model.Observation) float64 { return o.Visibility })

	cleaned := make([]model.Observation, len(observations))
	for i, obs := range observations {
		if math.IsNaN(obs.Rainfall) {
			obs.Rainfall = 0
		}
		if math.IsNaN(obs.WindSpeed) {
			obs.WindSpeed = windMedians[obs.CityName]
		}
		if math.IsNaN(obs.WindGust) {
			obs.WindGust = gustMedians[obs.CityName]
		}
		if math.IsNaN(obs.CloudCover) {
			obs.CloudCover = cloudMedians[obs.CityName]
		}
		if math.IsNaN(obs.Visibility) {
			obs.Visibility = visMedians[obs.CityName]
		}
		cleaned[i] = obs
	}
	return cleaned
}

// cityMedians computes the median of the selected column per city over the
// non-missing values. Cities with no values at all get zero.
func cityMedians(observations []model.Observation, selector func(model.Observation) float64) map[string]float64 {
	values := make(map[string][]float64)
	for _, obs := range observations {
		v := selector(obs)
		if !math.IsNaN(v) {
			values[obs.CityName] = append(values[obs.CityName], v)
		}
	}

	medians := make(map[string]float64, len(values))
	for city, vs := range values {
		sort.Float64s(vs)
		mid := len(vs) / 2
		if len(vs)%2 == 1 {
			medians[city] = vs[mid]
		} else {
			medians[city] = (vs[mid-1] + vs[mid]) / 2
		}
	}
	return medians
}
