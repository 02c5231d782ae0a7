package ml

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	forecast_entity "github.com/marina21-cs/weteweta.github.io/internal/domain/entity"
)

func makeSeries(city string, days int, baseTemp float64) []forecast_entity.DailyRecord {
	series := make([]forecast_entity.DailyRecord, days)
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range series {
		series[i] = forecast_entity.DailyRecord{
			CityName:    city,
			Date:        start.AddDate(0, 0, i),
			Temperature: baseTemp + float64(i%5),
			Rainfall:    float64(i % 3),
			WindSpeed:   3 + float64(i%2),
			CloudCover:  40 + float64(i%10),
			Visibility:  9000,
		}
	}
	return series
}

func TestBuildDataset_WindowCountPerCity(t *testing.T) {
	series := map[string][]forecast_entity.DailyRecord{
		"Manila": makeSeries("Manila", 10, 28),
	}

	ds, err := BuildDataset(series, 5)
	require.NoError(t, err)

	// 10 days with a 5-day window yield 5 (input, next-day target) pairs.
	assert.Len(t, ds.Windows, 5)
	assert.Len(t, ds.Windows[0].Inputs, 5)
	assert.Len(t, ds.Windows[0].Inputs[0], NumFeatures)
	assert.Len(t, ds.Windows[0].Target, NumTargets)
}

func TestBuildDataset_RequiresStrictlyMoreRecordsThanWindow(t *testing.T) {
	series := map[string][]forecast_entity.DailyRecord{
		// Exactly window-length records: no next-day target exists.
		"Manila": makeSeries("Manila", 5, 28),
	}

	_, err := BuildDataset(series, 5)
	assert.Error(t, err, "a city with exactly window-length records yields no window")
}

func TestBuildDataset_SkipsShortCitiesKeepsLongOnes(t *testing.T) {
	series := map[string][]forecast_entity.DailyRecord{
		"Baguio": makeSeries("Baguio", 3, 18),
		"Manila": makeSeries("Manila", 8, 28),
	}

	ds, err := BuildDataset(series, 5)
	require.NoError(t, err)

	for _, w := range ds.Windows {
		assert.Equal(t, "Manila", w.CityName)
	}
	assert.Len(t, ds.Windows, 3)
}

func TestBuildDataset_PooledScalersSpanAllCities(t *testing.T) {
	series := map[string][]forecast_entity.DailyRecord{
		"Baguio": makeSeries("Baguio", 8, 15), // temps 15..19
		"Manila": makeSeries("Manila", 8, 30), // temps 30..34
	}

	ds, err := BuildDataset(series, 5)
	require.NoError(t, err)

	// The temperature scaler covers both cities' ranges.
	assert.Equal(t, 15.0, ds.Scalers.Features[FeatureTemperature].Min)
	assert.Equal(t, 34.0, ds.Scalers.Features[FeatureTemperature].Max)

	for _, w := range ds.Windows {
		for _, day := range w.Inputs {
			for _, v := range day {
				assert.GreaterOrEqual(t, v, 0.0)
				assert.LessOrEqual(t, v, 1.0)
			}
		}
	}
}

func TestBuildDataset_EmptyInput(t *testing.T) {
	_, err := BuildDataset(map[string][]forecast_entity.DailyRecord{}, 5)
	assert.Error(t, err)
}

func TestDataset_SplitChronological(t *testing.T) {
	series := map[string][]forecast_entity.DailyRecord{
		"Manila": makeSeries("Manila", 15, 28),
	}
	ds, err := BuildDataset(series, 5)
	require.NoError(t, err)

	train, val := ds.Split(0.8)
	assert.Equal(t, len(ds.Windows), len(train)+len(val))
	assert.Equal(t, ds.Windows[0], train[0], "the earliest windows train the model")
	if len(val) > 0 {
		assert.Equal(t, ds.Windows[len(ds.Windows)-1], val[len(val)-1])
	}
}
