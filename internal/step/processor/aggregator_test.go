package processor

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marina21-cs/weteweta.github.io/internal/domain/model"
)

func obsAt(city string, ts time.Time, temp, rain float64) model.Observation {
	return model.Observation{
		CityName:    city,
		Timestamp:   ts,
		Temperature: temp,
		Rainfall:    rain,
		WindSpeed:   3.0,
		WindGust:    5.0,
		CloudCover:  40.0,
		Visibility:  10000.0,
	}
}

func TestAggregator_DailyMeansAndRainSum(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	observations := []model.Observation{
		obsAt("Manila", day.Add(1*time.Hour), 28.0, 0.5),
		obsAt("Manila", day.Add(7*time.Hour), 30.0, 1.5),
		obsAt("Manila", day.Add(13*time.Hour), 32.0, 0.0),
	}

	records, err := NewAggregator().Aggregate(observations)
	require.NoError(t, err)
	require.Len(t, records, 1)

	r := records[0]
	assert.Equal(t, "Manila", r.CityName)
	assert.Equal(t, day, r.Date)
	assert.InDelta(t, 30.0, r.Temperature, 1e-9)
	assert.InDelta(t, 2.0, r.Rainfall, 1e-9)
	assert.InDelta(t, 3.0, r.WindSpeed, 1e-9)
	assert.InDelta(t, 40.0, r.CloudCover, 1e-9)
	assert.InDelta(t, 10000.0, r.Visibility, 1e-9)
}

func TestAggregator_MissingRainfallCountsAsZero(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	withRain := obsAt("Manila", day.Add(1*time.Hour), 28.0, 0.8)
	noRain := obsAt("Manila", day.Add(2*time.Hour), 28.0, math.NaN())

	records, err := NewAggregator().Aggregate([]model.Observation{withRain, noRain})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.InDelta(t, 0.8, records[0].Rainfall, 1e-9)
}

func TestAggregator_ImputesCityMedian(t *testing.T) {
	day := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	observations := []model.Observation{
		obsAt("Manila", day.Add(1*time.Hour), 28.0, 0),
		obsAt("Manila", day.Add(2*time.Hour), 28.0, 0),
		obsAt("Manila", day.Add(3*time.Hour), 28.0, 0),
		obsAt("Baguio", day.Add(1*time.Hour), 18.0, 0),
	}
	observations[0].WindSpeed = 2.0
	observations[1].WindSpeed = 6.0
	observations[2].WindSpeed = math.NaN()
	observations[3].WindSpeed = 9.0

	records, err := NewAggregator().Aggregate(observations)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Manila's median over {2, 6} is 4, so the day averages (2+6+4)/3.
	assert.Equal(t, "Baguio", records[0].CityName)
	assert.InDelta(t, 9.0, records[0].WindSpeed, 1e-9)
	assert.Equal(t, "Manila", records[1].CityName)
	assert.InDelta(t, 4.0, records[1].WindSpeed, 1e-9)
}

func TestAggregator_GroupsByCityAndDaySorted(t *testing.T) {
	d1 := time.Date(2025, 3, 1, 23, 0, 0, 0, time.UTC)
	d2 := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	observations := []model.Observation{
		obsAt("Manila", d2, 30.0, 0),
		obsAt("Baguio", d1, 18.0, 0),
		obsAt("Manila", d1, 29.0, 0),
	}

	records, err := NewAggregator().Aggregate(observations)
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "Baguio", records[0].CityName)
	assert.Equal(t, "Manila", records[1].CityName)
	assert.Equal(t, "Manila", records[2].CityName)
	assert.True(t, records[1].Date.Before(records[2].Date))
}

func TestAggregator_EmptyInput(t *testing.T) {
	_, err := NewAggregator().Aggregate(nil)
	assert.Error(t, err)
}
