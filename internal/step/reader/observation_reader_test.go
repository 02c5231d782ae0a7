package reader

import (
	"context"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const csvHeader = "city_name,datetime,main.temp,rain.1h,wind.speed,wind.gust,clouds.all,visibility,weather.description\n"

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "observations.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestObservationReader_ReadsRows(t *testing.T) {
	path := writeCSV(t, csvHeader+
		"Manila,2025-03-01 00:00:00,28.5,0.2,3.1,5.0,40,10000,clear sky\n"+
		"Manila,2025-03-01 01:00:00,28.1,,2.9,,45,,few clouds\n")

	r := NewObservationReader(path)
	require.NoError(t, r.Open(context.Background()))
	defer r.Close(context.Background())

	first, err := r.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Manila", first.CityName)
	assert.Equal(t, 28.5, first.Temperature)
	assert.Equal(t, 0.2, first.Rainfall)

	second, err := r.Read(context.Background())
	require.NoError(t, err)
	assert.True(t, math.IsNaN(second.Rainfall), "missing rainfall reads as NaN")
	assert.True(t, math.IsNaN(second.WindGust), "missing gust reads as NaN")
	assert.True(t, math.IsNaN(second.Visibility), "missing visibility reads as NaN")

	_, err = r.Read(context.Background())
	assert.Equal(t, io.EOF, err)
}

func TestObservationReader_SkipsMalformedRows(t *testing.T) {
	path := writeCSV(t, csvHeader+
		",2025-03-01 00:00:00,28.5,0,3,5,40,10000,x\n"+
		"Manila,not-a-date,28.5,0,3,5,40,10000,x\n"+
		"Manila,2025-03-01 02:00:00,not-a-temp,0,3,5,40,10000,x\n"+
		"Manila,2025-03-01 03:00:00,27.9,0,3,5,40,10000,x\n")

	r := NewObservationReader(path)
	require.NoError(t, r.Open(context.Background()))
	defer r.Close(context.Background())

	skipped := 0
	var read int
	for {
		obs, err := r.Read(context.Background())
		if err == io.EOF {
			break
		}
		if errors.Is(err, ErrRowSkipped) {
			skipped++
			continue
		}
		require.NoError(t, err)
		read++
		assert.Equal(t, 27.9, obs.Temperature)
	}
	assert.Equal(t, 3, skipped)
	assert.Equal(t, 1, read)
}

func TestObservationReader_MissingRequiredColumnIsFatal(t *testing.T) {
	path := writeCSV(t, "city_name,datetime,main.temp\nManila,2025-03-01 00:00:00,28.5\n")

	r := NewObservationReader(path)
	err := r.Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required column")
}

func TestObservationReader_MissingFile(t *testing.T) {
	r := NewObservationReader(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, r.Open(context.Background()))
}
