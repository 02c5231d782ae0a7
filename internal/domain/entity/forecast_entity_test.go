package forecast_entity

import (
	"testing"
	"time"
)

func TestDailyRecord_TableName(t *testing.T) {
	expected := "daily_records"
	actual := DailyRecord{}.TableName()

	if actual != expected {
		t.Errorf("TableName() returned %s, expected %s", actual, expected)
	}
}

func TestForecastPoint_TableName(t *testing.T) {
	expected := "forecast_points"
	actual := ForecastPoint{}.TableName()

	if actual != expected {
		t.Errorf("TableName() returned %s, expected %s", actual, expected)
	}
}

func TestDailyRecord_Vectors(t *testing.T) {
	r := DailyRecord{
		Temperature: 28.5,
		Rainfall:    1.2,
		WindSpeed:   3.4,
		CloudCover:  60,
		Visibility:  9000,
	}

	features := r.FeatureVector()
	if len(features) != 5 {
		t.Fatalf("FeatureVector() returned %d values, expected 5", len(features))
	}
	if features[0] != 28.5 || features[1] != 1.2 {
		t.Errorf("FeatureVector() order mismatch: %v", features)
	}

	targets := r.TargetVector()
	if len(targets) != 2 || targets[0] != 28.5 || targets[1] != 1.2 {
		t.Errorf("TargetVector() returned %v, expected [28.5 1.2]", targets)
	}
}

func TestNewForecastExportRow(t *testing.T) {
	date := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	p := ForecastPoint{
		CityName:    "Baguio",
		Date:        date,
		Temperature: 18.3,
		Rainfall:    0.4,
		CreatedAt:   date.Add(12 * time.Hour),
	}

	row := NewForecastExportRow(p)
	if row.CityName != "Baguio" {
		t.Errorf("CityName = %s, expected Baguio", row.CityName)
	}
	if row.Date != date.UnixMilli() {
		t.Errorf("Date = %d, expected %d", row.Date, date.UnixMilli())
	}
}
