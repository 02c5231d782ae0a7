package forecast_entity

import "time"

// DailyRecord represents one aggregated day of weather for a single city.
// Hourly observations are averaged (temperature, wind, clouds, visibility)
// or summed (rainfall) into exactly one row per (city, date).
type DailyRecord struct {
	CityName    string    `gorm:"column:city_name;primaryKey"`
	Date        time.Time `gorm:"column:date;primaryKey"`
	Temperature float64   `gorm:"column:temperature"`
	Rainfall    float64   `gorm:"column:rainfall"`
	WindSpeed   float64   `gorm:"column:wind_speed"`
	CloudCover  float64   `gorm:"column:cloud_cover"`
	Visibility  float64   `gorm:"column:visibility"`
}

// TableName specifies the table name for DailyRecord.
func (DailyRecord) TableName() string {
	return "daily_records"
}

// FeatureVector returns the record's features in canonical order:
// temperature, rainfall, wind speed, cloud cover, visibility.
func (r DailyRecord) FeatureVector() []float64 {
	return []float64{r.Temperature, r.Rainfall, r.WindSpeed, r.CloudCover, r.Visibility}
}

// TargetVector returns the record's prediction targets in canonical order:
// temperature, rainfall.
func (r DailyRecord) TargetVector() []float64 {
	return []float64{r.Temperature, r.Rainfall}
}

// ForecastPoint represents one predicted day for a single city.
// Temperature is clamped to [0, 50] degrees Celsius and rainfall to >= 0
// before a point is ever constructed.
type ForecastPoint struct {
	CityName    string    `gorm:"column:city_name;primaryKey"`
	Date        time.Time `gorm:"column:date;primaryKey"`
	Temperature float64   `gorm:"column:temperature"`
	Rainfall    float64   `gorm:"column:rainfall"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

// TableName specifies the table name for ForecastPoint.
func (ForecastPoint) TableName() string {
	return "forecast_points"
}

// ForecastExportRow represents one forecast point flattened for export.
// It includes parquet tags for serialization to Parquet format.
type ForecastExportRow struct {
	CityName    string  `parquet:"name=city_name,type=BYTE_ARRAY,convertedtype=UTF8"`
	Date        int64   `parquet:"name=date,type=INT64,convertedtype=TIMESTAMP_MILLIS"`
	Temperature float64 `parquet:"name=temperature,type=DOUBLE"`
	Rainfall    float64 `parquet:"name=rainfall,type=DOUBLE"`
	CreatedAt   int64   `parquet:"name=created_at,type=INT64,convertedtype=TIMESTAMP_MILLIS"`
}

// NewForecastExportRow converts a ForecastPoint to its export representation.
func NewForecastExportRow(p ForecastPoint) ForecastExportRow {
	return ForecastExportRow{
		CityName:    p.CityName,
		Date:        p.Date.UnixMilli(),
		Temperature: p.Temperature,
		Rainfall:    p.Rainfall,
		CreatedAt:   p.CreatedAt.UnixMilli(),
	}
}
