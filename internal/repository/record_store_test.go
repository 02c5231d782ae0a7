package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	forecast_entity "github.com/marina21-cs/weteweta.github.io/internal/domain/entity"
)

// setupGormMock sets up a GORM handle backed by sqlmock.
func setupGormMock(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	return gormDB, mock
}

func TestGormRecordStore_UpsertDailyRecords(t *testing.T) {
	gormDB, mock := setupGormMock(t)
	store := NewGormRecordStore(gormDB, 500)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `daily_records`").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	records := []forecast_entity.DailyRecord{
		{CityName: "Manila", Date: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), Temperature: 28.1},
		{CityName: "Manila", Date: time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), Temperature: 28.4},
	}

	inserted, err := store.UpsertDailyRecords(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRecordStore_UpsertDailyRecords_Empty(t *testing.T) {
	gormDB, mock := setupGormMock(t)
	store := NewGormRecordStore(gormDB, 500)

	inserted, err := store.UpsertDailyRecords(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRecordStore_ListDailyRecordsByCity(t *testing.T) {
	gormDB, mock := setupGormMock(t)
	store := NewGormRecordStore(gormDB, 500)

	rows := sqlmock.NewRows([]string{"city_name", "date", "temperature", "rainfall", "wind_speed", "cloud_cover", "visibility"}).
		AddRow("Manila", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), 28.1, 0.0, 3.2, 40.0, 10000.0).
		AddRow("Manila", time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC), 28.4, 1.5, 2.8, 55.0, 9000.0)

	mock.ExpectQuery("SELECT \\* FROM `daily_records` WHERE LOWER\\(city_name\\) = LOWER\\(\\?\\)").
		WithArgs("manila").
		WillReturnRows(rows)

	records, err := store.ListDailyRecordsByCity(context.Background(), "manila")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Manila", records[0].CityName)
	assert.True(t, records[0].Date.Before(records[1].Date))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRecordStore_ListCities(t *testing.T) {
	gormDB, mock := setupGormMock(t)
	store := NewGormRecordStore(gormDB, 500)

	rows := sqlmock.NewRows([]string{"city_name"}).
		AddRow("Baguio").
		AddRow("Manila")

	mock.ExpectQuery("SELECT DISTINCT `city_name` FROM `daily_records`").
		WillReturnRows(rows)

	cities, err := store.ListCities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Baguio", "Manila"}, cities)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRecordStore_SaveForecastPoints(t *testing.T) {
	gormDB, mock := setupGormMock(t)
	store := NewGormRecordStore(gormDB, 500)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `forecast_points`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	points := []forecast_entity.ForecastPoint{
		{CityName: "Manila", Date: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), Temperature: 29.0, Rainfall: 0.2},
	}

	saved, err := store.SaveForecastPoints(context.Background(), points)
	require.NoError(t, err)
	assert.Equal(t, 1, saved)
	assert.NoError(t, mock.ExpectationsWereMet())
}
