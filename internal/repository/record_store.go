// Package repository provides persistence for daily records and forecast
// points on top of GORM.
package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	forecast_entity "github.com/marina21-cs/weteweta.github.io/internal/domain/entity"
	"github.com/marina21-cs/weteweta.github.io/internal/support/exception"
)

const moduleName = "repository"

// RecordStore is the persistence interface used by the pipeline steps.
type RecordStore interface {
	// UpsertDailyRecords inserts daily records, ignoring rows whose
	// (city, date) key already exists. Returns the number of inserted rows.
	UpsertDailyRecords(ctx context.Context, records []forecast_entity.DailyRecord) (int, error)
	// ListCities returns the distinct city names with daily records,
	// in alphabetical order.
	ListCities(ctx context.Context) ([]string, error)
	// ListDailyRecordsByCity returns a city's daily records in date order.
	// The city name is matched case-insensitively.
	ListDailyRecordsByCity(ctx context.Context, cityName string) ([]forecast_entity.DailyRecord, error)
	// ListAllDailyRecords returns every daily record ordered by city then date.
	ListAllDailyRecords(ctx context.Context) ([]forecast_entity.DailyRecord, error)
	// SaveForecastPoints persists forecast points, replacing rows whose
	// (city, date) key already exists.
	SaveForecastPoints(ctx context.Context, points []forecast_entity.ForecastPoint) (int, error)
	// ListForecastPointsByCity returns a city's forecast points in date
	// order. The city name is matched case-insensitively.
	ListForecastPointsByCity(ctx context.Context, cityName string) ([]forecast_entity.ForecastPoint, error)
	// ListAllForecastPoints returns every forecast point ordered by city
	// then date.
	ListAllForecastPoints(ctx context.Context) ([]forecast_entity.ForecastPoint, error)
}

// GormRecordStore is the GORM implementation of RecordStore.
type GormRecordStore struct {
	db        *gorm.DB
	chunkSize int
}

// NewGormRecordStore creates a new GormRecordStore. chunkSize bounds the
// number of rows per INSERT batch.
func NewGormRecordStore(db *gorm.DB, chunkSize int) *GormRecordStore {
	if chunkSize <= 0 {
		chunkSize = 500
	}
	return &GormRecordStore{db: db, chunkSize: chunkSize}
}

func (s *GormRecordStore) UpsertDailyRecords(ctx context.Context, records []forecast_entity.DailyRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "city_name"}, {Name: "date"}},
		DoNothing: true,
	}).CreateInBatches(records, s.chunkSize)
	if tx.Error != nil {
		return 0, exception.New(moduleName, "failed to upsert daily records", tx.Error, false)
	}
	return int(tx.RowsAffected), nil
}

func (s *GormRecordStore) ListCities(ctx context.Context) ([]string, error) {
	var cities []string
	err := s.db.WithContext(ctx).
		Model(&forecast_entity.DailyRecord{}).
		Distinct("city_name").
		Order("city_name ASC").
		Pluck("city_name", &cities).Error
	if err != nil {
		return nil, exception.New(moduleName, "failed to list cities", err, false)
	}
	return cities, nil
}

func (s *GormRecordStore) ListDailyRecordsByCity(ctx context.Context, cityName string) ([]forecast_entity.DailyRecord, error) {
	var records []forecast_entity.DailyRecord
	err := s.db.WithContext(ctx).
		Where("LOWER(city_name) = LOWER(?)", cityName).
		Order("date ASC").
		Find(&records).Error
	if err != nil {
		return nil, exception.New(moduleName, "failed to list daily records by city", err, false)
	}
	return records, nil
}

func (s *GormRecordStore) ListAllDailyRecords(ctx context.Context) ([]forecast_entity.DailyRecord, error) {
	var records []forecast_entity.DailyRecord
	err := s.db.WithContext(ctx).
		Order("city_name ASC, date ASC").
		Find(&records).Error
	if err != nil {
		return nil, exception.New(moduleName, "failed to list daily records", err, false)
	}
	return records, nil
}

func (s *GormRecordStore) SaveForecastPoints(ctx context.Context, points []forecast_entity.ForecastPoint) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}
	tx := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "city_name"}, {Name: "date"}},
		UpdateAll: true,
	}).CreateInBatches(points, s.chunkSize)
	if tx.Error != nil {
		return 0, exception.New(moduleName, "failed to save forecast points", tx.Error, false)
	}
	return int(tx.RowsAffected), nil
}

func (s *GormRecordStore) ListForecastPointsByCity(ctx context.Context, cityName string) ([]forecast_entity.ForecastPoint, error) {
	var points []forecast_entity.ForecastPoint
	err := s.db.WithContext(ctx).
		Where("LOWER(city_name) = LOWER(?)", cityName).
		Order("date ASC").
		Find(&points).Error
	if err != nil {
		return nil, exception.New(moduleName, "failed to list forecast points by city", err, false)
	}
	return points, nil
}

func (s *GormRecordStore) ListAllForecastPoints(ctx context.Context) ([]forecast_entity.ForecastPoint, error) {
	var points []forecast_entity.ForecastPoint
	err := s.db.WithContext(ctx).
		Order("city_name ASC, date ASC").
		Find(&points).Error
	if err != nil {
		return nil, exception.New(moduleName, "failed to list forecast points", err, false)
	}
	return points, nil
}

var _ RecordStore = (*GormRecordStore)(nil)
