// Package writer persists aggregated daily records.
package writer

import (
	"context"

	forecast_entity "github.com/marina21-cs/weteweta.github.io/internal/domain/entity"
	"github.com/marina21-cs/weteweta.github.io/internal/repository"
	"github.com/marina21-cs/weteweta.github.io/internal/support/logger"
)

// DailyRecordWriter writes daily records through the record store. The
// upsert keeps at most one row per (city, date), so re-running the ingest
// is idempotent.
type DailyRecordWriter struct {
	store repository.RecordStore
}

// NewDailyRecordWriter creates a new DailyRecordWriter.
func NewDailyRecordWriter(store repository.RecordStore) *DailyRecordWriter {
	return &DailyRecordWriter{store: store}
}

// Write persists the records and returns the number of rows inserted.
func (w *DailyRecordWriter) Write(ctx context.Context, records []forecast_entity.DailyRecord) (int, error) {
	inserted, err := w.store.UpsertDailyRecords(ctx, records)
	if err != nil {
		return 0, err
	}
	if inserted < len(records) {
		logger.Debugf("Writer: %d of %d daily records already existed.", len(records)-inserted, len(records))
	}
	return inserted, nil
}
