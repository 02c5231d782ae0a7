// Package export writes the forecast to the artifact store: one parquet
// file per forecast date (hive-style partitions) plus a flat CSV.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	storageadapter "github.com/marina21-cs/weteweta.github.io/internal/adapter/storage"
	"github.com/marina21-cs/weteweta.github.io/internal/config"
	forecast_entity "github.com/marina21-cs/weteweta.github.io/internal/domain/entity"
	"github.com/marina21-cs/weteweta.github.io/internal/support/exception"
	"github.com/marina21-cs/weteweta.github.io/internal/support/logger"
)

const moduleName = "export"

// ParquetExporter writes forecast points through a storage connection.
type ParquetExporter struct {
	conn storageadapter.Connection
	cfg  config.ExportConfig
}

// NewParquetExporter creates a new ParquetExporter.
func NewParquetExporter(conn storageadapter.Connection, cfg config.ExportConfig) *ParquetExporter {
	return &ParquetExporter{conn: conn, cfg: cfg}
}

// Export writes one parquet file per forecast date under
// <OutputBaseDir>/date=YYYY-MM-DD/. Partitions fail independently; the
// returned error aggregates the failures and is skippable so a partial
// export does not abort the run. Returns the number of rows written.
func (e *ParquetExporter) Export(ctx context.Context, points []forecast_entity.ForecastPoint) (int, error) {
	if len(points) == 0 {
		logger.Infof("Export: no forecast points to write, skipping parquet generation.")
		return 0, nil
	}

	codec, err := compressionCodec(e.cfg.Compression)
	if err != nil {
		return 0, exception.New(moduleName, "invalid parquet compression type", err, false)
	}

	partitions := make(map[string][]forecast_entity.ForecastExportRow)
	for _, p := range points {
		key := "date=" + p.Date.Format("2006-01-02")
		partitions[key] = append(partitions[key], forecast_entity.NewForecastExportRow(p))
	}
	keys := make([]string, 0, len(partitions))
	for key := range partitions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	written := 0
	var errs *multierror.Error
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return written, exception.New(moduleName, "export canceled", err, false)
		}
		rows := partitions[key]
		if err := e.writePartition(ctx, key, rows, codec); err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		written += len(rows)
	}

	if err := errs.ErrorOrNil(); err != nil {
		return written, exception.New(moduleName,
			fmt.Sprintf("%d of %d parquet partitions failed", len(errs.Errors), len(keys)), err, true)
	}
	return written, nil
}

// writePartition serializes one partition to parquet and uploads it.
func (e *ParquetExporter) writePartition(ctx context.Context, partitionKey string, rows []forecast_entity.ForecastExportRow, codec parquet.CompressionCodec) (err error) {
	// The parquet library panics on some schema errors; convert to an error
	// so one bad partition cannot take the step down.
	defer func() {
		if r := recover(); r != nil {
			err = exception.Newf(moduleName, "parquet writer panicked for partition '%s': %v", partitionKey, r)
		}
	}()

	buf := new(bytes.Buffer)
	pw, err := writer.NewParquetWriterFromWriter(buf, new(forecast_entity.ForecastExportRow), int64(len(rows)))
	if err != nil {
		return exception.New(moduleName,
			fmt.Sprintf("failed to create parquet writer for partition '%s'", partitionKey), err, false)
	}
	pw.CompressionType = codec

	for _, row := range rows {
		if err := pw.Write(row); err != nil {
			return exception.New(moduleName,
				fmt.Sprintf("failed to write row to partition '%s'", partitionKey), err, false)
		}
	}
	if err := pw.WriteStop(); err != nil {
		return exception.New(moduleName,
			fmt.Sprintf("failed to finalize parquet file for partition '%s'", partitionKey), err, false)
	}

	fileName := fmt.Sprintf("data_%s_%s.parquet", time.Now().Format("20060102150405"), uuid.NewString()[:8])
	objectName := path.Join(e.cfg.OutputBaseDir, partitionKey, fileName)

	if err := e.conn.Upload(ctx, objectName, buf, "application/octet-stream"); err != nil {
		return exception.New(moduleName,
			fmt.Sprintf("failed to upload parquet file for partition '%s'", partitionKey), err, false)
	}
	logger.Infof("Export: wrote %d rows to '%s'.", len(rows), objectName)
	return nil
}

// ExportCSV writes the whole forecast as a single flat CSV at
// <OutputBaseDir>/forecast.csv.
func (e *ParquetExporter) ExportCSV(ctx context.Context, points []forecast_entity.ForecastPoint) error {
	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)

	if err := w.Write([]string{"city_name", "date", "temperature", "rainfall"}); err != nil {
		return exception.New(moduleName, "failed to write forecast CSV header", err, false)
	}
	for _, p := range points {
		record := []string{
			p.CityName,
			p.Date.Format("2006-01-02"),
			strconv.FormatFloat(p.Temperature, 'f', 2, 64),
			strconv.FormatFloat(p.Rainfall, 'f', 2, 64),
		}
		if err := w.Write(record); err != nil {
			return exception.New(moduleName, "failed to write forecast CSV row", err, false)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return exception.New(moduleName, "failed to flush forecast CSV", err, false)
	}

	objectName := path.Join(e.cfg.OutputBaseDir, "forecast.csv")
	if err := e.conn.Upload(ctx, objectName, buf, "text/csv"); err != nil {
		return exception.New(moduleName, "failed to upload forecast CSV", err, false)
	}
	logger.Infof("Export: wrote %d forecast rows to '%s'.", len(points), objectName)
	return nil
}

// compressionCodec maps a configuration string to a parquet codec.
func compressionCodec(compressionType string) (parquet.CompressionCodec, error) {
	switch strings.ToUpper(compressionType) {
	case "SNAPPY":
		return parquet.CompressionCodec_SNAPPY, nil
	case "GZIP":
		return parquet.CompressionCodec_GZIP, nil
	case "NONE", "":
		return parquet.CompressionCodec_UNCOMPRESSED, nil
	default:
		return 0, fmt.Errorf("unsupported compression type: %s", compressionType)
	}
}
