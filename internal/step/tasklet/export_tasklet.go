package tasklet

import (
	"context"

	"github.com/marina21-cs/weteweta.github.io/internal/export"
	"github.com/marina21-cs/weteweta.github.io/internal/pipeline"
	"github.com/marina21-cs/weteweta.github.io/internal/repository"
	"github.com/marina21-cs/weteweta.github.io/internal/support/exception"
	"github.com/marina21-cs/weteweta.github.io/internal/support/logger"
)

const StepExportForecast = "export-forecast"

// ExportTasklet writes the stored forecast points as date-partitioned
// parquet plus a flat forecast.csv. Export failures are skippable: the
// forecast itself is already persisted.
type ExportTasklet struct {
	store    repository.RecordStore
	exporter *export.ParquetExporter
}

// NewExportTasklet creates an ExportTasklet.
func NewExportTasklet(store repository.RecordStore, exporter *export.ParquetExporter) *ExportTasklet {
	return &ExportTasklet{store: store, exporter: exporter}
}

func (t *ExportTasklet) Name() string {
	return StepExportForecast
}

func (t *ExportTasklet) Execute(ctx context.Context, stepExecution *pipeline.StepExecution) (pipeline.ExitStatus, error) {
	points, err := t.store.ListAllForecastPoints(ctx)
	if err != nil {
		return pipeline.ExitStatusFailed, err
	}
	stepExecution.ReadCount = len(points)

	if len(points) == 0 {
		logger.Warnf("No forecast points to export.")
		return pipeline.ExitStatusNoOp, nil
	}

	written, err := t.exporter.Export(ctx, points)
	stepExecution.WriteCount = written
	if err != nil {
		return pipeline.ExitStatusFailed, asSkippable(err)
	}

	if err := t.exporter.ExportCSV(ctx, points); err != nil {
		return pipeline.ExitStatusFailed, asSkippable(err)
	}

	logger.Infof("Exported %d forecast points.", written)
	return pipeline.ExitStatusCompleted, nil
}

func (t *ExportTasklet) Close(ctx context.Context) error {
	return nil
}

// asSkippable keeps already-skippable errors untouched and downgrades the
// rest; a broken export never aborts the remaining steps.
func asSkippable(err error) error {
	if exception.IsSkippable(err) {
		return err
	}
	return exception.New(StepExportForecast, "export failed", err, true)
}

var _ pipeline.Tasklet = (*ExportTasklet)(nil)
