package app

import (
	"context"
	"io/fs"
	"os"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	dbgorm "github.com/marina21-cs/weteweta.github.io/internal/adapter/database/gorm"
	"github.com/marina21-cs/weteweta.github.io/internal/adapter/storage"
	"github.com/marina21-cs/weteweta.github.io/internal/config"
	"github.com/marina21-cs/weteweta.github.io/internal/export"
	"github.com/marina21-cs/weteweta.github.io/internal/pipeline"
	"github.com/marina21-cs/weteweta.github.io/internal/pipeline/metrics"
	"github.com/marina21-cs/weteweta.github.io/internal/pipeline/tracing"
	"github.com/marina21-cs/weteweta.github.io/internal/render"
	"github.com/marina21-cs/weteweta.github.io/internal/report"
	"github.com/marina21-cs/weteweta.github.io/internal/repository"
	"github.com/marina21-cs/weteweta.github.io/internal/step/processor"
	"github.com/marina21-cs/weteweta.github.io/internal/step/reader"
	"github.com/marina21-cs/weteweta.github.io/internal/step/tasklet"
	"github.com/marina21-cs/weteweta.github.io/internal/step/writer"
)

// primaryConnectionName is the database connection the pipeline persists
// its records to, declared under the "database" configuration key.
const primaryConnectionName = "primary"

// Module assembles every pipeline dependency. The concrete database
// dialects and storage backends are wired in through blank imports in main.
var Module = fx.Options(
	fx.Provide(
		newDatabaseProvider,
		newPrimaryConnection,
		newRecordStore,
		newStorageProvider,
		newParquetExporter,
		newMapRenderer,
		newReportService,
		metrics.NewPrometheusRecorder,
		newTracerProvider,
		newTasklets,
		newRunner,
	),
)

func newDatabaseProvider(lc fx.Lifecycle, cfg *config.Config) *dbgorm.Provider {
	provider := dbgorm.NewProvider(cfg)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return provider.CloseAll()
		},
	})
	return provider
}

func newPrimaryConnection(provider *dbgorm.Provider) (*dbgorm.Connection, error) {
	return provider.GetConnection(primaryConnectionName)
}

func newRecordStore(cfg *config.Config, conn *dbgorm.Connection) repository.RecordStore {
	return repository.NewGormRecordStore(conn.DB(), cfg.Weteweta.Pipeline.ChunkSize)
}

func newStorageProvider(lc fx.Lifecycle, cfg *config.Config) *storage.Provider {
	provider := storage.NewProvider(cfg)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return provider.CloseAll()
		},
	})
	return provider
}

func newParquetExporter(cfg *config.Config, provider *storage.Provider) (*export.ParquetExporter, error) {
	conn, err := provider.GetConnection(cfg.Weteweta.Export.StorageRef)
	if err != nil {
		return nil, err
	}
	return export.NewParquetExporter(conn, cfg.Weteweta.Export), nil
}

func newMapRenderer(cfg *config.Config, provider *storage.Provider) (*render.MapRenderer, error) {
	conn, err := provider.GetConnection(cfg.Weteweta.Render.StorageRef)
	if err != nil {
		return nil, err
	}
	return render.NewMapRenderer(conn, cfg.Weteweta.Render), nil
}

func newReportService(cfg *config.Config, provider *storage.Provider, store repository.RecordStore) (*report.Service, error) {
	conn, err := provider.GetConnection(cfg.Weteweta.Report.StorageRef)
	if err != nil {
		return nil, err
	}
	return report.NewService(store, conn, cfg.Weteweta.Report, os.Stdout), nil
}

func newTracerProvider(lc fx.Lifecycle, cfg *config.Config) (trace.TracerProvider, error) {
	provider, shutdown, err := tracing.NewTracerProvider(context.Background(), cfg.Weteweta.Tracing, cfg.Weteweta.Pipeline.Name)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return shutdown(ctx)
		},
	})
	return provider, nil
}

// newTasklets builds the pipeline steps in execution order.
func newTasklets(
	cfg *config.Config,
	conn *dbgorm.Connection,
	migrations fs.FS,
	store repository.RecordStore,
	exporter *export.ParquetExporter,
	renderer *render.MapRenderer,
	reportService *report.Service,
) []pipeline.Tasklet {
	return []pipeline.Tasklet{
		tasklet.NewMigrationTasklet(conn, migrations),
		tasklet.NewIngestTasklet(
			reader.NewObservationReader(cfg.Weteweta.Ingest.CSVPath),
			processor.NewAggregator(),
			writer.NewDailyRecordWriter(store),
		),
		tasklet.NewTrainTasklet(store, cfg.Weteweta.Model, renderer),
		tasklet.NewForecastTasklet(store, cfg.Weteweta.Model, cfg.Weteweta.Forecast),
		tasklet.NewExportTasklet(store, exporter),
		tasklet.NewHeatmapTasklet(store, renderer),
		tasklet.NewReportTasklet(reportService, cfg.Weteweta.Report, os.Stdin, os.Stdout),
	}
}

func newRunner(
	cfg *config.Config,
	tasklets []pipeline.Tasklet,
	recorder *metrics.PrometheusRecorder,
	tracerProvider trace.TracerProvider,
) *pipeline.Runner {
	loggingListener := pipeline.NewLoggingListener()
	tracingListener := tracing.NewTracingListener(tracerProvider)

	executionListeners := []pipeline.ExecutionListener{
		loggingListener,
		metrics.NewMetricsExecutionListener(recorder),
		tracingListener,
	}
	stepListeners := []pipeline.StepListener{
		loggingListener,
		metrics.NewMetricsStepListener(recorder),
		tracingListener,
	}
	return pipeline.NewRunner(cfg.Weteweta.Pipeline.Name, tasklets, executionListeners, stepListeners)
}
