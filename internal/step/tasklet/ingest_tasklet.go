package tasklet

import (
	"context"
	"errors"
	"io"

	"github.com/marina21-cs/weteweta.github.io/internal/domain/model"
	"github.com/marina21-cs/weteweta.github.io/internal/pipeline"
	"github.com/marina21-cs/weteweta.github.io/internal/step/processor"
	"github.com/marina21-cs/weteweta.github.io/internal/step/reader"
	"github.com/marina21-cs/weteweta.github.io/internal/step/writer"
	"github.com/marina21-cs/weteweta.github.io/internal/support/exception"
	"github.com/marina21-cs/weteweta.github.io/internal/support/logger"
)

const StepIngestObservations = "ingest-observations"

const ModuleIngest = "IngestTasklet"

// IngestTasklet reads the hourly observation CSV, aggregates it into daily
// records and persists them. Malformed rows are counted and skipped; a
// missing input file or required column aborts the run.
type IngestTasklet struct {
	reader     *reader.ObservationReader
	aggregator *processor.Aggregator
	writer     *writer.DailyRecordWriter
}

// NewIngestTasklet creates an IngestTasklet.
func NewIngestTasklet(r *reader.ObservationReader, a *processor.Aggregator, w *writer.DailyRecordWriter) *IngestTasklet {
	return &IngestTasklet{reader: r, aggregator: a, writer: w}
}

func (t *IngestTasklet) Name() string {
	return StepIngestObservations
}

func (t *IngestTasklet) Execute(ctx context.Context, stepExecution *pipeline.StepExecution) (pipeline.ExitStatus, error) {
	if err := t.reader.Open(ctx); err != nil {
		return pipeline.ExitStatusFailed, err
	}

	var observations []model.Observation
	for {
		obs, err := t.reader.Read(ctx)
		if err == io.EOF {
			break
		}
		if errors.Is(err, reader.ErrRowSkipped) {
			stepExecution.SkipCount++
			continue
		}
		if err != nil {
			return pipeline.ExitStatusFailed, exception.New(ModuleIngest, "failed to read observations", err, false)
		}
		stepExecution.ReadCount++
		observations = append(observations, *obs)
	}

	records, err := t.aggregator.Aggregate(observations)
	if err != nil {
		return pipeline.ExitStatusFailed, err
	}

	written, err := t.writer.Write(ctx, records)
	if err != nil {
		return pipeline.ExitStatusFailed, err
	}
	stepExecution.WriteCount = written

	logger.Infof("Ingest done: %d rows read, %d skipped, %d daily records written.",
		stepExecution.ReadCount, stepExecution.SkipCount, written)
	return pipeline.ExitStatusCompleted, nil
}

func (t *IngestTasklet) Close(ctx context.Context) error {
	return t.reader.Close(ctx)
}

var _ pipeline.Tasklet = (*IngestTasklet)(nil)
