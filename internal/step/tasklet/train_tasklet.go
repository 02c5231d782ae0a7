package tasklet

import (
	"context"

	"github.com/marina21-cs/weteweta.github.io/internal/config"
	forecast_entity "github.com/marina21-cs/weteweta.github.io/internal/domain/entity"
	"github.com/marina21-cs/weteweta.github.io/internal/ml"
	"github.com/marina21-cs/weteweta.github.io/internal/pipeline"
	"github.com/marina21-cs/weteweta.github.io/internal/render"
	"github.com/marina21-cs/weteweta.github.io/internal/repository"
	"github.com/marina21-cs/weteweta.github.io/internal/support/logger"
)

const StepTrainModel = "train-model"

// TrainTasklet builds the windowed dataset from the stored daily records,
// trains the day-ahead network and publishes the trained predictor, the
// scalers and the per-city series for the forecast step. The loss chart is
// rendered best-effort.
type TrainTasklet struct {
	store    repository.RecordStore
	cfg      config.ModelConfig
	renderer *render.MapRenderer
}

// NewTrainTasklet creates a TrainTasklet.
func NewTrainTasklet(store repository.RecordStore, cfg config.ModelConfig, renderer *render.MapRenderer) *TrainTasklet {
	return &TrainTasklet{store: store, cfg: cfg, renderer: renderer}
}

func (t *TrainTasklet) Name() string {
	return StepTrainModel
}

func (t *TrainTasklet) Execute(ctx context.Context, stepExecution *pipeline.StepExecution) (pipeline.ExitStatus, error) {
	records, err := t.store.ListAllDailyRecords(ctx)
	if err != nil {
		return pipeline.ExitStatusFailed, err
	}
	stepExecution.ReadCount = len(records)

	seriesByCity := groupByCity(records)
	dataset, err := ml.BuildDataset(seriesByCity, t.cfg.WindowLength)
	if err != nil {
		return pipeline.ExitStatusFailed, err
	}

	network, result, err := ml.NewTrainer(t.cfg).Train(ctx, dataset)
	if err != nil {
		return pipeline.ExitStatusFailed, err
	}

	stepExecution.Context().Put(ContextKeyPredictor, network)
	stepExecution.Context().Put(ContextKeyScalers, dataset.Scalers)
	stepExecution.Context().Put(ContextKeyTrainResult, result)
	stepExecution.Context().Put(ContextKeySeries, seriesByCity)

	// The loss chart is a diagnostic; a failed render never fails training.
	if err := t.renderer.RenderTrainingHistory(ctx, result); err != nil {
		logger.Warnf("Could not render training history: %v", err)
	}

	logger.Infof("Training finished after %d epochs (best epoch %d).", result.Epochs, result.BestEpoch)
	return pipeline.ExitStatusCompleted, nil
}

func (t *TrainTasklet) Close(ctx context.Context) error {
	return nil
}

// groupByCity splits the flat record list into per-city series. The store
// returns rows ordered by city and date, so each series stays date-ordered.
func groupByCity(records []forecast_entity.DailyRecord) map[string][]forecast_entity.DailyRecord {
	series := make(map[string][]forecast_entity.DailyRecord)
	for _, r := range records {
		series[r.CityName] = append(series[r.CityName], r)
	}
	return series
}

var _ pipeline.Tasklet = (*TrainTasklet)(nil)
