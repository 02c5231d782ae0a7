package tasklet

import (
	"context"
	"time"

	"github.com/marina21-cs/weteweta.github.io/internal/config"
	forecast_entity "github.com/marina21-cs/weteweta.github.io/internal/domain/entity"
	"github.com/marina21-cs/weteweta.github.io/internal/forecast"
	"github.com/marina21-cs/weteweta.github.io/internal/ml"
	"github.com/marina21-cs/weteweta.github.io/internal/pipeline"
	"github.com/marina21-cs/weteweta.github.io/internal/repository"
	"github.com/marina21-cs/weteweta.github.io/internal/support/exception"
	"github.com/marina21-cs/weteweta.github.io/internal/support/logger"
)

const StepForecast = "forecast"

const ModuleForecastTasklet = "ForecastTasklet"

// ForecastTasklet rolls the trained model forward for every eligible city
// and persists the resulting forecast points. Per-city failures are
// aggregated into a skippable error so a bad city never aborts the run.
type ForecastTasklet struct {
	store    repository.RecordStore
	modelCfg config.ModelConfig
	cfg      config.ForecastConfig
}

// NewForecastTasklet creates a ForecastTasklet.
func NewForecastTasklet(store repository.RecordStore, modelCfg config.ModelConfig, cfg config.ForecastConfig) *ForecastTasklet {
	return &ForecastTasklet{store: store, modelCfg: modelCfg, cfg: cfg}
}

func (t *ForecastTasklet) Name() string {
	return StepForecast
}

func (t *ForecastTasklet) Execute(ctx context.Context, stepExecution *pipeline.StepExecution) (pipeline.ExitStatus, error) {
	predictor, scalers, seriesByCity, err := t.trainingArtifacts(stepExecution)
	if err != nil {
		return pipeline.ExitStatusFailed, err
	}

	startDate, err := time.ParseInLocation("2006-01-02", t.cfg.StartDate, time.UTC)
	if err != nil {
		return pipeline.ExitStatusFailed, exception.New(ModuleForecastTasklet,
			"invalid forecast start date '"+t.cfg.StartDate+"'", err, false)
	}

	forecaster := forecast.NewForecaster(predictor, scalers, t.modelCfg.WindowLength, startDate, t.cfg.Days)
	trajectories, forecastErr := forecaster.ForecastAll(ctx, seriesByCity)
	if forecastErr != nil && !exception.IsSkippable(forecastErr) {
		return pipeline.ExitStatusFailed, forecastErr
	}

	var points []forecast_entity.ForecastPoint
	for _, traj := range trajectories {
		points = append(points, traj.Points...)
	}
	saved, err := t.store.SaveForecastPoints(ctx, points)
	if err != nil {
		return pipeline.ExitStatusFailed, err
	}
	stepExecution.WriteCount = saved
	stepExecution.Context().Put(ContextKeyTrajectories, trajectories)

	logger.Infof("Forecast done: %d cities, %d points saved.", len(trajectories), saved)
	if forecastErr != nil {
		return pipeline.ExitStatusCompleted, forecastErr
	}
	return pipeline.ExitStatusCompleted, nil
}

func (t *ForecastTasklet) Close(ctx context.Context) error {
	return nil
}

// trainingArtifacts pulls the predictor, scalers and per-city series the
// training step published into the execution context.
func (t *ForecastTasklet) trainingArtifacts(stepExecution *pipeline.StepExecution) (ml.Predictor, ml.Scalers, map[string][]forecast_entity.DailyRecord, error) {
	rawPredictor, ok := stepExecution.Context().Get(ContextKeyPredictor)
	if !ok {
		return nil, ml.Scalers{}, nil, exception.Newf(ModuleForecastTasklet,
			"no trained model in execution context; did '%s' run?", StepTrainModel)
	}
	predictor, ok := rawPredictor.(ml.Predictor)
	if !ok {
		return nil, ml.Scalers{}, nil, exception.Newf(ModuleForecastTasklet,
			"unexpected predictor type %T in execution context", rawPredictor)
	}

	rawScalers, ok := stepExecution.Context().Get(ContextKeyScalers)
	if !ok {
		return nil, ml.Scalers{}, nil, exception.Newf(ModuleForecastTasklet, "no scalers in execution context")
	}
	scalers, ok := rawScalers.(ml.Scalers)
	if !ok {
		return nil, ml.Scalers{}, nil, exception.Newf(ModuleForecastTasklet,
			"unexpected scalers type %T in execution context", rawScalers)
	}

	rawSeries, ok := stepExecution.Context().Get(ContextKeySeries)
	if !ok {
		return nil, ml.Scalers{}, nil, exception.Newf(ModuleForecastTasklet, "no city series in execution context")
	}
	seriesByCity, ok := rawSeries.(map[string][]forecast_entity.DailyRecord)
	if !ok {
		return nil, ml.Scalers{}, nil, exception.Newf(ModuleForecastTasklet,
			"unexpected series type %T in execution context", rawSeries)
	}

	return predictor, scalers, seriesByCity, nil
}

var _ pipeline.Tasklet = (*ForecastTasklet)(nil)
