package tasklet

import (
	"context"

	forecast_entity "github.com/marina21-cs/weteweta.github.io/internal/domain/entity"
	"github.com/marina21-cs/weteweta.github.io/internal/domain/model"
	"github.com/marina21-cs/weteweta.github.io/internal/pipeline"
	"github.com/marina21-cs/weteweta.github.io/internal/render"
	"github.com/marina21-cs/weteweta.github.io/internal/repository"
	"github.com/marina21-cs/weteweta.github.io/internal/support/exception"
	"github.com/marina21-cs/weteweta.github.io/internal/support/logger"
)

const StepRenderMaps = "render-maps"

// HeatmapTasklet renders the country-wide temperature and rainfall maps from
// the per-city forecast averages, plus the first few daily temperature maps.
// Every failure here is skippable.
type HeatmapTasklet struct {
	store    repository.RecordStore
	renderer *render.MapRenderer
}

// NewHeatmapTasklet creates a HeatmapTasklet.
func NewHeatmapTasklet(store repository.RecordStore, renderer *render.MapRenderer) *HeatmapTasklet {
	return &HeatmapTasklet{store: store, renderer: renderer}
}

func (t *HeatmapTasklet) Name() string {
	return StepRenderMaps
}

func (t *HeatmapTasklet) Execute(ctx context.Context, stepExecution *pipeline.StepExecution) (pipeline.ExitStatus, error) {
	trajectories, err := t.trajectories(ctx, stepExecution)
	if err != nil {
		return pipeline.ExitStatusFailed, err
	}
	if len(trajectories) == 0 {
		logger.Warnf("No trajectories available; skipping maps.")
		return pipeline.ExitStatusNoOp, nil
	}

	averages := render.BuildCityAverages(trajectories)
	if err := t.renderer.RenderAverageMaps(ctx, averages); err != nil {
		return pipeline.ExitStatusFailed, err
	}
	if err := t.renderer.RenderDailyTemperatureMaps(ctx, trajectories); err != nil {
		return pipeline.ExitStatusFailed, err
	}
	stepExecution.WriteCount = len(averages)
	return pipeline.ExitStatusCompleted, nil
}

func (t *HeatmapTasklet) Close(ctx context.Context) error {
	return nil
}

// trajectories prefers the in-memory trajectories from the forecast step and
// falls back to rebuilding them from the stored points, so the step also
// works when the forecast step was skipped over a warm database.
func (t *HeatmapTasklet) trajectories(ctx context.Context, stepExecution *pipeline.StepExecution) ([]model.Trajectory, error) {
	if raw, ok := stepExecution.Context().Get(ContextKeyTrajectories); ok {
		if trajectories, ok := raw.([]model.Trajectory); ok {
			return trajectories, nil
		}
		return nil, exception.New(StepRenderMaps, "unexpected trajectory type in execution context", nil, true)
	}

	points, err := t.store.ListAllForecastPoints(ctx)
	if err != nil {
		return nil, asSkippable(err)
	}
	return trajectoriesFromPoints(points), nil
}

// trajectoriesFromPoints regroups stored forecast points into per-city
// trajectories. The store returns them ordered by city then date.
func trajectoriesFromPoints(points []forecast_entity.ForecastPoint) []model.Trajectory {
	var trajectories []model.Trajectory
	for _, p := range points {
		n := len(trajectories)
		if n == 0 || trajectories[n-1].CityName != p.CityName {
			trajectories = append(trajectories, model.Trajectory{CityName: p.CityName})
			n++
		}
		trajectories[n-1].Points = append(trajectories[n-1].Points, p)
	}
	return trajectories
}

var _ pipeline.Tasklet = (*HeatmapTasklet)(nil)
