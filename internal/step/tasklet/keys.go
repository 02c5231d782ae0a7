// Package tasklet holds the pipeline steps: schema migration, ingest,
// training, forecasting, export, map rendering and the city report.
package tasklet

// ExecutionContext keys used to hand state from one step to the next.
const (
	// ContextKeyPredictor holds the trained ml.Predictor.
	ContextKeyPredictor = "forecast.predictor"
	// ContextKeyScalers holds the ml.Scalers fit during training.
	ContextKeyScalers = "forecast.scalers"
	// ContextKeyTrainResult holds the *ml.TrainResult loss history.
	ContextKeyTrainResult = "forecast.train_result"
	// ContextKeySeries holds the per-city daily record series
	// (map[string][]forecast_entity.DailyRecord).
	ContextKeySeries = "forecast.series"
	// ContextKeyTrajectories holds the per-city []model.Trajectory.
	ContextKeyTrajectories = "forecast.trajectories"
)
