// Package app boots the forecast pipeline: configuration, dependency
// wiring via fx, one pipeline run, then shutdown.
package app

import (
	"context"
	"io/fs"

	"go.uber.org/fx"

	"github.com/marina21-cs/weteweta.github.io/internal/config"
	"github.com/marina21-cs/weteweta.github.io/internal/pipeline"
	"github.com/marina21-cs/weteweta.github.io/internal/support/logger"
)

// runResult carries the pipeline outcome out of the fx lifecycle.
type runResult struct {
	execution *pipeline.PipelineExecution
	err       error
}

// RunApplication loads the configuration, assembles the pipeline and runs it
// once. It returns a non-nil error when the run failed; skippable step
// failures on a completed run are logged but do not fail the process.
func RunApplication(envFilePath string, embeddedConfig config.EmbeddedConfig, migrations fs.FS) error {
	cfg, err := config.LoadConfig(envFilePath, embeddedConfig)
	if err != nil {
		return err
	}
	logger.SetLogLevel(cfg.Weteweta.System.Logging.Level)

	result := &runResult{}
	app := fx.New(
		fx.Supply(cfg, result),
		fx.Provide(func() fs.FS { return migrations }),
		Module,
		fx.Invoke(registerPipelineRun),
		fx.NopLogger,
	)

	// Run blocks until the pipeline goroutine requests shutdown (or a
	// signal arrives) and then unwinds the lifecycle hooks.
	app.Run()

	if err := app.Err(); err != nil {
		return err
	}
	return result.err
}

// registerPipelineRun starts the single pipeline run once the fx lifecycle
// is up and shuts the application down when it finishes.
func registerPipelineRun(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	runner *pipeline.Runner,
	result *runResult,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				execution, runErr := runner.Run(context.Background())
				result.execution = execution

				logger.Infof("Pipeline '%s' finished: status=%s exit=%s duration=%s steps=%d",
					execution.PipelineName, execution.Status, execution.ExitStatus,
					execution.Duration(), len(execution.StepExecutions))

				if runErr != nil {
					if execution.Status == pipeline.StatusCompleted {
						// Only skippable steps failed; the run still counts.
						logger.Warnf("Pipeline completed with skipped failures: %v", runErr)
					} else {
						result.err = runErr
					}
				}

				if err := shutdowner.Shutdown(); err != nil {
					logger.Errorf("Failed to request shutdown: %v", err)
				}
			}()
			return nil
		},
	})
}
