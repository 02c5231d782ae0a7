// Package metrics provides Prometheus instrumentation for pipeline runs.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/marina21-cs/weteweta.github.io/internal/pipeline"
	"github.com/marina21-cs/weteweta.github.io/internal/support/logger"
)

// Recorder records metrics for pipeline and step executions.
type Recorder interface {
	// RecordPipelineStart records the start of a PipelineExecution.
	RecordPipelineStart(ctx context.Context, execution *pipeline.PipelineExecution)
	// RecordPipelineEnd records the end of a PipelineExecution.
	RecordPipelineEnd(ctx context.Context, execution *pipeline.PipelineExecution)
	// RecordStepStart records the start of a StepExecution.
	RecordStepStart(ctx context.Context, execution *pipeline.StepExecution)
	// RecordStepEnd records the end of a StepExecution.
	RecordStepEnd(ctx context.Context, execution *pipeline.StepExecution)
}

// PrometheusRecorder is a Prometheus implementation of the Recorder interface.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	pipelineDurationSeconds *prometheus.HistogramVec
	pipelineStatusCounter   *prometheus.CounterVec

	stepDurationSeconds *prometheus.HistogramVec
	stepStatusCounter   *prometheus.CounterVec
	stepReadCount       *prometheus.CounterVec
	stepWriteCount      *prometheus.CounterVec
	stepSkipCount       *prometheus.CounterVec
}

// NewPrometheusRecorder creates a new PrometheusRecorder with its own
// registry, pre-registered with the Go and process collectors.
func NewPrometheusRecorder() *PrometheusRecorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &PrometheusRecorder{
		registry: registry,
		pipelineDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "forecast_pipeline_duration_seconds",
			Help:    "Duration of pipeline executions.",
			Buckets: prometheus.DefBuckets,
		}, []string{"pipeline_name", "status", "exit_status"}),
		pipelineStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forecast_pipeline_status_total",
			Help: "Total number of pipeline executions by status.",
		}, []string{"pipeline_name", "status"}),
		stepDurationSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "forecast_step_duration_seconds",
			Help:    "Duration of step executions.",
			Buckets: prometheus.DefBuckets,
		}, []string{"pipeline_name", "step_name", "status", "exit_status"}),
		stepStatusCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forecast_step_status_total",
			Help: "Total number of step executions by status.",
		}, []string{"pipeline_name", "step_name", "status"}),
		stepReadCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forecast_step_read_total",
			Help: "Total items read by step.",
		}, []string{"pipeline_name", "step_name"}),
		stepWriteCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forecast_step_write_total",
			Help: "Total items written by step.",
		}, []string{"pipeline_name", "step_name"}),
		stepSkipCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "forecast_step_skip_total",
			Help: "Total items skipped by step.",
		}, []string{"pipeline_name", "step_name"}),
	}

	registry.MustRegister(r.pipelineDurationSeconds)
	registry.MustRegister(r.pipelineStatusCounter)
	registry.MustRegister(r.stepDurationSeconds)
	registry.MustRegister(r.stepStatusCounter)
	registry.MustRegister(r.stepReadCount)
	registry.MustRegister(r.stepWriteCount)
	registry.MustRegister(r.stepSkipCount)

	return r
}

// GetRegistry returns the Prometheus registry.
func (r *PrometheusRecorder) GetRegistry() *prometheus.Registry {
	return r.registry
}

// RecordPipelineStart records the start of a PipelineExecution.
func (r *PrometheusRecorder) RecordPipelineStart(ctx context.Context, execution *pipeline.PipelineExecution) {
	r.pipelineStatusCounter.WithLabelValues(execution.PipelineName, execution.Status.String()).Inc()
	logger.Debugf("Metrics: Pipeline '%s' started.", execution.PipelineName)
}

// RecordPipelineEnd records the end of a PipelineExecution.
func (r *PrometheusRecorder) RecordPipelineEnd(ctx context.Context, execution *pipeline.PipelineExecution) {
	r.pipelineStatusCounter.WithLabelValues(execution.PipelineName, execution.Status.String()).Inc()
	r.pipelineDurationSeconds.WithLabelValues(
		execution.PipelineName, execution.Status.String(), execution.ExitStatus.String(),
	).Observe(execution.Duration().Seconds())
}

// RecordStepStart records the start of a StepExecution.
func (r *PrometheusRecorder) RecordStepStart(ctx context.Context, execution *pipeline.StepExecution) {
	r.stepStatusCounter.WithLabelValues(
		execution.PipelineExecution.PipelineName, execution.StepName, execution.Status.String(),
	).Inc()
}

// RecordStepEnd records the end of a StepExecution, including its item counts.
func (r *PrometheusRecorder) RecordStepEnd(ctx context.Context, execution *pipeline.StepExecution) {
	pipelineName := execution.PipelineExecution.PipelineName
	r.stepStatusCounter.WithLabelValues(pipelineName, execution.StepName, execution.Status.String()).Inc()
	r.stepDurationSeconds.WithLabelValues(
		pipelineName, execution.StepName, execution.Status.String(), execution.ExitStatus.String(),
	).Observe(execution.Duration().Seconds())
	if execution.ReadCount > 0 {
		r.stepReadCount.WithLabelValues(pipelineName, execution.StepName).Add(float64(execution.ReadCount))
	}
	if execution.WriteCount > 0 {
		r.stepWriteCount.WithLabelValues(pipelineName, execution.StepName).Add(float64(execution.WriteCount))
	}
	if execution.SkipCount > 0 {
		r.stepSkipCount.WithLabelValues(pipelineName, execution.StepName).Add(float64(execution.SkipCount))
	}
}

var _ Recorder = (*PrometheusRecorder)(nil)
