package config

// Package config provides structures and utilities for managing the forecast
// pipeline configuration.

// EmbeddedConfig holds the content of the configuration file, typically
// passed from main.go via go:embed.
type EmbeddedConfig []byte

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the logging level (e.g., "INFO", "DEBUG").
	Level string `yaml:"level"`
}

// SystemConfig holds system-wide settings.
type SystemConfig struct {
	// Timezone is the application timezone (e.g., "UTC", "Asia/Manila").
	Timezone string `yaml:"timezone"`
	// Logging is the logging configuration.
	Logging LoggingConfig `yaml:"logging"`
}

// PipelineConfig holds settings for the pipeline run itself.
type PipelineConfig struct {
	// Name is the pipeline name recorded on executions and metrics.
	Name string `yaml:"name"`
	// ChunkSize is the number of daily records written per database batch.
	ChunkSize int `yaml:"chunk_size"`
}

// IngestConfig holds settings for the observation ingest step.
type IngestConfig struct {
	// CSVPath is the path to the combined hourly observation CSV.
	CSVPath string `yaml:"csv_path"`
}

// ModelConfig holds hyperparameters for the day-ahead LSTM regressor.
type ModelConfig struct {
	// WindowLength is the number of past days fed to the model.
	WindowLength int `yaml:"window_length"`
	// HiddenSize is the number of units per LSTM layer.
	HiddenSize int `yaml:"hidden_size"`
	// Epochs is the maximum number of training epochs.
	Epochs int `yaml:"epochs"`
	// BatchSize is the mini-batch size used during training.
	BatchSize int `yaml:"batch_size"`
	// LearningRate is the Adam learning rate.
	LearningRate float64 `yaml:"learning_rate"`
	// DropoutRate is the dropout probability applied between layers.
	DropoutRate float64 `yaml:"dropout_rate"`
	// Patience is the early-stopping patience in epochs.
	Patience int `yaml:"patience"`
	// TrainSplit is the fraction of windows used for training (rest validates).
	TrainSplit float64 `yaml:"train_split"`
	// Seed is the RNG seed for weight initialization and dropout.
	Seed int64 `yaml:"seed"`
}

// ForecastConfig holds settings for the autoregressive forecast step.
type ForecastConfig struct {
	// StartDate is the first forecast date (YYYY-MM-DD).
	StartDate string `yaml:"start_date"`
	// Days is the forecast horizon in days.
	Days int `yaml:"days"`
}

// ExportConfig holds settings for the forecast export step.
type ExportConfig struct {
	// StorageRef is the name of the storage connection used for artifacts.
	StorageRef string `yaml:"storage_ref"`
	// OutputBaseDir is the base directory (or object prefix) for exports.
	OutputBaseDir string `yaml:"output_base_dir"`
	// Compression is the parquet compression type ("SNAPPY", "GZIP", "NONE").
	Compression string `yaml:"compression"`
}

// RenderConfig holds settings for the map rendering step.
type RenderConfig struct {
	// StorageRef is the name of the storage connection used for images.
	StorageRef string `yaml:"storage_ref"`
	// OutputBaseDir is the base directory (or object prefix) for images.
	OutputBaseDir string `yaml:"output_base_dir"`
	// DailyMaps is the number of per-date temperature maps to render.
	DailyMaps int `yaml:"daily_maps"`
	// GridSize is the interpolation grid resolution per axis.
	GridSize int `yaml:"grid_size"`
}

// ReportConfig holds settings for the interactive report step.
type ReportConfig struct {
	// Interactive enables the stdin city prompt. When false the step uses
	// City (if set) or is skipped.
	Interactive bool `yaml:"interactive"`
	// City pre-selects the report city for non-interactive runs.
	City string `yaml:"city"`
	// StorageRef is the name of the storage connection used for reports.
	StorageRef string `yaml:"storage_ref"`
	// OutputBaseDir is the base directory (or object prefix) for reports.
	OutputBaseDir string `yaml:"output_base_dir"`
}

// TracingConfig holds OpenTelemetry exporter settings.
type TracingConfig struct {
	// Endpoint is the OTLP/HTTP collector endpoint (host:port). Empty
	// disables span export; spans become no-ops.
	Endpoint string `yaml:"endpoint"`
	// Insecure disables TLS for the OTLP exporter.
	Insecure bool `yaml:"insecure"`
}

// WetewetaConfig holds all configuration under the "weteweta" top-level key.
type WetewetaConfig struct {
	System   SystemConfig   `yaml:"system"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Model    ModelConfig    `yaml:"model"`
	Forecast ForecastConfig `yaml:"forecast"`
	Export   ExportConfig   `yaml:"export"`
	Render   RenderConfig   `yaml:"render"`
	Report   ReportConfig   `yaml:"report"`
	Tracing  TracingConfig  `yaml:"tracing"`
	// DatabaseConfigs holds configurations for named database connections.
	DatabaseConfigs map[string]interface{} `yaml:"database"`
	// StorageConfigs holds configurations for named storage connections.
	StorageConfigs map[string]interface{} `yaml:"storage"`
}

// Config is the root structure for the entire application configuration.
type Config struct {
	Weteweta WetewetaConfig `yaml:"weteweta"`
}

// NewConfig returns a new Config instance populated with default values.
// YAML and environment values are merged on top of these defaults.
func NewConfig() *Config {
	return &Config{
		Weteweta: WetewetaConfig{
			System: SystemConfig{
				Timezone: "UTC",
				Logging:  LoggingConfig{Level: "INFO"},
			},
			Pipeline: PipelineConfig{
				Name:      "city-forecast",
				ChunkSize: 500,
			},
			Ingest: IngestConfig{
				CSVPath: "202503_CombinedData.csv",
			},
			Model: ModelConfig{
				WindowLength: 5,
				HiddenSize:   50,
				Epochs:       50,
				BatchSize:    32,
				LearningRate: 0.001,
				DropoutRate:  0.2,
				Patience:     5,
				TrainSplit:   0.8,
				Seed:         1,
			},
			Forecast: ForecastConfig{
				StartDate: "2025-04-01",
				Days:      30,
			},
			Export: ExportConfig{
				StorageRef:    "artifacts",
				OutputBaseDir: "forecast",
				Compression:   "SNAPPY",
			},
			Render: RenderConfig{
				StorageRef:    "artifacts",
				OutputBaseDir: "maps",
				DailyMaps:     5,
				GridSize:      60,
			},
			Report: ReportConfig{
				Interactive:   true,
				StorageRef:    "artifacts",
				OutputBaseDir: "reports",
			},
			DatabaseConfigs: map[string]interface{}{},
			StorageConfigs:  map[string]interface{}{},
		},
	}
}
