package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_DefaultsWhenYAMLEmpty(t *testing.T) {
	cfg, err := LoadConfig("", EmbeddedConfig(""))
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Weteweta.System.Logging.Level)
	assert.Equal(t, 5, cfg.Weteweta.Model.WindowLength)
	assert.Equal(t, 30, cfg.Weteweta.Forecast.Days)
	assert.Equal(t, "2025-04-01", cfg.Weteweta.Forecast.StartDate)
	assert.Equal(t, "SNAPPY", cfg.Weteweta.Export.Compression)
}

func TestLoadConfig_YAMLOverridesDefaults(t *testing.T) {
	yamlBytes := []byte(`
weteweta:
  system:
    logging:
      level: DEBUG
  model:
    window_length: 7
  forecast:
    days: 14
`)
	cfg, err := LoadConfig("", EmbeddedConfig(yamlBytes))
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Weteweta.System.Logging.Level)
	assert.Equal(t, 7, cfg.Weteweta.Model.WindowLength)
	assert.Equal(t, 14, cfg.Weteweta.Forecast.Days)
	// Untouched keys keep defaults.
	assert.Equal(t, 50, cfg.Weteweta.Model.HiddenSize)
}

func TestLoadConfig_ExpandsEnvironment(t *testing.T) {
	t.Setenv("WETEWETA_CSV_PATH", "/data/march.csv")

	yamlBytes := []byte(`
weteweta:
  ingest:
    csv_path: ${WETEWETA_CSV_PATH}
`)
	cfg, err := LoadConfig("", EmbeddedConfig(yamlBytes))
	require.NoError(t, err)

	assert.Equal(t, "/data/march.csv", cfg.Weteweta.Ingest.CSVPath)
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	_, err := LoadConfig("", EmbeddedConfig("weteweta: [unbalanced"))
	assert.Error(t, err)
}

func TestBindProperties(t *testing.T) {
	type dbConfig struct {
		Type     string `yaml:"type"`
		Database string `yaml:"database"`
		Port     int    `yaml:"port"`
	}

	var target dbConfig
	err := BindProperties(map[string]interface{}{
		"type":     "sqlite",
		"database": "weteweta.db",
		"port":     "5432", // weakly typed string -> int
	}, &target)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", target.Type)
	assert.Equal(t, "weteweta.db", target.Database)
	assert.Equal(t, 5432, target.Port)
}
