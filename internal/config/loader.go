package config

import (
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/marina21-cs/weteweta.github.io/internal/support/exception"
	"github.com/marina21-cs/weteweta.github.io/internal/support/logger"
)

const moduleName = "config"

// LoadConfig loads configuration from the embedded YAML and environment
// variables. It is expected to be called only once during application
// startup.
//
// The load order is: code defaults, then the embedded YAML (with ${VAR}
// placeholders expanded from the environment), so YAML values override
// defaults and environment variables parameterize the YAML.
//
// Parameters:
//
//	envFilePath: The path to the .env file (may be empty).
//	embeddedConfig: The embedded configuration bytes.
//
// Returns:
//
//	A pointer to the loaded Config and an error if loading fails.
func LoadConfig(envFilePath string, embeddedConfig EmbeddedConfig) (*Config, error) {
	if envFilePath != "" {
		if err := godotenv.Load(envFilePath); err != nil {
			logger.Warnf(".env file (%s) not found or could not be loaded: %v", envFilePath, err)
		}
	} else {
		if err := godotenv.Load(); err != nil {
			logger.Debugf(".env file not found or could not be loaded: %v", err)
		}
	}

	cfg := NewConfig()

	expander := NewOsEnvironmentExpander()
	expanded, err := expander.Expand(embeddedConfig)
	if err != nil {
		return nil, exception.New(moduleName, "failed to expand environment variables in embedded config", err, false)
	}

	// Unmarshal over the defaults; keys absent from the YAML keep their
	// default values.
	if err := yaml.Unmarshal(expanded, cfg); err != nil {
		return nil, exception.New(moduleName, "failed to unmarshal embedded config", err, false)
	}

	return cfg, nil
}
