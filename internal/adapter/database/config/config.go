// Package config defines the configuration for named database connections.
package config

// DatabaseConfig holds the connection settings for a single database.
type DatabaseConfig struct {
	// Type is the database type ("sqlite", "mysql", "postgres").
	Type string `yaml:"type"`
	// Host is the database host (unused for sqlite).
	Host string `yaml:"host"`
	// Port is the database port (unused for sqlite).
	Port int `yaml:"port"`
	// Database is the database name, or the file path for sqlite.
	Database string `yaml:"database"`
	// User is the database user.
	User string `yaml:"user"`
	// Password is the database password.
	Password string `yaml:"password"`
	// SSLMode is the postgres sslmode (defaults to "disable").
	SSLMode string `yaml:"sslmode"`
	// Params holds extra DSN parameters appended verbatim.
	Params string `yaml:"params"`
}
