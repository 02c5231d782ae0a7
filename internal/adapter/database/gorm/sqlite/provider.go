// Package sqlite registers the SQLite dialector with the GORM adapter.
package sqlite

import (
	"errors"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	dbconfig "github.com/marina21-cs/weteweta.github.io/internal/adapter/database/config"
	gormadapter "github.com/marina21-cs/weteweta.github.io/internal/adapter/database/gorm"
)

// init registers the SQLite dialector factory. Importing this package for
// side effects makes "sqlite" connections available.
func init() {
	gormadapter.RegisterDialector("sqlite", func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		if cfg.Database == "" {
			return nil, errors.New("SQLite database path cannot be empty")
		}
		return sqlite.Open(ConnectionString(cfg)), nil
	})
}

// ConnectionString generates the DSN for SQLite connections. The GORM
// SQLite dialector expects the file path directly.
func ConnectionString(c dbconfig.DatabaseConfig) string {
	if c.Params != "" {
		return c.Database + "?" + c.Params
	}
	return c.Database
}
