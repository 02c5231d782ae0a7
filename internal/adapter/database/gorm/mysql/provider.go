// Package mysql registers the MySQL dialector with the GORM adapter.
package mysql

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	dbconfig "github.com/marina21-cs/weteweta.github.io/internal/adapter/database/config"
	gormadapter "github.com/marina21-cs/weteweta.github.io/internal/adapter/database/gorm"
)

// init registers the MySQL dialector factory. Importing this package for
// side effects makes "mysql" connections available.
func init() {
	gormadapter.RegisterDialector("mysql", func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error) {
		return mysql.Open(ConnectionString(cfg)), nil
	})
}

// ConnectionString generates the DSN for MySQL connections.
func ConnectionString(c dbconfig.DatabaseConfig) string {
	port := c.Port
	if port == 0 {
		port = 3306
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User, c.Password, c.Host, port, c.Database)
	if c.Params != "" {
		dsn += "&" + c.Params
	}
	return dsn
}
