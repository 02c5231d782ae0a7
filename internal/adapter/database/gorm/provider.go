// Package gorm provides GORM-backed database connections for the pipeline.
// Driver-specific dialectors are registered by the sqlite, mysql and
// postgres subpackages via blank imports in main.
package gorm

import (
	"database/sql"
	"fmt"
	"sync"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	appconfig "github.com/marina21-cs/weteweta.github.io/internal/config"
	dbconfig "github.com/marina21-cs/weteweta.github.io/internal/adapter/database/config"
	"github.com/marina21-cs/weteweta.github.io/internal/support/exception"
	"github.com/marina21-cs/weteweta.github.io/internal/support/logger"
)

const moduleName = "database"

// DialectorFactory generates a gorm.Dialector from a DatabaseConfig.
type DialectorFactory func(cfg dbconfig.DatabaseConfig) (gorm.Dialector, error)

var (
	dialectorRegistry = make(map[string]DialectorFactory)
	dialectorMutex    sync.RWMutex
)

// RegisterDialector registers a DialectorFactory for the given database type.
func RegisterDialector(dbType string, factory DialectorFactory) {
	dialectorMutex.Lock()
	defer dialectorMutex.Unlock()
	if _, exists := dialectorRegistry[dbType]; exists {
		logger.Warnf("Dialector for type '%s' already registered. Overwriting.", dbType)
	}
	dialectorRegistry[dbType] = factory
}

// GetDialectorFactory retrieves the DialectorFactory for the given DB type.
func GetDialectorFactory(dbType string) (DialectorFactory, error) {
	dialectorMutex.RLock()
	defer dialectorMutex.RUnlock()
	factory, ok := dialectorRegistry[dbType]
	if !ok {
		return nil, fmt.Errorf("no dialector registered for database type: %s", dbType)
	}
	return factory, nil
}

// Connection wraps a GORM handle for one named database connection.
type Connection struct {
	db   *gorm.DB
	name string
	cfg  dbconfig.DatabaseConfig
}

// DB returns the underlying *gorm.DB handle.
func (c *Connection) DB() *gorm.DB {
	return c.db
}

// Name returns the connection name (e.g., "workload").
func (c *Connection) Name() string {
	return c.name
}

// Type returns the database type (e.g., "sqlite").
func (c *Connection) Type() string {
	return c.cfg.Type
}

// SQLDB returns the underlying *sql.DB, as required by the migration tool.
func (c *Connection) SQLDB() (*sql.DB, error) {
	return c.db.DB()
}

// Close closes the database connection.
func (c *Connection) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Provider opens and caches named database connections declared under the
// "database" configuration key.
type Provider struct {
	cfg *appconfig.Config

	mu          sync.Mutex
	connections map[string]*Connection
}

// NewProvider creates a new Provider over the application configuration.
func NewProvider(cfg *appconfig.Config) *Provider {
	return &Provider{
		cfg:         cfg,
		connections: make(map[string]*Connection),
	}
}

// GetConnection retrieves an existing connection or establishes a new one.
func (p *Provider) GetConnection(name string) (*Connection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if conn, ok := p.connections[name]; ok {
		return conn, nil
	}

	rawConfig, ok := p.cfg.Weteweta.DatabaseConfigs[name]
	if !ok {
		return nil, exception.Newf(moduleName, "database configuration '%s' not found", name)
	}
	rawMap, ok := rawConfig.(map[string]interface{})
	if !ok {
		return nil, exception.Newf(moduleName, "database configuration '%s' is not a map", name)
	}

	var dbCfg dbconfig.DatabaseConfig
	if err := appconfig.BindProperties(rawMap, &dbCfg); err != nil {
		return nil, exception.New(moduleName, fmt.Sprintf("failed to decode database config for '%s'", name), err, false)
	}

	factory, err := GetDialectorFactory(dbCfg.Type)
	if err != nil {
		return nil, exception.New(moduleName, "failed to resolve database dialector", err, false)
	}
	dialector, err := factory(dbCfg)
	if err != nil {
		return nil, exception.New(moduleName, fmt.Sprintf("failed to create dialector for '%s'", dbCfg.Type), err, false)
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, exception.New(moduleName, fmt.Sprintf("failed to open database connection '%s'", name), err, false)
	}

	conn := &Connection{db: gormDB, name: name, cfg: dbCfg}
	p.connections[name] = conn
	logger.Infof("Established new DB connection: %s (%s)", name, dbCfg.Type)

	return conn, nil
}

// CloseAll closes every connection opened by this provider.
func (p *Provider) CloseAll() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for name, conn := range p.connections {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close connection '%s': %w", name, err)
		}
		delete(p.connections, name)
	}
	return firstErr
}
