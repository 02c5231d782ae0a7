package tasklet

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepostgres "github.com/golang-migrate/migrate/v4/database/postgres"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	dbgorm "github.com/marina21-cs/weteweta.github.io/internal/adapter/database/gorm"
	"github.com/marina21-cs/weteweta.github.io/internal/pipeline"
	"github.com/marina21-cs/weteweta.github.io/internal/support/exception"
	"github.com/marina21-cs/weteweta.github.io/internal/support/logger"
)

const StepMigrateSchema = "migrate-schema"

const ModuleMigration = "MigrationTasklet"

// MigrationTasklet applies the embedded SQL migrations for the connection's
// dialect. Migrations live under migrations/<dialect>/ in the embedded FS.
// A schema that is already up to date is not an error.
type MigrationTasklet struct {
	conn       *dbgorm.Connection
	migrations fs.FS
}

// NewMigrationTasklet creates a MigrationTasklet over the embedded
// migration files.
func NewMigrationTasklet(conn *dbgorm.Connection, migrations fs.FS) *MigrationTasklet {
	return &MigrationTasklet{conn: conn, migrations: migrations}
}

func (t *MigrationTasklet) Name() string {
	return StepMigrateSchema
}

func (t *MigrationTasklet) Execute(ctx context.Context, stepExecution *pipeline.StepExecution) (pipeline.ExitStatus, error) {
	sqlDB, err := t.conn.SQLDB()
	if err != nil {
		return pipeline.ExitStatusFailed, exception.New(ModuleMigration, "failed to obtain SQL connection", err, false)
	}

	driver, err := migrationDriver(t.conn.Type(), sqlDB)
	if err != nil {
		return pipeline.ExitStatusFailed, err
	}

	source, err := iofs.New(t.migrations, path.Join("migrations", t.conn.Type()))
	if err != nil {
		return pipeline.ExitStatusFailed, exception.New(ModuleMigration,
			fmt.Sprintf("failed to open embedded migrations for dialect '%s'", t.conn.Type()), err, false)
	}

	m, err := migrate.NewWithInstance("iofs", source, t.conn.Name(), driver)
	if err != nil {
		return pipeline.ExitStatusFailed, exception.New(ModuleMigration, "failed to initialize migrator", err, false)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Infof("Schema already up to date.")
			return pipeline.ExitStatusCompleted, nil
		}
		return pipeline.ExitStatusFailed, exception.New(ModuleMigration, "failed to apply migrations", err, false)
	}

	version, dirty, _ := m.Version()
	logger.Infof("Schema migrated to version %d (dirty=%t).", version, dirty)
	return pipeline.ExitStatusCompleted, nil
}

func (t *MigrationTasklet) Close(ctx context.Context) error {
	return nil
}

// migrationDriver builds the golang-migrate database driver matching the
// gorm dialect name.
func migrationDriver(dialect string, sqlDB *sql.DB) (database.Driver, error) {
	var (
		driver database.Driver
		err    error
	)
	switch dialect {
	case "sqlite":
		driver, err = migratesqlite.WithInstance(sqlDB, &migratesqlite.Config{})
	case "mysql":
		driver, err = migratemysql.WithInstance(sqlDB, &migratemysql.Config{})
	case "postgres":
		driver, err = migratepostgres.WithInstance(sqlDB, &migratepostgres.Config{})
	default:
		return nil, exception.Newf(ModuleMigration, "no migration driver for dialect '%s'", dialect)
	}
	if err != nil {
		return nil, exception.New(ModuleMigration,
			fmt.Sprintf("failed to create migration driver for dialect '%s'", dialect), err, false)
	}
	return driver, nil
}

var _ pipeline.Tasklet = (*MigrationTasklet)(nil)
