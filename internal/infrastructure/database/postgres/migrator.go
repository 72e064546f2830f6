package postgres

import (
	"errors"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // postgres driver
	_ "github.com/golang-migrate/migrate/v4/source/file"       // file source driver

	apperrors "github.com/turtacn/LitFed/pkg/errors"
)

// RunMigrations applies all pending migrations.  Called on startup and from
// the CLI; a schema already at the latest version is not an error.
func RunMigrations(dbURL, migrationsPath string) error {
	m, err := migrate.New(migrationsPath, dbURL)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to create migrate instance")
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to run migrations")
	}
	return nil
}

// RollbackMigration reverts the schema by steps migrations.
func RollbackMigration(dbURL, migrationsPath string, steps int) error {
	if steps <= 0 {
		return apperrors.New(apperrors.ErrCodeBadRequest, "steps must be positive")
	}

	m, err := migrate.New(migrationsPath, dbURL)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to create migrate instance")
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to rollback migrations")
	}
	return nil
}

// MigrationVersion reports the current schema version and whether the last
// migration left the schema dirty.
func MigrationVersion(dbURL, migrationsPath string) (version uint, dirty bool, err error) {
	m, err := migrate.New(migrationsPath, dbURL)
	if err != nil {
		return 0, false, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to create migrate instance")
	}
	defer m.Close()

	version, dirty, err = m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to read migration version")
	}
	return version, dirty, nil
}
