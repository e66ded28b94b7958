package database

import (
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/pkg/errors"
)

type MigrationLogger struct {
	ectologger.Logger
}

func (l MigrationLogger) Verbose() bool {
	return true
}

func (l MigrationLogger) Printf(format string, v ...any) {
	l.Infof(strings.TrimSuffix(format, "\n"), v...)
}

type MigrationService struct {
	config *MigrationConfig
	logger ectologger.Logger
}

type MigrationConfig struct {
	// Embedded holds one migration directory per driver, keyed "pg" and "sqlite".
	Embedded fs.FS
	// MigrationFolderPath overrides Embedded when it points at an existing directory.
	MigrationFolderPath string
	Version             uint
	Force               int
	AutoRollback        bool // roll back to the previous version when a migration leaves the database dirty
}

func NewMigrationService(logger ectologger.Logger, config *MigrationConfig) *MigrationService {
	return &MigrationService{
		config: config,
		logger: logger,
	}
}

func embeddedDir(driverName string) string {
	if driverName == DriverSQLite {
		return "sqlite"
	}
	return "pg"
}

// source resolves the migration files, preferring an on-disk folder.
func (ms *MigrationService) source(driverName string) (fs.FS, string, error) {
	if folder := ms.config.MigrationFolderPath; folder != "" {
		if info, err := os.Stat(folder); err == nil && info.IsDir() {
			return os.DirFS(folder), ".", nil
		}
		ms.logger.Warnf("Migration folder %s not found, falling back to embedded migrations", folder)
	}
	if ms.config.Embedded == nil {
		return nil, "", fmt.Errorf("no migrations available for driver %s", driverName)
	}
	return ms.config.Embedded, embeddedDir(driverName), nil
}

func (ms *MigrationService) Migrate(db DB) error {
	driverName := db.DriverName()

	var (
		instance migratedb.Driver
		err      error
	)
	switch driverName {
	case DriverSQLite:
		instance, err = sqlite3.WithInstance(db.SQL().DB, &sqlite3.Config{})
	default:
		instance, err = postgres.WithInstance(db.SQL().DB, &postgres.Config{})
	}
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("failed to create %s migration driver", driverName))
	}

	fsys, dir, err := ms.source(driverName)
	if err != nil {
		return err
	}

	src, err := iofs.New(fsys, dir)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("failed to open migrations in %s", dir))
	}

	m, err := migrate.NewWithInstance("iofs", src, driverName, instance)
	if err != nil {
		ms.logger.WithError(err).Error("Failed to create migrate instance")
		return err
	}

	m.Log = MigrationLogger{Logger: ms.logger}

	return ms.runMigration(m, fsys, dir)
}

func (ms *MigrationService) runMigration(m *migrate.Migrate, fsys fs.FS, dir string) error {
	if ms.config.Force != 0 {
		err := m.Force(ms.config.Force)
		if err != nil {
			ms.logger.WithError(err).Errorf("Failed to force database to version %d", ms.config.Force)
			return err
		}
	}

	version, _, versionErr := m.Version()
	if versionErr != nil && versionErr != migrate.ErrNilVersion {
		ms.logger.WithError(versionErr).Error("Failed to get current migration version")
	}

	startTime := time.Now()

	var migrationErr error
	if ms.config.Version != 0 {
		migrationErr = m.Migrate(ms.config.Version)
	} else {
		migrationErr = m.Up()
	}

	ms.logger.Infof("Database migrations completed in %v", time.Since(startTime))

	return ms.handleMigrationError(m, migrationErr, version, fsys, dir)
}

func (ms *MigrationService) handleMigrationError(m *migrate.Migrate, err error, previousVersion uint, fsys fs.FS, dir string) error {
	if err == nil {
		ms.logger.Info("Successfully applied migrations")
		return nil
	}

	if err == migrate.ErrNoChange {
		ms.logger.Info("No new migrations to apply")
		return nil
	}

	// usually a rollback to a build that does not know the current version
	if strings.Contains(err.Error(), "no migration found for version") {
		latest, err := getLatestVersion(fsys, dir)
		if err != nil {
			ms.logger.WithError(err).Error("Failed to get latest migration version")
			return err
		}
		ms.logger.Warnf("No migration found for version %d. Forcing database to latest known version %d", previousVersion, latest)
		return m.Force(latest)
	}

	ms.logger.WithError(err).Errorf("Migration failed with error: %v", err)

	version, dirty, versionErr := m.Version()
	if versionErr != nil && versionErr != migrate.ErrNilVersion {
		ms.logger.WithError(versionErr).Error("Failed to get current migration version")
		return err
	}

	if ms.config.AutoRollback && dirty {
		if previousVersion == 0 && version > 0 {
			previousVersion = version - 1
		}
		ms.logger.Warnf("Database is dirty at version %d. Reverting to version %d", version, previousVersion)
		if forceErr := m.Force(int(previousVersion)); forceErr != nil {
			ms.logger.WithError(forceErr).Errorf("Failed to force database to version %d", previousVersion)
			return forceErr
		}
	}

	// still fail so the process does not start against a half-migrated schema
	return err
}

var migrationFileRe = regexp.MustCompile(`^(\d+)_.*\.up\.sql$`)

func getLatestVersion(fsys fs.FS, dir string) (int, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return 0, err
	}

	var versions []int
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		matches := migrationFileRe.FindStringSubmatch(entry.Name())
		if len(matches) > 1 {
			version, err := strconv.Atoi(matches[1])
			if err != nil {
				return 0, err
			}
			versions = append(versions, version)
		}
	}

	if len(versions) == 0 {
		return 0, fmt.Errorf("no migration files found")
	}

	sort.Ints(versions)
	return versions[len(versions)-1], nil
}
