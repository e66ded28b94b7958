package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/require"

	migrations "github.com/sujan-004/etl-pipeline-project/db"
	"github.com/sujan-004/etl-pipeline-project/pkg/database"
)

func NewLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

// NewSQLiteDB opens a file-backed SQLite database in a temp dir with the full
// warehouse schema migrated, dim_date included.
func NewSQLiteDB(t *testing.T) database.DB {
	t.Helper()

	logger := NewLogger()
	db, err := database.Connect(context.Background(), database.ConnectConfig{
		Driver: database.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "fern.db"),
	}, logger)
	require.NoError(t, err, "failed to open sqlite database")
	t.Cleanup(func() { _ = db.Close() })

	ms := database.NewMigrationService(logger, &database.MigrationConfig{Embedded: migrations.Migrations})
	require.NoError(t, ms.Migrate(db), "failed to migrate sqlite database")

	return db
}

func Ptr[T any](v T) *T {
	return &v
}

// Count returns the number of rows in table.
func Count(t *testing.T, db database.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.GetContext(context.Background(), &n, "SELECT COUNT(*) FROM "+table))
	return n
}
