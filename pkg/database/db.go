package database

import (
	"context"
	"database/sql"

	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

// Querier is the query surface shared by *sqlx.DB, *sqlx.Conn and *sqlx.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// TxBeginner is satisfied by *sqlx.DB and *sqlx.Conn.
type TxBeginner interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// Conn is a querier that can also open transactions.
type Conn interface {
	Querier
	TxBeginner
}

type DB interface {
	Conn
	Connx(ctx context.Context) (*sqlx.Conn, error)
	PingContext(ctx context.Context) error
	DriverName() string
	Flavor() sqlbuilder.Flavor
	Stats() sql.DBStats
	Close() error
	SQL() *sqlx.DB
}

type DatabaseInstance struct {
	*sqlx.DB
	logger ectologger.Logger
}

func NewDatabaseInstance(db *sqlx.DB, logger ectologger.Logger) DB {
	return &DatabaseInstance{
		DB:     db,
		logger: logger,
	}
}

// Flavor picks the placeholder and upsert dialect from the driver name.
func (db *DatabaseInstance) Flavor() sqlbuilder.Flavor {
	return FlavorFor(db.DriverName())
}

func (db *DatabaseInstance) SQL() *sqlx.DB {
	return db.DB
}

func FlavorFor(driverName string) sqlbuilder.Flavor {
	if driverName == DriverSQLite {
		return sqlbuilder.SQLite
	}
	return sqlbuilder.PostgreSQL
}
