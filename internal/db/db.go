// Package db opens the SQL connection shared by the stores and owns the table layout.
package db

import (
	"database/sql"
	"fmt"
	"sync/atomic"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	_ "github.com/jackc/pgx/v5/stdlib" // register pgx driver for PostgreSQL
	_ "modernc.org/sqlite"             // register pure-Go sqlite driver

	"cardvault-api/internal/config"
	"cardvault-api/internal/logx"
)

var dbLogger = logx.GetScope("db")

var baseDB atomic.Pointer[sql.DB]

// Open opens the configured database and wraps it in an ent SQL driver.
func Open(cfg *config.Config) (*entsql.Driver, func(), error) {
	driverName, dialectName, err := driverFor(cfg.DB.Driver)
	if err != nil {
		return nil, func() {}, err
	}
	sqldb, err := sql.Open(driverName, cfg.DB.URL)
	if err != nil {
		return nil, func() {}, err
	}
	sqldb.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	baseDB.Store(sqldb)

	drv := entsql.OpenDB(dialectName, sqldb)
	closer := func() {
		baseDB.CompareAndSwap(sqldb, nil)
		if err := drv.Close(); err != nil {
			dbLogger.Sugar().Errorf("close db: %v", err)
		}
	}
	return drv, closer, nil
}

func driverFor(name string) (string, string, error) {
	switch name {
	case "postgres", "pg":
		return "pgx", dialect.Postgres, nil
	case "sqlite", "sqlite3", "":
		return "sqlite", dialect.SQLite, nil
	default:
		return "", "", fmt.Errorf("db: unsupported driver %q", name)
	}
}

// UpdatePool updates DB pool settings at runtime.
func UpdatePool(maxOpen, maxIdle int) {
	sqldb := baseDB.Load()
	if sqldb == nil {
		return
	}
	if maxOpen > 0 {
		sqldb.SetMaxOpenConns(maxOpen)
	}
	if maxIdle >= 0 {
		sqldb.SetMaxIdleConns(maxIdle)
	}
}
