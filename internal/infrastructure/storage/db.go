package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	// DriverMemory keeps state in process; nothing survives a restart.
	DriverMemory = "memory"
)

// OpenDB connects to Postgres or SQLite and verifies the connection.
func OpenDB(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	if driver == DriverSQLite {
		// SQLite serialises writers anyway; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// PlaceholderFor picks the bind variable style of a driver.
func PlaceholderFor(driver string) sq.PlaceholderFormat {
	if driver == DriverPostgres {
		return sq.Dollar
	}
	return sq.Question
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS contracts (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		contract_no TEXT NOT NULL DEFAULT '',
		client TEXT NOT NULL DEFAULT '',
		product_name TEXT NOT NULL DEFAULT '',
		total_quantity INTEGER NOT NULL DEFAULT 0,
		scheduled_quantity INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		signing_date TEXT,
		start_date TEXT,
		production_start_date TEXT,
		production_end_date TEXT,
		due_date TEXT,
		shipping_date TEXT,
		last_updated TEXT,
		deposit_status TEXT NOT NULL DEFAULT '',
		pre_prod_payment_status TEXT NOT NULL DEFAULT '',
		material_status TEXT NOT NULL DEFAULT '',
		value TEXT NOT NULL DEFAULT '0'
	)`,
	`CREATE TABLE IF NOT EXISTS machines (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		room TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS schedule_entries (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		contract_id TEXT NOT NULL,
		machine_id TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		total_scheduled INTEGER NOT NULL,
		notes TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS schedule_days (
		schedule_id TEXT NOT NULL,
		position INTEGER NOT NULL,
		day TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		PRIMARY KEY (schedule_id, position)
	)`,
}

// EnsureSchema creates the tables used by SQLRepository.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
