package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
	"github.com/rs/zerolog"

	"shareit/internal/config"
)

// DB is the relational store behind every repository interface of the server.
type DB struct {
	*sqlx.DB
	driver string
	path   string
	logger *zerolog.Logger
}

// Open connects to the configured driver and makes sure the schema exists.
func Open(cfg config.DatabaseConfig, logger *zerolog.Logger) (*DB, error) {
	if cfg.Driver == config.DriverPostgres {
		return NewPostgres(cfg.Postgres, logger)
	}
	return NewDB(cfg.Path, logger)
}

// NewDB opens an SQLite database at path. ":memory:" is accepted for tests.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sqlx.Open(config.DriverSQLite, path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases intact and serializes writers.
	conn.SetMaxOpenConns(1)

	return initDB(conn, config.DriverSQLite, path, logger)
}

// NewPostgres opens a PostgreSQL database through lib/pq.
func NewPostgres(cfg config.PostgresConfig, logger *zerolog.Logger) (*DB, error) {
	conn, err := sqlx.Open(config.DriverPostgres, cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if cfg.MaxConnections > 0 {
		conn.SetMaxOpenConns(cfg.MaxConnections)
	}

	return initDB(conn, config.DriverPostgres, "", logger)
}

func initDB(conn *sqlx.DB, driver, path string, logger *zerolog.Logger) (*DB, error) {
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := &DB{DB: conn, driver: driver, path: path, logger: logger}
	if err := db.createTables(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.Info().Str("driver", driver).Str("path", path).Msg("Database initialized")
	return db, nil
}

// Driver returns the name of the underlying SQL driver.
func (db *DB) Driver() string {
	return db.driver
}

// Path returns the SQLite file path, empty for PostgreSQL.
func (db *DB) Path() string {
	return db.path
}

func (db *DB) createTables(ctx context.Context) error {
	types := strings.NewReplacer(
		"{pk}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{ts}", "DATETIME",
		"{ref}", "INTEGER",
	)
	if db.driver == config.DriverPostgres {
		types = strings.NewReplacer(
			"{pk}", "BIGSERIAL PRIMARY KEY",
			"{ts}", "TIMESTAMP",
			"{ref}", "BIGINT",
		)
	}

	for _, query := range schema {
		if _, err := db.ExecContext(ctx, types.Replace(query)); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id {pk},
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE
	)`,
	`CREATE TABLE IF NOT EXISTS requests (
		id {pk},
		description TEXT NOT NULL,
		requestor_id {ref} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created {ts} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS items (
		id {pk},
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		available BOOLEAN NOT NULL,
		owner_id {ref} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		request_id {ref} REFERENCES requests(id) ON DELETE SET NULL
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id {pk},
		start_date {ts} NOT NULL,
		end_date {ts} NOT NULL,
		status TEXT NOT NULL,
		booker_id {ref} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		item_id {ref} NOT NULL REFERENCES items(id) ON DELETE CASCADE,
		created_at {ts} NOT NULL,
		updated_at {ts} NOT NULL,
		version {ref} NOT NULL DEFAULT 1,
		CHECK (end_date > start_date)
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id {pk},
		text TEXT NOT NULL,
		item_id {ref} NOT NULL REFERENCES items(id) ON DELETE CASCADE,
		author_id {ref} NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created {ts} NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sync_queue (
		id {pk},
		task_type TEXT NOT NULL,
		booking_id {ref} NOT NULL,
		payload TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		retry_count INTEGER NOT NULL DEFAULT 0,
		last_error TEXT,
		created_at {ts} NOT NULL,
		processed_at {ts},
		next_retry_at {ts}
	)`,
	`CREATE INDEX IF NOT EXISTS idx_items_owner ON items(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_items_request ON items(request_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_booker ON bookings(booker_id, start_date)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_item ON bookings(item_id, start_date)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_item ON comments(item_id)`,
	`CREATE INDEX IF NOT EXISTS idx_requests_requestor ON requests(requestor_id)`,
	`CREATE INDEX IF NOT EXISTS idx_sync_queue_status ON sync_queue(status, next_retry_at)`,
}
