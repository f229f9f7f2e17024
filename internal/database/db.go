// Package database provides database connection and initialization functionality.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
	path string
}

// New creates a new database connection.
// WAL mode is enabled for concurrent readers; busy_timeout keeps short
// writer contention from surfacing as SQLITE_BUSY errors. Transactions
// begin IMMEDIATE so writers queue on the write lock upfront instead of
// upgrading a read snapshot mid-transaction, which busy_timeout cannot
// retry.
func New(dbPath string) (*DB, error) {
	// file: URIs (in-memory test databases) skip filepath operations
	if !strings.HasPrefix(dbPath, "file:") {
		absPath, err := filepath.Abs(dbPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path: %w", err)
		}
		dir := filepath.Dir(absPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dbPath = absPath
	}

	connStr := dbPath + "?_txlock=immediate&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	conn, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{
		conn: conn,
		path: dbPath,
	}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// BeginTx starts a new transaction
func (db *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	return db.conn.BeginTx(ctx, nil)
}

// Migrate creates the ledger schema if it does not exist.
// The CHECK constraints mirror the ledger invariants: cash never
// negative, no zero-quantity position rows, transaction rows always
// positive quantity and price.
func (db *DB) Migrate() error {
	return Migrate(db.conn)
}

// Migrate applies the schema to the given connection.
// Exposed separately so tests can apply the same schema to in-memory
// databases.
func Migrate(conn *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS portfolios (
			id              TEXT PRIMARY KEY,
			user_id         TEXT NOT NULL UNIQUE,
			name            TEXT NOT NULL,
			initial_balance REAL NOT NULL CHECK (initial_balance >= 0),
			cash_balance    REAL NOT NULL CHECK (cash_balance >= 0),
			halted_at       TEXT,
			created_at      TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS positions (
			portfolio_id TEXT NOT NULL REFERENCES portfolios(id),
			ticker       TEXT NOT NULL,
			quantity     INTEGER NOT NULL CHECK (quantity > 0),
			avg_price    REAL NOT NULL CHECK (avg_price > 0),
			created_at   TEXT NOT NULL,
			updated_at   TEXT NOT NULL,
			PRIMARY KEY (portfolio_id, ticker)
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id           TEXT PRIMARY KEY,
			portfolio_id TEXT NOT NULL REFERENCES portfolios(id),
			ticker       TEXT NOT NULL,
			side         TEXT NOT NULL CHECK (side IN ('BUY', 'SELL')),
			quantity     INTEGER NOT NULL CHECK (quantity > 0),
			price        REAL NOT NULL CHECK (price > 0),
			executed_at  TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_portfolio
			ON transactions(portfolio_id, executed_at)`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			portfolio_id    TEXT NOT NULL REFERENCES portfolios(id),
			date            TEXT NOT NULL,
			total_value     REAL NOT NULL,
			cash_balance    REAL NOT NULL,
			positions_value REAL NOT NULL,
			partial         INTEGER NOT NULL DEFAULT 0,
			captured_at     TEXT NOT NULL,
			PRIMARY KEY (portfolio_id, date)
		)`,
	}

	for _, stmt := range schema {
		if _, err := conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}

	return nil
}
