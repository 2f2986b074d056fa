// Package journal persists ledger days in SQLite.
package journal

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS days (
	date       TEXT PRIMARY KEY,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS entries (
	id         TEXT PRIMARY KEY,
	date       TEXT NOT NULL REFERENCES days(date) ON DELETE CASCADE,
	slot       TEXT NOT NULL,
	position   INTEGER NOT NULL,
	food       TEXT NOT NULL,
	grams      REAL NOT NULL,
	calories   REAL NOT NULL DEFAULT 0,
	protein    REAL NOT NULL DEFAULT 0,
	carbs      REAL NOT NULL DEFAULT 0,
	fat        REAL NOT NULL DEFAULT 0,
	fiber      REAL NOT NULL DEFAULT 0,
	sugar      REAL NOT NULL DEFAULT 0,
	sodium     REAL NOT NULL DEFAULT 0,
	origin     TEXT NOT NULL DEFAULT '',
	logged_at  DATETIME NOT NULL,
	UNIQUE(date, slot, position)
);

CREATE INDEX IF NOT EXISTS idx_entries_date ON entries(date);
`

// DB wraps a sql.DB with ledger persistence operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("journal: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// PingContext checks that the database is reachable.
func (db *DB) PingContext(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}
