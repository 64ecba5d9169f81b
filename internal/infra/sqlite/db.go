// Package sqlite persists customers, fees, stage history, and enquiries.
// It implements every store interface in the domain package on a single
// SQLite database, using the pure-Go modernc driver.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection and owns schema migration.
type DB struct {
	db   *sql.DB
	path string
}

// Open creates or opens the database file inside dir and applies migrations.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	path := filepath.Join(dir, "mortd.db")

	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// Single writer; the busy timeout covers CLI commands racing the daemon.
	sqlDB.SetMaxOpenConns(1)

	for _, pragma := range []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA foreign_keys = ON`,
		`PRAGMA busy_timeout = 5000`,
	} {
		if _, err := sqlDB.Exec(pragma); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("pragma: %w", err)
		}
	}

	db := &DB{db: sqlDB, path: path}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error { return db.db.Close() }

// Path returns the database file path.
func (db *DB) Path() string { return db.path }

func (db *DB) migrate() error {
	for _, stmt := range Migrations() {
		if _, err := db.db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// ─── Schema ─────────────────────────────────────────────────────────────────

// Migrations returns the schema statements. Each string is a single SQL
// statement (SQLite executes one at a time); all are idempotent.
func Migrations() []string {
	return []string{
		// Customers. version is the optimistic-concurrency counter; every
		// whole-document mutation bumps it via compare-and-swap.
		`CREATE TABLE IF NOT EXISTS customers (
			id                 TEXT PRIMARY KEY,
			first_name         TEXT NOT NULL DEFAULT '',
			last_name          TEXT NOT NULL DEFAULT '',
			email              TEXT NOT NULL DEFAULT '',
			phone              TEXT NOT NULL DEFAULT '',
			current_stage      TEXT NOT NULL,
			version            INTEGER NOT NULL DEFAULT 1,
			joint_holders_json TEXT NOT NULL DEFAULT '[]',
			documents_json     TEXT NOT NULL DEFAULT '{}',
			created_at         TEXT NOT NULL,
			updated_at         TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_customers_stage ON customers(current_stage)`,

		// Stage history. Append-only; seq is the insertion-order tiebreak
		// for identical timestamps.
		`CREATE TABLE IF NOT EXISTS stage_history (
			seq            INTEGER PRIMARY KEY AUTOINCREMENT,
			id             TEXT NOT NULL UNIQUE,
			customer_id    TEXT NOT NULL,
			stage          TEXT NOT NULL,
			previous_stage TEXT NOT NULL DEFAULT '',
			direction      TEXT NOT NULL,
			notes          TEXT NOT NULL DEFAULT '',
			actor          TEXT NOT NULL DEFAULT '',
			ts             TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_customer ON stage_history(customer_id, ts)`,

		// Fees. Point mutations keyed by id; no version column.
		`CREATE TABLE IF NOT EXISTS fees (
			id             TEXT PRIMARY KEY,
			customer_id    TEXT NOT NULL,
			type           TEXT NOT NULL,
			amount         TEXT NOT NULL,
			currency       TEXT NOT NULL,
			status         TEXT NOT NULL DEFAULT 'UNPAID',
			due_date       TEXT,
			paid_date      TEXT,
			payment_method TEXT NOT NULL DEFAULT '',
			reference      TEXT NOT NULL DEFAULT '',
			description    TEXT NOT NULL DEFAULT '',
			added_date     TEXT NOT NULL,
			added_by       TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fees_customer ON fees(customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_fees_status ON fees(customer_id, status)`,

		// Enquiries. Conversion is one-way and records the created customer.
		`CREATE TABLE IF NOT EXISTS enquiries (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			email       TEXT NOT NULL DEFAULT '',
			phone       TEXT NOT NULL DEFAULT '',
			source      TEXT NOT NULL DEFAULT '',
			notes       TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL DEFAULT 'new',
			received_at TEXT NOT NULL,
			customer_id TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_enquiries_status ON enquiries(status)`,

		// Idempotency keys for the two non-retry-safe operations (stage
		// moves, fee creation). Pruned on a rolling window.
		`CREATE TABLE IF NOT EXISTS idempotency_keys (
			customer_id TEXT NOT NULL,
			key         TEXT NOT NULL,
			kind        TEXT NOT NULL,
			result_id   TEXT NOT NULL,
			created_at  TEXT NOT NULL,
			PRIMARY KEY (customer_id, key, kind)
		)`,
	}
}

// ─── Time Encoding ──────────────────────────────────────────────────────────
// Timestamps are stored as RFC 3339 text in UTC so lexical ordering matches
// chronological ordering.

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func decodeTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func encodeTimePtr(t *time.Time) any {
	if t == nil {
		return nil
	}
	return encodeTime(*t)
}

func decodeTimePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := decodeTime(s.String)
	return &t
}

// PruneIdempotencyKeys removes dedup records created before cutoff.
func (db *DB) PruneIdempotencyKeys(cutoff time.Time) (int64, error) {
	res, err := db.db.Exec(`DELETE FROM idempotency_keys WHERE created_at < ?`, encodeTime(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
