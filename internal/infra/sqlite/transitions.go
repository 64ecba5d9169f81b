package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rp011dev/mort-mgmnt-sub000/internal/domain"
)

// ─── Stage Transitions ──────────────────────────────────────────────────────
// A stage move is two writes that must be observed together: the customer's
// stage/version update and the history append. Both run in one transaction
// here; a failure on the second write is reported as ErrPartialTransition
// after rollback so callers can alert on the class of failure, even though
// no torn state is left behind.

const kindStageMove = "stage"

// ApplyStageTransition commits entry.Stage onto the customer identified by
// entry.CustomerID, appends the history entry, and records the idempotency
// key (when non-empty), atomically.
func (db *DB) ApplyStageTransition(expectedVersion int64, entry *domain.StageHistoryEntry, idempotencyKey string) (*domain.Customer, *domain.StageHistoryEntry, error) {
	tx, err := db.db.Begin()
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+customerColumns+` FROM customers WHERE id = ?`, entry.CustomerID)
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("customer %s: %w", entry.CustomerID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}
	if c.Version != expectedVersion {
		return nil, nil, fmt.Errorf("customer %s at version %d, caller expected %d: %w",
			entry.CustomerID, c.Version, expectedVersion, domain.ErrVersionConflict)
	}

	now := time.Now()
	res, err := tx.Exec(`
		UPDATE customers SET current_stage = ?, version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`, string(entry.Stage), encodeTime(now), entry.CustomerID, expectedVersion)
	if err != nil {
		return nil, nil, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, nil, err
	} else if n == 0 {
		return nil, nil, fmt.Errorf("customer %s: %w", entry.CustomerID, domain.ErrVersionConflict)
	}

	seq, err := insertHistory(tx, entry)
	if err != nil {
		return nil, nil, fmt.Errorf("history append for %s after stage update: %v: %w",
			entry.CustomerID, err, domain.ErrPartialTransition)
	}

	if idempotencyKey != "" {
		_, err := tx.Exec(`
			INSERT INTO idempotency_keys (customer_id, key, kind, result_id, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, entry.CustomerID, idempotencyKey, kindStageMove, entry.ID, encodeTime(now))
		if err != nil {
			if isUniqueViolation(err) {
				return nil, nil, fmt.Errorf("stage move key %q: %w", idempotencyKey, domain.ErrDuplicateRequest)
			}
			return nil, nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	entry.Seq = seq
	c.CurrentStage = entry.Stage
	c.Version = expectedVersion + 1
	c.UpdatedAt = now
	return c, entry, nil
}

// RecallStageTransition returns the customer and history entry originally
// produced for the idempotency key, or ErrNotFound when the key is unseen.
func (db *DB) RecallStageTransition(customerID, idempotencyKey string) (*domain.Customer, *domain.StageHistoryEntry, error) {
	var entryID string
	err := db.db.QueryRow(`
		SELECT result_id FROM idempotency_keys
		WHERE customer_id = ? AND key = ? AND kind = ?
	`, customerID, idempotencyKey, kindStageMove).Scan(&entryID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("stage move key %q: %w", idempotencyKey, domain.ErrNotFound)
	}
	if err != nil {
		return nil, nil, err
	}

	entry, err := db.getHistoryEntry(entryID)
	if err != nil {
		return nil, nil, err
	}
	c, err := db.GetCustomer(customerID)
	if err != nil {
		return nil, nil, err
	}
	return c, entry, nil
}

// isUniqueViolation reports whether err is a primary-key/unique conflict.
// The modernc driver surfaces these as string-coded errors, so match text.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "constraint")
}
