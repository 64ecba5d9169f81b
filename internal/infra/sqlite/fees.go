package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rp011dev/mort-mgmnt-sub000/internal/domain"
)

// ─── Fee Operations ─────────────────────────────────────────────────────────
// Amounts are stored as decimal text, never floats, so £295.00 survives a
// round trip exactly.

const kindFeeAdd = "fee"

const feeColumns = `id, customer_id, type, amount, currency, status, due_date,
	paid_date, payment_method, reference, description, added_date, added_by`

func scanFee(row interface{ Scan(...any) error }) (*domain.Fee, error) {
	var f domain.Fee
	var feeType, amount, status, addedDate string
	var dueDate, paidDate sql.NullString
	err := row.Scan(&f.ID, &f.CustomerID, &feeType, &amount, &f.Currency, &status,
		&dueDate, &paidDate, &f.PaymentMethod, &f.Reference, &f.Description,
		&addedDate, &f.AddedBy)
	if err != nil {
		return nil, err
	}
	f.Type = domain.FeeType(feeType)
	f.Status = domain.FeeStatus(status)
	f.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("decode amount for fee %s: %w", f.ID, err)
	}
	f.DueDate = decodeTimePtr(dueDate)
	f.PaidDate = decodeTimePtr(paidDate)
	f.AddedDate = decodeTime(addedDate)
	return &f, nil
}

// InsertFee creates a fee row, verifying the owning customer exists and
// recording the idempotency key (when non-empty) in the same transaction.
func (db *DB) InsertFee(f *domain.Fee, idempotencyKey string) error {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM customers WHERE id = ?`, f.CustomerID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return fmt.Errorf("customer %s: %w", f.CustomerID, domain.ErrNotFound)
	}

	_, err = tx.Exec(`
		INSERT INTO fees (id, customer_id, type, amount, currency, status, due_date,
			paid_date, payment_method, reference, description, added_date, added_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, f.ID, f.CustomerID, string(f.Type), f.Amount.String(), f.Currency, string(f.Status),
		encodeTimePtr(f.DueDate), encodeTimePtr(f.PaidDate), f.PaymentMethod,
		f.Reference, f.Description, encodeTime(f.AddedDate), f.AddedBy)
	if err != nil {
		return err
	}

	if idempotencyKey != "" {
		_, err := tx.Exec(`
			INSERT INTO idempotency_keys (customer_id, key, kind, result_id, created_at)
			VALUES (?, ?, ?, ?, ?)
		`, f.CustomerID, idempotencyKey, kindFeeAdd, f.ID, encodeTime(time.Now()))
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("fee add key %q: %w", idempotencyKey, domain.ErrDuplicateRequest)
			}
			return err
		}
	}

	return tx.Commit()
}

// RecallFee returns the fee originally created under the idempotency key.
func (db *DB) RecallFee(customerID, idempotencyKey string) (*domain.Fee, error) {
	var feeID string
	err := db.db.QueryRow(`
		SELECT result_id FROM idempotency_keys
		WHERE customer_id = ? AND key = ? AND kind = ?
	`, customerID, idempotencyKey, kindFeeAdd).Scan(&feeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("fee add key %q: %w", idempotencyKey, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return db.GetFee(feeID)
}

// GetFee loads a fee by id.
func (db *DB) GetFee(id string) (*domain.Fee, error) {
	row := db.db.QueryRow(`SELECT `+feeColumns+` FROM fees WHERE id = ?`, id)
	f, err := scanFee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("fee %s: %w", id, domain.ErrFeeNotFound)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// ListFees returns a customer's fees, oldest first.
func (db *DB) ListFees(customerID string) ([]domain.Fee, error) {
	rows, err := db.db.Query(`
		SELECT `+feeColumns+` FROM fees WHERE customer_id = ? ORDER BY added_date, id
	`, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Fee{}
	for rows.Next() {
		f, err := scanFee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

// UpdateFee persists the full fee row. Missing id yields ErrFeeNotFound.
func (db *DB) UpdateFee(f *domain.Fee) error {
	res, err := db.db.Exec(`
		UPDATE fees SET type = ?, amount = ?, currency = ?, status = ?, due_date = ?,
			paid_date = ?, payment_method = ?, reference = ?, description = ?
		WHERE id = ?
	`, string(f.Type), f.Amount.String(), f.Currency, string(f.Status),
		encodeTimePtr(f.DueDate), encodeTimePtr(f.PaidDate), f.PaymentMethod,
		f.Reference, f.Description, f.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("fee %s: %w", f.ID, domain.ErrFeeNotFound)
	}
	return nil
}

// DeleteFee hard-deletes a fee scoped to its owning customer. Deleting a
// missing fee is an observable error, never a silent no-op, so the UI can
// tell "already gone" from "deleted".
func (db *DB) DeleteFee(id, customerID string) error {
	res, err := db.db.Exec(`DELETE FROM fees WHERE id = ? AND customer_id = ?`, id, customerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("fee %s for customer %s: %w", id, customerID, domain.ErrFeeNotFound)
	}
	return nil
}
