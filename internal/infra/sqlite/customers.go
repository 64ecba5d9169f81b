package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rp011dev/mort-mgmnt-sub000/internal/domain"
)

// ─── Customer Operations ────────────────────────────────────────────────────

const customerColumns = `id, first_name, last_name, email, phone, current_stage,
	version, joint_holders_json, documents_json, created_at, updated_at`

func scanCustomer(row interface{ Scan(...any) error }) (*domain.Customer, error) {
	var c domain.Customer
	var stage, holdersJSON, docsJSON, createdAt, updatedAt string
	err := row.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&stage, &c.Version, &holdersJSON, &docsJSON, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	c.CurrentStage = domain.Stage(stage)
	c.CreatedAt = decodeTime(createdAt)
	c.UpdatedAt = decodeTime(updatedAt)
	if err := json.Unmarshal([]byte(holdersJSON), &c.JointHolders); err != nil {
		return nil, fmt.Errorf("decode joint holders for %s: %w", c.ID, err)
	}
	if err := json.Unmarshal([]byte(docsJSON), &c.Documents); err != nil {
		return nil, fmt.Errorf("decode documents for %s: %w", c.ID, err)
	}
	return &c, nil
}

func marshalCustomerJSON(c *domain.Customer) (holders, docs string, err error) {
	h := c.JointHolders
	if h == nil {
		h = []domain.JointHolder{}
	}
	d := c.Documents
	if d == nil {
		d = map[string]string{}
	}
	hb, err := json.Marshal(h)
	if err != nil {
		return "", "", err
	}
	db, err := json.Marshal(d)
	if err != nil {
		return "", "", err
	}
	return string(hb), string(db), nil
}

// InsertCustomer creates a customer row. The caller assigns ID, stage,
// version, and timestamps.
func (db *DB) InsertCustomer(c *domain.Customer) error {
	return db.insertCustomerExec(db.db, c)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (db *DB) insertCustomerExec(ex execer, c *domain.Customer) error {
	holders, docs, err := marshalCustomerJSON(c)
	if err != nil {
		return err
	}
	_, err = ex.Exec(`
		INSERT INTO customers (id, first_name, last_name, email, phone, current_stage,
			version, joint_holders_json, documents_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.FirstName, c.LastName, c.Email, c.Phone, string(c.CurrentStage),
		c.Version, holders, docs, encodeTime(c.CreatedAt), encodeTime(c.UpdatedAt))
	return err
}

// GetCustomer loads a customer by id.
func (db *DB) GetCustomer(id string) (*domain.Customer, error) {
	row := db.db.QueryRow(`SELECT `+customerColumns+` FROM customers WHERE id = ?`, id)
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ListCustomers returns all customers, oldest first.
func (db *DB) ListCustomers() ([]domain.Customer, error) {
	rows, err := db.db.Query(`SELECT ` + customerColumns + ` FROM customers ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// StageOccupants returns ids of every customer currently at the stage.
func (db *DB) StageOccupants(stage domain.Stage) ([]string, error) {
	rows, err := db.db.Query(`SELECT id FROM customers WHERE current_stage = ? ORDER BY id`, string(stage))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// UpdateCustomer applies mutate under optimistic concurrency. The stored
// version must equal expectedVersion both when read and when written; a
// mismatch yields ErrVersionConflict and no write. CurrentStage and Version
// changes made by mutate are ignored; stage moves go through
// ApplyStageTransition.
func (db *DB) UpdateCustomer(id string, expectedVersion int64, mutate func(*domain.Customer) error) (*domain.Customer, error) {
	tx, err := db.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	row := tx.QueryRow(`SELECT `+customerColumns+` FROM customers WHERE id = ?`, id)
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if c.Version != expectedVersion {
		return nil, fmt.Errorf("customer %s at version %d, caller expected %d: %w",
			id, c.Version, expectedVersion, domain.ErrVersionConflict)
	}

	stage := c.CurrentStage
	if err := mutate(c); err != nil {
		return nil, err
	}
	c.CurrentStage = stage
	c.UpdatedAt = time.Now()

	holders, docs, err := marshalCustomerJSON(c)
	if err != nil {
		return nil, err
	}
	res, err := tx.Exec(`
		UPDATE customers
		SET first_name = ?, last_name = ?, email = ?, phone = ?,
			joint_holders_json = ?, documents_json = ?,
			version = version + 1, updated_at = ?
		WHERE id = ? AND version = ?
	`, c.FirstName, c.LastName, c.Email, c.Phone, holders, docs,
		encodeTime(c.UpdatedAt), id, expectedVersion)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("customer %s: %w", id, domain.ErrVersionConflict)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	c.Version = expectedVersion + 1
	return c, nil
}
