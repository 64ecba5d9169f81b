package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/rp011dev/mort-mgmnt-sub000/internal/domain"
)

// ─── Enquiry Operations ─────────────────────────────────────────────────────

const enquiryColumns = `id, name, email, phone, source, notes, status, received_at, customer_id`

func scanEnquiry(row interface{ Scan(...any) error }) (*domain.Enquiry, error) {
	var e domain.Enquiry
	var status, receivedAt string
	err := row.Scan(&e.ID, &e.Name, &e.Email, &e.Phone, &e.Source, &e.Notes,
		&status, &receivedAt, &e.CustomerID)
	if err != nil {
		return nil, err
	}
	e.Status = domain.EnquiryStatus(status)
	e.ReceivedAt = decodeTime(receivedAt)
	return &e, nil
}

// InsertEnquiry records an inbound prospect.
func (db *DB) InsertEnquiry(e *domain.Enquiry) error {
	_, err := db.db.Exec(`
		INSERT INTO enquiries (id, name, email, phone, source, notes, status, received_at, customer_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Name, e.Email, e.Phone, e.Source, e.Notes, string(e.Status),
		encodeTime(e.ReceivedAt), e.CustomerID)
	return err
}

// GetEnquiry loads an enquiry by id.
func (db *DB) GetEnquiry(id string) (*domain.Enquiry, error) {
	row := db.db.QueryRow(`SELECT `+enquiryColumns+` FROM enquiries WHERE id = ?`, id)
	e, err := scanEnquiry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("enquiry %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListEnquiries returns enquiries newest first, optionally filtered by
// status (empty status means all).
func (db *DB) ListEnquiries(status domain.EnquiryStatus) ([]domain.Enquiry, error) {
	query := `SELECT ` + enquiryColumns + ` FROM enquiries`
	args := []any{}
	if status != "" {
		query += ` WHERE status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY received_at DESC, id`

	rows, err := db.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Enquiry{}
	for rows.Next() {
		e, err := scanEnquiry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

// ConvertEnquiry marks the enquiry converted and creates the customer plus
// its initial history entry in one transaction. Conversion is one-way;
// converting twice yields ErrAlreadyConverted.
func (db *DB) ConvertEnquiry(enquiryID string, c *domain.Customer, entry *domain.StageHistoryEntry) error {
	tx, err := db.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRow(`SELECT status FROM enquiries WHERE id = ?`, enquiryID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("enquiry %s: %w", enquiryID, domain.ErrNotFound)
	}
	if err != nil {
		return err
	}
	if domain.EnquiryStatus(status) == domain.EnquiryConverted {
		return fmt.Errorf("enquiry %s: %w", enquiryID, domain.ErrAlreadyConverted)
	}

	if err := db.insertCustomerExec(tx, c); err != nil {
		return err
	}
	seq, err := insertHistory(tx, entry)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`
		UPDATE enquiries SET status = ?, customer_id = ? WHERE id = ?
	`, string(domain.EnquiryConverted), c.ID, enquiryID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	entry.Seq = seq
	return nil
}
