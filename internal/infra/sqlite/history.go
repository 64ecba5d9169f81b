package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/rp011dev/mort-mgmnt-sub000/internal/domain"
)

// ─── Stage History Operations ───────────────────────────────────────────────

const historyColumns = `seq, id, customer_id, stage, previous_stage, direction, notes, actor, ts`

func scanHistory(row interface{ Scan(...any) error }) (*domain.StageHistoryEntry, error) {
	var e domain.StageHistoryEntry
	var stage, prev, direction, ts string
	err := row.Scan(&e.Seq, &e.ID, &e.CustomerID, &stage, &prev, &direction, &e.Notes, &e.User, &ts)
	if err != nil {
		return nil, err
	}
	e.Stage = domain.Stage(stage)
	e.PreviousStage = domain.Stage(prev)
	e.Direction = domain.Direction(direction)
	e.Timestamp = decodeTime(ts)
	return &e, nil
}

func insertHistory(ex execer, e *domain.StageHistoryEntry) (int64, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	res, err := ex.Exec(`
		INSERT INTO stage_history (id, customer_id, stage, previous_stage, direction, notes, actor, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.CustomerID, string(e.Stage), string(e.PreviousStage),
		string(e.Direction), e.Notes, e.User, encodeTime(e.Timestamp))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// AppendHistory inserts an audit entry, assigning an id and timestamp when
// the caller left them unset. Existing rows are never touched.
func (db *DB) AppendHistory(e *domain.StageHistoryEntry) error {
	seq, err := insertHistory(db.db, e)
	if err != nil {
		return err
	}
	e.Seq = seq
	return nil
}

func (db *DB) getHistoryEntry(id string) (*domain.StageHistoryEntry, error) {
	row := db.db.QueryRow(`SELECT `+historyColumns+` FROM stage_history WHERE id = ?`, id)
	e, err := scanHistory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("history entry %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListHistory returns one page of a customer's audit trail. page is
// 1-indexed; pages past the end return empty items with the true totals.
// Ordering is by timestamp with insertion order breaking ties, so repeated
// pagination over a stable trail is a stable total order.
func (db *DB) ListHistory(customerID string, page, pageSize int, order domain.SortOrder) (*domain.HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	var total int
	if err := db.db.QueryRow(`SELECT COUNT(*) FROM stage_history WHERE customer_id = ?`, customerID).Scan(&total); err != nil {
		return nil, err
	}
	totalPages := (total + pageSize - 1) / pageSize

	dir := "DESC"
	if order == domain.OrderAsc {
		dir = "ASC"
	}
	rows, err := db.db.Query(`
		SELECT `+historyColumns+` FROM stage_history
		WHERE customer_id = ?
		ORDER BY ts `+dir+`, seq `+dir+`
		LIMIT ? OFFSET ?
	`, customerID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.StageHistoryEntry{}
	for rows.Next() {
		e, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &domain.HistoryPage{
		Items:      items,
		TotalCount: total,
		TotalPages: totalPages,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}
