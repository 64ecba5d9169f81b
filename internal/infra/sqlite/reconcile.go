package sqlite

import (
	"github.com/rp011dev/mort-mgmnt-sub000/internal/domain"
)

// ─── Torn-Write Reconciliation ──────────────────────────────────────────────

// FindTornTransitions cross-checks every customer's stored stage against
// the newest history entry. A mismatch is the signature of a torn two-part
// write (or an out-of-band edit) and is surfaced for alerting; customers
// with no history yet are skipped.
func (db *DB) FindTornTransitions() ([]domain.TornTransition, error) {
	rows, err := db.db.Query(`
		SELECT c.id, c.current_stage, h.stage, h.ts
		FROM customers c
		JOIN stage_history h ON h.customer_id = c.id
		WHERE h.seq = (SELECT MAX(h2.seq) FROM stage_history h2 WHERE h2.customer_id = c.id)
		  AND h.stage != c.current_stage
		ORDER BY c.id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.TornTransition{}
	for rows.Next() {
		var t domain.TornTransition
		var current, history, ts string
		if err := rows.Scan(&t.CustomerID, &current, &history, &ts); err != nil {
			return nil, err
		}
		t.CurrentStage = domain.Stage(current)
		t.HistoryStage = domain.Stage(history)
		t.ObservedAt = decodeTime(ts)
		out = append(out, t)
	}
	return out, rows.Err()
}
