package domain

import "time"

// ─── Stage History Types ────────────────────────────────────────────────────
// The stage history is an append-only audit trail. Entries are written in
// the same transaction as the customer's stage update and are never
// mutated afterwards.

// Direction is which way a stage transition moved.
type Direction string

const (
	DirectionForward  Direction = "forward"
	DirectionBackward Direction = "backward"
)

// ParseDirection validates a raw direction value.
func ParseDirection(raw string) (Direction, bool) {
	switch Direction(raw) {
	case DirectionForward:
		return DirectionForward, true
	case DirectionBackward:
		return DirectionBackward, true
	}
	return "", false
}

// DefaultTransitionNote is recorded when the actor supplies no note.
func DefaultTransitionNote(d Direction) string {
	return "Stage moved " + string(d)
}

// StageHistoryEntry is one immutable row in a customer's audit trail.
// Seq is the insertion-order tiebreak for identical timestamps; it is
// assigned by the store and not exposed over the wire.
type StageHistoryEntry struct {
	ID            string    `json:"id"`
	CustomerID    string    `json:"customer_id"`
	Stage         Stage     `json:"stage"`
	PreviousStage Stage     `json:"previous_stage"`
	Direction     Direction `json:"direction"`
	Notes         string    `json:"notes,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	User          string    `json:"user"`
	Seq           int64     `json:"-"`
}

// SortOrder selects pagination direction for history listings.
type SortOrder string

const (
	OrderAsc  SortOrder = "asc"
	OrderDesc SortOrder = "desc" // newest first; the advisor-facing default
)

// ParseSortOrder validates a raw order value, defaulting empty to desc.
func ParseSortOrder(raw string) (SortOrder, bool) {
	switch SortOrder(raw) {
	case "":
		return OrderDesc, true
	case OrderAsc:
		return OrderAsc, true
	case OrderDesc:
		return OrderDesc, true
	}
	return "", false
}

// HistoryPage is one page of a customer's audit trail plus the totals the
// table UI needs to render pagination controls.
type HistoryPage struct {
	Items      []StageHistoryEntry `json:"items"`
	TotalCount int                 `json:"total_count"`
	TotalPages int                 `json:"total_pages"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
}

// TornTransition is a customer whose stored stage disagrees with the
// newest history entry: the signature of a torn two-part write. These are
// surfaced by the reconciliation sweep for alerting, never auto-repaired
// silently.
type TornTransition struct {
	CustomerID   string    `json:"customer_id"`
	CurrentStage Stage     `json:"current_stage"`
	HistoryStage Stage     `json:"history_stage"`
	ObservedAt   time.Time `json:"observed_at"`
}
