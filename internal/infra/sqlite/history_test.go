package sqlite

import (
	"testing"
	"time"

	"github.com/rp011dev/mort-mgmnt-sub000/internal/domain"
)

// seedTrail appends n forward entries walking the catalog (wrapping back to
// the start if n exceeds it), spaced one minute apart. Returns entry IDs in
// chronological order.
func seedTrail(t *testing.T, db *DB, customerID string, n int) []string {
	t.Helper()
	stages := domain.Stages()
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		from := stages[i%(len(stages)-1)]
		to := stages[i%(len(stages)-1)+1]
		e := seedEntry(t, db, customerID, from, to, base.Add(time.Duration(i)*time.Minute))
		ids = append(ids, e.ID)
	}
	return ids
}

// ─── Append ─────────────────────────────────────────────────────────────────

func TestAppendHistory_AssignsIDAndTimestampWhenUnset(t *testing.T) {
	db := newTestDB(t)
	c := seedCustomer(t, db, domain.StageInitialEnquiry)

	first := &domain.StageHistoryEntry{
		CustomerID:    c.ID,
		Stage:         domain.StageDocumentVerification,
		PreviousStage: domain.StageInitialEnquiry,
		Direction:     domain.DirectionForward,
		Notes:         domain.DefaultTransitionNote(domain.DirectionForward),
	}
	if err := db.AppendHistory(first); err != nil {
		t.Fatalf("append with unset id: %v", err)
	}
	if first.ID == "" {
		t.Error("id should be assigned on append")
	}
	if first.Timestamp.IsZero() {
		t.Error("timestamp should be assigned on append")
	}

	second := &domain.StageHistoryEntry{
		CustomerID:    c.ID,
		Stage:         domain.StageDecisionInPrinciple,
		PreviousStage: domain.StageDocumentVerification,
		Direction:     domain.DirectionForward,
		Notes:         domain.DefaultTransitionNote(domain.DirectionForward),
	}
	if err := db.AppendHistory(second); err != nil {
		t.Fatalf("second append with unset id: %v", err)
	}
	if second.ID == first.ID {
		t.Errorf("appended entries share id %s", first.ID)
	}

	p, err := db.ListHistory(c.ID, 1, 10, domain.OrderAsc)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Items) != 2 {
		t.Fatalf("trail length = %d, want 2", len(p.Items))
	}
	if p.Items[0].ID != first.ID || p.Items[1].ID != second.ID {
		t.Error("appended entries should list in insertion order")
	}
}

// ─── Pagination ─────────────────────────────────────────────────────────────

func TestListHistory_PagesPartitionTheTrail(t *testing.T) {
	db := newTestDB(t)
	c := seedCustomer(t, db, domain.StageInitialEnquiry)
	ids := seedTrail(t, db, c.ID, 23)

	const pageSize = 5
	var collected []string
	for page := 1; ; page++ {
		p, err := db.ListHistory(c.ID, page, pageSize, domain.OrderAsc)
		if err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
		if p.TotalCount != 23 {
			t.Fatalf("totalCount = %d, want 23", p.TotalCount)
		}
		if p.TotalPages != 5 {
			t.Fatalf("totalPages = %d, want 5", p.TotalPages)
		}
		if len(p.Items) == 0 {
			break
		}
		for _, item := range p.Items {
			collected = append(collected, item.ID)
		}
	}

	// Every entry appears exactly once, in chronological order.
	if len(collected) != len(ids) {
		t.Fatalf("collected %d entries over all pages, want %d", len(collected), len(ids))
	}
	for i := range ids {
		if collected[i] != ids[i] {
			t.Fatalf("asc page concatenation diverges at %d: got %s, want %s", i, collected[i], ids[i])
		}
	}
}

func TestListHistory_DescNewestFirst(t *testing.T) {
	db := newTestDB(t)
	c := seedCustomer(t, db, domain.StageInitialEnquiry)
	ids := seedTrail(t, db, c.ID, 4)

	p, err := db.ListHistory(c.ID, 1, 10, domain.OrderDesc)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Items) != 4 {
		t.Fatalf("len = %d, want 4", len(p.Items))
	}
	if p.Items[0].ID != ids[3] || p.Items[3].ID != ids[0] {
		t.Error("desc order should be newest first")
	}
}

func TestListHistory_PageBeyondEnd(t *testing.T) {
	db := newTestDB(t)
	c := seedCustomer(t, db, domain.StageInitialEnquiry)
	seedTrail(t, db, c.ID, 3)

	p, err := db.ListHistory(c.ID, 9, 10, domain.OrderDesc)
	if err != nil {
		t.Fatalf("page beyond end should not error: %v", err)
	}
	if len(p.Items) != 0 {
		t.Errorf("items = %d, want 0", len(p.Items))
	}
	if p.Items == nil {
		t.Error("items should be an empty slice, not nil")
	}
	if p.TotalCount != 3 || p.TotalPages != 1 {
		t.Errorf("totals = %d/%d, want 3/1", p.TotalCount, p.TotalPages)
	}
}

func TestListHistory_EmptyTrail(t *testing.T) {
	db := newTestDB(t)
	c := seedCustomer(t, db, domain.StageInitialEnquiry)

	p, err := db.ListHistory(c.ID, 1, 10, domain.OrderDesc)
	if err != nil {
		t.Fatal(err)
	}
	if p.TotalCount != 0 || p.TotalPages != 0 || len(p.Items) != 0 {
		t.Errorf("empty trail page = %+v", p)
	}
}

// Entries sharing a timestamp keep a stable total order by insertion.
func TestListHistory_TimestampTiesBrokenByInsertion(t *testing.T) {
	db := newTestDB(t)
	c := seedCustomer(t, db, domain.StageInitialEnquiry)
	at := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	first := seedEntry(t, db, c.ID, domain.StageInitialEnquiry, domain.StageDocumentVerification, at)
	second := seedEntry(t, db, c.ID, domain.StageDocumentVerification, domain.StageDecisionInPrinciple, at)

	asc, err := db.ListHistory(c.ID, 1, 10, domain.OrderAsc)
	if err != nil {
		t.Fatal(err)
	}
	if asc.Items[0].ID != first.ID || asc.Items[1].ID != second.ID {
		t.Error("asc tie-break should follow insertion order")
	}

	desc, err := db.ListHistory(c.ID, 1, 10, domain.OrderDesc)
	if err != nil {
		t.Fatal(err)
	}
	if desc.Items[0].ID != second.ID || desc.Items[1].ID != first.ID {
		t.Error("desc tie-break should reverse insertion order")
	}
}

func TestListHistory_ScopedToCustomer(t *testing.T) {
	db := newTestDB(t)
	a := seedCustomer(t, db, domain.StageInitialEnquiry)
	b := seedCustomer(t, db, domain.StageInitialEnquiry)
	seedTrail(t, db, a.ID, 5)
	seedTrail(t, db, b.ID, 2)

	p, err := db.ListHistory(b.ID, 1, 10, domain.OrderAsc)
	if err != nil {
		t.Fatal(err)
	}
	if p.TotalCount != 2 {
		t.Errorf("totalCount = %d, want 2", p.TotalCount)
	}
}
