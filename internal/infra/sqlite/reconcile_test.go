package sqlite

import (
	"testing"
	"time"

	"github.com/rp011dev/mort-mgmnt-sub000/internal/domain"
)

// ─── Torn-Write Detection ───────────────────────────────────────────────────

func TestFindTornTransitions_CleanDatabase(t *testing.T) {
	db := newTestDB(t)
	c := seedCustomer(t, db, domain.StageDocumentVerification)
	if _, _, err := db.ApplyStageTransition(1, forwardEntry(c), ""); err != nil {
		t.Fatal(err)
	}

	torn, err := db.FindTornTransitions()
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(torn) != 0 {
		t.Errorf("torn = %v, want none after atomic moves", torn)
	}
}

func TestFindTornTransitions_SkipsCustomersWithoutHistory(t *testing.T) {
	db := newTestDB(t)
	seedCustomer(t, db, domain.StageInitialEnquiry)

	torn, err := db.FindTornTransitions()
	if err != nil {
		t.Fatal(err)
	}
	if len(torn) != 0 {
		t.Errorf("torn = %v, want none", torn)
	}
}

func TestFindTornTransitions_DetectsMismatch(t *testing.T) {
	db := newTestDB(t)
	c := seedCustomer(t, db, domain.StageDocumentVerification)

	// Simulate the legacy failure mode: a history row that claims a move
	// the customer record never received.
	seedEntry(t, db, c.ID, domain.StageDocumentVerification, domain.StageDecisionInPrinciple, time.Now())

	torn, err := db.FindTornTransitions()
	if err != nil {
		t.Fatal(err)
	}
	if len(torn) != 1 {
		t.Fatalf("torn = %d findings, want 1", len(torn))
	}
	f := torn[0]
	if f.CustomerID != c.ID {
		t.Errorf("customer = %s, want %s", f.CustomerID, c.ID)
	}
	if f.CurrentStage != domain.StageDocumentVerification || f.HistoryStage != domain.StageDecisionInPrinciple {
		t.Errorf("stages = %q vs %q", f.CurrentStage, f.HistoryStage)
	}
}

// Only the newest entry is consulted; a fully caught-up customer with a
// long trail is not a finding.
func TestFindTornTransitions_OnlyLatestEntryCounts(t *testing.T) {
	db := newTestDB(t)
	c := seedCustomer(t, db, domain.StageInitialEnquiry)
	cur := c
	for i := 0; i < 3; i++ {
		next, _, err := db.ApplyStageTransition(cur.Version, forwardEntry(cur), "")
		if err != nil {
			t.Fatal(err)
		}
		cur = next
	}

	torn, err := db.FindTornTransitions()
	if err != nil {
		t.Fatal(err)
	}
	if len(torn) != 0 {
		t.Errorf("torn = %v, want none", torn)
	}
}
