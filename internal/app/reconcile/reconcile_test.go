package reconcile

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rp011dev/mort-mgmnt-sub000/internal/domain"
	"github.com/rp011dev/mort-mgmnt-sub000/internal/infra/sqlite"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestSweeper(t *testing.T, db *sqlite.DB) *Sweeper {
	t.Helper()
	return New(DefaultConfig(), db, log.New(io.Discard, "", 0))
}

func seedCustomer(t *testing.T, db *sqlite.DB, stage domain.Stage) *domain.Customer {
	t.Helper()
	now := time.Now()
	c := &domain.Customer{
		ID:           uuid.NewString(),
		FirstName:    "Test",
		LastName:     "Customer",
		CurrentStage: stage,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.InsertCustomer(c); err != nil {
		t.Fatalf("insert customer: %v", err)
	}
	return c
}

func TestDefaultConfig(t *testing.T) {
	if got := DefaultConfig().Interval; got != 15*time.Minute {
		t.Errorf("Interval = %v, want 15m", got)
	}
}

func TestRunOnce_CleanDatabase(t *testing.T) {
	db := newTestDB(t)
	seedCustomer(t, db, domain.FirstStage())
	s := newTestSweeper(t, db)

	findings, err := s.RunOnce()
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(findings) != 0 {
		t.Errorf("findings = %d, want 0", len(findings))
	}

	stats := s.Stats()
	if stats.Sweeps != 1 || stats.TotalFindings != 0 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.LastRun.IsZero() {
		t.Error("LastRun not recorded")
	}
}

func TestRunOnce_ReportsTornCustomer(t *testing.T) {
	db := newTestDB(t)
	c := seedCustomer(t, db, domain.StageInitialEnquiry)

	// History claims the customer moved on, but the customer row was never
	// updated. This is exactly the state a torn write leaves behind.
	err := db.AppendHistory(&domain.StageHistoryEntry{
		ID:            uuid.NewString(),
		CustomerID:    c.ID,
		Stage:         domain.StageDocumentVerification,
		PreviousStage: domain.StageInitialEnquiry,
		Direction:     domain.DirectionForward,
		Timestamp:     time.Now(),
	})
	if err != nil {
		t.Fatalf("append history: %v", err)
	}

	s := newTestSweeper(t, db)
	var seen []domain.TornTransition
	s.OnFinding(func(f domain.TornTransition) { seen = append(seen, f) })

	findings, err := s.RunOnce()
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("findings = %d, want 1", len(findings))
	}
	f := findings[0]
	if f.CustomerID != c.ID || f.CurrentStage != domain.StageInitialEnquiry || f.HistoryStage != domain.StageDocumentVerification {
		t.Errorf("finding = %+v", f)
	}
	if len(seen) != 1 {
		t.Errorf("callback fired %d times, want 1", len(seen))
	}
	if got := s.Stats().TotalFindings; got != 1 {
		t.Errorf("TotalFindings = %d, want 1", got)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	db := newTestDB(t)
	cfg := Config{Interval: 10 * time.Millisecond}
	s := New(cfg, db, log.New(io.Discard, "", 0))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancel")
	}
	if s.Stats().Sweeps < 1 {
		t.Error("no sweeps recorded")
	}
}
