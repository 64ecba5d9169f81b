package pipeline

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rp011dev/mort-mgmnt-sub000/internal/domain"
	"github.com/rp011dev/mort-mgmnt-sub000/internal/infra/observability"
	"github.com/rp011dev/mort-mgmnt-sub000/internal/infra/sqlite"
)

func newTestService(t *testing.T) *LifecycleService {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewLifecycleService(db)
}

func createCustomer(t *testing.T, svc *LifecycleService) *domain.Customer {
	t.Helper()
	c, err := svc.CreateCustomer("Priya", "Shah", "priya@example.com", "07700900123")
	if err != nil {
		t.Fatalf("create customer: %v", err)
	}
	return c
}

func TestCreateCustomer_StartsAtFirstStage(t *testing.T) {
	svc := newTestService(t)
	c := createCustomer(t, svc)

	if c.CurrentStage != domain.StageInitialEnquiry {
		t.Errorf("stage = %q, want %q", c.CurrentStage, domain.StageInitialEnquiry)
	}
	if c.Version != 1 {
		t.Errorf("version = %d, want 1", c.Version)
	}
	if c.Progress() != 9 {
		t.Errorf("progress = %d, want 9", c.Progress())
	}
}

func TestMoveStage_Forward(t *testing.T) {
	svc := newTestService(t)
	c := createCustomer(t, svc)

	res, err := svc.MoveStage(MoveRequest{
		CustomerID: c.ID,
		Direction:  domain.DirectionForward,
		Actor:      "advisor-1",
	})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if res.Customer.CurrentStage != domain.StageDocumentVerification {
		t.Errorf("stage = %q, want %q", res.Customer.CurrentStage, domain.StageDocumentVerification)
	}
	if res.Customer.Version != 2 {
		t.Errorf("version = %d, want 2", res.Customer.Version)
	}
	if res.Entry.PreviousStage != domain.StageInitialEnquiry {
		t.Errorf("previous stage = %q, want %q", res.Entry.PreviousStage, domain.StageInitialEnquiry)
	}
	if res.Entry.Notes != "Stage moved forward" {
		t.Errorf("notes = %q, want default forward note", res.Entry.Notes)
	}
	if res.Entry.User != "advisor-1" {
		t.Errorf("user = %q, want advisor-1", res.Entry.User)
	}
}

func TestMoveStage_BackwardFromFirstStage(t *testing.T) {
	svc := newTestService(t)
	c := createCustomer(t, svc)

	_, err := svc.MoveStage(MoveRequest{CustomerID: c.ID, Direction: domain.DirectionBackward})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}

	// Rejected move leaves the customer untouched.
	got, err := svc.Customer(c.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.CurrentStage != domain.StageInitialEnquiry || got.Version != 1 {
		t.Errorf("customer changed after rejected move: stage=%q version=%d", got.CurrentStage, got.Version)
	}
}

func TestMoveStage_ForwardFromLastStage(t *testing.T) {
	svc := newTestService(t)
	c := createCustomer(t, svc)

	// Walk to the terminal stage.
	for i := 0; i < len(domain.Stages())-1; i++ {
		if _, err := svc.MoveStage(MoveRequest{CustomerID: c.ID, Direction: domain.DirectionForward}); err != nil {
			t.Fatalf("move %d: %v", i, err)
		}
	}
	got, _ := svc.Customer(c.ID)
	if got.CurrentStage != domain.StageExchangeCompletion {
		t.Fatalf("stage = %q, want terminal stage", got.CurrentStage)
	}

	_, err := svc.MoveStage(MoveRequest{CustomerID: c.ID, Direction: domain.DirectionForward})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestMoveStage_InvalidDirection(t *testing.T) {
	svc := newTestService(t)
	c := createCustomer(t, svc)

	_, err := svc.MoveStage(MoveRequest{CustomerID: c.ID, Direction: domain.Direction("sideways")})
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("err = %v, want ErrInvalidTransition", err)
	}
}

func TestMoveStage_UnknownCustomer(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.MoveStage(MoveRequest{CustomerID: "nope", Direction: domain.DirectionForward})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMoveStage_CustomNotePreserved(t *testing.T) {
	svc := newTestService(t)
	c := createCustomer(t, svc)

	res, err := svc.MoveStage(MoveRequest{
		CustomerID: c.ID,
		Direction:  domain.DirectionForward,
		Note:       "Docs arrived by post",
	})
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if res.Entry.Notes != "Docs arrived by post" {
		t.Errorf("notes = %q, want custom note", res.Entry.Notes)
	}
}

func TestMoveStage_IdempotentReplay(t *testing.T) {
	svc := newTestService(t)
	c := createCustomer(t, svc)

	req := MoveRequest{
		CustomerID:     c.ID,
		Direction:      domain.DirectionForward,
		Actor:          "advisor-1",
		IdempotencyKey: "req-001",
	}
	first, err := svc.MoveStage(req)
	if err != nil {
		t.Fatalf("first move: %v", err)
	}
	replays := testutil.ToFloat64(observability.DuplicateRequests.WithLabelValues("stage"))
	second, err := svc.MoveStage(req)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	if got := testutil.ToFloat64(observability.DuplicateRequests.WithLabelValues("stage")); got != replays+1 {
		t.Errorf("duplicate_requests{stage} = %v, want %v", got, replays+1)
	}
	if second.Customer.Version != first.Customer.Version {
		t.Errorf("replay version = %d, want %d", second.Customer.Version, first.Customer.Version)
	}
	if second.Entry.ID != first.Entry.ID {
		t.Errorf("replay entry = %q, want original %q", second.Entry.ID, first.Entry.ID)
	}

	got, _ := svc.Customer(c.ID)
	if got.CurrentStage != domain.StageDocumentVerification {
		t.Errorf("stage = %q after replay, customer moved twice", got.CurrentStage)
	}
}

func TestMoveStage_DistinctKeysMoveTwice(t *testing.T) {
	svc := newTestService(t)
	c := createCustomer(t, svc)

	if _, err := svc.MoveStage(MoveRequest{CustomerID: c.ID, Direction: domain.DirectionForward, IdempotencyKey: "a"}); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := svc.MoveStage(MoveRequest{CustomerID: c.ID, Direction: domain.DirectionForward, IdempotencyKey: "b"}); err != nil {
		t.Fatalf("second: %v", err)
	}
	got, _ := svc.Customer(c.ID)
	if got.CurrentStage != domain.StageDecisionInPrinciple {
		t.Errorf("stage = %q, want %q", got.CurrentStage, domain.StageDecisionInPrinciple)
	}
}

func TestSetDocumentStatus(t *testing.T) {
	svc := newTestService(t)
	c := createCustomer(t, svc)

	got, err := svc.SetDocumentStatus(c.ID, c.Version, "proof-of-income", domain.DocumentReceived)
	if err != nil {
		t.Fatalf("set document: %v", err)
	}
	if got.Documents["proof-of-income"] != domain.DocumentReceived {
		t.Errorf("documents = %v, want proof-of-income received", got.Documents)
	}
	if got.Version != c.Version+1 {
		t.Errorf("version = %d, want %d", got.Version, c.Version+1)
	}

	// Stale version is rejected.
	_, err = svc.SetDocumentStatus(c.ID, c.Version, "bank-statements", domain.DocumentReceived)
	if !errors.Is(err, domain.ErrVersionConflict) {
		t.Fatalf("err = %v, want ErrVersionConflict", err)
	}
}

func TestJointHolders_AddAndRemove(t *testing.T) {
	svc := newTestService(t)
	c := createCustomer(t, svc)

	got, err := svc.AddJointHolder(c.ID, c.Version, domain.JointHolder{Name: "Arun Shah", Relationship: "spouse"})
	if err != nil {
		t.Fatalf("add holder: %v", err)
	}
	if len(got.JointHolders) != 1 || got.JointHolders[0].Name != "Arun Shah" {
		t.Fatalf("joint holders = %v", got.JointHolders)
	}

	got, err = svc.RemoveJointHolder(c.ID, got.Version, "Arun Shah")
	if err != nil {
		t.Fatalf("remove holder: %v", err)
	}
	if len(got.JointHolders) != 0 {
		t.Errorf("joint holders = %v, want none", got.JointHolders)
	}
}

func TestConvertEnquiry(t *testing.T) {
	svc := newTestService(t)

	e, err := svc.AddEnquiry("Dana El-Sayed", "dana@example.com", "07700900456", "website", "First-time buyer")
	if err != nil {
		t.Fatalf("add enquiry: %v", err)
	}
	if e.Status != domain.EnquiryNew {
		t.Fatalf("status = %q, want new", e.Status)
	}

	c, err := svc.ConvertEnquiry(e.ID, "advisor-2")
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if c.FirstName != "Dana" || c.LastName != "El-Sayed" {
		t.Errorf("name split = %q %q", c.FirstName, c.LastName)
	}
	if c.CurrentStage != domain.FirstStage() {
		t.Errorf("stage = %q, want first stage", c.CurrentStage)
	}

	_, err = svc.ConvertEnquiry(e.ID, "advisor-2")
	if !errors.Is(err, domain.ErrAlreadyConverted) {
		t.Fatalf("second convert err = %v, want ErrAlreadyConverted", err)
	}
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		in          string
		first, last string
	}{
		{"Dana El-Sayed", "Dana", "El-Sayed"},
		{"Madonna", "Madonna", ""},
		{"Mary Jane Watson", "Mary Jane", "Watson"},
		{"  Lee  ", "Lee", ""},
	}
	for _, tc := range tests {
		first, last := splitName(tc.in)
		if first != tc.first || last != tc.last {
			t.Errorf("splitName(%q) = %q, %q; want %q, %q", tc.in, first, last, tc.first, tc.last)
		}
	}
}
