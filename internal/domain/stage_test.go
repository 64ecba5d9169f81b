package domain

import "testing"

// ─── Stage Catalog Tests ────────────────────────────────────────────────────

func TestStages_CatalogSize(t *testing.T) {
	if got := len(Stages()); got != 11 {
		t.Fatalf("catalog has %d stages, want 11", got)
	}
}

func TestStages_FirstAndLast(t *testing.T) {
	stages := Stages()
	if stages[0] != StageInitialEnquiry {
		t.Errorf("first stage = %q, want %q", stages[0], StageInitialEnquiry)
	}
	if stages[len(stages)-1] != StageExchangeCompletion {
		t.Errorf("last stage = %q, want %q", stages[len(stages)-1], StageExchangeCompletion)
	}
}

func TestNextPrevious_RoundTrip(t *testing.T) {
	stages := Stages()

	// For every stage except the first, next(previous(s)) == s.
	for _, s := range stages[1:] {
		prev, ok := PreviousStage(s)
		if !ok {
			t.Fatalf("PreviousStage(%q) undefined, want defined", s)
		}
		back, ok := NextStage(prev)
		if !ok || back != s {
			t.Errorf("NextStage(PreviousStage(%q)) = %q, want %q", s, back, s)
		}
	}

	// For every stage except the last, previous(next(s)) == s.
	for _, s := range stages[:len(stages)-1] {
		next, ok := NextStage(s)
		if !ok {
			t.Fatalf("NextStage(%q) undefined, want defined", s)
		}
		back, ok := PreviousStage(next)
		if !ok || back != s {
			t.Errorf("PreviousStage(NextStage(%q)) = %q, want %q", s, back, s)
		}
	}
}

func TestNextStage_TerminalBoundaries(t *testing.T) {
	if _, ok := PreviousStage(StageInitialEnquiry); ok {
		t.Error("PreviousStage(first) should be undefined")
	}
	if _, ok := NextStage(StageExchangeCompletion); ok {
		t.Error("NextStage(last) should be undefined")
	}
}

func TestNextStage_UnknownIsBoundary(t *testing.T) {
	if _, ok := NextStage("no-such-stage"); ok {
		t.Error("NextStage(unknown) should be undefined")
	}
	if _, ok := PreviousStage("no-such-stage"); ok {
		t.Error("PreviousStage(unknown) should be undefined")
	}
}

func TestStageProgress_NineIncrements(t *testing.T) {
	for i, s := range Stages() {
		want := (i + 1) * 9
		if got := StageProgress(s); got != want {
			t.Errorf("StageProgress(%q) = %d, want %d", s, got, want)
		}
	}
}

func TestStageProgress_Unknown(t *testing.T) {
	if got := StageProgress("made-up"); got != 0 {
		t.Errorf("StageProgress(unknown) = %d, want 0", got)
	}
}

func TestStageDisplayName(t *testing.T) {
	tests := []struct {
		stage Stage
		want  string
	}{
		{StageInitialEnquiry, "Initial Enquiry & Assessment"},
		{StageDecisionInPrinciple, "Decision in Principle"},
		{StageExchangeCompletion, "Exchange & Completion"},
		{"legacy-identifier", "legacy-identifier"}, // fallback, not an error
	}
	for _, tt := range tests {
		if got := StageDisplayName(tt.stage); got != tt.want {
			t.Errorf("StageDisplayName(%q) = %q, want %q", tt.stage, got, tt.want)
		}
	}
}

func TestStageIndex_SpecAnchors(t *testing.T) {
	// These indexes are a persisted contract with stored history rows.
	tests := []struct {
		stage Stage
		want  int
	}{
		{StageInitialEnquiry, 0},
		{StageDocumentVerification, 1},
		{StageDecisionInPrinciple, 2},
		{StageExchangeCompletion, 10},
	}
	for _, tt := range tests {
		got, ok := StageIndex(tt.stage)
		if !ok || got != tt.want {
			t.Errorf("StageIndex(%q) = %d,%v, want %d,true", tt.stage, got, ok, tt.want)
		}
	}
}

func TestParseStage(t *testing.T) {
	if s, ok := ParseStage("property-valuation"); !ok || s != StagePropertyValuation {
		t.Errorf("ParseStage(property-valuation) = %q,%v", s, ok)
	}
	if _, ok := ParseStage("Property Valuation"); ok {
		t.Error("ParseStage should reject display names")
	}
}

// ─── Customer Boundary Helpers ──────────────────────────────────────────────

func TestCustomer_CanMove(t *testing.T) {
	tests := []struct {
		name         string
		stage        Stage
		wantForward  bool
		wantBackward bool
	}{
		{"first stage", StageInitialEnquiry, true, false},
		{"middle stage", StagePropertyValuation, true, true},
		{"last stage", StageExchangeCompletion, false, true},
		{"unknown stage", "corrupt", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Customer{CurrentStage: tt.stage}
			if got := c.CanMoveForward(); got != tt.wantForward {
				t.Errorf("CanMoveForward() = %v, want %v", got, tt.wantForward)
			}
			if got := c.CanMoveBackward(); got != tt.wantBackward {
				t.Errorf("CanMoveBackward() = %v, want %v", got, tt.wantBackward)
			}
		})
	}
}

func TestCustomer_FullName(t *testing.T) {
	tests := []struct {
		first, last, want string
	}{
		{"Jane", "Doe", "Jane Doe"},
		{"", "Doe", "Doe"},
		{"Jane", "", "Jane"},
	}
	for _, tt := range tests {
		c := Customer{FirstName: tt.first, LastName: tt.last}
		if got := c.FullName(); got != tt.want {
			t.Errorf("FullName() = %q, want %q", got, tt.want)
		}
	}
}

// ─── Direction & Order Parsing ──────────────────────────────────────────────

func TestParseDirection(t *testing.T) {
	if d, ok := ParseDirection("forward"); !ok || d != DirectionForward {
		t.Errorf("ParseDirection(forward) = %q,%v", d, ok)
	}
	if d, ok := ParseDirection("backward"); !ok || d != DirectionBackward {
		t.Errorf("ParseDirection(backward) = %q,%v", d, ok)
	}
	if _, ok := ParseDirection("sideways"); ok {
		t.Error("ParseDirection(sideways) should fail")
	}
}

func TestDefaultTransitionNote(t *testing.T) {
	if got := DefaultTransitionNote(DirectionForward); got != "Stage moved forward" {
		t.Errorf("note = %q", got)
	}
	if got := DefaultTransitionNote(DirectionBackward); got != "Stage moved backward" {
		t.Errorf("note = %q", got)
	}
}

func TestParseSortOrder(t *testing.T) {
	tests := []struct {
		raw    string
		want   SortOrder
		wantOK bool
	}{
		{"", OrderDesc, true}, // empty defaults to newest first
		{"asc", OrderAsc, true},
		{"desc", OrderDesc, true},
		{"newest", "", false},
	}
	for _, tt := range tests {
		got, ok := ParseSortOrder(tt.raw)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("ParseSortOrder(%q) = %q,%v, want %q,%v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}
