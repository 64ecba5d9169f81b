// Package domain contains pure business types with ZERO infrastructure imports.
// This is the innermost ring of clean architecture: it depends on nothing.
package domain

// ─── Stage Catalog ──────────────────────────────────────────────────────────
// The application pipeline is a fixed, totally ordered list of stages.
// Stage identifiers are persisted in history rows, so the catalog is a
// stable contract: renaming or reordering an entry breaks stored data.

// Stage identifies one position in the application pipeline.
type Stage string

const (
	StageInitialEnquiry       Stage = "initial-enquiry-assessment"
	StageDocumentVerification Stage = "document-verification"
	StageDecisionInPrinciple  Stage = "decision-in-principle"
	StageAffordability        Stage = "affordability-assessment"
	StageFullApplication      Stage = "full-mortgage-application"
	StagePropertyValuation    Stage = "property-valuation"
	StageMortgageOffer        Stage = "mortgage-offer-issued"
	StageConveyancing         Stage = "conveyancing-legal-work"
	StageProtectionReview     Stage = "insurance-protection-review"
	StagePreExchangeChecks    Stage = "pre-exchange-checks"
	StageExchangeCompletion   Stage = "exchange-completion"
)

// stageSpec pairs a stage with its advisor-facing name and progress figure.
type stageSpec struct {
	stage    Stage
	name     string
	progress int
}

// pipeline is the ordered catalog. Progress runs in 9% increments so the
// final stage reads 99%, never a premature 100%.
var pipeline = []stageSpec{
	{StageInitialEnquiry, "Initial Enquiry & Assessment", 9},
	{StageDocumentVerification, "Document Verification", 18},
	{StageDecisionInPrinciple, "Decision in Principle", 27},
	{StageAffordability, "Affordability Assessment", 36},
	{StageFullApplication, "Full Mortgage Application", 45},
	{StagePropertyValuation, "Property Valuation", 54},
	{StageMortgageOffer, "Mortgage Offer Issued", 63},
	{StageConveyancing, "Conveyancing & Legal Work", 72},
	{StageProtectionReview, "Insurance & Protection Review", 81},
	{StagePreExchangeChecks, "Pre-Exchange Checks", 90},
	{StageExchangeCompletion, "Exchange & Completion", 99},
}

var stageIndex = func() map[Stage]int {
	m := make(map[Stage]int, len(pipeline))
	for i, s := range pipeline {
		m[s.stage] = i
	}
	return m
}()

// Stages returns the catalog in pipeline order.
func Stages() []Stage {
	out := make([]Stage, len(pipeline))
	for i, s := range pipeline {
		out[i] = s.stage
	}
	return out
}

// FirstStage is where every converted enquiry starts.
func FirstStage() Stage { return pipeline[0].stage }

// StageIndex returns the stage's position in the catalog.
func StageIndex(s Stage) (int, bool) {
	i, ok := stageIndex[s]
	return i, ok
}

// NextStage returns the stage one position forward, or false at the end of
// the pipeline. Unknown stages are treated as boundaries, not errors;
// callers disable the corresponding transition.
func NextStage(s Stage) (Stage, bool) {
	i, ok := stageIndex[s]
	if !ok || i+1 >= len(pipeline) {
		return "", false
	}
	return pipeline[i+1].stage, true
}

// PreviousStage returns the stage one position back, or false at the start
// of the pipeline.
func PreviousStage(s Stage) (Stage, bool) {
	i, ok := stageIndex[s]
	if !ok || i == 0 {
		return "", false
	}
	return pipeline[i-1].stage, true
}

// StageProgress returns the fixed progress percentage for a stage.
// Unknown stages report 0.
func StageProgress(s Stage) int {
	i, ok := stageIndex[s]
	if !ok {
		return 0
	}
	return pipeline[i].progress
}

// StageDisplayName returns the advisor-facing name for a stage. Unknown
// stages fall back to the raw identifier so stale data still renders.
func StageDisplayName(s Stage) string {
	i, ok := stageIndex[s]
	if !ok {
		return string(s)
	}
	return pipeline[i].name
}

// ParseStage validates a raw identifier against the catalog.
func ParseStage(raw string) (Stage, bool) {
	s := Stage(raw)
	_, ok := stageIndex[s]
	return s, ok
}
