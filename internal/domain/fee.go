package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ─── Fee Types ──────────────────────────────────────────────────────────────
// Fees form a sub-ledger under a customer. Status moves freely between the
// three states (an advisor can correct a misclick); only the payment
// metadata side effects differentiate the paths.

// FeeType is the business reason a fee was raised.
type FeeType string

const (
	FeeTypeApplication         FeeType = "Application"
	FeeTypeSolicitorReferral   FeeType = "SolicitorReferral"
	FeeTypeMortgageProcuration FeeType = "MortgageProcuration"
)

var feeTypes = map[FeeType]struct{}{
	FeeTypeApplication:         {},
	FeeTypeSolicitorReferral:   {},
	FeeTypeMortgageProcuration: {},
}

// FeeTypes returns the enumerated fee types.
func FeeTypes() []FeeType {
	return []FeeType{FeeTypeApplication, FeeTypeSolicitorReferral, FeeTypeMortgageProcuration}
}

// ParseFeeType validates a raw fee type, tolerating case and surrounding
// whitespace but nothing else.
func ParseFeeType(raw string) (FeeType, bool) {
	trimmed := strings.TrimSpace(raw)
	for t := range feeTypes {
		if strings.EqualFold(trimmed, string(t)) {
			return t, true
		}
	}
	return "", false
}

// FeeStatus is the payment state of a fee.
type FeeStatus string

const (
	FeeUnpaid FeeStatus = "UNPAID"
	FeePaid   FeeStatus = "PAID"
	FeeNA     FeeStatus = "NA"
)

// ParseFeeStatus validates a raw fee status.
func ParseFeeStatus(raw string) (FeeStatus, bool) {
	switch FeeStatus(strings.ToUpper(strings.TrimSpace(raw))) {
	case FeeUnpaid:
		return FeeUnpaid, true
	case FeePaid:
		return FeePaid, true
	case FeeNA:
		return FeeNA, true
	}
	return "", false
}

// DefaultPaymentMethod is used when a fee is marked paid and neither the
// caller nor the fee's history supplies a method.
const DefaultPaymentMethod = "Bank Transfer"

// UpcomingWindow is how far ahead a due date counts as "upcoming".
const UpcomingWindow = 30 * 24 * time.Hour

// Fee is one row in a customer's fee sub-ledger. Optional fields are
// pointers or empty strings; amounts are exact decimals, never floats.
//
// Invariant: Status == PAID exactly when PaidDate is set. PaidDate and
// PaymentMethod survive a move away from PAID; the ledger never clears
// payment metadata on reversal.
type Fee struct {
	ID            string          `json:"fee_id"`
	CustomerID    string          `json:"customer_id"`
	Type          FeeType         `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Status        FeeStatus       `json:"status"`
	DueDate       *time.Time      `json:"due_date,omitempty"`
	PaidDate      *time.Time      `json:"paid_date,omitempty"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	Reference     string          `json:"reference,omitempty"`
	Description   string          `json:"description,omitempty"`
	AddedDate     time.Time       `json:"added_date"`
	AddedBy       string          `json:"added_by"`
}

// IsOverdue reports whether the fee is unpaid with a due date in the past.
// Fees without a due date are never overdue.
func (f *Fee) IsOverdue(now time.Time) bool {
	return f.Status == FeeUnpaid && f.DueDate != nil && f.DueDate.Before(now)
}

// IsUpcoming reports whether the fee is unpaid and due within the window.
func (f *Fee) IsUpcoming(now time.Time, window time.Duration) bool {
	if f.Status != FeeUnpaid || f.DueDate == nil {
		return false
	}
	due := *f.DueDate
	return !due.Before(now) && !due.After(now.Add(window))
}

// ─── Fee Summary ────────────────────────────────────────────────────────────

// FeeSummary aggregates a customer's fee position. TotalAmount sums every
// fee regardless of status: it is total fee exposure, not collected cash.
type FeeSummary struct {
	TotalAmount  decimal.Decimal `json:"total_amount"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	UnpaidAmount decimal.Decimal `json:"unpaid_amount"`
	NAAmount     decimal.Decimal `json:"na_amount"`
	TotalCount   int             `json:"total_count"`
	PaidCount    int             `json:"paid_count"`
	UnpaidCount  int             `json:"unpaid_count"`
	NACount      int             `json:"na_count"`
	OverdueFees  []Fee           `json:"overdue_fees"`
	UpcomingFees []Fee           `json:"upcoming_fees"`
}

// SummarizeFees computes the aggregate position over a fee list. The
// summary is derived on demand and never persisted. Fees with an
// unrecognized status still count toward the totals but stay out of the
// per-status buckets.
func SummarizeFees(fees []Fee, now time.Time, upcomingWindow time.Duration) FeeSummary {
	s := FeeSummary{
		TotalAmount:  decimal.Zero,
		PaidAmount:   decimal.Zero,
		UnpaidAmount: decimal.Zero,
		NAAmount:     decimal.Zero,
		OverdueFees:  []Fee{},
		UpcomingFees: []Fee{},
	}
	for _, f := range fees {
		s.TotalCount++
		s.TotalAmount = s.TotalAmount.Add(f.Amount)
		switch f.Status {
		case FeePaid:
			s.PaidCount++
			s.PaidAmount = s.PaidAmount.Add(f.Amount)
		case FeeNA:
			s.NACount++
			s.NAAmount = s.NAAmount.Add(f.Amount)
		case FeeUnpaid:
			s.UnpaidCount++
			s.UnpaidAmount = s.UnpaidAmount.Add(f.Amount)
		}
		if f.IsOverdue(now) {
			s.OverdueFees = append(s.OverdueFees, f)
		}
		if f.IsUpcoming(now, upcomingWindow) {
			s.UpcomingFees = append(s.UpcomingFees, f)
		}
	}
	return s
}
