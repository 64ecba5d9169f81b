package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rp011dev/mort-mgmnt-sub000/internal/app/ledger"
	"github.com/rp011dev/mort-mgmnt-sub000/internal/domain"
	"github.com/rp011dev/mort-mgmnt-sub000/internal/infra/observability"
)

// ─── Fee Ledger ─────────────────────────────────────────────────────────────
// Amounts cross the wire as strings and are parsed as exact decimals in
// the service layer. Floats never touch fee money.

// handleListFees returns a customer's fees, oldest first.
// GET /api/customers/{id}/fees
func (s *Server) handleListFees(w http.ResponseWriter, r *http.Request) {
	fees, err := s.fees.List(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"fees":  fees,
		"count": len(fees),
	})
}

// handleAddFee records a fee against a customer.
// POST /api/customers/{id}/fees
func (s *Server) handleAddFee(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type        string `json:"type"`
		Amount      string `json:"amount"`
		Currency    string `json:"currency"`
		DueDate     string `json:"due_date"`
		Description string `json:"description"`
		Reference   string `json:"reference"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	var dueDate *time.Time
	if req.DueDate != "" {
		t, err := time.Parse(time.RFC3339, req.DueDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "due_date must be RFC 3339")
			return
		}
		dueDate = &t
	}

	f, err := s.fees.Add(ledger.AddRequest{
		CustomerID:     chi.URLParam(r, "id"),
		Type:           req.Type,
		Amount:         req.Amount,
		Currency:       req.Currency,
		DueDate:        dueDate,
		Description:    req.Description,
		Reference:      req.Reference,
		AddedBy:        r.Header.Get(actorHeader),
		IdempotencyKey: r.Header.Get(idempotencyHeader),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	observability.FeeOperations.WithLabelValues("add").Inc()
	writeJSON(w, http.StatusCreated, f)
}

// handleUpdateFeeStatus moves a fee between payment statuses.
// PATCH /api/customers/{id}/fees/{feeID}
func (s *Server) handleUpdateFeeStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status        string `json:"status"`
		PaymentMethod string `json:"payment_method"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	status, ok := domain.ParseFeeStatus(req.Status)
	if !ok {
		writeError(w, http.StatusBadRequest, "status must be UNPAID, PAID, or NA")
		return
	}

	f, err := s.fees.UpdateStatus(chi.URLParam(r, "feeID"), status, req.PaymentMethod)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	observability.FeeOperations.WithLabelValues("status").Inc()
	if status == domain.FeePaid {
		observability.FeesMarkedPaid.Inc()
	}
	writeJSON(w, http.StatusOK, f)
}

// handleRemoveFee deletes a fee from the ledger.
// DELETE /api/customers/{id}/fees/{feeID}
func (s *Server) handleRemoveFee(w http.ResponseWriter, r *http.Request) {
	if err := s.fees.Remove(chi.URLParam(r, "feeID"), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	observability.FeeOperations.WithLabelValues("remove").Inc()
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleFeeSummary returns the derived ledger roll-up.
// GET /api/customers/{id}/fees/summary
func (s *Server) handleFeeSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := s.fees.Summary(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
