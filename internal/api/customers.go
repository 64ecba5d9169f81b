package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rp011dev/mort-mgmnt-sub000/internal/app/pipeline"
	"github.com/rp011dev/mort-mgmnt-sub000/internal/domain"
	"github.com/rp011dev/mort-mgmnt-sub000/internal/infra/observability"
)

// ─── Stage Catalog ──────────────────────────────────────────────────────────

// handleListStages returns the fixed pipeline catalog in order.
// GET /api/stages
func (s *Server) handleListStages(w http.ResponseWriter, r *http.Request) {
	stages := domain.Stages()
	out := make([]map[string]interface{}, 0, len(stages))
	for i, st := range stages {
		out = append(out, map[string]interface{}{
			"stage":        st,
			"display_name": domain.StageDisplayName(st),
			"position":     i + 1,
			"progress_pct": domain.StageProgress(st),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"stages": out})
}

// handleStageOccupants lists customer IDs currently at a stage.
// GET /api/stages/{stage}/customers
func (s *Server) handleStageOccupants(w http.ResponseWriter, r *http.Request) {
	stage := domain.Stage(chi.URLParam(r, "stage"))
	ids, err := s.history.Occupants(stage)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	observability.StageOccupancy.WithLabelValues(string(stage)).Set(float64(len(ids)))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"stage":        stage,
		"customer_ids": ids,
		"count":        len(ids),
	})
}

// ─── Customers ──────────────────────────────────────────────────────────────

// handleListCustomers returns every customer with derived pipeline fields.
// GET /api/customers
func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := s.lifecycle.Customers()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	out := make([]map[string]interface{}, 0, len(customers))
	for i := range customers {
		out = append(out, customerView(&customers[i]))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"customers": out,
		"count":     len(out),
	})
}

// handleCreateCustomer creates a customer at the first pipeline stage.
// POST /api/customers
func (s *Server) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Email     string `json:"email"`
		Phone     string `json:"phone"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.FirstName == "" && req.LastName == "" {
		writeError(w, http.StatusBadRequest, "a name is required")
		return
	}
	c, err := s.lifecycle.CreateCustomer(req.FirstName, req.LastName, req.Email, req.Phone)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, customerView(c))
}

// handleGetCustomer returns one customer.
// GET /api/customers/{id}
func (s *Server) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := s.lifecycle.Customer(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customerView(c))
}

// handleMoveStage moves a customer one stage forward or backward.
// POST /api/customers/{id}/stage
func (s *Server) handleMoveStage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Direction string `json:"direction"`
		Note      string `json:"note"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	dir, ok := domain.ParseDirection(req.Direction)
	if !ok {
		writeError(w, http.StatusBadRequest, "direction must be forward or backward")
		return
	}

	res, err := s.lifecycle.MoveStage(pipeline.MoveRequest{
		CustomerID:     chi.URLParam(r, "id"),
		Direction:      dir,
		Actor:          r.Header.Get(actorHeader),
		Note:           req.Note,
		IdempotencyKey: r.Header.Get(idempotencyHeader),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	observability.StageTransitions.WithLabelValues(string(dir)).Inc()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"customer":      customerView(res.Customer),
		"history_entry": res.Entry,
	})
}

// handleListHistory pages through the customer's audit trail.
// GET /api/customers/{id}/history?page=&page_size=&order=
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	order, ok := domain.ParseSortOrder(r.URL.Query().Get("order"))
	if !ok {
		writeError(w, http.StatusBadRequest, "order must be asc or desc")
		return
	}
	page, err := s.history.ListForCustomer(
		chi.URLParam(r, "id"),
		queryInt(r, "page", 1),
		queryInt(r, "page_size", 10),
		order,
	)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handleSetDocumentStatus records a document status flag from the upload
// side channel.
// PUT /api/customers/{id}/documents/{docType}
func (s *Server) handleSetDocumentStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status  string `json:"status"`
		Version int64  `json:"version"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Status == "" {
		req.Status = domain.DocumentReceived
	}
	c, err := s.lifecycle.SetDocumentStatus(chi.URLParam(r, "id"), req.Version, chi.URLParam(r, "docType"), req.Status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customerView(c))
}

// handleAddJointHolder adds a joint holder to an application.
// POST /api/customers/{id}/joint-holders
func (s *Server) handleAddJointHolder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string `json:"name"`
		Relationship string `json:"relationship"`
		Version      int64  `json:"version"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "joint holder name is required")
		return
	}
	c, err := s.lifecycle.AddJointHolder(chi.URLParam(r, "id"), req.Version, domain.JointHolder{
		Name:         req.Name,
		Relationship: req.Relationship,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customerView(c))
}

// handleRemoveJointHolder removes a named joint holder.
// DELETE /api/customers/{id}/joint-holders/{name}?version=
func (s *Server) handleRemoveJointHolder(w http.ResponseWriter, r *http.Request) {
	version := int64(queryInt(r, "version", 0))
	c, err := s.lifecycle.RemoveJointHolder(chi.URLParam(r, "id"), version, chi.URLParam(r, "name"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, customerView(c))
}

// customerView augments the stored customer with the derived pipeline
// fields the UI renders on every card.
func customerView(c *domain.Customer) map[string]interface{} {
	return map[string]interface{}{
		"customer":          c,
		"full_name":         c.FullName(),
		"stage_display":     domain.StageDisplayName(c.CurrentStage),
		"progress_pct":      c.Progress(),
		"can_move_forward":  c.CanMoveForward(),
		"can_move_backward": c.CanMoveBackward(),
	}
}

// ─── Enquiries ──────────────────────────────────────────────────────────────

// handleListEnquiries lists enquiries, optionally filtered by status.
// GET /api/enquiries?status=
func (s *Server) handleListEnquiries(w http.ResponseWriter, r *http.Request) {
	status := domain.EnquiryStatus(r.URL.Query().Get("status"))
	enquiries, err := s.lifecycle.Enquiries(status)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"enquiries": enquiries,
		"count":     len(enquiries),
	})
}

// handleCreateEnquiry records an inbound prospect.
// POST /api/enquiries
func (s *Server) handleCreateEnquiry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name   string `json:"name"`
		Email  string `json:"email"`
		Phone  string `json:"phone"`
		Source string `json:"source"`
		Notes  string `json:"notes"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "enquiry name is required")
		return
	}
	e, err := s.lifecycle.AddEnquiry(req.Name, req.Email, req.Phone, req.Source, req.Notes)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// handleConvertEnquiry converts an enquiry into a pipeline customer.
// POST /api/enquiries/{id}/convert
func (s *Server) handleConvertEnquiry(w http.ResponseWriter, r *http.Request) {
	c, err := s.lifecycle.ConvertEnquiry(chi.URLParam(r, "id"), r.Header.Get(actorHeader))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	observability.EnquiryConversions.Inc()
	writeJSON(w, http.StatusCreated, customerView(c))
}

// ─── Reconcile ──────────────────────────────────────────────────────────────

var errSweeperDisabled = errors.New("reconcile sweep not enabled")

// handleReconcileStats reports sweep counters.
// GET /api/reconcile/stats
func (s *Server) handleReconcileStats(w http.ResponseWriter, r *http.Request) {
	if s.sweeper == nil {
		writeError(w, http.StatusServiceUnavailable, errSweeperDisabled.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.sweeper.Stats())
}

// handleReconcileRun triggers an immediate sweep.
// POST /api/reconcile/run
func (s *Server) handleReconcileRun(w http.ResponseWriter, r *http.Request) {
	if s.sweeper == nil {
		writeError(w, http.StatusServiceUnavailable, errSweeperDisabled.Error())
		return
	}
	findings, err := s.sweeper.RunOnce()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	observability.ReconcileSweeps.Inc()
	observability.TornTransitions.Add(float64(len(findings)))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"findings": findings,
		"count":    len(findings),
	})
}
