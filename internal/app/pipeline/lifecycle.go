// Package pipeline drives customers through the fixed application pipeline:
// validated stage transitions, the append-only audit trail, and enquiry
// conversion. Services here contain the business rules; persistence comes
// in through the domain store interfaces.
package pipeline

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rp011dev/mort-mgmnt-sub000/internal/domain"
	"github.com/rp011dev/mort-mgmnt-sub000/internal/infra/observability"
)

// LifecycleStore is the persistence surface the lifecycle service needs.
type LifecycleStore interface {
	domain.CustomerStore
	domain.TransitionStore
	domain.EnquiryStore
}

// LifecycleService performs validated stage transitions and customer
// creation. It never logs and never retries; every failure propagates to
// the caller as a typed domain error.
type LifecycleService struct {
	store LifecycleStore
}

// NewLifecycleService creates the lifecycle service.
func NewLifecycleService(store LifecycleStore) *LifecycleService {
	return &LifecycleService{store: store}
}

// MoveRequest is one stage-move command from an advisor action.
type MoveRequest struct {
	CustomerID string
	Direction  domain.Direction
	Actor      string
	Note       string
	// IdempotencyKey deduplicates double submits of the same user action.
	// Empty disables deduplication.
	IdempotencyKey string
}

// MoveResult is the pair of records a successful move produces.
type MoveResult struct {
	Customer *domain.Customer          `json:"customer"`
	Entry    *domain.StageHistoryEntry `json:"history_entry"`
}

// MoveStage validates and commits a stage transition. The customer update
// and the audit entry are recorded as one logical unit; boundary
// violations fail with ErrInvalidTransition and concurrent edits with
// ErrVersionConflict. A replayed idempotency key returns the original
// result instead of moving again.
func (s *LifecycleService) MoveStage(req MoveRequest) (*MoveResult, error) {
	if req.IdempotencyKey != "" {
		c, e, err := s.store.RecallStageTransition(req.CustomerID, req.IdempotencyKey)
		if err == nil {
			observability.DuplicateRequests.WithLabelValues("stage").Inc()
			return &MoveResult{Customer: c, Entry: e}, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	c, err := s.store.GetCustomer(req.CustomerID)
	if err != nil {
		return nil, err
	}

	var newStage domain.Stage
	var ok bool
	switch req.Direction {
	case domain.DirectionForward:
		newStage, ok = domain.NextStage(c.CurrentStage)
	case domain.DirectionBackward:
		newStage, ok = domain.PreviousStage(c.CurrentStage)
	default:
		return nil, fmt.Errorf("direction %q: %w", req.Direction, domain.ErrInvalidTransition)
	}
	if !ok {
		return nil, fmt.Errorf("no %s move from %q: %w", req.Direction, c.CurrentStage, domain.ErrInvalidTransition)
	}

	note := req.Note
	if note == "" {
		note = domain.DefaultTransitionNote(req.Direction)
	}
	entry := &domain.StageHistoryEntry{
		ID:            uuid.NewString(),
		CustomerID:    c.ID,
		Stage:         newStage,
		PreviousStage: c.CurrentStage,
		Direction:     req.Direction,
		Notes:         note,
		Timestamp:     time.Now(),
		User:          req.Actor,
	}

	updated, committed, err := s.store.ApplyStageTransition(c.Version, entry, req.IdempotencyKey)
	if errors.Is(err, domain.ErrDuplicateRequest) && req.IdempotencyKey != "" {
		// Lost a race with our own duplicate; hand back the winner's result.
		c2, e2, rerr := s.store.RecallStageTransition(req.CustomerID, req.IdempotencyKey)
		if rerr == nil {
			observability.DuplicateRequests.WithLabelValues("stage").Inc()
			return &MoveResult{Customer: c2, Entry: e2}, nil
		}
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	return &MoveResult{Customer: updated, Entry: committed}, nil
}

// Customer loads one customer.
func (s *LifecycleService) Customer(id string) (*domain.Customer, error) {
	return s.store.GetCustomer(id)
}

// Customers lists all customers.
func (s *LifecycleService) Customers() ([]domain.Customer, error) {
	return s.store.ListCustomers()
}

// CreateCustomer creates a customer directly (without an enquiry) at the
// first pipeline stage.
func (s *LifecycleService) CreateCustomer(firstName, lastName, email, phone string) (*domain.Customer, error) {
	now := time.Now()
	c := &domain.Customer{
		ID:           uuid.NewString(),
		FirstName:    strings.TrimSpace(firstName),
		LastName:     strings.TrimSpace(lastName),
		Email:        strings.TrimSpace(email),
		Phone:        strings.TrimSpace(phone),
		CurrentStage: domain.FirstStage(),
		Version:      1,
		Documents:    map[string]string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.InsertCustomer(c); err != nil {
		return nil, err
	}
	return c, nil
}

// SetDocumentStatus records the upload side channel's status flag for a
// document type. Whole-document mutation, so it rides the version CAS.
func (s *LifecycleService) SetDocumentStatus(customerID string, expectedVersion int64, docType, status string) (*domain.Customer, error) {
	return s.store.UpdateCustomer(customerID, expectedVersion, func(c *domain.Customer) error {
		if c.Documents == nil {
			c.Documents = map[string]string{}
		}
		c.Documents[docType] = status
		return nil
	})
}

// AddJointHolder appends a joint holder under the version CAS.
func (s *LifecycleService) AddJointHolder(customerID string, expectedVersion int64, h domain.JointHolder) (*domain.Customer, error) {
	return s.store.UpdateCustomer(customerID, expectedVersion, func(c *domain.Customer) error {
		c.JointHolders = append(c.JointHolders, h)
		return nil
	})
}

// RemoveJointHolder removes the named joint holder under the version CAS.
// Removing a name that is not present is a no-op on the collection but
// still bumps the version, matching every other whole-document write.
func (s *LifecycleService) RemoveJointHolder(customerID string, expectedVersion int64, name string) (*domain.Customer, error) {
	return s.store.UpdateCustomer(customerID, expectedVersion, func(c *domain.Customer) error {
		kept := c.JointHolders[:0]
		for _, h := range c.JointHolders {
			if h.Name != name {
				kept = append(kept, h)
			}
		}
		c.JointHolders = kept
		return nil
	})
}

// ─── Enquiries ──────────────────────────────────────────────────────────────

// AddEnquiry records an inbound prospect.
func (s *LifecycleService) AddEnquiry(name, email, phone, source, notes string) (*domain.Enquiry, error) {
	e := &domain.Enquiry{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(name),
		Email:      strings.TrimSpace(email),
		Phone:      strings.TrimSpace(phone),
		Source:     source,
		Notes:      notes,
		Status:     domain.EnquiryNew,
		ReceivedAt: time.Now(),
	}
	if err := s.store.InsertEnquiry(e); err != nil {
		return nil, err
	}
	return e, nil
}

// Enquiries lists enquiries, optionally filtered by status.
func (s *LifecycleService) Enquiries(status domain.EnquiryStatus) ([]domain.Enquiry, error) {
	return s.store.ListEnquiries(status)
}

// ConvertEnquiry turns an enquiry into a customer at the first pipeline
// stage, writing the customer, its initial audit entry, and the enquiry's
// converted flag as one unit. Conversion is one-way.
func (s *LifecycleService) ConvertEnquiry(enquiryID, actor string) (*domain.Customer, error) {
	e, err := s.store.GetEnquiry(enquiryID)
	if err != nil {
		return nil, err
	}

	first, last := splitName(e.Name)
	now := time.Now()
	c := &domain.Customer{
		ID:           uuid.NewString(),
		FirstName:    first,
		LastName:     last,
		Email:        e.Email,
		Phone:        e.Phone,
		CurrentStage: domain.FirstStage(),
		Version:      1,
		Documents:    map[string]string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	entry := &domain.StageHistoryEntry{
		ID:         uuid.NewString(),
		CustomerID: c.ID,
		Stage:      c.CurrentStage,
		Direction:  domain.DirectionForward,
		Notes:      "Converted from enquiry",
		Timestamp:  now,
		User:       actor,
	}
	if err := s.store.ConvertEnquiry(enquiryID, c, entry); err != nil {
		return nil, err
	}
	return c, nil
}

// splitName breaks a free-text enquiry name into first/last on the final
// space. Single-word names become the first name.
func splitName(name string) (first, last string) {
	name = strings.TrimSpace(name)
	i := strings.LastIndex(name, " ")
	if i < 0 {
		return name, ""
	}
	return strings.TrimSpace(name[:i]), strings.TrimSpace(name[i+1:])
}
