// Package ledger manages the per-customer fee ledger: recording fees,
// moving them between payment statuses, and summarizing the book for
// advisor dashboards.
package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rp011dev/mort-mgmnt-sub000/internal/domain"
	"github.com/rp011dev/mort-mgmnt-sub000/internal/infra/observability"
)

// Config tunes ledger defaults. Zero values fall back to the built-ins.
type Config struct {
	Currency             string
	DefaultPaymentMethod string
	UpcomingWindow       time.Duration
}

// DefaultConfig returns the standard brokerage defaults.
func DefaultConfig() Config {
	return Config{
		Currency:             "GBP",
		DefaultPaymentMethod: domain.DefaultPaymentMethod,
		UpcomingWindow:       domain.UpcomingWindow,
	}
}

// FeeService owns fee lifecycle rules on top of the fee store.
type FeeService struct {
	store domain.FeeStore
	cfg   Config
}

// NewFeeService creates the fee service, normalizing any zero config
// fields to the defaults.
func NewFeeService(store domain.FeeStore, cfg Config) *FeeService {
	def := DefaultConfig()
	if cfg.Currency == "" {
		cfg.Currency = def.Currency
	}
	if cfg.DefaultPaymentMethod == "" {
		cfg.DefaultPaymentMethod = def.DefaultPaymentMethod
	}
	if cfg.UpcomingWindow <= 0 {
		cfg.UpcomingWindow = def.UpcomingWindow
	}
	return &FeeService{store: store, cfg: cfg}
}

// AddRequest is one fee-creation command. Amount arrives as the raw
// string from the form or API body and is parsed here, never as a float.
type AddRequest struct {
	CustomerID     string
	Type           string
	Amount         string
	Currency       string
	DueDate        *time.Time
	Description    string
	Reference      string
	AddedBy        string
	IdempotencyKey string
}

// Add validates and records a fee against a customer. New fees always
// start UNPAID. Unknown fee types fail with ErrInvalidFeeType and
// non-numeric or negative amounts with ErrInvalidFeeAmount.
func (s *FeeService) Add(req AddRequest) (*domain.Fee, error) {
	if req.IdempotencyKey != "" {
		f, err := s.store.RecallFee(req.CustomerID, req.IdempotencyKey)
		if err == nil {
			observability.DuplicateRequests.WithLabelValues("fee").Inc()
			return f, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
	}

	feeType, ok := domain.ParseFeeType(req.Type)
	if !ok {
		return nil, fmt.Errorf("fee type %q: %w", req.Type, domain.ErrInvalidFeeType)
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		return nil, fmt.Errorf("amount %q: %w", req.Amount, domain.ErrInvalidFeeAmount)
	}
	if amount.IsNegative() {
		return nil, fmt.Errorf("amount %s is negative: %w", amount, domain.ErrInvalidFeeAmount)
	}

	currency := req.Currency
	if currency == "" {
		currency = s.cfg.Currency
	}
	f := &domain.Fee{
		ID:          uuid.NewString(),
		CustomerID:  req.CustomerID,
		Type:        feeType,
		Amount:      amount,
		Currency:    currency,
		Status:      domain.FeeUnpaid,
		DueDate:     req.DueDate,
		Description: req.Description,
		Reference:   req.Reference,
		AddedDate:   time.Now(),
		AddedBy:     req.AddedBy,
	}
	if err := s.store.InsertFee(f, req.IdempotencyKey); err != nil {
		if errors.Is(err, domain.ErrDuplicateRequest) && req.IdempotencyKey != "" {
			if orig, rerr := s.store.RecallFee(req.CustomerID, req.IdempotencyKey); rerr == nil {
				observability.DuplicateRequests.WithLabelValues("fee").Inc()
				return orig, nil
			}
		}
		return nil, err
	}
	return f, nil
}

// UpdateStatus moves a fee to the given status. Any status can move to
// any other. Marking PAID stamps the payment date server-side and
// resolves the payment method through the fallback chain: the caller's
// value, then the fee's previously recorded method, then the configured
// default. Leaving PAID keeps the historical payment metadata in place.
func (s *FeeService) UpdateStatus(feeID string, status domain.FeeStatus, paymentMethod string) (*domain.Fee, error) {
	f, err := s.store.GetFee(feeID)
	if err != nil {
		return nil, err
	}

	if status == domain.FeePaid {
		now := time.Now()
		f.PaidDate = &now
		method := paymentMethod
		if method == "" {
			method = f.PaymentMethod
		}
		if method == "" {
			method = s.cfg.DefaultPaymentMethod
		}
		f.PaymentMethod = method
	}
	f.Status = status

	if err := s.store.UpdateFee(f); err != nil {
		return nil, err
	}
	return f, nil
}

// Remove deletes a fee from a customer's ledger. Deleting a fee that is
// not there, or that belongs to a different customer, fails with
// ErrFeeNotFound so double-deletes surface instead of passing silently.
func (s *FeeService) Remove(feeID, customerID string) error {
	return s.store.DeleteFee(feeID, customerID)
}

// Get loads one fee.
func (s *FeeService) Get(feeID string) (*domain.Fee, error) {
	return s.store.GetFee(feeID)
}

// List returns a customer's fees, oldest first.
func (s *FeeService) List(customerID string) ([]domain.Fee, error) {
	return s.store.ListFees(customerID)
}

// Summary computes the ledger roll-up for one customer as of now.
// Summaries are always derived from the stored fees, never persisted.
func (s *FeeService) Summary(customerID string) (*domain.FeeSummary, error) {
	fees, err := s.store.ListFees(customerID)
	if err != nil {
		return nil, err
	}
	sum := domain.SummarizeFees(fees, time.Now(), s.cfg.UpcomingWindow)
	return &sum, nil
}

// Summarize rolls up an arbitrary fee slice using the service's window.
func (s *FeeService) Summarize(fees []domain.Fee) domain.FeeSummary {
	return domain.SummarizeFees(fees, time.Now(), s.cfg.UpcomingWindow)
}
