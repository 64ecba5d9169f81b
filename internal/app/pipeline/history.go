package pipeline

import (
	"github.com/rp011dev/mort-mgmnt-sub000/internal/domain"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// HistoryService reads the audit trail. The trail itself is only ever
// written through stage transitions, so this service is read-only.
type HistoryService struct {
	store domain.HistoryStore
}

// NewHistoryService creates the history read service.
func NewHistoryService(store domain.HistoryStore) *HistoryService {
	return &HistoryService{store: store}
}

// ListForCustomer returns a page of the customer's trail. Out-of-range
// paging inputs clamp rather than error: page floors at 1, page size
// floors at the default and caps at 100.
func (s *HistoryService) ListForCustomer(customerID string, page, pageSize int, order domain.SortOrder) (*domain.HistoryPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if order != domain.OrderAsc && order != domain.OrderDesc {
		order = domain.OrderDesc
	}
	return s.store.ListHistory(customerID, page, pageSize, order)
}

// Recent returns the customer's n most recent entries, newest first.
func (s *HistoryService) Recent(customerID string, n int) ([]domain.StageHistoryEntry, error) {
	p, err := s.ListForCustomer(customerID, 1, n, domain.OrderDesc)
	if err != nil {
		return nil, err
	}
	return p.Items, nil
}

// Occupants returns the IDs of customers currently sitting at the given
// stage. An unknown stage simply has no occupants.
func (s *HistoryService) Occupants(stage domain.Stage) ([]string, error) {
	return s.store.StageOccupants(stage)
}
