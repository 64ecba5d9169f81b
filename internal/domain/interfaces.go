package domain

// ─── Store Interfaces ───────────────────────────────────────────────────────
// These interfaces define the boundary between the application services and
// persistence. Infrastructure implements them; services depend only on
// these, never on a concrete database.

// CustomerStore is per-customer CRUD with optimistic versioning. Every
// whole-document mutation goes through UpdateCustomer's compare-and-swap:
// a stale expectedVersion yields ErrVersionConflict, never a silent
// overwrite.
type CustomerStore interface {
	InsertCustomer(c *Customer) error
	GetCustomer(id string) (*Customer, error)
	ListCustomers() ([]Customer, error)
	// UpdateCustomer loads the customer, applies mutate, and persists the
	// result only if the stored version still equals expectedVersion.
	// The returned customer carries the bumped version.
	UpdateCustomer(id string, expectedVersion int64, mutate func(*Customer) error) (*Customer, error)
}

// TransitionStore performs the two-part stage move as one atomic unit:
// CAS stage update, history append, and idempotency-key record must all be
// observed together or not at all.
type TransitionStore interface {
	// ApplyStageTransition commits the customer's new stage (taken from
	// entry.Stage) and the audit entry in a single transaction. The entry's
	// ID and Timestamp must already be assigned. An empty idempotencyKey
	// disables deduplication.
	ApplyStageTransition(expectedVersion int64, entry *StageHistoryEntry, idempotencyKey string) (*Customer, *StageHistoryEntry, error)
	// RecallStageTransition returns the result originally produced for
	// (customerID, idempotencyKey), or ErrNotFound when the key is unseen.
	RecallStageTransition(customerID, idempotencyKey string) (*Customer, *StageHistoryEntry, error)
}

// HistoryStore is the append-only, paginated audit trail.
type HistoryStore interface {
	AppendHistory(e *StageHistoryEntry) error
	ListHistory(customerID string, page, pageSize int, order SortOrder) (*HistoryPage, error)
	StageOccupants(stage Stage) ([]string, error)
}

// FeeStore is CRUD for the fee sub-ledger. Fee rows are keyed by their own
// id and carry no version checks; they are point mutations, not
// whole-document rewrites.
type FeeStore interface {
	InsertFee(f *Fee, idempotencyKey string) error
	// RecallFee returns the fee originally created for (customerID,
	// idempotencyKey), or ErrNotFound when the key is unseen.
	RecallFee(customerID, idempotencyKey string) (*Fee, error)
	GetFee(id string) (*Fee, error)
	ListFees(customerID string) ([]Fee, error)
	UpdateFee(f *Fee) error
	DeleteFee(id, customerID string) error
}

// EnquiryStore holds inbound prospects and their one-way conversion.
type EnquiryStore interface {
	InsertEnquiry(e *Enquiry) error
	GetEnquiry(id string) (*Enquiry, error)
	ListEnquiries(status EnquiryStatus) ([]Enquiry, error)
	// ConvertEnquiry marks the enquiry converted and creates the customer
	// plus its initial history entry in one transaction.
	ConvertEnquiry(enquiryID string, c *Customer, entry *StageHistoryEntry) error
}

// ReconcileStore exposes the consistency check behind the torn-write sweep.
type ReconcileStore interface {
	FindTornTransitions() ([]TornTransition, error)
}
