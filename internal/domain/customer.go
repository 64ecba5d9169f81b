package domain

import "time"

// ─── Customer Types ─────────────────────────────────────────────────────────

// DocumentReceived is the document status written by the upload side channel
// after a successful file upload. The file store itself lives outside this
// system; only the status flag is tracked here.
const DocumentReceived = "received"

// JointHolder is a secondary party named on an application.
type JointHolder struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship,omitempty"`
}

// Customer is the aggregate tracked through the application pipeline.
// Version is a monotonically increasing optimistic-concurrency counter:
// every whole-document mutation (stage move, joint-holder edit, document
// status change) must supply the version it last observed.
type Customer struct {
	ID           string            `json:"id"`
	FirstName    string            `json:"first_name"`
	LastName     string            `json:"last_name"`
	Email        string            `json:"email,omitempty"`
	Phone        string            `json:"phone,omitempty"`
	CurrentStage Stage             `json:"current_stage"`
	Version      int64             `json:"version"`
	JointHolders []JointHolder     `json:"joint_holders,omitempty"`
	Documents    map[string]string `json:"documents,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// FullName concatenates first and last name for display.
func (c *Customer) FullName() string {
	switch {
	case c.FirstName == "":
		return c.LastName
	case c.LastName == "":
		return c.FirstName
	default:
		return c.FirstName + " " + c.LastName
	}
}

// Progress returns the fixed pipeline percentage for the customer's stage.
func (c *Customer) Progress() int { return StageProgress(c.CurrentStage) }

// CanMoveForward reports whether a forward transition exists from the
// customer's current stage. Pure function of CurrentStage; used to drive
// UI affordances.
func (c *Customer) CanMoveForward() bool {
	_, ok := NextStage(c.CurrentStage)
	return ok
}

// CanMoveBackward reports whether a backward transition exists.
func (c *Customer) CanMoveBackward() bool {
	_, ok := PreviousStage(c.CurrentStage)
	return ok
}

// ─── Enquiry Types ──────────────────────────────────────────────────────────

// EnquiryStatus tracks whether an enquiry has been converted to a customer.
type EnquiryStatus string

const (
	EnquiryNew       EnquiryStatus = "new"
	EnquiryConverted EnquiryStatus = "converted"
)

// Enquiry is an inbound prospect. Conversion creates a Customer at the
// first catalog stage and is one-way.
type Enquiry struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Email      string        `json:"email,omitempty"`
	Phone      string        `json:"phone,omitempty"`
	Source     string        `json:"source,omitempty"`
	Notes      string        `json:"notes,omitempty"`
	Status     EnquiryStatus `json:"status"`
	ReceivedAt time.Time     `json:"received_at"`
	CustomerID string        `json:"customer_id,omitempty"` // set once converted
}
