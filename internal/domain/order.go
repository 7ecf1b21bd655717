package domain

import "time"

type OrderStatus string

const (
	OrderCreated         OrderStatus = "CREATED"
	OrderPendingApproval OrderStatus = "PENDING_APPROVAL"
	OrderApproved        OrderStatus = "APPROVED"
	OrderRejected        OrderStatus = "REJECTED"
	OrderCancelled       OrderStatus = "CANCELLED"
)

// OpenOrderStatuses are the states in which an order blocks a participant
// from creating another one for the same event.
var OpenOrderStatuses = []OrderStatus{OrderCreated, OrderPendingApproval}

// CountedOrderStatuses are the states whose quantity counts against an
// item's per-participant purchase limit.
var CountedOrderStatuses = []OrderStatus{OrderCreated, OrderPendingApproval, OrderApproved}

type MerchandiseOrder struct {
	ID            uint        `json:"id"`
	EventID       uint        `json:"event_id"`
	ParticipantID uint        `json:"participant_id"`
	ItemSKU       string      `json:"item_sku"`
	Quantity      int         `json:"quantity"`
	Amount        int         `json:"amount"`
	Status        OrderStatus `json:"status"`

	PaymentProofPath string `json:"payment_proof_path,omitempty"`
	PaymentProofName string `json:"payment_proof_name,omitempty"`
	PaymentProofMime string `json:"payment_proof_mime,omitempty"`

	ReviewComment string     `json:"review_comment,omitempty"`
	ReviewedBy    *uint      `json:"reviewed_by,omitempty"`
	ReviewedAt    *time.Time `json:"reviewed_at,omitempty"`

	TicketID *uint `json:"ticket_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ReviewAction string

const (
	ReviewApprove ReviewAction = "approve"
	ReviewReject  ReviewAction = "reject"
)
