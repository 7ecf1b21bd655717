package domain

import "time"

type TicketStatus string

const (
	TicketActive    TicketStatus = "ACTIVE"
	TicketUsed      TicketStatus = "USED"
	TicketCancelled TicketStatus = "CANCELLED"
)

// Ticket is issued exactly once per successful registration or approved
// order; only its status ever changes afterwards.
type Ticket struct {
	ID            uint   `json:"id"`
	TicketID      string `json:"ticket_id"`
	EventID       uint   `json:"event_id"`
	ParticipantID uint   `json:"participant_id"`

	RegistrationID *uint `json:"registration_id,omitempty"`
	OrderID        *uint `json:"order_id,omitempty"`

	QRPayload string       `json:"qr_payload"`
	QRData    string       `json:"qr_data"`
	Status    TicketStatus `json:"status"`

	CreatedAt time.Time `json:"created_at"`
}
