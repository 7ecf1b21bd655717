package request

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type ScanRequest struct {
	Payload string `json:"payload"`
}

func (req *ScanRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Payload, validation.Required),
	)
}

// ManualOverrideRequest identifies the participant by ticket id or email;
// door staff rarely know internal ids.
type ManualOverrideRequest struct {
	TicketID         string `json:"ticket_id,omitempty"`
	ParticipantEmail string `json:"participant_email,omitempty"`
	Note             string `json:"note,omitempty"`
}

func (req *ManualOverrideRequest) Validate() error {
	if req.TicketID == "" && req.ParticipantEmail == "" {
		return errors.New("either ticket_id or participant_email is required")
	}

	return validation.ValidateStruct(
		req,
		validation.Field(&req.ParticipantEmail, is.Email),
		validation.Field(&req.Note, validation.Length(0, 300)),
	)
}
