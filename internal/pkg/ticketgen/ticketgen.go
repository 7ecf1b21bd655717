// Package ticketgen mints ticket identifiers and the QR artifacts that
// travel with them.
package ticketgen

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

const ticketPrefix = "FEL-"

var ErrMalformedPayload = errors.New("malformed ticket payload")

// Payload is the JSON embedded in every QR code. Field names stay short so
// the QR stays dense enough for phone screens.
type Payload struct {
	TicketID      string `json:"t"`
	EventID       uint   `json:"e"`
	ParticipantID uint   `json:"p"`
	IssuedAt      int64  `json:"iat"`
}

// NewTicketID returns a fresh "FEL-XXXXXXXXXX" identifier. Uniqueness is
// ultimately enforced by the tickets table's unique index.
func NewTicketID() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))

	return ticketPrefix + raw[:10]
}

// Encode serializes the payload for storage and embedding.
func Encode(p Payload) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("json.Marshal -> %w", err)
	}

	return string(raw), nil
}

// Decode parses a scanned QR payload.
func Decode(raw string) (Payload, error) {
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Payload{}, ErrMalformedPayload
	}
	if p.TicketID == "" || p.EventID == 0 {
		return Payload{}, ErrMalformedPayload
	}

	return p, nil
}

// RenderQR returns the payload as a PNG data URL ready for an <img> tag.
func RenderQR(payload string) (string, error) {
	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		return "", fmt.Errorf("qrcode.Encode -> %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// Issue builds the full ticket artifact set for one admission.
func Issue(eventID, participantID uint, now time.Time) (ticketID, payload, qrData string, err error) {
	ticketID = NewTicketID()

	payload, err = Encode(Payload{
		TicketID:      ticketID,
		EventID:       eventID,
		ParticipantID: participantID,
		IssuedAt:      now.Unix(),
	})
	if err != nil {
		return "", "", "", err
	}

	qrData, err = RenderQR(payload)
	if err != nil {
		return "", "", "", err
	}

	return ticketID, payload, qrData, nil
}
