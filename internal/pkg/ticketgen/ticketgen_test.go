package ticketgen

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTicketID(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		id := NewTicketID()

		assert.True(t, strings.HasPrefix(id, "FEL-"))
		assert.Len(t, id, len("FEL-")+10)
		assert.Equal(t, strings.ToUpper(id), id)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestEncodeDecode(t *testing.T) {
	original := Payload{
		TicketID:      "FEL-AB12CD34EF",
		EventID:       42,
		ParticipantID: 7,
		IssuedAt:      time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC).Unix(),
	}

	raw, err := Encode(original)
	require.NoError(t, err)

	decoded, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, original, decoded)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "FEL-AB12CD34EF"},
		{"empty", ""},
		{"missing ticket id", `{"e":42,"p":7}`},
		{"missing event", `{"t":"FEL-AB12CD34EF","p":7}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.raw)
			assert.ErrorIs(t, err, ErrMalformedPayload)
		})
	}
}

func TestIssue(t *testing.T) {
	ticketID, payload, qrData, err := Issue(42, 7, time.Now())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ticketID, "FEL-"))
	assert.True(t, strings.HasPrefix(qrData, "data:image/png;base64,"))

	decoded, err := Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, ticketID, decoded.TicketID)
	assert.Equal(t, uint(42), decoded.EventID)
	assert.Equal(t, uint(7), decoded.ParticipantID)
}
