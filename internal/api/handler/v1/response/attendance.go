package response

import (
	"time"

	"github.com/felicity-connect/backend/internal/domain"
)

// DuplicateScanResponse rides on the 409 so door staff can see who already
// checked in.
type DuplicateScanResponse struct {
	Error       string      `json:"error"`
	Participant domain.User `json:"participant"`
	FirstSeen   time.Time   `json:"first_seen"`
}
