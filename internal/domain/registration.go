package domain

import (
	"strings"
	"time"
)

type RegistrationStatus string

const (
	RegistrationRegistered RegistrationStatus = "REGISTERED"
	RegistrationCompleted  RegistrationStatus = "COMPLETED"
	RegistrationCancelled  RegistrationStatus = "CANCELLED"
	RegistrationRejected   RegistrationStatus = "REJECTED"
)

// ActiveRegistrationStatuses are the statuses that occupy a seat and count
// towards team membership.
var ActiveRegistrationStatuses = []RegistrationStatus{RegistrationRegistered, RegistrationCompleted}

type Registration struct {
	ID            uint                  `json:"id"`
	EventID       uint                  `json:"event_id"`
	ParticipantID uint                  `json:"participant_id"`
	Status        RegistrationStatus    `json:"status"`
	TeamName      string                `json:"team_name,omitempty"`
	Responses     map[string]FieldValue `json:"responses"`
	TicketID      *uint                 `json:"ticket_id,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

type TeamAction string

const (
	TeamCreate TeamAction = "create"
	TeamJoin   TeamAction = "join"
)

// TeamOption summarizes one existing team of an event, grouped
// case-insensitively by name.
type TeamOption struct {
	TeamKey        string `json:"team_key"`
	TeamName       string `json:"team_name"`
	MemberCount    int    `json:"member_count"`
	AvailableSpots int    `json:"available_spots"`
	IsFull         bool   `json:"is_full"`
}

// NormalizeTeamName trims and collapses inner whitespace; TeamKey lowers it
// so "Alpha" and "alpha" are the same team.
func NormalizeTeamName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

func TeamKey(name string) string {
	return strings.ToLower(NormalizeTeamName(name))
}
