package domain

import "time"

type Role string

const (
	RoleParticipant Role = "participant"
	RoleOrganizer   Role = "organizer"
	RoleAdmin       Role = "admin"
)

type ParticipantType string

const (
	ParticipantIIIT    ParticipantType = "IIIT"
	ParticipantNonIIIT ParticipantType = "NON_IIIT"
)

type User struct {
	ID       uint   `json:"id"`
	Role     Role   `json:"role"`
	Email    string `json:"email"`
	Password string `json:"-"`

	FirstName       string          `json:"first_name,omitempty"`
	LastName        string          `json:"last_name,omitempty"`
	ParticipantType ParticipantType `json:"participant_type,omitempty"`
	CollegeName     string          `json:"college_name,omitempty"`
	ContactNumber   string          `json:"contact_number,omitempty"`

	OrganizerName     string `json:"organizer_name,omitempty"`
	Category          string `json:"category,omitempty"`
	Description       string `json:"description,omitempty"`
	ContactEmail      string `json:"contact_email,omitempty"`
	DiscordWebhookURL string `json:"-"`

	Interests          []string `json:"interests,omitempty"`
	FollowedOrganizers []uint   `json:"followed_organizers,omitempty"`

	OnboardingCompleted bool `json:"onboarding_completed"`
	Disabled            bool `json:"disabled"`
	Archived            bool `json:"archived"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type ResetRequestStatus string

const (
	ResetRequestPending   ResetRequestStatus = "PENDING"
	ResetRequestResolved  ResetRequestStatus = "RESOLVED"
	ResetRequestDismissed ResetRequestStatus = "DISMISSED"
)

// PasswordResetRequest is an organizer's ask for an admin to set a new
// password on their behalf.
type PasswordResetRequest struct {
	ID         uint               `json:"id"`
	UserID     uint               `json:"user_id"`
	Status     ResetRequestStatus `json:"status"`
	ResolvedBy *uint              `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time         `json:"resolved_at,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// DisplayName prefers the participant name, falling back to the organizer
// name and finally the email.
func (u User) DisplayName() string {
	if u.Role == RoleOrganizer && u.OrganizerName != "" {
		return u.OrganizerName
	}

	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Email
	}

	return name
}
