package domain

import "time"

type EventType string

const (
	EventNormal      EventType = "NORMAL"
	EventMerchandise EventType = "MERCHANDISE"
)

type EventStatus string

const (
	StatusDraft     EventStatus = "DRAFT"
	StatusPublished EventStatus = "PUBLISHED"
	StatusOngoing   EventStatus = "ONGOING"
	StatusClosed    EventStatus = "CLOSED"
	StatusCompleted EventStatus = "COMPLETED"
)

type MerchandiseItem struct {
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	Size          string `json:"size,omitempty"`
	Color         string `json:"color,omitempty"`
	Variant       string `json:"variant,omitempty"`
	Price         int    `json:"price"`
	Stock         int    `json:"stock"`
	PurchaseLimit int    `json:"purchase_limit"`
}

type Event struct {
	ID          uint      `json:"id"`
	OrganizerID uint      `json:"organizer_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Type        EventType `json:"type"`

	Eligibility []string `json:"eligibility"`
	Tags        []string `json:"tags"`

	RegistrationDeadline time.Time `json:"registration_deadline"`
	StartDate            time.Time `json:"start_date"`
	EndDate              time.Time `json:"end_date"`

	RegistrationLimit int  `json:"registration_limit"`
	RegistrationFee   int  `json:"registration_fee"`
	TeamBased         bool `json:"team_based"`
	MaxTeamSize       int  `json:"max_team_size"`

	CustomForm []FormField `json:"custom_form,omitempty"`
	FormLocked bool        `json:"form_locked"`

	Merchandise []MerchandiseItem `json:"merchandise,omitempty"`

	Status EventStatus `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Item finds a merchandise item by SKU.
func (e *Event) Item(sku string) (MerchandiseItem, bool) {
	for _, item := range e.Merchandise {
		if item.SKU == sku {
			return item, true
		}
	}

	return MerchandiseItem{}, false
}

// Registrable reports whether the event currently admits registrations or
// purchases. The reason string is user-facing.
func (e *Event) Registrable(now time.Time) (bool, string) {
	if e.RegistrationDeadline.Before(now) {
		return false, "registration deadline has passed"
	}
	if e.Status == StatusClosed || e.Status == StatusCompleted {
		return false, "event registration is closed"
	}
	if e.Status == StatusDraft {
		return false, "event is not published yet"
	}

	return true, ""
}
