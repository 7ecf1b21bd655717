package request

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

type FormFieldRequest struct {
	FieldID  string   `json:"field_id"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Options  []string `json:"options,omitempty"`
	Required bool     `json:"required"`
	Order    int      `json:"order"`
}

type MerchandiseItemRequest struct {
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	Size          string `json:"size,omitempty"`
	Color         string `json:"color,omitempty"`
	Variant       string `json:"variant,omitempty"`
	Price         int    `json:"price"`
	Stock         int    `json:"stock"`
	PurchaseLimit int    `json:"purchase_limit"`
}

type CreateEventRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Eligibility []string `json:"eligibility"`
	Tags        []string `json:"tags"`

	RegistrationDeadline time.Time `json:"registration_deadline"`
	StartDate            time.Time `json:"start_date"`
	EndDate              time.Time `json:"end_date"`

	RegistrationLimit int  `json:"registration_limit"`
	RegistrationFee   int  `json:"registration_fee"`
	TeamBased         bool `json:"team_based"`
	MaxTeamSize       int  `json:"max_team_size"`

	CustomForm  []FormFieldRequest       `json:"custom_form,omitempty"`
	Merchandise []MerchandiseItemRequest `json:"merchandise,omitempty"`

	Status string `json:"status,omitempty"`
}

func (req *CreateEventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(2, 120)),
		validation.Field(&req.Type, validation.Required, validation.In("NORMAL", "MERCHANDISE")),
		validation.Field(&req.RegistrationLimit, validation.Required, validation.Min(1)),
		validation.Field(&req.RegistrationFee, validation.Min(0)),
		validation.Field(&req.Status, validation.In("", "DRAFT", "PUBLISHED")),
	)
}

// UpdateEventRequest uses pointers so the handler can tell "not sent" apart
// from "set to zero value". Which fields are legal to change depends on the
// event's status and is the service's call.
type UpdateEventRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Eligibility []string `json:"eligibility,omitempty"`
	Tags        []string `json:"tags,omitempty"`

	RegistrationDeadline *time.Time `json:"registration_deadline,omitempty"`
	StartDate            *time.Time `json:"start_date,omitempty"`
	EndDate              *time.Time `json:"end_date,omitempty"`

	RegistrationLimit *int  `json:"registration_limit,omitempty"`
	RegistrationFee   *int  `json:"registration_fee,omitempty"`
	TeamBased         *bool `json:"team_based,omitempty"`
	MaxTeamSize       *int  `json:"max_team_size,omitempty"`

	CustomForm  []FormFieldRequest       `json:"custom_form,omitempty"`
	Merchandise []MerchandiseItemRequest `json:"merchandise,omitempty"`

	Status *string `json:"status,omitempty"`
}

func (req *UpdateEventRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Status, validation.By(func(value interface{}) error {
			status, _ := value.(*string)
			if status == nil {
				return nil
			}
			return validation.Validate(*status,
				validation.In("DRAFT", "PUBLISHED", "ONGOING", "CLOSED", "COMPLETED"))
		})),
	)
}

type ChangeStatusRequest struct {
	Status string `json:"status"`
}

func (req *ChangeStatusRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Status, validation.Required,
			validation.In("DRAFT", "PUBLISHED", "ONGOING", "CLOSED", "COMPLETED")),
	)
}
