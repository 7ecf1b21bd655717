package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

type CreateOrganizerRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	OrganizerName     string `json:"organizer_name"`
	Category          string `json:"category"`
	Description       string `json:"description,omitempty"`
	ContactEmail      string `json:"contact_email,omitempty"`
	DiscordWebhookURL string `json:"discord_webhook_url,omitempty"`
}

func (req *CreateOrganizerRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Email, validation.Required, is.Email),
		validation.Field(&req.Password, validation.Required),
		validation.Field(&req.OrganizerName, validation.Required, validation.Length(2, 80)),
		validation.Field(&req.Category, validation.Required, validation.Length(2, 50)),
		validation.Field(&req.ContactEmail, is.Email),
		validation.Field(&req.DiscordWebhookURL, is.URL),
	)
	if err != nil {
		return err
	}

	if ok, _ := passwordExp.MatchString(req.Password); !ok {
		return errInvalidPassword
	}

	return nil
}

type UpdateOrganizerRequest struct {
	OrganizerName     string `json:"organizer_name,omitempty"`
	Category          string `json:"category,omitempty"`
	Description       string `json:"description,omitempty"`
	ContactEmail      string `json:"contact_email,omitempty"`
	DiscordWebhookURL string `json:"discord_webhook_url,omitempty"`
}

func (req *UpdateOrganizerRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.OrganizerName, validation.Length(0, 80)),
		validation.Field(&req.Category, validation.Length(0, 50)),
		validation.Field(&req.ContactEmail, is.Email),
		validation.Field(&req.DiscordWebhookURL, is.URL),
	)
}

type ResolveResetRequest struct {
	NewPassword string `json:"new_password"`
}

func (req *ResolveResetRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.NewPassword, validation.Required),
	)
	if err != nil {
		return err
	}

	if ok, _ := passwordExp.MatchString(req.NewPassword); !ok {
		return errInvalidPassword
	}

	return nil
}
