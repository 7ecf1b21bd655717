package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

// RegisterRequest carries the raw custom form answers. Values stay untyped
// here; per-field validation happens against the event's form definition.
type RegisterRequest struct {
	Responses  map[string]any `json:"responses"`
	TeamAction string         `json:"team_action,omitempty"`
	TeamName   string         `json:"team_name,omitempty"`
}

func (req *RegisterRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.TeamAction, validation.In("", "create", "join")),
		validation.Field(&req.TeamName, validation.Length(0, 80)),
	)
}
