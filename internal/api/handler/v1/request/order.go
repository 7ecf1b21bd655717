package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type PurchaseRequest struct {
	ItemSKU  string `json:"item_sku"`
	Quantity int    `json:"quantity"`
}

func (req *PurchaseRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.ItemSKU, validation.Required, validation.Length(1, 60)),
		validation.Field(&req.Quantity, validation.Required, validation.Min(1)),
	)
}

type ReviewOrderRequest struct {
	Action  string `json:"action"`
	Comment string `json:"comment,omitempty"`
}

func (req *ReviewOrderRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Action, validation.Required, validation.In("approve", "reject")),
		validation.Field(&req.Comment, validation.Length(0, 500)),
	)
}
