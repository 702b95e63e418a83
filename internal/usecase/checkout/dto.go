package checkout

import (
	orderUC "storefront/internal/usecase/order"
)

type CheckoutRequest struct {
	DeliveryName    string  `json:"delivery_name" validate:"required,min=2,max=100"`
	DeliveryPhone   string  `json:"delivery_phone" validate:"required,phone"`
	DeliveryAddress string  `json:"delivery_address" validate:"required,min=10,max=500"`
	Notes           *string `json:"notes" validate:"omitempty,max=500"`
}

type CheckoutResponse struct {
	Order            *orderUC.OrderResponse `json:"order"`
	AuthorizationURL string                 `json:"authorization_url"`
	Reference        string                 `json:"reference"`
}

// PaymentResult is the order after a gateway callback or webhook.
// Applied is false when the order had already been finalized.
type PaymentResult struct {
	Order   *orderUC.OrderResponse `json:"order"`
	Outcome string                 `json:"outcome"`
	Applied bool                   `json:"applied"`
}
