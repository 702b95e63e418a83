package cart

import (
	domainCart "storefront/internal/domain/cart"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1,max=1000"`
}

type SetQuantityRequest struct {
	Quantity int `json:"quantity" validate:"min=-1000,max=1000"`
}

type CartItemResponse struct {
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type CartResponse struct {
	Items     []CartItemResponse `json:"items"`
	Total     decimal.Decimal    `json:"total"`
	ItemCount int                `json:"item_count"`
	Notice    string             `json:"notice,omitempty"`
}

func ToCartResponse(c *domainCart.Cart) *CartResponse {
	items := c.Items()
	resp := &CartResponse{
		Items:     make([]CartItemResponse, len(items)),
		Total:     c.Total(),
		ItemCount: c.ItemCount(),
	}
	for i, item := range items {
		resp.Items[i] = CartItemResponse{
			ProductID: item.ProductID,
			Name:      item.Name,
			ImageURL:  item.ImageURL,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.LineTotal(),
		}
	}
	return resp
}
