package order

import (
	"time"

	domainOrder "storefront/internal/domain/order"
	"storefront/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ListOrdersRequest struct {
	Status   string `form:"status" validate:"omitempty,oneof=pending completed cancelled"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PageSize int    `form:"page_size" validate:"omitempty,min=1,max=100"`
}

type OrderItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	ProductName     string          `json:"product_name"`
	Quantity        int             `json:"quantity"`
	PriceAtPurchase decimal.Decimal `json:"price_at_purchase"`
	Subtotal        decimal.Decimal `json:"subtotal"`
}

type OrderResponse struct {
	ID               uuid.UUID           `json:"id"`
	UserID           uuid.UUID           `json:"user_id"`
	Status           string              `json:"status"`
	TotalAmount      decimal.Decimal     `json:"total_amount"`
	PaymentReference *string             `json:"payment_reference,omitempty"`
	DeliveryName     string              `json:"delivery_name"`
	DeliveryPhone    string              `json:"delivery_phone"`
	DeliveryAddress  string              `json:"delivery_address"`
	Notes            *string             `json:"notes,omitempty"`
	Items            []OrderItemResponse `json:"items"`
	CreatedAt        time.Time           `json:"created_at"`
	CompletedAt      *time.Time          `json:"completed_at,omitempty"`
	CancelledAt      *time.Time          `json:"cancelled_at,omitempty"`
}

type OrderListResponse struct {
	Orders     []OrderResponse `json:"orders"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"page_size"`
	TotalPages int             `json:"total_pages"`
}

func ToOrderResponse(o *domainOrder.Order) *OrderResponse {
	resp := &OrderResponse{
		ID:               o.ID,
		UserID:           o.UserID,
		Status:           string(o.Status),
		TotalAmount:      o.TotalAmount,
		PaymentReference: o.PaymentReference,
		DeliveryName:     o.DeliveryName,
		DeliveryPhone:    o.DeliveryPhone,
		DeliveryAddress:  o.DeliveryAddress,
		Notes:            o.Notes,
		Items:            make([]OrderItemResponse, len(o.Items)),
		CreatedAt:        o.CreatedAt,
		CompletedAt:      o.CompletedAt,
		CancelledAt:      o.CancelledAt,
	}
	for i, item := range o.Items {
		resp.Items[i] = OrderItemResponse{
			ID:              item.ID,
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.PriceAtPurchase,
			Subtotal:        item.Subtotal(),
		}
	}
	return resp
}

func ToOrderListResponse(orders []*domainOrder.Order, total int64, page, pageSize int) *OrderListResponse {
	resp := &OrderListResponse{
		Orders:     make([]OrderResponse, len(orders)),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: utils.TotalPages(total, pageSize),
	}
	for i, o := range orders {
		resp.Orders[i] = *ToOrderResponse(o)
	}
	return resp
}
