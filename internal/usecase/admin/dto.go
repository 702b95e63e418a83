package admin

import (
	"time"

	domainOrder "storefront/internal/domain/order"
	domainUser "storefront/internal/domain/user"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=200"`
	Description string `json:"description" validate:"omitempty,max=2000"`
	Price       string `json:"price" validate:"required,numeric"`
	Category    string `json:"category" validate:"required,max=100"`
	Size        string `json:"size" validate:"omitempty,max=50"`
	Color       string `json:"color" validate:"omitempty,max=50"`
	ImageURL    string `json:"image_url" validate:"omitempty,max=500"`
	Stock       int    `json:"stock" validate:"min=0,max=1000000"`
}

type UpdateStockRequest struct {
	Stock *int `json:"stock" validate:"required,min=0,max=1000000"`
}

type AdjustStockRequest struct {
	Delta int `json:"delta" validate:"required,min=-1000000,max=1000000"`
}

type OrderFilterRequest struct {
	Status    string `form:"status" validate:"omitempty,oneof=pending completed cancelled"`
	UserID    string `form:"user_id" validate:"omitempty,uuid"`
	From      string `form:"from" validate:"omitempty,datetime=2006-01-02"`
	To        string `form:"to" validate:"omitempty,datetime=2006-01-02"`
	Page      int    `form:"page" validate:"omitempty,min=1"`
	PageSize  int    `form:"page_size" validate:"omitempty,min=1,max=100"`
	SortBy    string `form:"sort_by" validate:"omitempty,oneof=created_at total_amount status"`
	SortOrder string `form:"sort_order" validate:"omitempty,oneof=asc desc"`
}

type CustomerListRequest struct {
	Page     int `form:"page" validate:"omitempty,min=1"`
	PageSize int `form:"page_size" validate:"omitempty,min=1,max=100"`
}

type TopProductResponse struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitsSold   int             `json:"units_sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

type StatisticsResponse struct {
	TotalOrders    int                  `json:"total_orders"`
	ByStatus       map[string]int       `json:"by_status"`
	PendingOrders  int                  `json:"pending_orders"`
	CompletedToday int                  `json:"completed_today"`
	Revenue        decimal.Decimal      `json:"revenue"`
	RevenueToday   decimal.Decimal      `json:"revenue_today"`
	AverageOrder   decimal.Decimal      `json:"average_order"`
	TotalCustomers int                  `json:"total_customers"`
	TopProducts    []TopProductResponse `json:"top_products"`
}

type CustomerResponse struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	Phone           *string         `json:"phone,omitempty"`
	Address         *string         `json:"address,omitempty"`
	IsActive        bool            `json:"is_active"`
	RegisteredAt    time.Time       `json:"registered_at"`
	OrderCount      int             `json:"order_count"`
	CompletedOrders int             `json:"completed_orders"`
	TotalSpent      decimal.Decimal `json:"total_spent"`
}

type CustomerListResponse struct {
	Customers  []CustomerResponse `json:"customers"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

func ToStatisticsResponse(stats *domainOrder.Statistics) *StatisticsResponse {
	resp := &StatisticsResponse{
		TotalOrders:    stats.TotalOrders,
		ByStatus:       make(map[string]int, len(domainOrder.AllStatuses())),
		PendingOrders:  stats.PendingOrders,
		CompletedToday: stats.CompletedToday,
		Revenue:        stats.Revenue,
		RevenueToday:   stats.RevenueToday,
		AverageOrder:   stats.AverageOrder,
		TotalCustomers: stats.TotalCustomers,
		TopProducts:    make([]TopProductResponse, len(stats.TopProducts)),
	}
	// Report every status, including ones with no orders yet.
	for _, s := range domainOrder.AllStatuses() {
		resp.ByStatus[string(s)] = stats.ByStatus[string(s)]
	}
	for i, p := range stats.TopProducts {
		resp.TopProducts[i] = TopProductResponse{
			ProductID:   p.ProductID,
			ProductName: p.ProductName,
			UnitsSold:   p.UnitsSold,
			Revenue:     p.Revenue,
		}
	}
	return resp
}

func ToCustomerResponse(c *domainUser.CustomerSummary) CustomerResponse {
	return CustomerResponse{
		ID:              c.User.ID,
		Name:            c.User.Name,
		Email:           c.User.Email,
		Phone:           c.User.Phone,
		Address:         c.User.Address,
		IsActive:        c.User.IsActive,
		RegisteredAt:    c.User.CreatedAt,
		OrderCount:      c.OrderCount,
		CompletedOrders: c.CompletedOrders,
		TotalSpent:      c.TotalSpent,
	}
}
