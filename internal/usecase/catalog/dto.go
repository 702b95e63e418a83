package catalog

import (
	"time"

	domainProduct "storefront/internal/domain/product"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductFilterRequest struct {
	MinPrice    *string `form:"min_price" json:"min_price,omitempty" validate:"omitempty,numeric"`
	MaxPrice    *string `form:"max_price" json:"max_price,omitempty" validate:"omitempty,numeric"`
	Size        string  `form:"size" json:"size,omitempty" validate:"omitempty,max=50"`
	Category    string  `form:"category" json:"category,omitempty" validate:"omitempty,max=100"`
	Color       string  `form:"color" json:"color,omitempty" validate:"omitempty,max=50"`
	Search      string  `form:"search" json:"search,omitempty" validate:"omitempty,max=100"`
	InStockOnly bool    `form:"in_stock" json:"in_stock,omitempty"`

	Page      int    `form:"page" json:"page" validate:"omitempty,min=1"`
	PageSize  int    `form:"page_size" json:"page_size" validate:"omitempty,min=1,max=100"`
	SortBy    string `form:"sort_by" json:"sort_by,omitempty" validate:"omitempty,oneof=price name created_at stock"`
	SortOrder string `form:"sort_order" json:"sort_order,omitempty" validate:"omitempty,oneof=asc desc"`
}

type ProductResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Size        string          `json:"size"`
	Color       string          `json:"color"`
	ImageURL    string          `json:"image_url"`
	Stock       int             `json:"stock"`
	InStock     bool            `json:"in_stock"`
	CreatedAt   time.Time       `json:"created_at"`
}

type ProductListResponse struct {
	Products   []ProductResponse `json:"products"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

func ToProductResponse(p *domainProduct.Product) *ProductResponse {
	if p == nil {
		return nil
	}
	return &ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Size:        p.Size,
		Color:       p.Color,
		ImageURL:    p.ImageURL,
		Stock:       p.Stock,
		InStock:     p.InStock(),
		CreatedAt:   p.CreatedAt,
	}
}

// toDomainFilter parses the price bounds. A min above max is rejected.
func toDomainFilter(req *ProductFilterRequest) (*domainProduct.Filter, error) {
	filter := &domainProduct.Filter{
		Size:        req.Size,
		Category:    req.Category,
		Color:       req.Color,
		Search:      req.Search,
		InStockOnly: req.InStockOnly,
		Page:        req.Page,
		PageSize:    req.PageSize,
		SortBy:      req.SortBy,
		SortOrder:   req.SortOrder,
	}

	if req.MinPrice != nil && *req.MinPrice != "" {
		v, err := decimal.NewFromString(*req.MinPrice)
		if err != nil || v.IsNegative() {
			return nil, errInvalidPriceBound
		}
		filter.MinPrice = &v
	}
	if req.MaxPrice != nil && *req.MaxPrice != "" {
		v, err := decimal.NewFromString(*req.MaxPrice)
		if err != nil || v.IsNegative() {
			return nil, errInvalidPriceBound
		}
		filter.MaxPrice = &v
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && filter.MinPrice.GreaterThan(*filter.MaxPrice) {
		return nil, errInvalidPriceBound
	}

	return filter, nil
}
