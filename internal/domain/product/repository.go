package product

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository defines the interface for product repository operations
type Repository interface {
	Create(ctx context.Context, product *Product) error
	GetByID(ctx context.Context, productID uuid.UUID) (*Product, error)
	GetByIDs(ctx context.Context, productIDs []uuid.UUID) ([]*Product, error)
	List(ctx context.Context, filter *Filter) ([]*Product, int64, error)
	UpdateStock(ctx context.Context, productID uuid.UUID, stock int) error
	AdjustStock(ctx context.Context, productID uuid.UUID, delta int) (*Product, error)
	Categories(ctx context.Context) ([]string, error)
}

// Filter represents filtering options for listing products
type Filter struct {
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	Size        string
	Category    string
	Color       string
	Search      string
	InStockOnly bool

	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
