package order

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for order repository operations
type Repository interface {
	// CreateWithItems stores the order and its items in one transaction.
	CreateWithItems(ctx context.Context, order *Order) error
	GetByID(ctx context.Context, orderID uuid.UUID) (*Order, error)
	GetByPaymentReference(ctx context.Context, reference string) (*Order, error)
	List(ctx context.Context, filter *Filter) ([]*Order, int64, error)
	SetPaymentReference(ctx context.Context, orderID uuid.UUID, reference string) error

	// Complete moves a pending order to completed and decrements stock for each item in one
	// transaction. applied is false when the order was no longer pending.
	Complete(ctx context.Context, orderID uuid.UUID) (applied bool, err error)
	// Cancel moves a pending order to cancelled. Stock is not touched.
	Cancel(ctx context.Context, orderID uuid.UUID) (applied bool, err error)

	GetStatistics(ctx context.Context) (*Statistics, error)
}

// Filter represents filtering options for listing orders
type Filter struct {
	Status *Status
	UserID *uuid.UUID

	CreatedAfter  *time.Time
	CreatedBefore *time.Time // exclusive

	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
