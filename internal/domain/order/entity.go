package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order represents a checkout attempt and, once completed, a purchase.
type Order struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	TotalAmount      decimal.Decimal
	Status           Status
	PaymentReference *string

	// Delivery details
	DeliveryName    string
	DeliveryPhone   string
	DeliveryAddress string
	Notes           *string

	Items []OrderItem

	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time
}

// OrderItem is a line item with the product price captured at checkout.
type OrderItem struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	ProductID       uuid.UUID
	ProductName     string
	Quantity        int
	PriceAtPurchase decimal.Decimal
}

// Subtotal returns quantity times the captured price.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.PriceAtPurchase.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ComputeTotal sums the item subtotals.
func ComputeTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Consistent reports whether TotalAmount matches the items.
func (o *Order) Consistent() bool {
	return o.TotalAmount.Equal(ComputeTotal(o.Items))
}

// Statistics represents order statistics for the admin dashboard
type Statistics struct {
	TotalOrders    int
	ByStatus       map[string]int
	PendingOrders  int
	CompletedToday int
	Revenue        decimal.Decimal
	RevenueToday   decimal.Decimal
	TotalCustomers int
	AverageOrder   decimal.Decimal
	TopProducts    []TopProductStats
}

// TopProductStats represents sales by product
type TopProductStats struct {
	ProductID   uuid.UUID
	ProductName string
	UnitsSold   int
	Revenue     decimal.Decimal
}
