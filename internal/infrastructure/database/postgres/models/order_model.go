package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderModel represents the database model for Order
type OrderModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	UserID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	TotalAmount      decimal.Decimal `gorm:"type:decimal(12,2);not null;check:chk_orders_total_amount,total_amount >= 0"`
	Status           string          `gorm:"type:varchar(20);not null;default:'pending';index;check:chk_orders_status,status IN ('pending','completed','cancelled')"`
	PaymentReference *string         `gorm:"type:varchar(100);uniqueIndex"`
	DeliveryName     string          `gorm:"type:varchar(255);not null"`
	DeliveryPhone    string          `gorm:"type:varchar(20);not null"`
	DeliveryAddress  string          `gorm:"type:text;not null"`
	Notes            *string         `gorm:"type:text"`
	CreatedAt        time.Time       `gorm:"not null;index"`
	UpdatedAt        time.Time       `gorm:"not null"`
	CompletedAt      *time.Time      `gorm:"type:timestamptz"`
	CancelledAt      *time.Time      `gorm:"type:timestamptz"`

	// Relations
	User  *UserModel       `gorm:"foreignKey:UserID;constraint:OnDelete:RESTRICT"`
	Items []OrderItemModel `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel represents the database model for OrderItem
type OrderItemModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	OrderID         uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName     string          `gorm:"type:varchar(255);not null"`
	Quantity        int             `gorm:"type:integer;not null;check:chk_order_items_quantity,quantity > 0"`
	PriceAtPurchase decimal.Decimal `gorm:"type:decimal(12,2);not null;check:chk_order_items_price,price_at_purchase >= 0"`

	Product *ProductModel `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
}

func (OrderItemModel) TableName() string {
	return "order_items"
}
