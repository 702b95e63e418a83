package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductModel represents the database model for Product
type ProductModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name        string          `gorm:"type:varchar(255);not null;uniqueIndex"`
	Description string          `gorm:"type:text"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null;check:chk_products_price,price >= 0"`
	Category    string          `gorm:"type:varchar(100);index"`
	Size        string          `gorm:"type:varchar(50);index"`
	Color       string          `gorm:"type:varchar(50)"`
	ImageURL    string          `gorm:"type:text"`
	Stock       int             `gorm:"type:integer;not null;default:0;check:chk_products_stock,stock >= 0"`
	CreatedAt   time.Time       `gorm:"not null;index"`
	UpdatedAt   time.Time       `gorm:"not null"`
}

func (ProductModel) TableName() string {
	return "products"
}
