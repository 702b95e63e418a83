package postgres

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/infrastructure/database/postgres/models"
	"storefront/internal/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm/clause"
)

// LaunchCatalog is the product set the store opened with.
var LaunchCatalog = []models.ProductModel{
	{
		Name:        "Senator Wear",
		Description: "Tailored senator native wear",
		Price:       decimal.NewFromInt(15000),
		Category:    "Men",
		Size:        "L",
		Color:       "Navy",
		ImageURL:    "images/senator.jpg",
		Stock:       20,
	},
	{
		Name:        "Ankara Gown",
		Description: "Flowing ankara print gown",
		Price:       decimal.NewFromInt(12000),
		Category:    "Women",
		Size:        "M",
		Color:       "Multicolor",
		ImageURL:    "images/ankara.jpg",
		Stock:       15,
	},
	{
		Name:        "Casual Shirt",
		Description: "Everyday cotton shirt",
		Price:       decimal.NewFromInt(8000),
		Category:    "Men",
		Size:        "M",
		Color:       "White",
		ImageURL:    "images/shirt.jpg",
		Stock:       30,
	},
}

// SeedProducts inserts products by name, skipping names that already exist. It returns the number inserted.
func (d *DB) SeedProducts(ctx context.Context, products []models.ProductModel) (int64, error) {
	now := time.Now().UTC()
	rows := make([]models.ProductModel, len(products))
	for i, p := range products {
		p.ID = uuid.New()
		p.CreatedAt = now
		p.UpdatedAt = now
		rows[i] = p
	}

	result := d.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(&rows)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to seed products: %w", result.Error)
	}

	logger.Info("Products seeded",
		zap.Int64("inserted", result.RowsAffected),
		zap.Int("requested", len(products)),
		zap.String("event", "products_seeded"),
	)
	return result.RowsAffected, nil
}
