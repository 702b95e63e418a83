package postgres

import (
	"fmt"

	"storefront/internal/infrastructure/database/postgres/models"
	"storefront/internal/logger"

	"go.uber.org/zap"
)

// checkConstraints names every CHECK constraint declared on the models, keyed by model.
var checkConstraints = []struct {
	model interface{}
	names []string
}{
	{&models.UserModel{}, []string{"chk_users_role"}},
	{&models.ProductModel{}, []string{"chk_products_price", "chk_products_stock"}},
	{&models.OrderModel{}, []string{"chk_orders_total_amount", "chk_orders_status"}},
	{&models.OrderItemModel{}, []string{"chk_order_items_quantity", "chk_order_items_price"}},
}

// Migrate creates or updates the schema. AutoMigrate only adds CHECK constraints when it creates a
// table, so constraints missing from existing tables are added afterwards.
func (d *DB) Migrate() error {
	if err := d.DB.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return fmt.Errorf("failed to enable pgcrypto: %w", err)
	}

	err := d.DB.AutoMigrate(
		&models.UserModel{},
		&models.PasswordResetModel{},
		&models.RefreshTokenModel{},
		&models.ProductModel{},
		&models.OrderModel{},
		&models.OrderItemModel{},
	)
	if err != nil {
		return fmt.Errorf("failed to auto-migrate: %w", err)
	}

	migrator := d.DB.Migrator()
	for _, c := range checkConstraints {
		for _, name := range c.names {
			if migrator.HasConstraint(c.model, name) {
				continue
			}
			if err := migrator.CreateConstraint(c.model, name); err != nil {
				return fmt.Errorf("failed to create constraint %s: %w", name, err)
			}
			logger.Info("Constraint created",
				zap.String("constraint", name),
				zap.String("event", "constraint_created"),
			)
		}
	}

	logger.Info("Database migrated", zap.String("event", "database_migrated"))
	return nil
}
