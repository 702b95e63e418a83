package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain/order"
	"storefront/internal/domain/product"
	"storefront/internal/infrastructure/database/postgres/models"
	"storefront/internal/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var orderSortColumns = map[string]string{
	"created_at":   "created_at",
	"total_amount": "total_amount",
	"status":       "status",
}

type OrderRepository struct {
	db *DB
}

func NewOrderRepository(db *DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) CreateWithItems(ctx context.Context, o *order.Order) error {
	if len(o.Items) == 0 {
		return order.ErrNoItems
	}
	if !o.Consistent() {
		return order.ErrInconsistentTotal
	}

	now := time.Now().UTC()
	o.ID = uuid.New()
	o.CreatedAt = now
	o.UpdatedAt = now
	if o.Status == "" {
		o.Status = order.StatusPending
	}
	for i := range o.Items {
		o.Items[i].ID = uuid.New()
		o.Items[i].OrderID = o.ID
	}

	dbModel := toOrderModel(o)
	err := r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(dbModel).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		if err := tx.Omit(clause.Associations).Create(&dbModel.Items).Error; err != nil {
			if isForeignKeyViolation(err) {
				return product.ErrProductNotFound
			}
			return fmt.Errorf("failed to create order items: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, orderID uuid.UUID) (*order.Order, error) {
	var dbModel models.OrderModel
	err := r.db.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("product_name")
		}).
		Where("id = ?", orderID).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, order.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return toOrderEntity(&dbModel), nil
}

func (r *OrderRepository) GetByPaymentReference(ctx context.Context, reference string) (*order.Order, error) {
	var dbModel models.OrderModel
	err := r.db.DB.WithContext(ctx).
		Preload("Items").
		Where("payment_reference = ?", reference).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, order.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order by reference: %w", err)
	}

	return toOrderEntity(&dbModel), nil
}

// applyOrderFilter narrows db to filter. CreatedBefore is an exclusive bound.
func applyOrderFilter(db *gorm.DB, filter *order.Filter) *gorm.DB {
	if filter.Status != nil {
		db = db.Where("status = ?", string(*filter.Status))
	}
	if filter.UserID != nil {
		db = db.Where("user_id = ?", *filter.UserID)
	}
	if filter.CreatedAfter != nil {
		db = db.Where("created_at >= ?", filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		db = db.Where("created_at < ?", filter.CreatedBefore)
	}
	return db
}

func (r *OrderRepository) List(ctx context.Context, filter *order.Filter) ([]*order.Order, int64, error) {
	var dbModels []models.OrderModel
	var total int64

	db := applyOrderFilter(r.db.DB.WithContext(ctx).Model(&models.OrderModel{}), filter)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	sortBy, ok := orderSortColumns[filter.SortBy]
	if !ok {
		sortBy = "created_at"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)

	err := db.Preload("Items").
		Order(fmt.Sprintf("%s %s", sortBy, sortOrder)).
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&dbModels).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := make([]*order.Order, len(dbModels))
	for i := range dbModels {
		orders[i] = toOrderEntity(&dbModels[i])
	}

	return orders, total, nil
}

func (r *OrderRepository) SetPaymentReference(ctx context.Context, orderID uuid.UUID, reference string) error {
	result := r.db.DB.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"payment_reference": reference,
			"updated_at":        time.Now().UTC(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to set payment reference: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return order.ErrOrderNotFound
	}

	return nil
}

// Complete flips a pending order to completed and decrements stock in one transaction.
// The status update is conditional on pending, so a repeated call changes nothing.
// A product without enough stock rolls the whole transaction back.
func (r *OrderRepository) Complete(ctx context.Context, orderID uuid.UUID) (bool, error) {
	applied := false

	err := r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		result := tx.Model(&models.OrderModel{}).
			Where("id = ? AND status = ?", orderID, string(order.StatusPending)).
			Updates(map[string]interface{}{
				"status":       string(order.StatusCompleted),
				"completed_at": now,
				"updated_at":   now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to complete order: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return r.ensureExists(tx, orderID)
		}

		var items []models.OrderItemModel
		if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
			return fmt.Errorf("failed to load order items: %w", err)
		}

		for _, item := range items {
			res := tx.Model(&models.ProductModel{}).
				Where("id = ? AND stock >= ?", item.ProductID, item.Quantity).
				Updates(map[string]interface{}{
					"stock":      gorm.Expr("stock - ?", item.Quantity),
					"updated_at": now,
				})
			if res.Error != nil {
				if isCheckViolation(res.Error) {
					return product.ErrInsufficientStock
				}
				return fmt.Errorf("failed to decrement stock: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				logger.Error("Stock shortage while completing order",
					zap.String("order_id", orderID.String()),
					zap.String("product_id", item.ProductID.String()),
					zap.Int("quantity", item.Quantity),
					zap.String("event", "order_completion_stock_shortage"),
				)
				return product.ErrInsufficientStock
			}
		}

		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}

	return applied, nil
}

func (r *OrderRepository) Cancel(ctx context.Context, orderID uuid.UUID) (bool, error) {
	now := time.Now().UTC()
	result := r.db.DB.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("id = ? AND status = ?", orderID, string(order.StatusPending)).
		Updates(map[string]interface{}{
			"status":       string(order.StatusCancelled),
			"cancelled_at": now,
			"updated_at":   now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to cancel order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return false, r.ensureExists(r.db.DB.WithContext(ctx), orderID)
	}

	return true, nil
}

func (r *OrderRepository) ensureExists(db *gorm.DB, orderID uuid.UUID) error {
	var count int64
	if err := db.Model(&models.OrderModel{}).Where("id = ?", orderID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check order: %w", err)
	}
	if count == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) GetStatistics(ctx context.Context) (*order.Statistics, error) {
	stats := &order.Statistics{
		ByStatus: make(map[string]int),
	}
	db := r.db.DB.WithContext(ctx)

	var statusCounts []struct {
		Status string
		Count  int
	}
	err := db.Raw(`
		SELECT status, COUNT(*) as count
		FROM orders
		GROUP BY status
	`).Scan(&statusCounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get status counts: %w", err)
	}
	for _, sc := range statusCounts {
		stats.TotalOrders += sc.Count
		stats.ByStatus[sc.Status] = sc.Count
	}
	stats.PendingOrders = stats.ByStatus[string(order.StatusPending)]

	var revenue struct {
		Total        decimal.Decimal
		Today        decimal.Decimal
		CompletedDay int
	}
	err = db.Raw(`
		SELECT
			COALESCE(SUM(total_amount), 0) AS total,
			COALESCE(SUM(total_amount) FILTER (WHERE completed_at >= date_trunc('day', now())), 0) AS today,
			COUNT(*) FILTER (WHERE completed_at >= date_trunc('day', now())) AS completed_day
		FROM orders
		WHERE status = 'completed'
	`).Scan(&revenue).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get revenue: %w", err)
	}
	stats.Revenue = revenue.Total
	stats.RevenueToday = revenue.Today
	stats.CompletedToday = revenue.CompletedDay

	if completed := stats.ByStatus[string(order.StatusCompleted)]; completed > 0 {
		stats.AverageOrder = stats.Revenue.Div(decimal.NewFromInt(int64(completed))).Round(2)
	}

	var customers int64
	if err := db.Model(&models.UserModel{}).Where("role = ?", "customer").Count(&customers).Error; err != nil {
		return nil, fmt.Errorf("failed to count customers: %w", err)
	}
	stats.TotalCustomers = int(customers)

	var top []struct {
		ProductID   uuid.UUID
		ProductName string
		UnitsSold   int
		Revenue     decimal.Decimal
	}
	err = db.Raw(`
		SELECT oi.product_id, MAX(oi.product_name) AS product_name,
			SUM(oi.quantity) AS units_sold,
			SUM(oi.quantity * oi.price_at_purchase) AS revenue
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		WHERE o.status = 'completed'
		GROUP BY oi.product_id
		ORDER BY units_sold DESC
		LIMIT 5
	`).Scan(&top).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get top products: %w", err)
	}
	for _, t := range top {
		stats.TopProducts = append(stats.TopProducts, order.TopProductStats{
			ProductID:   t.ProductID,
			ProductName: t.ProductName,
			UnitsSold:   t.UnitsSold,
			Revenue:     t.Revenue,
		})
	}

	return stats, nil
}

func toOrderModel(o *order.Order) *models.OrderModel {
	m := &models.OrderModel{
		ID:               o.ID,
		UserID:           o.UserID,
		TotalAmount:      o.TotalAmount,
		Status:           string(o.Status),
		PaymentReference: o.PaymentReference,
		DeliveryName:     o.DeliveryName,
		DeliveryPhone:    o.DeliveryPhone,
		DeliveryAddress:  o.DeliveryAddress,
		Notes:            o.Notes,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
		CompletedAt:      o.CompletedAt,
		CancelledAt:      o.CancelledAt,
	}
	m.Items = make([]models.OrderItemModel, len(o.Items))
	for i, item := range o.Items {
		m.Items[i] = models.OrderItemModel{
			ID:              item.ID,
			OrderID:         item.OrderID,
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.PriceAtPurchase,
		}
	}
	return m
}

func toOrderEntity(m *models.OrderModel) *order.Order {
	o := &order.Order{
		ID:               m.ID,
		UserID:           m.UserID,
		TotalAmount:      m.TotalAmount,
		Status:           order.Status(m.Status),
		PaymentReference: m.PaymentReference,
		DeliveryName:     m.DeliveryName,
		DeliveryPhone:    m.DeliveryPhone,
		DeliveryAddress:  m.DeliveryAddress,
		Notes:            m.Notes,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
		CompletedAt:      m.CompletedAt,
		CancelledAt:      m.CancelledAt,
	}
	o.Items = make([]order.OrderItem, len(m.Items))
	for i, item := range m.Items {
		o.Items[i] = order.OrderItem{
			ID:              item.ID,
			OrderID:         item.OrderID,
			ProductID:       item.ProductID,
			ProductName:     item.ProductName,
			Quantity:        item.Quantity,
			PriceAtPurchase: item.PriceAtPurchase,
		}
	}
	return o
}
