package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/domain/product"
	"storefront/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var productSortColumns = map[string]string{
	"price":      "price",
	"name":       "name",
	"created_at": "created_at",
	"stock":      "stock",
}

type ProductRepository struct {
	db *DB
}

func NewProductRepository(db *DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt

	dbModel := toProductModel(p)
	if err := r.db.DB.WithContext(ctx).Create(dbModel).Error; err != nil {
		switch {
		case isUniqueViolation(err):
			return product.ErrProductAlreadyExists
		case isCheckViolation(err):
			return product.ErrInvalidStock
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	return nil
}

func (r *ProductRepository) GetByID(ctx context.Context, productID uuid.UUID) (*product.Product, error) {
	var dbModel models.ProductModel
	err := r.db.DB.WithContext(ctx).Where("id = ?", productID).First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, product.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return toProductEntity(&dbModel), nil
}

func (r *ProductRepository) GetByIDs(ctx context.Context, productIDs []uuid.UUID) ([]*product.Product, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	var dbModels []models.ProductModel
	if err := r.db.DB.WithContext(ctx).Where("id IN ?", productIDs).Find(&dbModels).Error; err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	products := make([]*product.Product, len(dbModels))
	for i := range dbModels {
		products[i] = toProductEntity(&dbModels[i])
	}
	return products, nil
}

func (r *ProductRepository) List(ctx context.Context, filter *product.Filter) ([]*product.Product, int64, error) {
	var dbModels []models.ProductModel
	var total int64

	db := r.db.DB.WithContext(ctx).Model(&models.ProductModel{})

	if filter.MinPrice != nil {
		db = db.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		db = db.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.Size != "" {
		db = db.Where("LOWER(size) = LOWER(?)", filter.Size)
	}
	if filter.Category != "" {
		db = db.Where("LOWER(category) = LOWER(?)", filter.Category)
	}
	if filter.Color != "" {
		db = db.Where("LOWER(color) = LOWER(?)", filter.Color)
	}
	if filter.InStockOnly {
		db = db.Where("stock > 0")
	}
	if filter.Search != "" {
		search := containsPattern(filter.Search)
		db = db.Where("name ILIKE ? OR description ILIKE ?", search, search)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	sortBy, ok := productSortColumns[filter.SortBy]
	if !ok {
		sortBy = "created_at"
	}
	sortOrder := "DESC"
	if strings.ToLower(filter.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)

	err := db.Order(fmt.Sprintf("%s %s", sortBy, sortOrder)).
		Order("id").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&dbModels).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]*product.Product, len(dbModels))
	for i := range dbModels {
		products[i] = toProductEntity(&dbModels[i])
	}

	return products, total, nil
}

func (r *ProductRepository) UpdateStock(ctx context.Context, productID uuid.UUID, stock int) error {
	if stock < 0 {
		return product.ErrInvalidStock
	}

	result := r.db.DB.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"stock":      stock,
			"updated_at": time.Now().UTC(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return product.ErrProductNotFound
	}

	return nil
}

// AdjustStock adds delta to the current stock and returns the updated product.
func (r *ProductRepository) AdjustStock(ctx context.Context, productID uuid.UUID, delta int) (*product.Product, error) {
	var dbModel models.ProductModel

	result := r.db.DB.WithContext(ctx).
		Model(&dbModel).
		Clauses(clause.Returning{}).
		Where("id = ?", productID).
		Updates(map[string]interface{}{
			"stock":      gorm.Expr("stock + ?", delta),
			"updated_at": time.Now().UTC(),
		})

	if result.Error != nil {
		if isCheckViolation(result.Error) {
			return nil, product.ErrInsufficientStock
		}
		return nil, fmt.Errorf("failed to adjust stock: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, product.ErrProductNotFound
	}

	return toProductEntity(&dbModel), nil
}

func (r *ProductRepository) Categories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.db.DB.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("category <> ''").
		Distinct().
		Order("category").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern matches term literally anywhere in a LIKE/ILIKE operand.
func containsPattern(term string) string {
	return "%" + likeEscaper.Replace(term) + "%"
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

func toProductModel(p *product.Product) *models.ProductModel {
	return &models.ProductModel{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Size:        p.Size,
		Color:       p.Color,
		ImageURL:    p.ImageURL,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func toProductEntity(m *models.ProductModel) *product.Product {
	return &product.Product{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		Category:    m.Category,
		Size:        m.Size,
		Color:       m.Color,
		ImageURL:    m.ImageURL,
		Stock:       m.Stock,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
