package admin

import (
	"context"
	"errors"
	"time"

	domainOrder "storefront/internal/domain/order"
	domainProduct "storefront/internal/domain/product"
	domainUser "storefront/internal/domain/user"
	"storefront/internal/logger"
	catalogUC "storefront/internal/usecase/catalog"
	orderUC "storefront/internal/usecase/order"
	appErrors "storefront/pkg/errors"
	"storefront/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

var errInvalidDateRange = errors.New("from must not be after to")

// CatalogInvalidator drops cached catalog entries after a product write.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context, productIDs ...uuid.UUID)
}

// Service backs the admin dashboard.
type Service struct {
	orderRepo   domainOrder.Repository
	productRepo domainProduct.Repository
	userRepo    domainUser.Repository
	catalog     CatalogInvalidator
}

func NewService(
	orderRepo domainOrder.Repository,
	productRepo domainProduct.Repository,
	userRepo domainUser.Repository,
	catalog CatalogInvalidator,
) *Service {
	return &Service{
		orderRepo:   orderRepo,
		productRepo: productRepo,
		userRepo:    userRepo,
		catalog:     catalog,
	}
}

func (s *Service) Statistics(ctx context.Context) (*StatisticsResponse, error) {
	stats, err := s.orderRepo.GetStatistics(ctx)
	if err != nil {
		return nil, err
	}
	return ToStatisticsResponse(stats), nil
}

func (s *Service) ListOrders(ctx context.Context, req *OrderFilterRequest) (*orderUC.OrderListResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid filter", err)
	}
	filter, err := toOrderFilter(req)
	if err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, err.Error(), err)
	}

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return orderUC.ToOrderListResponse(orders, total, filter.Page, filter.PageSize), nil
}

func (s *Service) ListCustomers(ctx context.Context, req *CustomerListRequest) (*CustomerListResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid paging", err)
	}
	page, pageSize := utils.NormalizePage(req.Page, req.PageSize)

	customers, total, err := s.userRepo.ListCustomers(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}

	resp := &CustomerListResponse{
		Customers:  make([]CustomerResponse, len(customers)),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: utils.TotalPages(total, pageSize),
	}
	for i, c := range customers {
		resp.Customers[i] = ToCustomerResponse(c)
	}
	return resp, nil
}

func (s *Service) CreateProduct(ctx context.Context, adminID uuid.UUID, req *CreateProductRequest) (*catalogUC.ProductResponse, error) {
	req.Name = utils.SanitizeString(req.Name)
	req.Description = utils.SanitizeText(req.Description)
	req.Category = utils.SanitizeString(req.Category)
	req.Size = utils.SanitizeString(req.Size)
	req.Color = utils.SanitizeString(req.Color)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, domainProduct.ErrInvalidPrice.Error(), domainProduct.ErrInvalidPrice)
	}

	p := &domainProduct.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       price.Round(2),
		Category:    req.Category,
		Size:        req.Size,
		Color:       req.Color,
		ImageURL:    req.ImageURL,
		Stock:       req.Stock,
	}
	if err := s.productRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	logger.Info("Product created",
		zap.String("product_id", p.ID.String()),
		zap.String("admin_id", adminID.String()),
		zap.String("name", p.Name),
		zap.Int("stock", p.Stock),
		zap.String("event", "product_created"),
	)

	s.invalidate(ctx, p.ID)
	return catalogUC.ToProductResponse(p), nil
}

// UpdateStock sets the absolute stock level of a product.
func (s *Service) UpdateStock(ctx context.Context, adminID, productID uuid.UUID, req *UpdateStockRequest) (*catalogUC.ProductResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, domainProduct.ErrInvalidStock.Error(), err)
	}

	if err := s.productRepo.UpdateStock(ctx, productID, *req.Stock); err != nil {
		return nil, err
	}
	s.invalidate(ctx, productID)

	logger.Info("Product stock updated",
		zap.String("product_id", productID.String()),
		zap.String("admin_id", adminID.String()),
		zap.Int("stock", *req.Stock),
		zap.String("event", "product_stock_updated"),
	)

	p, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return catalogUC.ToProductResponse(p), nil
}

// AdjustStock restocks (positive delta) or writes off (negative delta) units.
func (s *Service) AdjustStock(ctx context.Context, adminID, productID uuid.UUID, req *AdjustStockRequest) (*catalogUC.ProductResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid stock adjustment", err)
	}

	p, err := s.productRepo.AdjustStock(ctx, productID, req.Delta)
	if err != nil {
		if errors.Is(err, domainProduct.ErrInsufficientStock) {
			return nil, appErrors.NewAppError(appErrors.CodeInsufficientStock, "Stock cannot go below zero", err)
		}
		return nil, err
	}
	s.invalidate(ctx, productID)

	logger.Info("Product stock adjusted",
		zap.String("product_id", productID.String()),
		zap.String("admin_id", adminID.String()),
		zap.Int("delta", req.Delta),
		zap.Int("stock", p.Stock),
		zap.String("event", "product_stock_adjusted"),
	)
	return catalogUC.ToProductResponse(p), nil
}

func (s *Service) invalidate(ctx context.Context, ids ...uuid.UUID) {
	if s.catalog != nil {
		s.catalog.Invalidate(ctx, ids...)
	}
}

func toOrderFilter(req *OrderFilterRequest) (*domainOrder.Filter, error) {
	page, pageSize := utils.NormalizePage(req.Page, req.PageSize)
	filter := &domainOrder.Filter{
		Page:      page,
		PageSize:  pageSize,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}
	if req.Status != "" {
		status := domainOrder.Status(req.Status)
		filter.Status = &status
	}
	if req.UserID != "" {
		id, err := uuid.Parse(req.UserID)
		if err != nil {
			return nil, err
		}
		filter.UserID = &id
	}
	if req.From != "" {
		from, err := time.ParseInLocation(dateLayout, req.From, time.UTC)
		if err != nil {
			return nil, err
		}
		filter.CreatedAfter = &from
	}
	if req.To != "" {
		to, err := time.ParseInLocation(dateLayout, req.To, time.UTC)
		if err != nil {
			return nil, err
		}
		// Inclusive of the whole day.
		end := to.AddDate(0, 0, 1)
		filter.CreatedBefore = &end
	}
	if filter.CreatedAfter != nil && filter.CreatedBefore != nil && !filter.CreatedAfter.Before(*filter.CreatedBefore) {
		return nil, errInvalidDateRange
	}
	return filter, nil
}
