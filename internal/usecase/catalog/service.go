package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	domainProduct "storefront/internal/domain/product"
	"storefront/internal/logger"
	appErrors "storefront/pkg/errors"
	"storefront/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	keyPrefix      = "catalog:"
	listKeyPrefix  = keyPrefix + "list:"
	productKeyPfx  = keyPrefix + "product:"
	categoriesKey  = keyPrefix + "categories"
	defaultTTL     = 5 * time.Minute
	cacheOpTimeout = time.Second
)

var errInvalidPriceBound = errors.New("price bounds must be non-negative numbers with min <= max")

// Cache is a JSON key/value cache for catalog reads.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Service reads the catalog, going through the cache when one is set.
type Service struct {
	productRepo domainProduct.Repository
	cache       Cache
	ttl         time.Duration
}

// NewService creates a catalog service. cache may be nil.
func NewService(productRepo domainProduct.Repository, cache Cache, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Service{productRepo: productRepo, cache: cache, ttl: ttl}
}

func (s *Service) ListProducts(ctx context.Context, req *ProductFilterRequest) (*ProductListResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid filter", err)
	}
	req.Page, req.PageSize = utils.NormalizePage(req.Page, req.PageSize)

	filter, err := toDomainFilter(req)
	if err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, err.Error(), err)
	}

	key := listKey(req)
	var cached ProductListResponse
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := &ProductListResponse{
		Products:   make([]ProductResponse, len(products)),
		Total:      total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: utils.TotalPages(total, req.PageSize),
	}
	for i, p := range products {
		resp.Products[i] = *ToProductResponse(p)
	}

	s.cacheSet(ctx, key, resp)
	return resp, nil
}

func (s *Service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	key := productKeyPfx + productID.String()
	var cached ProductResponse
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	p, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	resp := ToProductResponse(p)
	s.cacheSet(ctx, key, resp)
	return resp, nil
}

func (s *Service) Categories(ctx context.Context) ([]string, error) {
	var cached []string
	if s.cacheGet(ctx, categoriesKey, &cached) {
		return cached, nil
	}

	categories, err := s.productRepo.Categories(ctx)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []string{}
	}

	s.cacheSet(ctx, categoriesKey, categories)
	return categories, nil
}

// Invalidate drops cached entries for the given products and every cached listing.
func (s *Service) Invalidate(ctx context.Context, productIDs ...uuid.UUID) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cacheOpTimeout)
	defer cancel()

	keys := make([]string, 0, len(productIDs)+1)
	for _, id := range productIDs {
		keys = append(keys, productKeyPfx+id.String())
	}
	keys = append(keys, categoriesKey)

	if err := s.cache.Delete(ctx, keys...); err != nil {
		logger.Warn("Failed to invalidate product cache", zap.Error(err))
	}
	if err := s.cache.DeletePrefix(ctx, listKeyPrefix); err != nil {
		logger.Warn("Failed to invalidate catalog listings", zap.Error(err))
	}
}

func (s *Service) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()

	found, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		logger.Warn("Catalog cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return found
}

func (s *Service) cacheSet(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, cacheOpTimeout)
	defer cancel()

	if err := s.cache.Set(ctx, key, value, s.ttl); err != nil {
		logger.Warn("Catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func listKey(req *ProductFilterRequest) string {
	raw, _ := json.Marshal(req)
	sum := sha256.Sum256(raw)
	return listKeyPrefix + hex.EncodeToString(sum[:16])
}
