package cart

import (
	"context"
	"errors"
	"fmt"

	domainCart "storefront/internal/domain/cart"
	domainProduct "storefront/internal/domain/product"
	"storefront/internal/logger"
	appErrors "storefront/pkg/errors"
	"storefront/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service applies cart operations to the caller's session cart.
type Service struct {
	store       domainCart.Store
	productRepo domainProduct.Repository
}

func NewService(store domainCart.Store, productRepo domainProduct.Repository) *Service {
	return &Service{store: store, productRepo: productRepo}
}

// SessionKey is the cart key for an authenticated user.
func SessionKey(userID uuid.UUID) string {
	return userID.String()
}

func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*CartResponse, error) {
	c, err := s.store.Get(ctx, SessionKey(userID))
	if err != nil {
		return nil, err
	}
	return ToCartResponse(c), nil
}

func (s *Service) AddItem(ctx context.Context, userID uuid.UUID, req *AddItemRequest) (*CartResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}

	p, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	c, err := s.store.Get(ctx, SessionKey(userID))
	if err != nil {
		return nil, err
	}

	result, err := c.Add(snapshot(p), req.Quantity)
	if err != nil {
		if errors.Is(err, domainCart.ErrOutOfStock) {
			logger.Info("Add to cart rejected, no stock",
				zap.String("user_id", userID.String()),
				zap.String("product_id", p.ID.String()),
				zap.String("event", "cart_item_out_of_stock"),
			)
			return nil, appErrors.NewAppError(appErrors.CodeOutOfStock, fmt.Sprintf("%s is out of stock", p.Name), err)
		}
		return nil, appErrors.NewAppError(appErrors.CodeValidation, err.Error(), err)
	}

	if err := s.store.Save(ctx, SessionKey(userID), c); err != nil {
		return nil, err
	}

	logger.Info("Item added to cart",
		zap.String("user_id", userID.String()),
		zap.String("product_id", p.ID.String()),
		zap.Int("quantity", result.Quantity),
		zap.Bool("clamped", result.Clamped),
		zap.String("event", "cart_item_added"),
	)

	resp := ToCartResponse(c)
	if result.Clamped {
		resp.Notice = clampNotice(p)
	}
	return resp, nil
}

// SetQuantity replaces an entry's quantity. Zero or less removes the entry.
func (s *Service) SetQuantity(ctx context.Context, userID, productID uuid.UUID, req *SetQuantityRequest) (*CartResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}

	c, err := s.store.Get(ctx, SessionKey(userID))
	if err != nil {
		return nil, err
	}

	var notice string
	if req.Quantity <= 0 {
		c.Remove(productID)
	} else {
		p, err := s.productRepo.GetByID(ctx, productID)
		if err != nil {
			return nil, err
		}
		result, err := c.SetQuantity(snapshot(p), req.Quantity)
		switch {
		case errors.Is(err, domainCart.ErrOutOfStock):
			notice = fmt.Sprintf("%s is out of stock and was removed from your cart", p.Name)
		case err != nil:
			return nil, err
		case result.Clamped:
			notice = clampNotice(p)
		}
	}

	if err := s.store.Save(ctx, SessionKey(userID), c); err != nil {
		return nil, err
	}

	resp := ToCartResponse(c)
	resp.Notice = notice
	return resp, nil
}

func (s *Service) RemoveItem(ctx context.Context, userID, productID uuid.UUID) (*CartResponse, error) {
	c, err := s.store.Get(ctx, SessionKey(userID))
	if err != nil {
		return nil, err
	}
	c.Remove(productID)
	if err := s.store.Save(ctx, SessionKey(userID), c); err != nil {
		return nil, err
	}
	return ToCartResponse(c), nil
}

func (s *Service) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.store.Delete(ctx, SessionKey(userID))
}

func snapshot(p *domainProduct.Product) domainCart.ProductSnapshot {
	return domainCart.ProductSnapshot{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Stock:    p.Stock,
		ImageURL: p.ImageURL,
	}
}

func clampNotice(p *domainProduct.Product) string {
	return fmt.Sprintf("Only %d of %s available, quantity adjusted", p.Stock, p.Name)
}
