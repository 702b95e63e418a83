package order

import (
	"context"

	domainOrder "storefront/internal/domain/order"
	domainUser "storefront/internal/domain/user"
	"storefront/internal/logger"
	appErrors "storefront/pkg/errors"
	"storefront/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service serves receipts and customer-initiated cancellation.
type Service struct {
	orderRepo domainOrder.Repository
	events    domainOrder.EventPublisher
}

func NewService(orderRepo domainOrder.Repository, events domainOrder.EventPublisher) *Service {
	return &Service{orderRepo: orderRepo, events: events}
}

// GetOrder returns the receipt for orderID. Only the owner or an admin may read it.
func (s *Service) GetOrder(ctx context.Context, userID uuid.UUID, role string, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.load(ctx, userID, role, orderID)
	if err != nil {
		return nil, err
	}
	return ToOrderResponse(o), nil
}

func (s *Service) ListMyOrders(ctx context.Context, userID uuid.UUID, req *ListOrdersRequest) (*OrderListResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid filter", err)
	}
	page, pageSize := utils.NormalizePage(req.Page, req.PageSize)

	filter := &domainOrder.Filter{
		UserID:   &userID,
		Page:     page,
		PageSize: pageSize,
	}
	if req.Status != "" {
		status := domainOrder.Status(req.Status)
		filter.Status = &status
	}

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return ToOrderListResponse(orders, total, page, pageSize), nil
}

// Cancel abandons payment on a pending order. Stock is not touched.
func (s *Service) Cancel(ctx context.Context, userID uuid.UUID, role string, orderID uuid.UUID) (*OrderResponse, error) {
	o, err := s.load(ctx, userID, role, orderID)
	if err != nil {
		return nil, err
	}
	if err := domainOrder.ValidateTransition(o.Status, domainOrder.StatusCancelled); err != nil {
		return nil, err
	}

	applied, err := s.orderRepo.Cancel(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if !applied {
		// Finalized by the gateway between the read and the update.
		current, err := s.orderRepo.GetByID(ctx, o.ID)
		if err != nil {
			return nil, err
		}
		return nil, domainOrder.ValidateTransition(current.Status, domainOrder.StatusCancelled)
	}

	PublishTransition(ctx, s.events, o, domainOrder.StatusCancelled, "cancelled_by_customer")

	logger.Info("Order cancelled by customer",
		zap.String("order_id", o.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("event", "order_cancelled"),
	)

	updated, err := s.orderRepo.GetByID(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	return ToOrderResponse(updated), nil
}

// StatusSnapshot returns the order's current status as an event, for live receipt subscribers.
func (s *Service) StatusSnapshot(ctx context.Context, userID uuid.UUID, role string, orderID uuid.UUID) (domainOrder.StatusEvent, error) {
	o, err := s.load(ctx, userID, role, orderID)
	if err != nil {
		return domainOrder.StatusEvent{}, err
	}
	return domainOrder.NewStatusEvent(o, o.Status, ""), nil
}

func (s *Service) load(ctx context.Context, userID uuid.UUID, role string, orderID uuid.UUID) (*domainOrder.Order, error) {
	o, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID && role != domainUser.RoleAdmin {
		// Hide other customers' orders entirely.
		return nil, domainOrder.ErrOrderNotFound
	}
	return o, nil
}

// PublishTransition announces an applied transition. Publish failures are logged only.
func PublishTransition(ctx context.Context, events domainOrder.EventPublisher, o *domainOrder.Order, to domainOrder.Status, reason string) {
	if events == nil {
		return
	}
	ev := domainOrder.NewStatusEvent(o, to, reason)
	if err := events.Publish(context.WithoutCancel(ctx), ev); err != nil {
		logger.Warn("Failed to publish order status event",
			zap.String("order_id", o.ID.String()),
			zap.String("status", string(to)),
			zap.Error(err),
		)
	}
}
