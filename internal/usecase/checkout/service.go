package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domainCart "storefront/internal/domain/cart"
	domainOrder "storefront/internal/domain/order"
	"storefront/internal/domain/payment"
	domainProduct "storefront/internal/domain/product"
	domainUser "storefront/internal/domain/user"
	"storefront/internal/logger"
	cartUC "storefront/internal/usecase/cart"
	orderUC "storefront/internal/usecase/order"
	appErrors "storefront/pkg/errors"
	"storefront/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const mailTimeout = 10 * time.Second

// CatalogInvalidator drops cached catalog entries for products whose stock changed.
type CatalogInvalidator interface {
	Invalidate(ctx context.Context, productIDs ...uuid.UUID)
}

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type Config struct {
	Currency string
	// CallbackURL is where the gateway sends the customer after paying.
	CallbackURL string
}

type Dependencies struct {
	CartStore   domainCart.Store
	ProductRepo domainProduct.Repository
	OrderRepo   domainOrder.Repository
	UserRepo    domainUser.Repository
	Gateway     payment.Gateway
	Events      domainOrder.EventPublisher
	Catalog     CatalogInvalidator
	Mailer      Mailer
}

// Service turns a session cart into an order and settles it against the payment gateway.
type Service struct {
	cartStore   domainCart.Store
	productRepo domainProduct.Repository
	orderRepo   domainOrder.Repository
	userRepo    domainUser.Repository
	gateway     payment.Gateway
	events      domainOrder.EventPublisher
	catalog     CatalogInvalidator
	mailer      Mailer
	cfg         Config
}

func NewService(deps Dependencies, cfg Config) *Service {
	return &Service{
		cartStore:   deps.CartStore,
		productRepo: deps.ProductRepo,
		orderRepo:   deps.OrderRepo,
		userRepo:    deps.UserRepo,
		gateway:     deps.Gateway,
		events:      deps.Events,
		catalog:     deps.Catalog,
		mailer:      deps.Mailer,
		cfg:         cfg,
	}
}

// Checkout creates a pending order from the caller's cart and starts a payment for it.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID, email string, req *CheckoutRequest) (*CheckoutResponse, error) {
	sessionKey := cartUC.SessionKey(userID)
	c, err := s.cartStore.Get(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, appErrors.NewAppError(appErrors.CodeEmptyCart, "Your cart is empty", domainCart.ErrEmptyCart)
	}

	req.DeliveryName = utils.SanitizeString(req.DeliveryName)
	req.DeliveryPhone = utils.SanitizePhone(req.DeliveryPhone)
	req.DeliveryAddress = utils.SanitizeText(req.DeliveryAddress)
	if req.Notes != nil {
		notes := utils.SanitizeText(*req.Notes)
		req.Notes = &notes
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid delivery details", err)
	}

	if err := s.reconcile(ctx, sessionKey, c); err != nil {
		return nil, err
	}

	o := buildOrder(userID, c, req)
	if err := s.orderRepo.CreateWithItems(ctx, o); err != nil {
		return nil, err
	}

	logger.Info("Order created",
		zap.String("order_id", o.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("total", o.TotalAmount.StringFixed(2)),
		zap.Int("items", len(o.Items)),
		zap.String("event", "order_created"),
	)

	reference := o.ID.String()
	if err := s.orderRepo.SetPaymentReference(ctx, o.ID, reference); err != nil {
		// Without a reference no callback or webhook can ever settle the order.
		s.cancel(ctx, o, "payment_reference_failed")
		return nil, err
	}
	o.PaymentReference = &reference

	started, err := s.gateway.Initialize(ctx, payment.InitializeRequest{
		Reference:   reference,
		Amount:      o.TotalAmount,
		Currency:    s.cfg.Currency,
		Email:       email,
		CallbackURL: s.cfg.CallbackURL,
		Metadata: map[string]string{
			"order_id": o.ID.String(),
			"user_id":  userID.String(),
		},
	})
	if err != nil {
		logger.Error("Payment initialization failed",
			zap.String("order_id", o.ID.String()),
			zap.String("gateway", s.gateway.Name()),
			zap.Error(err),
			zap.String("event", "payment_init_failed"),
		)
		s.cancel(ctx, o, "payment_init_failed")
		return nil, appErrors.NewAppError(appErrors.CodePaymentInit, "Could not start the payment, please try again", err)
	}

	if err := s.cartStore.Delete(ctx, sessionKey); err != nil {
		logger.Warn("Failed to clear cart after checkout",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}

	return &CheckoutResponse{
		Order:            orderUC.ToOrderResponse(o),
		AuthorizationURL: started.AuthorizationURL,
		Reference:        reference,
	}, nil
}

// HandleCallback verifies the payment behind reference with the gateway and settles the order.
func (s *Service) HandleCallback(ctx context.Context, reference string) (*PaymentResult, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Missing payment reference", nil)
	}

	o, err := s.orderRepo.GetByPaymentReference(ctx, reference)
	if err != nil {
		return nil, err
	}
	if o.Status.IsTerminal() {
		return alreadyFinalized(o), nil
	}

	v, err := s.gateway.Verify(ctx, reference)
	if err != nil {
		logger.Error("Payment verification failed",
			zap.String("order_id", o.ID.String()),
			zap.String("reference", reference),
			zap.Error(err),
			zap.String("event", "payment_verify_failed"),
		)
		return nil, appErrors.NewAppError(appErrors.CodePaymentVerify, "Could not verify the payment", err)
	}
	return s.finalize(ctx, o, v)
}

// HandleWebhook authenticates a gateway notification and settles the referenced order.
// Unsupported events return a nil result.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (*PaymentResult, error) {
	v, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrUnsupportedEvent) {
			return nil, nil
		}
		return nil, err
	}

	o, err := s.orderRepo.GetByPaymentReference(ctx, v.Reference)
	if err != nil {
		return nil, err
	}
	return s.finalize(ctx, o, v)
}

func (s *Service) finalize(ctx context.Context, o *domainOrder.Order, v *payment.Verification) (*PaymentResult, error) {
	if o.Status.IsTerminal() {
		return alreadyFinalized(o), nil
	}

	var (
		applied bool
		err     error
	)
	switch v.Outcome {
	case payment.OutcomePending:
		return &PaymentResult{Order: orderUC.ToOrderResponse(o), Outcome: string(v.Outcome)}, nil

	case payment.OutcomeSuccess:
		if !v.Amount.Equal(o.TotalAmount) {
			logger.Error("Paid amount does not match order total",
				zap.String("order_id", o.ID.String()),
				zap.String("expected", o.TotalAmount.StringFixed(2)),
				zap.String("paid", v.Amount.StringFixed(2)),
				zap.String("event", "payment_amount_mismatch"),
			)
			applied = s.cancel(ctx, o, domainOrder.ErrAmountMismatch.Error())
			break
		}
		if !strings.EqualFold(v.Currency, s.cfg.Currency) {
			logger.Error("Paid currency does not match order currency",
				zap.String("order_id", o.ID.String()),
				zap.String("expected", s.cfg.Currency),
				zap.String("paid", v.Currency),
				zap.String("event", "payment_currency_mismatch"),
			)
			applied = s.cancel(ctx, o, domainOrder.ErrCurrencyMismatch.Error())
			break
		}
		applied, err = s.complete(ctx, o)
		if err != nil {
			return nil, err
		}

	default:
		applied = s.cancel(ctx, o, "payment_"+string(v.Outcome))
	}

	updated, err := s.orderRepo.GetByID(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	if !applied {
		logger.Info("Payment notification for finalized order ignored",
			zap.String("order_id", o.ID.String()),
			zap.String("status", string(updated.Status)),
			zap.String("event", "payment_duplicate_notification"),
		)
	}
	return &PaymentResult{
		Order:   orderUC.ToOrderResponse(updated),
		Outcome: string(v.Outcome),
		Applied: applied,
	}, nil
}

func (s *Service) complete(ctx context.Context, o *domainOrder.Order) (bool, error) {
	applied, err := s.orderRepo.Complete(ctx, o.ID)
	if err != nil {
		if errors.Is(err, domainProduct.ErrInsufficientStock) {
			// Paid but not fulfillable. The order stays pending for manual reconciliation.
			logger.Error("Stock ran out before a paid order could complete",
				zap.String("order_id", o.ID.String()),
				zap.String("total", o.TotalAmount.StringFixed(2)),
				zap.String("event", "order_completion_stock_shortage"),
			)
			return false, appErrors.NewAppError(appErrors.CodeInsufficientStock, "Some items sold out before your payment was confirmed", err)
		}
		return false, err
	}
	if !applied {
		return false, nil
	}

	logger.Info("Order completed",
		zap.String("order_id", o.ID.String()),
		zap.String("user_id", o.UserID.String()),
		zap.String("total", o.TotalAmount.StringFixed(2)),
		zap.String("event", "order_completed"),
	)

	orderUC.PublishTransition(ctx, s.events, o, domainOrder.StatusCompleted, "payment_success")
	if s.catalog != nil {
		ids := make([]uuid.UUID, len(o.Items))
		for i, item := range o.Items {
			ids[i] = item.ProductID
		}
		s.catalog.Invalidate(ctx, ids...)
	}
	s.sendConfirmation(ctx, o)
	return true, nil
}

// cancel moves o to cancelled and reports whether this call applied the transition.
func (s *Service) cancel(ctx context.Context, o *domainOrder.Order, reason string) bool {
	applied, err := s.orderRepo.Cancel(context.WithoutCancel(ctx), o.ID)
	if err != nil {
		logger.Error("Failed to cancel order",
			zap.String("order_id", o.ID.String()),
			zap.String("reason", reason),
			zap.Error(err),
		)
		return false
	}
	if !applied {
		return false
	}

	logger.Info("Order cancelled",
		zap.String("order_id", o.ID.String()),
		zap.String("reason", reason),
		zap.String("event", "order_cancelled"),
	)
	orderUC.PublishTransition(ctx, s.events, o, domainOrder.StatusCancelled, reason)
	return true
}

// reconcile reprices the cart and rejects quantities current stock cannot cover.
func (s *Service) reconcile(ctx context.Context, sessionKey string, c *domainCart.Cart) error {
	products, err := s.productRepo.GetByIDs(ctx, c.ProductIDs())
	if err != nil {
		return err
	}
	current := make(map[uuid.UUID]domainCart.ProductSnapshot, len(products))
	for _, p := range products {
		current[p.ID] = domainCart.ProductSnapshot{
			ID:       p.ID,
			Name:     p.Name,
			Price:    p.Price,
			Stock:    p.Stock,
			ImageURL: p.ImageURL,
		}
	}

	shortages := c.Reconcile(current)
	if len(shortages) == 0 {
		return nil
	}

	if err := s.cartStore.Save(ctx, sessionKey, c); err != nil {
		logger.Warn("Failed to save repriced cart", zap.Error(err))
	}

	msgs := make([]string, len(shortages))
	for i, sh := range shortages {
		if sh.Available <= 0 {
			msgs[i] = fmt.Sprintf("%s is out of stock", sh.Name)
			continue
		}
		msgs[i] = fmt.Sprintf("only %d of %s available", sh.Available, sh.Name)
	}
	return appErrors.NewAppError(
		appErrors.CodeInsufficientStock,
		"Not enough stock: "+strings.Join(msgs, "; "),
		domainProduct.ErrInsufficientStock,
	)
}

func (s *Service) sendConfirmation(ctx context.Context, o *domainOrder.Order) {
	if s.mailer == nil || s.userRepo == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mailTimeout)
	defer cancel()

	u, err := s.userRepo.GetByID(ctx, o.UserID)
	if err != nil {
		logger.Warn("Order confirmation skipped, user lookup failed",
			zap.String("order_id", o.ID.String()),
			zap.Error(err),
		)
		return
	}

	subject := fmt.Sprintf("Order %s confirmed", shortID(o.ID))
	if err := s.mailer.Send(ctx, u.Email, subject, receiptBody(u.Name, o)); err != nil {
		logger.Warn("Failed to send order confirmation",
			zap.String("order_id", o.ID.String()),
			zap.Error(err),
		)
	}
}

func buildOrder(userID uuid.UUID, c *domainCart.Cart, req *CheckoutRequest) *domainOrder.Order {
	entries := c.Items()
	items := make([]domainOrder.OrderItem, len(entries))
	for i, entry := range entries {
		items[i] = domainOrder.OrderItem{
			ProductID:       entry.ProductID,
			ProductName:     entry.Name,
			Quantity:        entry.Quantity,
			PriceAtPurchase: entry.UnitPrice,
		}
	}
	return &domainOrder.Order{
		UserID:          userID,
		TotalAmount:     c.Total(),
		Status:          domainOrder.StatusPending,
		DeliveryName:    req.DeliveryName,
		DeliveryPhone:   req.DeliveryPhone,
		DeliveryAddress: req.DeliveryAddress,
		Notes:           req.Notes,
		Items:           items,
	}
}

func alreadyFinalized(o *domainOrder.Order) *PaymentResult {
	return &PaymentResult{
		Order:   orderUC.ToOrderResponse(o),
		Outcome: outcomeOf(o.Status),
	}
}

func outcomeOf(status domainOrder.Status) string {
	switch status {
	case domainOrder.StatusCompleted:
		return string(payment.OutcomeSuccess)
	case domainOrder.StatusCancelled:
		return string(payment.OutcomeFailed)
	default:
		return string(payment.OutcomePending)
	}
}

func shortID(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}

func receiptBody(name string, o *domainOrder.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\nThanks for your order. We received your payment.\n\n", name)
	for _, item := range o.Items {
		fmt.Fprintf(&b, "%d x %s @ %s = %s\n",
			item.Quantity, item.ProductName, item.PriceAtPurchase.StringFixed(2), item.Subtotal().StringFixed(2))
	}
	fmt.Fprintf(&b, "\nTotal: %s\n\nDelivery to:\n%s\n%s\n%s\n",
		o.TotalAmount.StringFixed(2), o.DeliveryName, o.DeliveryPhone, o.DeliveryAddress)
	return b.String()
}
