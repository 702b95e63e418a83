package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domainCart "storefront/internal/domain/cart"
	domainOrder "storefront/internal/domain/order"
	"storefront/internal/domain/payment"
	"storefront/internal/domain/payment/mocks"
	"storefront/internal/domain/product"
	domainUser "storefront/internal/domain/user"
	"storefront/internal/infrastructure/memory"
	"storefront/internal/testutil"
	cartUC "storefront/internal/usecase/cart"
	appErrors "storefront/pkg/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const callbackURL = "http://localhost:8080/api/v1/payments/callback"

type invalidations struct {
	mu  sync.Mutex
	ids []uuid.UUID
}

func (i *invalidations) Invalidate(_ context.Context, ids ...uuid.UUID) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.ids = append(i.ids, ids...)
}

type fixture struct {
	svc      *Service
	cart     *cartUC.Service
	gateway  *mocks.MockGateway
	products *testutil.ProductRepo
	orders   *testutil.OrderRepo
	events   *testutil.Events
	mailer   *testutil.Mailer
	catalog  *invalidations
	shirt    *product.Product
	gown     *product.Product
	user     *domainUser.User
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		gateway: mocks.NewMockGateway(ctrl),
		events:  &testutil.Events{},
		mailer:  &testutil.Mailer{},
		catalog: &invalidations{},
		shirt:   &product.Product{ID: uuid.New(), Name: "Casual Shirt", Price: decimal.RequireFromString("15.00"), Stock: 5},
		gown:    &product.Product{ID: uuid.New(), Name: "Ankara Gown", Price: decimal.RequireFromString("9.50"), Stock: 2},
		user:    &domainUser.User{Name: "Ada Obi", Email: "ada@example.com", Role: domainUser.RoleCustomer, IsActive: true},
	}
	f.gateway.EXPECT().Name().Return("mock").AnyTimes()

	f.products = testutil.NewProductRepo(f.shirt, f.gown)
	f.orders = testutil.NewOrderRepo(f.products)
	users := testutil.NewUserRepo()
	require.NoError(t, users.Create(context.Background(), f.user))

	store := memory.NewCartStore(time.Hour)
	f.cart = cartUC.NewService(store, f.products)
	f.svc = NewService(Dependencies{
		CartStore:   store,
		ProductRepo: f.products,
		OrderRepo:   f.orders,
		UserRepo:    users,
		Gateway:     f.gateway,
		Events:      f.events,
		Catalog:     f.catalog,
		Mailer:      f.mailer,
	}, Config{Currency: "NGN", CallbackURL: callbackURL})
	return f
}

// fill puts 2 shirts and 1 gown in the cart for a total of 39.50.
func (f *fixture) fill(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.cart.AddItem(ctx, f.user.ID, &cartUC.AddItemRequest{ProductID: f.shirt.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = f.cart.AddItem(ctx, f.user.ID, &cartUC.AddItemRequest{ProductID: f.gown.ID, Quantity: 1})
	require.NoError(t, err)
}

func (f *fixture) checkout(t *testing.T) *CheckoutResponse {
	t.Helper()
	f.gateway.EXPECT().
		Initialize(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req payment.InitializeRequest) (*payment.InitializeResult, error) {
			return &payment.InitializeResult{
				AuthorizationURL: "https://checkout.example.com/" + req.Reference,
				Reference:        req.Reference,
			}, nil
		})
	resp, err := f.svc.Checkout(context.Background(), f.user.ID, f.user.Email, delivery())
	require.NoError(t, err)
	return resp
}

func delivery() *CheckoutRequest {
	return &CheckoutRequest{
		DeliveryName:    "Ada Obi",
		DeliveryPhone:   "+234 801 234 5678",
		DeliveryAddress: "12 Marina Road, Lagos Island",
	}
}

func verified(ref string, outcome payment.Outcome, amount string) *payment.Verification {
	return &payment.Verification{
		Reference: ref,
		Outcome:   outcome,
		Amount:    decimal.RequireFromString(amount),
		Currency:  "NGN",
	}
}

func TestCheckout_EmptyCartNeverReachesGateway(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Checkout(context.Background(), f.user.ID, f.user.Email, delivery())
	require.Error(t, err)
	assert.Equal(t, appErrors.CodeEmptyCart, appErrors.CodeOf(err))
	assert.ErrorIs(t, err, domainCart.ErrEmptyCart)
	assert.Zero(t, f.orders.Count())
}

func TestCheckout_InvalidDeliveryDetails(t *testing.T) {
	f := newFixture(t)
	f.fill(t)

	req := delivery()
	req.DeliveryPhone = "call me"
	_, err := f.svc.Checkout(context.Background(), f.user.ID, f.user.Email, req)
	assert.Equal(t, appErrors.CodeValidation, appErrors.CodeOf(err))
	assert.Zero(t, f.orders.Count())
}

func TestCheckout_CreatesPendingOrderWithPriceSnapshot(t *testing.T) {
	f := newFixture(t)
	f.fill(t)

	f.gateway.EXPECT().
		Initialize(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req payment.InitializeRequest) (*payment.InitializeResult, error) {
			assert.Equal(t, "39.5", req.Amount.String())
			assert.Equal(t, "NGN", req.Currency)
			assert.Equal(t, f.user.Email, req.Email)
			assert.Equal(t, callbackURL, req.CallbackURL)
			return &payment.InitializeResult{AuthorizationURL: "https://pay.example.com/x", Reference: req.Reference}, nil
		})

	resp, err := f.svc.Checkout(context.Background(), f.user.ID, f.user.Email, delivery())
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/x", resp.AuthorizationURL)
	assert.Equal(t, resp.Order.ID.String(), resp.Reference)
	assert.Equal(t, "pending", resp.Order.Status)
	assert.Equal(t, "39.5", resp.Order.TotalAmount.String())
	require.Len(t, resp.Order.Items, 2)
	assert.Equal(t, "15", resp.Order.Items[0].PriceAtPurchase.String())

	// Stock is only taken when payment succeeds.
	assert.Equal(t, 5, f.products.Stock(f.shirt.ID))
	assert.Equal(t, 2, f.products.Stock(f.gown.ID))

	c, err := f.cart.Get(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Empty(t, c.Items)

	// Later price changes do not touch the order.
	f.products.SetPrice(f.shirt.ID, decimal.NewFromInt(99))
	stored, err := f.orders.GetByID(context.Background(), resp.Order.ID)
	require.NoError(t, err)
	assert.True(t, stored.Consistent())
	assert.Equal(t, "39.5", stored.TotalAmount.String())
}

func TestCheckout_RejectsQuantityAboveCurrentStock(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	require.NoError(t, f.products.UpdateStock(context.Background(), f.shirt.ID, 1))

	_, err := f.svc.Checkout(context.Background(), f.user.ID, f.user.Email, delivery())
	require.Error(t, err)
	assert.Equal(t, appErrors.CodeInsufficientStock, appErrors.CodeOf(err))
	assert.Contains(t, err.Error(), "only 1 of Casual Shirt")
	assert.Zero(t, f.orders.Count())
}

func TestCheckout_InitializeFailureCancelsOrder(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	f.gateway.EXPECT().Initialize(gomock.Any(), gomock.Any()).Return(nil, payment.ErrGatewayRejected)

	_, err := f.svc.Checkout(context.Background(), f.user.ID, f.user.Email, delivery())
	require.Error(t, err)
	assert.Equal(t, appErrors.CodePaymentInit, appErrors.CodeOf(err))

	orders, _, err := f.orders.List(context.Background(), &domainOrder.Filter{})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, domainOrder.StatusCancelled, orders[0].Status)
	assert.Equal(t, 5, f.products.Stock(f.shirt.ID))

	// The cart survives so the customer can retry.
	c, err := f.cart.Get(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Len(t, c.Items, 2)
}

func TestCheckout_ReferenceFailureCancelsOrder(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	f.orders.ReferenceErr = errors.New("connection reset")

	_, err := f.svc.Checkout(context.Background(), f.user.ID, f.user.Email, delivery())
	require.Error(t, err)

	orders, _, err := f.orders.List(context.Background(), &domainOrder.Filter{})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, domainOrder.StatusCancelled, orders[0].Status)
	assert.Equal(t, 5, f.products.Stock(f.shirt.ID))

	c, err := f.cart.Get(context.Background(), f.user.ID)
	require.NoError(t, err)
	assert.Len(t, c.Items, 2)
}

func TestHandleCallback_SuccessCompletesAndDecrementsOnce(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	resp := f.checkout(t)

	f.gateway.EXPECT().
		Verify(gomock.Any(), resp.Reference).
		Return(verified(resp.Reference, payment.OutcomeSuccess, "39.50"), nil).
		Times(1)

	result, err := f.svc.HandleCallback(context.Background(), resp.Reference)
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, "completed", result.Order.Status)
	assert.NotNil(t, result.Order.CompletedAt)
	assert.Equal(t, 3, f.products.Stock(f.shirt.ID))
	assert.Equal(t, 1, f.products.Stock(f.gown.ID))

	require.Equal(t, 1, f.events.Len())
	assert.Equal(t, domainOrder.StatusCompleted, f.events.Events[0].To)
	assert.ElementsMatch(t, []uuid.UUID{f.shirt.ID, f.gown.ID}, f.catalog.ids)
	assert.Equal(t, f.user.Email, f.mailer.Last().To)
	assert.Contains(t, f.mailer.Last().Body, "Total: 39.50")

	again, err := f.svc.HandleCallback(context.Background(), resp.Reference)
	require.NoError(t, err)
	assert.False(t, again.Applied)
	assert.Equal(t, "completed", again.Order.Status)
	assert.Equal(t, 3, f.products.Stock(f.shirt.ID))
	assert.Equal(t, 1, f.events.Len())
}

func TestHandleCallback_FailureCancelsWithoutTouchingStock(t *testing.T) {
	for _, outcome := range []payment.Outcome{payment.OutcomeFailed, payment.OutcomeAbandoned} {
		t.Run(string(outcome), func(t *testing.T) {
			f := newFixture(t)
			f.fill(t)
			resp := f.checkout(t)
			f.gateway.EXPECT().
				Verify(gomock.Any(), resp.Reference).
				Return(verified(resp.Reference, outcome, "39.50"), nil)

			result, err := f.svc.HandleCallback(context.Background(), resp.Reference)
			require.NoError(t, err)
			assert.True(t, result.Applied)
			assert.Equal(t, "cancelled", result.Order.Status)
			assert.Equal(t, 5, f.products.Stock(f.shirt.ID))
			assert.Equal(t, 2, f.products.Stock(f.gown.ID))
			assert.Empty(t, f.mailer.Sent)
		})
	}
}

func TestHandleCallback_PendingLeavesOrderOpen(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	resp := f.checkout(t)
	f.gateway.EXPECT().
		Verify(gomock.Any(), resp.Reference).
		Return(verified(resp.Reference, payment.OutcomePending, "0"), nil)

	result, err := f.svc.HandleCallback(context.Background(), resp.Reference)
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, "pending", result.Order.Status)
}

func TestHandleCallback_AmountMismatchCancels(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	resp := f.checkout(t)
	f.gateway.EXPECT().
		Verify(gomock.Any(), resp.Reference).
		Return(verified(resp.Reference, payment.OutcomeSuccess, "10.00"), nil)

	result, err := f.svc.HandleCallback(context.Background(), resp.Reference)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", result.Order.Status)
	assert.Equal(t, 5, f.products.Stock(f.shirt.ID))
	require.Equal(t, 1, f.events.Len())
	assert.Equal(t, domainOrder.ErrAmountMismatch.Error(), f.events.Events[0].Reason)
}

func TestHandleCallback_CurrencyMismatchCancels(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	resp := f.checkout(t)
	paid := verified(resp.Reference, payment.OutcomeSuccess, "39.50")
	paid.Currency = "USD"
	f.gateway.EXPECT().Verify(gomock.Any(), resp.Reference).Return(paid, nil)

	result, err := f.svc.HandleCallback(context.Background(), resp.Reference)
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, "cancelled", result.Order.Status)
	assert.Equal(t, 5, f.products.Stock(f.shirt.ID))
	assert.Equal(t, 2, f.products.Stock(f.gown.ID))
	require.Equal(t, 1, f.events.Len())
	assert.Equal(t, domainOrder.ErrCurrencyMismatch.Error(), f.events.Events[0].Reason)
	assert.Empty(t, f.mailer.Sent)
}

func TestHandleCallback_StockGoneBeforeCompletion(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	resp := f.checkout(t)
	require.NoError(t, f.products.UpdateStock(context.Background(), f.gown.ID, 0))
	f.gateway.EXPECT().
		Verify(gomock.Any(), resp.Reference).
		Return(verified(resp.Reference, payment.OutcomeSuccess, "39.50"), nil)

	_, err := f.svc.HandleCallback(context.Background(), resp.Reference)
	require.Error(t, err)
	assert.Equal(t, appErrors.CodeInsufficientStock, appErrors.CodeOf(err))

	stored, err := f.orders.GetByID(context.Background(), resp.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domainOrder.StatusPending, stored.Status)
	assert.Equal(t, 5, f.products.Stock(f.shirt.ID))
	assert.Zero(t, f.events.Len())
}

func TestHandleCallback_VerifyErrorKeepsOrderPending(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	resp := f.checkout(t)
	f.gateway.EXPECT().Verify(gomock.Any(), resp.Reference).Return(nil, errors.New("timeout"))

	_, err := f.svc.HandleCallback(context.Background(), resp.Reference)
	assert.Equal(t, appErrors.CodePaymentVerify, appErrors.CodeOf(err))

	stored, err := f.orders.GetByID(context.Background(), resp.Order.ID)
	require.NoError(t, err)
	assert.Equal(t, domainOrder.StatusPending, stored.Status)
}

func TestHandleCallback_UnknownReference(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.HandleCallback(context.Background(), uuid.NewString())
	assert.ErrorIs(t, err, domainOrder.ErrOrderNotFound)

	_, err = f.svc.HandleCallback(context.Background(), "  ")
	assert.Equal(t, appErrors.CodeValidation, appErrors.CodeOf(err))
}

func TestHandleWebhook(t *testing.T) {
	f := newFixture(t)
	f.fill(t)
	resp := f.checkout(t)
	payload := []byte(`{"event":"charge.success"}`)

	f.gateway.EXPECT().
		ParseWebhook(payload, "sig").
		Return(verified(resp.Reference, payment.OutcomeSuccess, "39.50"), nil).
		Times(2)

	result, err := f.svc.HandleWebhook(context.Background(), payload, "sig")
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, "completed", result.Order.Status)

	// Redelivery is acknowledged without a second decrement.
	result, err = f.svc.HandleWebhook(context.Background(), payload, "sig")
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, 3, f.products.Stock(f.shirt.ID))
}

func TestHandleWebhook_Rejections(t *testing.T) {
	f := newFixture(t)
	payload := []byte(`{}`)

	f.gateway.EXPECT().ParseWebhook(payload, "bad").Return(nil, payment.ErrInvalidSignature)
	_, err := f.svc.HandleWebhook(context.Background(), payload, "bad")
	assert.ErrorIs(t, err, payment.ErrInvalidSignature)

	f.gateway.EXPECT().ParseWebhook(payload, "ok").Return(nil, payment.ErrUnsupportedEvent)
	result, err := f.svc.HandleWebhook(context.Background(), payload, "ok")
	assert.NoError(t, err)
	assert.Nil(t, result)
}
