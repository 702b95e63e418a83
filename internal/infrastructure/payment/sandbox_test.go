package payment

import (
	"context"
	"net/url"
	"testing"

	"storefront/internal/config"
	domainPayment "storefront/internal/domain/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSandbox_InitializeAndVerify(t *testing.T) {
	ctx := context.Background()
	gw := NewSandboxGateway("failed", "secret")

	res, err := gw.Initialize(ctx, domainPayment.InitializeRequest{
		Reference:   "order-1",
		Amount:      decimal.RequireFromString("39.50"),
		Currency:    "NGN",
		CallbackURL: "http://localhost:8080/api/v1/payments/callback",
	})
	require.NoError(t, err)

	u, err := url.Parse(res.AuthorizationURL)
	require.NoError(t, err)
	assert.Equal(t, "order-1", u.Query().Get("reference"))
	assert.Equal(t, "/api/v1/payments/callback", u.Path)

	v, err := gw.Verify(ctx, "order-1")
	require.NoError(t, err)
	assert.Equal(t, domainPayment.OutcomeFailed, v.Outcome)
	assert.Equal(t, "39.5", v.Amount.String())

	_, err = gw.Verify(ctx, "nope")
	assert.ErrorIs(t, err, domainPayment.ErrUnknownReference)
}

func TestSandbox_UnknownOutcomeDefaultsToSuccess(t *testing.T) {
	gw := NewSandboxGateway("weird", "")
	assert.Equal(t, domainPayment.OutcomeSuccess, gw.outcome)
}

func TestSandbox_ParseWebhook(t *testing.T) {
	gw := NewSandboxGateway("success", "secret")
	payload := []byte(`{"reference":"order-2","outcome":"abandoned","amount":"100","currency":"NGN"}`)

	v, err := gw.ParseWebhook(payload, SignSandboxPayload("secret", payload))
	require.NoError(t, err)
	assert.Equal(t, domainPayment.OutcomeAbandoned, v.Outcome)
	assert.Equal(t, "order-2", v.Reference)

	_, err = gw.ParseWebhook(payload, SignSandboxPayload("other", payload))
	assert.ErrorIs(t, err, domainPayment.ErrInvalidSignature)
}

func TestNewGateway(t *testing.T) {
	gw, err := NewGateway(config.PaymentConfig{Provider: "paystack", SecretKey: "sk"}, "")
	require.NoError(t, err)
	assert.Equal(t, "paystack", gw.Name())

	gw, err = NewGateway(config.PaymentConfig{Provider: "sandbox"}, "s")
	require.NoError(t, err)
	assert.Equal(t, "sandbox", gw.Name())

	_, err = NewGateway(config.PaymentConfig{Provider: "stripe"}, "")
	assert.Error(t, err)
}
