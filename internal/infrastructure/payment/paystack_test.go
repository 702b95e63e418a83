package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domainPayment "storefront/internal/domain/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPaystackServer(t *testing.T, handler http.HandlerFunc) *PaystackGateway {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewPaystackGateway("sk_test_secret", srv.URL, 5*time.Second)
}

func TestPaystack_Initialize(t *testing.T) {
	var got map[string]interface{}
	gw := newPaystackServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/transaction/initialize", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"ref-1"}}`))
	})

	res, err := gw.Initialize(context.Background(), domainPayment.InitializeRequest{
		Reference:   "ref-1",
		Amount:      decimal.RequireFromString("39.50"),
		Currency:    "NGN",
		Email:       "ada@example.com",
		CallbackURL: "http://localhost:8080/api/v1/payments/callback",
	})
	require.NoError(t, err)

	assert.Equal(t, "https://checkout.paystack.com/abc", res.AuthorizationURL)
	assert.Equal(t, "ref-1", res.Reference)
	assert.EqualValues(t, 3950, got["amount"])
	assert.Equal(t, "ada@example.com", got["email"])
}

func TestPaystack_InitializeRejected(t *testing.T) {
	gw := newPaystackServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":false,"message":"Invalid key"}`))
	})

	_, err := gw.Initialize(context.Background(), domainPayment.InitializeRequest{Reference: "x", Amount: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domainPayment.ErrGatewayRejected)
}

func TestPaystack_Verify(t *testing.T) {
	tests := []struct {
		status string
		want   domainPayment.Outcome
	}{
		{"success", domainPayment.OutcomeSuccess},
		{"failed", domainPayment.OutcomeFailed},
		{"abandoned", domainPayment.OutcomeAbandoned},
		{"ongoing", domainPayment.OutcomePending},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			gw := newPaystackServer(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/transaction/verify/ref-9", r.URL.Path)
				_, _ = w.Write([]byte(`{"status":true,"message":"ok","data":{"reference":"ref-9","status":"` + tt.status + `","amount":1500000,"currency":"NGN"}}`))
			})

			v, err := gw.Verify(context.Background(), "ref-9")
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Outcome)
			assert.True(t, v.Amount.Equal(decimal.NewFromInt(15000)))
			assert.Equal(t, "NGN", v.Currency)
		})
	}
}

func TestPaystack_VerifyUnknownReference(t *testing.T) {
	gw := newPaystackServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status":false,"message":"Transaction reference not found"}`))
	})

	_, err := gw.Verify(context.Background(), "missing")
	assert.ErrorIs(t, err, domainPayment.ErrUnknownReference)
}

func TestPaystack_ParseWebhook(t *testing.T) {
	gw := NewPaystackGateway("sk_test_secret", "http://unused", time.Second)
	payload := []byte(`{"event":"charge.success","data":{"reference":"ref-2","status":"success","amount":3950,"currency":"NGN"}}`)

	mac := hmac.New(sha512.New, []byte("sk_test_secret"))
	mac.Write(payload)
	signature := hex.EncodeToString(mac.Sum(nil))

	v, err := gw.ParseWebhook(payload, signature)
	require.NoError(t, err)
	assert.Equal(t, "ref-2", v.Reference)
	assert.Equal(t, domainPayment.OutcomeSuccess, v.Outcome)
	assert.Equal(t, "39.5", v.Amount.String())

	_, err = gw.ParseWebhook(payload, "deadbeef")
	assert.ErrorIs(t, err, domainPayment.ErrInvalidSignature)

	other := []byte(`{"event":"transfer.success","data":{}}`)
	mac = hmac.New(sha512.New, []byte("sk_test_secret"))
	mac.Write(other)
	_, err = gw.ParseWebhook(other, hex.EncodeToString(mac.Sum(nil)))
	assert.ErrorIs(t, err, domainPayment.ErrUnsupportedEvent)
}
