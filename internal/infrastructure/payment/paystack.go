package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	domainPayment "storefront/internal/domain/payment"

	"github.com/shopspring/decimal"
)

// minorUnits converts between major currency units and the kobo/cent amounts Paystack expects.
var minorUnits = decimal.NewFromInt(100)

// PaystackGateway talks to the Paystack transaction API.
type PaystackGateway struct {
	secretKey  string
	baseURL    string
	httpClient *http.Client
}

func NewPaystackGateway(secretKey, baseURL string, timeout time.Duration) *PaystackGateway {
	return &PaystackGateway{
		secretKey:  secretKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (g *PaystackGateway) Name() string {
	return "paystack"
}

type paystackEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type paystackInitData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type paystackTransaction struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
}

type paystackWebhook struct {
	Event string              `json:"event"`
	Data  paystackTransaction `json:"data"`
}

func (g *PaystackGateway) Initialize(ctx context.Context, req domainPayment.InitializeRequest) (*domainPayment.InitializeResult, error) {
	body := map[string]interface{}{
		"email":        req.Email,
		"amount":       req.Amount.Mul(minorUnits).Round(0).IntPart(),
		"reference":    req.Reference,
		"callback_url": req.CallbackURL,
		"currency":     req.Currency,
	}
	if len(req.Metadata) > 0 {
		body["metadata"] = req.Metadata
	}

	var data paystackInitData
	if err := g.do(ctx, http.MethodPost, "/transaction/initialize", body, &data); err != nil {
		return nil, err
	}

	return &domainPayment.InitializeResult{
		AuthorizationURL: data.AuthorizationURL,
		Reference:        data.Reference,
	}, nil
}

func (g *PaystackGateway) Verify(ctx context.Context, reference string) (*domainPayment.Verification, error) {
	var data paystackTransaction
	if err := g.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &data); err != nil {
		return nil, err
	}
	return toVerification(data), nil
}

// ParseWebhook checks the x-paystack-signature header, an HMAC-SHA512 of the raw body keyed with the secret.
func (g *PaystackGateway) ParseWebhook(payload []byte, signature string) (*domainPayment.Verification, error) {
	mac := hmac.New(sha512.New, []byte(g.secretKey))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, domainPayment.ErrInvalidSignature
	}

	var event paystackWebhook
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to decode webhook: %w", err)
	}

	switch event.Event {
	case "charge.success":
		event.Data.Status = "success"
	case "charge.failed":
		event.Data.Status = "failed"
	default:
		return nil, fmt.Errorf("%w: %s", domainPayment.ErrUnsupportedEvent, event.Event)
	}

	return toVerification(event.Data), nil
}

func (g *PaystackGateway) do(ctx context.Context, method, path string, in, out interface{}) error {
	var reader io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode paystack request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build paystack request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+g.secretKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("paystack request failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope paystackEnvelope
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode paystack response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", domainPayment.ErrUnknownReference, envelope.Message)
	}
	if resp.StatusCode >= 300 || !envelope.Status {
		return fmt.Errorf("%w: %s", domainPayment.ErrGatewayRejected, envelope.Message)
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("failed to decode paystack data: %w", err)
	}
	return nil
}

func toVerification(t paystackTransaction) *domainPayment.Verification {
	return &domainPayment.Verification{
		Reference: t.Reference,
		Outcome:   outcomeFromStatus(t.Status),
		Amount:    decimal.NewFromInt(t.Amount).Div(minorUnits),
		Currency:  t.Currency,
	}
}

func outcomeFromStatus(status string) domainPayment.Outcome {
	switch status {
	case "success":
		return domainPayment.OutcomeSuccess
	case "abandoned":
		return domainPayment.OutcomeAbandoned
	case "failed", "reversed":
		return domainPayment.OutcomeFailed
	default:
		return domainPayment.OutcomePending
	}
}
