package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	domainPayment "storefront/internal/domain/payment"

	"github.com/shopspring/decimal"
)

// SandboxGateway settles payments in-process. Initialize returns a link straight to the callback,
// and Verify reports the configured outcome for the recorded amount.
type SandboxGateway struct {
	outcome domainPayment.Outcome
	secret  string

	mu       sync.Mutex
	payments map[string]sandboxPayment
}

type sandboxPayment struct {
	amount   decimal.Decimal
	currency string
}

func NewSandboxGateway(outcome, secret string) *SandboxGateway {
	o := domainPayment.Outcome(outcome)
	switch o {
	case domainPayment.OutcomeSuccess, domainPayment.OutcomeFailed, domainPayment.OutcomeAbandoned:
	default:
		o = domainPayment.OutcomeSuccess
	}
	return &SandboxGateway{
		outcome:  o,
		secret:   secret,
		payments: make(map[string]sandboxPayment),
	}
}

func (g *SandboxGateway) Name() string {
	return "sandbox"
}

func (g *SandboxGateway) Initialize(_ context.Context, req domainPayment.InitializeRequest) (*domainPayment.InitializeResult, error) {
	g.mu.Lock()
	g.payments[req.Reference] = sandboxPayment{amount: req.Amount, currency: req.Currency}
	g.mu.Unlock()

	callback, err := url.Parse(req.CallbackURL)
	if err != nil {
		return nil, fmt.Errorf("invalid callback url: %w", err)
	}
	q := callback.Query()
	q.Set("reference", req.Reference)
	callback.RawQuery = q.Encode()

	return &domainPayment.InitializeResult{
		AuthorizationURL: callback.String(),
		Reference:        req.Reference,
	}, nil
}

func (g *SandboxGateway) Verify(_ context.Context, reference string) (*domainPayment.Verification, error) {
	g.mu.Lock()
	p, ok := g.payments[reference]
	g.mu.Unlock()
	if !ok {
		return nil, domainPayment.ErrUnknownReference
	}

	return &domainPayment.Verification{
		Reference: reference,
		Outcome:   g.outcome,
		Amount:    p.amount,
		Currency:  p.currency,
	}, nil
}

type sandboxWebhook struct {
	Reference string          `json:"reference"`
	Outcome   string          `json:"outcome"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
}

// ParseWebhook accepts {"reference","outcome","amount","currency"} signed with HMAC-SHA256 of the body.
func (g *SandboxGateway) ParseWebhook(payload []byte, signature string) (*domainPayment.Verification, error) {
	if !hmac.Equal([]byte(SignSandboxPayload(g.secret, payload)), []byte(signature)) {
		return nil, domainPayment.ErrInvalidSignature
	}

	var event sandboxWebhook
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("failed to decode webhook: %w", err)
	}

	return &domainPayment.Verification{
		Reference: event.Reference,
		Outcome:   outcomeFromStatus(event.Outcome),
		Amount:    event.Amount,
		Currency:  event.Currency,
	}, nil
}

// SignSandboxPayload returns the signature the sandbox expects for payload.
func SignSandboxPayload(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
