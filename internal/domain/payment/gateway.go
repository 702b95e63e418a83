package payment

//go:generate mockgen -destination=mocks/mock_gateway.go -package=mocks storefront/internal/domain/payment Gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

// Outcome is the result a gateway reports for a payment attempt.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeFailed    Outcome = "failed"
	OutcomeAbandoned Outcome = "abandoned"
	// OutcomePending means the customer has not finished paying yet.
	OutcomePending Outcome = "pending"
)

type InitializeRequest struct {
	Reference   string
	Amount      decimal.Decimal
	Currency    string
	Email       string
	CallbackURL string
	Metadata    map[string]string
}

type InitializeResult struct {
	AuthorizationURL string
	Reference        string
}

// Verification is the gateway's view of a payment attempt.
type Verification struct {
	Reference string
	Outcome   Outcome
	Amount    decimal.Decimal
	Currency  string
}

// Gateway is an external payment provider.
type Gateway interface {
	Name() string
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error)
	Verify(ctx context.Context, reference string) (*Verification, error)
	// ParseWebhook authenticates a provider notification and extracts its verification.
	ParseWebhook(payload []byte, signature string) (*Verification, error)
}
