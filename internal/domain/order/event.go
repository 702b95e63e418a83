package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StatusEvent announces an applied status transition.
type StatusEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	UserID      uuid.UUID       `json:"user_id"`
	From        Status          `json:"from"`
	To          Status          `json:"to"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Reason      string          `json:"reason,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event StatusEvent) error
}

// NewStatusEvent describes o moving from its current status to to.
func NewStatusEvent(o *Order, to Status, reason string) StatusEvent {
	return StatusEvent{
		OrderID:     o.ID,
		UserID:      o.UserID,
		From:        o.Status,
		To:          to,
		TotalAmount: o.TotalAmount,
		Reason:      reason,
		OccurredAt:  time.Now().UTC(),
	}
}
