package events

import (
	"context"
	"errors"

	"storefront/internal/domain/order"
	"storefront/internal/logger"

	"go.uber.org/zap"
)

// Fanout delivers each event to every publisher. A failing publisher does not stop the rest.
type Fanout struct {
	publishers []order.EventPublisher
}

func NewFanout(publishers ...order.EventPublisher) *Fanout {
	return &Fanout{publishers: publishers}
}

func (f *Fanout) Add(p order.EventPublisher) {
	f.publishers = append(f.publishers, p)
}

func (f *Fanout) Publish(ctx context.Context, event order.StatusEvent) error {
	var errs []error
	for _, p := range f.publishers {
		if err := p.Publish(ctx, event); err != nil {
			logger.Warn("Order event publish failed",
				zap.String("order_id", event.OrderID.String()),
				zap.String("status", string(event.To)),
				zap.Error(err),
				zap.String("event", "order_event_publish_failed"),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Noop discards events.
type Noop struct{}

func (Noop) Publish(context.Context, order.StatusEvent) error { return nil }
