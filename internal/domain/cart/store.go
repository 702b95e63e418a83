package cart

import "context"

// Store persists carts by session key. Get returns an empty cart when none is stored.
type Store interface {
	Get(ctx context.Context, sessionKey string) (*Cart, error)
	Save(ctx context.Context, sessionKey string, c *Cart) error
	Delete(ctx context.Context, sessionKey string) error
}
