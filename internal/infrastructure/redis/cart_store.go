package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/domain/cart"

	goredis "github.com/redis/go-redis/v9"
)

const cartKeyPrefix = "cart:"

// CartStore keeps one JSON cart per session key. Reads slide the expiry forward.
type CartStore struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewCartStore(client *goredis.Client, ttl time.Duration) *CartStore {
	return &CartStore{client: client, ttl: ttl}
}

func (s *CartStore) Get(ctx context.Context, sessionKey string) (*cart.Cart, error) {
	raw, err := s.client.GetEx(ctx, cartKeyPrefix+sessionKey, s.ttl).Bytes()
	if errors.Is(err, goredis.Nil) {
		return cart.New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	c := cart.New()
	if err := json.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return c, nil
}

func (s *CartStore) Save(ctx context.Context, sessionKey string, c *cart.Cart) error {
	if c.IsEmpty() {
		return s.Delete(ctx, sessionKey)
	}
	raw, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := s.client.Set(ctx, cartKeyPrefix+sessionKey, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (s *CartStore) Delete(ctx context.Context, sessionKey string) error {
	if err := s.client.Del(ctx, cartKeyPrefix+sessionKey).Err(); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}
