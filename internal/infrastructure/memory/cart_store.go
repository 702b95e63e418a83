package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"storefront/internal/domain/cart"
	"storefront/internal/logger"

	"go.uber.org/zap"
)

type cartEntry struct {
	payload   []byte
	expiresAt time.Time
}

// CartStore is a process-local cart store used when Redis is not configured.
// Carts are stored encoded so callers never share a *cart.Cart.
type CartStore struct {
	mu    sync.Mutex
	carts map[string]cartEntry
	ttl   time.Duration
	now   func() time.Time
}

func NewCartStore(ttl time.Duration) *CartStore {
	return &CartStore{
		carts: make(map[string]cartEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *CartStore) Get(_ context.Context, sessionKey string) (*cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.carts[sessionKey]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.carts, sessionKey)
		return cart.New(), nil
	}
	entry.expiresAt = s.now().Add(s.ttl)
	s.carts[sessionKey] = entry

	c := cart.New()
	if err := json.Unmarshal(entry.payload, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CartStore) Save(_ context.Context, sessionKey string, c *cart.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.IsEmpty() {
		delete(s.carts, sessionKey)
		return nil
	}
	payload, err := json.Marshal(c)
	if err != nil {
		return err
	}
	s.carts[sessionKey] = cartEntry{payload: payload, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *CartStore) Delete(_ context.Context, sessionKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, sessionKey)
	return nil
}

// Sweep drops expired carts and returns how many were removed.
func (s *CartStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, entry := range s.carts {
		if now.After(entry.expiresAt) {
			delete(s.carts, key)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep every interval until ctx is done.
func (s *CartStore) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				logger.Debug("Expired carts swept",
					zap.Int("removed", n),
					zap.String("event", "carts_swept"),
				)
			}
		}
	}
}
