package memory

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain/cart"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filledCart(t *testing.T) *cart.Cart {
	t.Helper()
	c := cart.New()
	_, err := c.Add(cart.ProductSnapshot{
		ID:    uuid.New(),
		Name:  "Ankara Gown",
		Price: decimal.NewFromInt(12000),
		Stock: 5,
	}, 2)
	require.NoError(t, err)
	return c
}

func TestCartStore_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewCartStore(time.Hour)

	empty, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	require.NoError(t, store.Save(ctx, "u1", filledCart(t)))

	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.ItemCount())
	assert.Equal(t, "24000", got.Total().String())

	other, err := store.Get(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, other.IsEmpty())
}

func TestCartStore_ReturnsIndependentCopies(t *testing.T) {
	ctx := context.Background()
	store := NewCartStore(time.Hour)
	require.NoError(t, store.Save(ctx, "u1", filledCart(t)))

	first, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	first.Clear()

	second, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, second.IsEmpty())
}

func TestCartStore_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	store := NewCartStore(time.Minute)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, "u1", filledCart(t)))
	require.NoError(t, store.Save(ctx, "u2", filledCart(t)))

	now = now.Add(30 * time.Second)
	_, err := store.Get(ctx, "u1")
	require.NoError(t, err)

	now = now.Add(45 * time.Second)
	assert.Equal(t, 1, store.Sweep())

	got, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, got.IsEmpty())

	got, err = store.Get(ctx, "u2")
	require.NoError(t, err)
	assert.True(t, got.IsEmpty())
}

func TestCartStore_SaveEmptyDeletes(t *testing.T) {
	ctx := context.Background()
	store := NewCartStore(time.Hour)
	require.NoError(t, store.Save(ctx, "u1", filledCart(t)))
	require.NoError(t, store.Save(ctx, "u1", cart.New()))
	assert.Empty(t, store.carts)

	require.NoError(t, store.Save(ctx, "u1", filledCart(t)))
	require.NoError(t, store.Delete(ctx, "u1"))
	assert.Empty(t, store.carts)
}
