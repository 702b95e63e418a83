package catalog

import (
	"context"
	"testing"

	"storefront/internal/domain/product"
	"storefront/internal/testutil"
	appErrors "storefront/pkg/errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func launchProducts() []*product.Product {
	return []*product.Product{
		{ID: uuid.New(), Name: "Senator Wear", Price: decimal.NewFromInt(15000), Category: "Men", Size: "L", Stock: 20},
		{ID: uuid.New(), Name: "Ankara Gown", Price: decimal.NewFromInt(12000), Category: "Women", Size: "M", Stock: 0},
		{ID: uuid.New(), Name: "Casual Shirt", Price: decimal.NewFromInt(8000), Category: "Men", Size: "M", Stock: 30},
	}
}

func strPtr(s string) *string { return &s }

func TestListProducts_Filters(t *testing.T) {
	repo := testutil.NewProductRepo(launchProducts()...)
	svc := NewService(repo, nil, 0)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   ProductFilterRequest
		names []string
	}{
		{name: "all", req: ProductFilterRequest{}, names: []string{"Ankara Gown", "Casual Shirt", "Senator Wear"}},
		{name: "price range", req: ProductFilterRequest{MinPrice: strPtr("9000"), MaxPrice: strPtr("15000")}, names: []string{"Ankara Gown", "Senator Wear"}},
		{name: "size", req: ProductFilterRequest{Size: "m"}, names: []string{"Ankara Gown", "Casual Shirt"}},
		{name: "category in stock", req: ProductFilterRequest{Category: "men", InStockOnly: true}, names: []string{"Casual Shirt", "Senator Wear"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			resp, err := svc.ListProducts(ctx, &req)
			require.NoError(t, err)

			var got []string
			for _, p := range resp.Products {
				got = append(got, p.Name)
			}
			assert.Equal(t, tt.names, got)
			assert.Equal(t, 1, resp.Page)
			assert.Equal(t, 20, resp.PageSize)
		})
	}
}

func TestListProducts_InvalidBounds(t *testing.T) {
	svc := NewService(testutil.NewProductRepo(), nil, 0)

	for _, req := range []ProductFilterRequest{
		{MinPrice: strPtr("100"), MaxPrice: strPtr("10")},
		{MinPrice: strPtr("-5")},
		{MaxPrice: strPtr("abc")},
		{SortBy: "password"},
	} {
		r := req
		_, err := svc.ListProducts(context.Background(), &r)
		require.Error(t, err)
		assert.Equal(t, appErrors.CodeValidation, appErrors.CodeOf(err))
	}
}

func TestListProducts_UsesCache(t *testing.T) {
	repo := testutil.NewProductRepo(launchProducts()...)
	cache := testutil.NewCache()
	svc := NewService(repo, cache, 0)
	ctx := context.Background()

	_, err := svc.ListProducts(ctx, &ProductFilterRequest{})
	require.NoError(t, err)
	resp, err := svc.ListProducts(ctx, &ProductFilterRequest{})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.Lists)
	assert.Equal(t, 1, cache.Hits)
	assert.Len(t, resp.Products, 3)

	svc.Invalidate(ctx)
	_, err = svc.ListProducts(ctx, &ProductFilterRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.Lists)
}

func TestGetProduct_CachedAndInvalidated(t *testing.T) {
	products := launchProducts()
	repo := testutil.NewProductRepo(products...)
	cache := testutil.NewCache()
	svc := NewService(repo, cache, 0)
	ctx := context.Background()
	id := products[0].ID

	p, err := svc.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 20, p.Stock)
	assert.True(t, p.InStock)

	require.NoError(t, repo.UpdateStock(ctx, id, 3))
	p, err = svc.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 20, p.Stock, "served from cache")

	svc.Invalidate(ctx, id)
	p, err = svc.GetProduct(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)

	_, err = svc.GetProduct(ctx, uuid.New())
	assert.ErrorIs(t, err, product.ErrProductNotFound)
}

func TestCategories(t *testing.T) {
	svc := NewService(testutil.NewProductRepo(launchProducts()...), testutil.NewCache(), 0)
	categories, err := svc.Categories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Men", "Women"}, categories)

	empty := NewService(testutil.NewProductRepo(), nil, 0)
	categories, err = empty.Categories(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, categories)
}
