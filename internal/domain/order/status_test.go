package order

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "storefront/pkg/errors"
)

func TestValidateTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusCompleted, true},
		{StatusPending, StatusCancelled, true},
		{StatusPending, StatusPending, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCompleted, StatusPending, false},
		{StatusCancelled, StatusCompleted, false},
		{StatusCancelled, StatusPending, false},
		{StatusPending, Status("shipped"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := ValidateTransition(tt.from, tt.to)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, appErrors.CodeInvalidTransition, appErrors.CodeOf(err))
		})
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.False(t, Status("bogus").IsTerminal())
}

func TestOrder_Consistent(t *testing.T) {
	items := []OrderItem{
		{ProductID: uuid.New(), Quantity: 2, PriceAtPurchase: decimal.RequireFromString("15.00")},
		{ProductID: uuid.New(), Quantity: 1, PriceAtPurchase: decimal.RequireFromString("9.50")},
	}
	o := &Order{Items: items, TotalAmount: decimal.RequireFromString("39.50")}
	assert.True(t, o.Consistent())

	o.TotalAmount = decimal.RequireFromString("40")
	assert.False(t, o.Consistent())
}
