package order

import "errors"

var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrInvalidStatus           = errors.New("invalid order status")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrOrderNotPending         = errors.New("order is no longer pending")
	ErrInconsistentTotal       = errors.New("order total does not match its items")
	ErrNoItems                 = errors.New("order has no items")
	ErrAmountMismatch          = errors.New("paid amount does not match order total")
	ErrCurrencyMismatch        = errors.New("paid currency does not match order currency")
)
