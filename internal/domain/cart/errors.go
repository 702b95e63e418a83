package cart

import "errors"

var (
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
	ErrOutOfStock      = errors.New("product is out of stock")
	ErrInvalidPrice    = errors.New("price must not be negative")
	ErrItemNotFound    = errors.New("item is not in the cart")
	ErrEmptyCart       = errors.New("cart is empty")
)
