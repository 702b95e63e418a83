package product

import "errors"

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrProductAlreadyExists = errors.New("product already exists")
	ErrInvalidPrice         = errors.New("price must not be negative")
	ErrInvalidStock         = errors.New("stock must not be negative")
	ErrInsufficientStock    = errors.New("insufficient stock")
)
