package payment

import "errors"

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrUnknownReference = errors.New("unknown payment reference")
	ErrGatewayRejected  = errors.New("payment gateway rejected the request")
	ErrUnsupportedEvent = errors.New("unsupported webhook event")
)
