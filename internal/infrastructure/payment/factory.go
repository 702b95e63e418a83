package payment

import (
	"fmt"

	"storefront/internal/config"
	domainPayment "storefront/internal/domain/payment"
	"storefront/internal/logger"

	"go.uber.org/zap"
)

// NewGateway builds the gateway named by cfg.Provider.
func NewGateway(cfg config.PaymentConfig, webhookSecret string) (domainPayment.Gateway, error) {
	switch cfg.Provider {
	case "paystack":
		logger.Info("Payment gateway configured",
			zap.String("provider", "paystack"),
			zap.String("base_url", cfg.BaseURL),
		)
		return NewPaystackGateway(cfg.SecretKey, cfg.BaseURL, cfg.Timeout), nil
	case "sandbox", "":
		logger.Warn("Using sandbox payment gateway",
			zap.String("outcome", cfg.SandboxOutcome),
			zap.String("event", "sandbox_gateway_enabled"),
		)
		return NewSandboxGateway(cfg.SandboxOutcome, webhookSecret), nil
	default:
		return nil, fmt.Errorf("unknown payment provider %q", cfg.Provider)
	}
}
