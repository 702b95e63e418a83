package user

import (
	"context"
	"time"

	"storefront/internal/logger"

	"go.uber.org/zap"
)

// StartCleanupJob periodically removes expired refresh tokens and password resets until ctx is done.
func (s *Service) StartCleanupJob(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("Credential cleanup job started",
		zap.Duration("interval", interval),
	)

	s.cleanupExpired(ctx)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Credential cleanup job stopped")
			return
		case <-ticker.C:
			s.cleanupExpired(ctx)
		}
	}
}

func (s *Service) cleanupExpired(ctx context.Context) {
	olderThan := 24 * time.Hour
	if err := s.refreshTokenRepo.DeleteExpired(ctx, olderThan); err != nil {
		logger.Error("Failed to delete expired tokens", zap.Error(err))
	}
	if err := s.userRepo.DeleteExpiredPasswordResets(ctx, time.Now().UTC().Add(-olderThan)); err != nil {
		logger.Error("Failed to delete expired password resets", zap.Error(err))
		return
	}

	logger.Debug("Expired credentials cleaned up",
		zap.Duration("older_than", olderThan),
	)
}
