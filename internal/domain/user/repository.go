package user

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository defines the interface for user repository operations
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	ListCustomers(ctx context.Context, page, pageSize int) ([]*CustomerSummary, int64, error)

	CreatePasswordReset(ctx context.Context, reset *PasswordReset) error
	GetPasswordResetByHash(ctx context.Context, tokenHash string) (*PasswordReset, error)
	// RedeemPasswordReset marks the reset used and stores the new hash in one transaction.
	RedeemPasswordReset(ctx context.Context, resetID, userID uuid.UUID, passwordHash string) error
	DeleteExpiredPasswordResets(ctx context.Context, before time.Time) error
}

// RefreshTokenRepository defines the interface for refresh token operations
type RefreshTokenRepository interface {
	Create(ctx context.Context, token *RefreshToken) error
	GetByToken(ctx context.Context, token string) (*RefreshToken, error)
	Revoke(ctx context.Context, tokenID uuid.UUID) error
	RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error
	DeleteExpired(ctx context.Context, olderThan time.Duration) error
}
