package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domainUser "storefront/internal/domain/user"
	"storefront/internal/infrastructure/database/postgres/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *domainUser.User) error {
	u.ID = uuid.New()
	u.Email = strings.ToLower(u.Email)
	u.CreatedAt = time.Now().UTC()
	u.UpdatedAt = u.CreatedAt

	if err := r.db.DB.WithContext(ctx).Create(toUserModel(u)).Error; err != nil {
		if isUniqueViolation(err) {
			return domainUser.ErrUserAlreadyExists
		}
		if isCheckViolation(err) {
			return domainUser.ErrInvalidUserRole
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domainUser.User, error) {
	var m models.UserModel
	err := r.db.DB.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&m).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainUser.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return toUserEntity(&m), nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*domainUser.User, error) {
	var m models.UserModel
	err := r.db.DB.WithContext(ctx).First(&m, "id = ?", userID).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainUser.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return toUserEntity(&m), nil
}

func (r *UserRepository) Update(ctx context.Context, u *domainUser.User) error {
	u.UpdatedAt = time.Now().UTC()

	result := r.db.DB.WithContext(ctx).Model(&models.UserModel{}).
		Where("id = ?", u.ID).
		Updates(map[string]interface{}{
			"name":       u.Name,
			"phone":      u.Phone,
			"address":    u.Address,
			"updated_at": u.UpdatedAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainUser.ErrUserNotFound
	}

	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	return updatePassword(r.db.DB.WithContext(ctx), userID, passwordHash)
}

func updatePassword(db *gorm.DB, userID uuid.UUID, passwordHash string) error {
	result := db.Model(&models.UserModel{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"password_hash": passwordHash,
			"updated_at":    time.Now().UTC(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domainUser.ErrUserNotFound
	}
	return nil
}

// ListCustomers returns customers with their order counts and completed spend, newest first.
func (r *UserRepository) ListCustomers(ctx context.Context, page, pageSize int) ([]*domainUser.CustomerSummary, int64, error) {
	db := r.db.DB.WithContext(ctx)

	var total int64
	if err := db.Model(&models.UserModel{}).Where("role = ?", domainUser.RoleCustomer).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count customers: %w", err)
	}

	page, pageSize = normalizePage(page, pageSize)

	var rows []struct {
		models.UserModel
		OrderCount      int
		CompletedOrders int
		TotalSpent      decimal.Decimal
	}
	err := db.Raw(`
		SELECT u.*,
			COUNT(o.id) AS order_count,
			COUNT(o.id) FILTER (WHERE o.status = 'completed') AS completed_orders,
			COALESCE(SUM(o.total_amount) FILTER (WHERE o.status = 'completed'), 0) AS total_spent
		FROM users u
		LEFT JOIN orders o ON o.user_id = u.id
		WHERE u.role = ?
		GROUP BY u.id
		ORDER BY u.created_at DESC
		LIMIT ? OFFSET ?
	`, domainUser.RoleCustomer, pageSize, (page-1)*pageSize).Scan(&rows).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list customers: %w", err)
	}

	customers := make([]*domainUser.CustomerSummary, len(rows))
	for i := range rows {
		customers[i] = &domainUser.CustomerSummary{
			User:            toUserEntity(&rows[i].UserModel),
			OrderCount:      rows[i].OrderCount,
			CompletedOrders: rows[i].CompletedOrders,
			TotalSpent:      rows[i].TotalSpent,
		}
	}

	return customers, total, nil
}

func (r *UserRepository) CreatePasswordReset(ctx context.Context, reset *domainUser.PasswordReset) error {
	reset.ID = uuid.New()
	reset.CreatedAt = time.Now().UTC()
	reset.Used = false

	m := &models.PasswordResetModel{
		ID:        reset.ID,
		UserID:    reset.UserID,
		TokenHash: reset.TokenHash,
		ExpiresAt: reset.ExpiresAt,
		Used:      reset.Used,
		CreatedAt: reset.CreatedAt,
	}
	if err := r.db.DB.WithContext(ctx).Create(m).Error; err != nil {
		return fmt.Errorf("failed to create password reset: %w", err)
	}
	return nil
}

func (r *UserRepository) GetPasswordResetByHash(ctx context.Context, tokenHash string) (*domainUser.PasswordReset, error) {
	var m models.PasswordResetModel
	err := r.db.DB.WithContext(ctx).Where("token_hash = ?", tokenHash).First(&m).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainUser.ErrTokenNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get password reset: %w", err)
	}

	return &domainUser.PasswordReset{
		ID:        m.ID,
		UserID:    m.UserID,
		TokenHash: m.TokenHash,
		ExpiresAt: m.ExpiresAt,
		Used:      m.Used,
		CreatedAt: m.CreatedAt,
	}, nil
}

// RedeemPasswordReset marks the reset used only if it is still unused, then stores the new password.
func (r *UserRepository) RedeemPasswordReset(ctx context.Context, resetID, userID uuid.UUID, passwordHash string) error {
	return r.db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.PasswordResetModel{}).
			Where("id = ? AND used = false AND expires_at > ?", resetID, time.Now().UTC()).
			Update("used", true)
		if result.Error != nil {
			return fmt.Errorf("failed to mark reset as used: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domainUser.ErrResetTokenUsed
		}

		if err := updatePassword(tx, userID, passwordHash); err != nil {
			return err
		}

		// A successful reset signs the user out everywhere.
		return revokeAllUserTokens(tx, userID)
	})
}

func (r *UserRepository) DeleteExpiredPasswordResets(ctx context.Context, before time.Time) error {
	result := r.db.DB.WithContext(ctx).
		Where("expires_at < ? OR used = true", before).
		Delete(&models.PasswordResetModel{})

	if result.Error != nil {
		return fmt.Errorf("failed to delete expired password resets: %w", result.Error)
	}
	return nil
}

func toUserModel(u *domainUser.User) *models.UserModel {
	return &models.UserModel{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Phone:        u.Phone,
		Address:      u.Address,
		Role:         u.Role,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func toUserEntity(m *models.UserModel) *domainUser.User {
	return &domainUser.User{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Phone:        m.Phone,
		Address:      m.Address,
		Role:         m.Role,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
