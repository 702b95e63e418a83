package user

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"storefront/internal/config"
	domainCart "storefront/internal/domain/cart"
	domainUser "storefront/internal/domain/user"
	"storefront/internal/logger"
	cartUC "storefront/internal/usecase/cart"
	appErrors "storefront/pkg/errors"
	"storefront/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const resetTokenTTL = time.Hour

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Service implements user use cases
type Service struct {
	userRepo         domainUser.Repository
	refreshTokenRepo domainUser.RefreshTokenRepository
	cartStore        domainCart.Store
	mailer           Mailer
	config           *config.Config
}

// NewService creates a new user service
func NewService(
	userRepo domainUser.Repository,
	refreshTokenRepo domainUser.RefreshTokenRepository,
	cartStore domainCart.Store,
	mailer Mailer,
	cfg *config.Config,
) *Service {
	return &Service{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		cartStore:        cartStore,
		mailer:           mailer,
		config:           cfg,
	}
}

// Register creates a customer account. Admins are only created through the seed command.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	email, err := utils.ValidateAndSanitizeEmail(req.Email)
	if err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid email", appErrors.ErrInvalidEmail)
	}
	req.Email = email
	req.Name = utils.SanitizeString(req.Name)

	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeWeakPassword, err.Error(), appErrors.ErrWeakPassword)
	}

	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil && !errors.Is(err, domainUser.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		logger.Warn("Registration attempt with existing email",
			zap.String("email", req.Email),
			zap.String("event", "registration_failed_duplicate_email"),
		)
		return nil, domainUser.ErrUserAlreadyExists
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domainUser.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Phone:        sanitizedPhone(req.Phone),
		Address:      sanitizedText(req.Address),
		Role:         domainUser.RoleCustomer,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	resp, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	logger.Info("User registered successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email),
		zap.String("role", user.Role),
		zap.String("event", "user_registered"),
	)
	return resp, nil
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	req.Email = utils.SanitizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			logger.Warn("Login attempt with non-existent email",
				zap.String("email", req.Email),
				zap.String("event", "user_not_found"),
			)
			return nil, appErrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.IsActive {
		logger.Warn("Login attempt for inactive user",
			zap.String("user_id", user.ID.String()),
			zap.String("event", "login_failed_inactive_user"),
		)
		return nil, domainUser.ErrUserInactive
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		logger.Warn("Login attempt with invalid password",
			zap.String("user_id", user.ID.String()),
			zap.String("event", "login_failed_invalid_password"),
		)
		return nil, appErrors.ErrInvalidCredentials
	}

	resp, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	logger.Info("User logged in successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("role", user.Role),
		zap.String("event", "login_success"),
	)
	return resp, nil
}

// ForgotPassword emails a single-use reset link. Unknown emails succeed silently.
func (s *Service) ForgotPassword(ctx context.Context, req *ForgotPasswordRequest) error {
	req.Email = utils.SanitizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			logger.Info("Password reset requested for non-existent email",
				zap.String("event", "password_reset_requested_non_existent_email"),
			)
			return nil
		}
		return fmt.Errorf("failed to retrieve user: %w", err)
	}
	if !user.IsActive {
		return nil
	}

	token := utils.GenerateResetToken()
	reset := &domainUser.PasswordReset{
		UserID:    user.ID,
		TokenHash: utils.HashToken(token),
		ExpiresAt: time.Now().UTC().Add(resetTokenTTL),
	}
	if err := s.userRepo.CreatePasswordReset(ctx, reset); err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.config.Server.PublicURL, url.QueryEscape(token))
	body := fmt.Sprintf("Hi %s,\n\nUse the link below to choose a new password. It expires in one hour.\n\n%s\n\n"+
		"If you did not ask for this, you can ignore this email.\n", user.Name, link)
	if err := s.mailer.Send(ctx, user.Email, "Reset your password", body); err != nil {
		logger.Error("Failed to send password reset email",
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	logger.Info("Password reset token generated",
		zap.String("user_id", user.ID.String()),
		zap.String("reset_id", reset.ID.String()),
		zap.Time("expires_at", reset.ExpiresAt),
		zap.String("event", "password_reset_token_generated"),
	)
	return nil
}

// ResetPassword redeems a reset token and signs the user out everywhere.
func (s *Service) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}
	if err := utils.ValidatePassword(req.NewPassword); err != nil {
		return appErrors.NewAppError(appErrors.CodeWeakPassword, err.Error(), appErrors.ErrWeakPassword)
	}

	reset, err := s.userRepo.GetPasswordResetByHash(ctx, utils.HashToken(req.Token))
	if err != nil {
		if errors.Is(err, domainUser.ErrTokenNotFound) {
			logger.Warn("Password reset attempt with unknown token",
				zap.String("event", "password_reset_failed_invalid_token"),
			)
			return appErrors.NewAppError(appErrors.CodeInvalidToken, "Invalid reset token", err)
		}
		return err
	}
	if reset.Used {
		return appErrors.NewAppError(appErrors.CodeInvalidToken, "Token has already been used", domainUser.ErrResetTokenUsed)
	}
	if !reset.Usable(time.Now().UTC()) {
		return appErrors.NewAppError(appErrors.CodeInvalidToken, "Token has expired", domainUser.ErrTokenExpired)
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.RedeemPasswordReset(ctx, reset.ID, reset.UserID, hashedPassword); err != nil {
		if errors.Is(err, domainUser.ErrResetTokenUsed) {
			return appErrors.NewAppError(appErrors.CodeInvalidToken, "Token has already been used", err)
		}
		return err
	}

	logger.Info("Password reset successfully",
		zap.String("user_id", reset.UserID.String()),
		zap.String("reset_id", reset.ID.String()),
		zap.String("event", "password_reset_success"),
	)
	return nil
}

func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, req *ChangePasswordRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}
	if err := utils.ValidatePassword(req.NewPassword); err != nil {
		return appErrors.NewAppError(appErrors.CodeWeakPassword, err.Error(), appErrors.ErrWeakPassword)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if !utils.CheckPassword(user.PasswordHash, req.OldPassword) {
		logger.Warn("Password change attempt with invalid old password",
			zap.String("user_id", user.ID.String()),
			zap.String("event", "password_change_failed_invalid_old_password"),
		)
		return appErrors.ErrInvalidCredentials
	}

	hashedPassword, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return err
	}

	logger.Info("Password changed successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("event", "password_change_success"),
	)
	return nil
}

func (s *Service) GetProfile(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ToUserResponse(user), nil
}

func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) (*UserResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = utils.SanitizeString(*req.Name)
	}
	if req.Phone != nil {
		user.Phone = sanitizedPhone(req.Phone)
	}
	if req.Address != nil {
		user.Address = sanitizedText(req.Address)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return ToUserResponse(user), nil
}

// RefreshToken rotates a refresh token. The presented token is revoked.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*utils.TokenPair, error) {
	claims, err := utils.ValidateToken(refreshToken, s.config.JWT.Secret)
	if err != nil || claims.TokenType != utils.TokenTypeRefresh {
		logger.Warn("Token refresh attempt with invalid token",
			zap.String("event", "token_refresh_failed_invalid_token"),
			zap.Error(err),
		)
		return nil, appErrors.ErrInvalidToken
	}

	dbToken, err := s.refreshTokenRepo.GetByToken(ctx, refreshToken)
	if err != nil {
		logger.Warn("Token refresh attempt with non-existent or revoked token",
			zap.String("user_id", claims.UserID.String()),
			zap.String("event", "token_refresh_failed_token_not_found"),
		)
		return nil, appErrors.ErrInvalidToken
	}
	if dbToken.UserID != claims.UserID {
		logger.Warn("Token refresh attempt with mismatched user ID",
			zap.String("token_user_id", dbToken.UserID.String()),
			zap.String("claim_user_id", claims.UserID.String()),
			zap.String("event", "token_refresh_failed_user_mismatch"),
		)
		return nil, appErrors.ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, appErrors.ErrInvalidToken
	}
	if !user.IsActive {
		return nil, domainUser.ErrUserInactive
	}

	if err := s.refreshTokenRepo.Revoke(ctx, dbToken.ID); err != nil {
		logger.Error("Failed to revoke refresh token",
			zap.String("token_id", dbToken.ID.String()),
			zap.Error(err),
		)
	}

	resp, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	logger.Debug("Token refreshed",
		zap.String("user_id", user.ID.String()),
		zap.String("old_token_id", dbToken.ID.String()),
		zap.String("event", "token_refresh_success"),
	)
	return &utils.TokenPair{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    resp.ExpiresAt,
	}, nil
}

// RevokeToken signs out one session. The session cart goes with it.
func (s *Service) RevokeToken(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	dbToken, err := s.refreshTokenRepo.GetByToken(ctx, refreshToken)
	if err != nil {
		return appErrors.ErrInvalidToken
	}
	if dbToken.UserID != userID {
		return appErrors.ErrInvalidToken
	}

	if err := s.refreshTokenRepo.Revoke(ctx, dbToken.ID); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	s.clearCart(ctx, userID)

	logger.Info("Refresh token revoked successfully",
		zap.String("user_id", userID.String()),
		zap.String("token_id", dbToken.ID.String()),
		zap.String("event", "token_revoked"),
	)
	return nil
}

func (s *Service) RevokeAllUserTokens(ctx context.Context, userID uuid.UUID) error {
	if err := s.refreshTokenRepo.RevokeAllUserTokens(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke all tokens for user: %w", err)
	}
	s.clearCart(ctx, userID)

	logger.Info("All refresh tokens revoked for user",
		zap.String("user_id", userID.String()),
		zap.String("event", "all_tokens_revoked"),
	)
	return nil
}

// EnsureAdmin creates an admin account unless one already uses email.
// created is false when the account already existed.
func (s *Service) EnsureAdmin(ctx context.Context, name, email, password string) (created bool, err error) {
	email, err = utils.ValidateAndSanitizeEmail(email)
	if err != nil {
		return false, appErrors.ErrInvalidEmail
	}
	if err := utils.ValidatePassword(password); err != nil {
		return false, appErrors.NewAppError(appErrors.CodeWeakPassword, err.Error(), appErrors.ErrWeakPassword)
	}

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		if !existing.IsAdmin() {
			return false, fmt.Errorf("%s is registered as %s: %w", email, existing.Role, domainUser.ErrUserAlreadyExists)
		}
		return false, nil
	}
	if !errors.Is(err, domainUser.ErrUserNotFound) {
		return false, err
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}
	admin := &domainUser.User{
		Name:         utils.SanitizeString(name),
		Email:        email,
		PasswordHash: hashedPassword,
		Role:         domainUser.RoleAdmin,
		IsActive:     true,
	}
	if err := s.userRepo.Create(ctx, admin); err != nil {
		return false, err
	}

	logger.Info("Admin account created",
		zap.String("user_id", admin.ID.String()),
		zap.String("email", admin.Email),
		zap.String("event", "admin_created"),
	)
	return true, nil
}

func (s *Service) issueTokens(ctx context.Context, user *domainUser.User) (*AuthResponse, error) {
	tokenPair, err := utils.GenerateTokenPair(
		user.ID,
		user.Email,
		user.Role,
		s.config.JWT.Secret,
		s.config.JWT.ExpiryHours,
		s.config.JWT.RefreshExpiryHours,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	refreshToken := &domainUser.RefreshToken{
		UserID:    user.ID,
		Token:     tokenPair.RefreshToken,
		ExpiresAt: time.Now().UTC().Add(time.Duration(s.config.JWT.RefreshExpiryHours) * time.Hour),
	}
	if err := s.refreshTokenRepo.Create(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &AuthResponse{
		User:         ToUserResponse(user),
		AccessToken:  tokenPair.AccessToken,
		RefreshToken: tokenPair.RefreshToken,
		ExpiresAt:    tokenPair.ExpiresAt,
	}, nil
}

func (s *Service) clearCart(ctx context.Context, userID uuid.UUID) {
	if s.cartStore == nil {
		return
	}
	if err := s.cartStore.Delete(ctx, cartUC.SessionKey(userID)); err != nil {
		logger.Warn("Failed to clear cart on sign-out",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}
}

func sanitizedPhone(phone *string) *string {
	if phone == nil {
		return nil
	}
	v := utils.SanitizePhone(*phone)
	return &v
}

func sanitizedText(text *string) *string {
	if text == nil {
		return nil
	}
	v := utils.SanitizeText(*text)
	return &v
}
