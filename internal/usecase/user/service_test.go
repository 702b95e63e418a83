package user

import (
	"context"
	"os"
	"regexp"
	"testing"
	"time"

	"storefront/internal/config"
	domainCart "storefront/internal/domain/cart"
	domainUser "storefront/internal/domain/user"
	"storefront/internal/infrastructure/memory"
	"storefront/internal/testutil"
	cartUC "storefront/internal/usecase/cart"
	appErrors "storefront/pkg/errors"
	"storefront/pkg/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const strongPassword = "Str0ng!Pass"

var resetLink = regexp.MustCompile(`reset-password\?token=([0-9a-f]{64})`)

func TestMain(m *testing.M) {
	utils.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type fixture struct {
	svc    *Service
	users  *testutil.UserRepo
	carts  *memory.CartStore
	mailer *testutil.Mailer
}

func newFixture() *fixture {
	cfg := &config.Config{
		Server: config.ServerConfig{PublicURL: "https://shop.example.com"},
		JWT:    config.JWTConfig{Secret: "test-secret", ExpiryHours: 1, RefreshExpiryHours: 24},
	}
	f := &fixture{
		users:  testutil.NewUserRepo(),
		carts:  memory.NewCartStore(time.Hour),
		mailer: &testutil.Mailer{},
	}
	f.svc = NewService(f.users, f.users.Tokens(), f.carts, f.mailer, cfg)
	return f
}

func (f *fixture) register(t *testing.T, email string) *AuthResponse {
	t.Helper()
	resp, err := f.svc.Register(context.Background(), &RegisterRequest{
		Name:            "Ada Obi",
		Email:           email,
		Password:        strongPassword,
		ConfirmPassword: strongPassword,
	})
	require.NoError(t, err)
	return resp
}

func TestRegister(t *testing.T) {
	f := newFixture()
	resp := f.register(t, "  Ada@Example.com ")
	assert.Equal(t, "ada@example.com", resp.User.Email)
	assert.Equal(t, domainUser.RoleCustomer, resp.User.Role)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)

	claims, err := utils.ValidateToken(resp.AccessToken, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, utils.TokenTypeAccess, claims.TokenType)

	_, err = f.svc.Register(context.Background(), &RegisterRequest{
		Name: "Ada Again", Email: "ada@example.com", Password: strongPassword, ConfirmPassword: strongPassword,
	})
	assert.ErrorIs(t, err, domainUser.ErrUserAlreadyExists)
}

func TestRegister_Validation(t *testing.T) {
	f := newFixture()
	tests := []struct {
		name string
		req  RegisterRequest
		code string
	}{
		{"bad email", RegisterRequest{Name: "Ada", Email: "nope", Password: strongPassword, ConfirmPassword: strongPassword}, appErrors.CodeValidation},
		{"mismatch", RegisterRequest{Name: "Ada", Email: "a@b.co", Password: strongPassword, ConfirmPassword: "other"}, appErrors.CodeValidation},
		{"weak", RegisterRequest{Name: "Ada", Email: "a@b.co", Password: "password1", ConfirmPassword: "password1"}, appErrors.CodeWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := f.svc.Register(context.Background(), &req)
			assert.Equal(t, tt.code, appErrors.CodeOf(err))
		})
	}
}

func TestLogin(t *testing.T) {
	f := newFixture()
	f.register(t, "ada@example.com")

	resp, err := f.svc.Login(context.Background(), &LoginRequest{Email: "ADA@example.com", Password: strongPassword})
	require.NoError(t, err)
	assert.Equal(t, "Ada Obi", resp.User.Name)

	_, err = f.svc.Login(context.Background(), &LoginRequest{Email: "ada@example.com", Password: "Wr0ng!Pass"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = f.svc.Login(context.Background(), &LoginRequest{Email: "ghost@example.com", Password: strongPassword})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestRefreshToken_Rotates(t *testing.T) {
	f := newFixture()
	auth := f.register(t, "ada@example.com")

	pair, err := f.svc.RefreshToken(context.Background(), auth.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, auth.RefreshToken, pair.RefreshToken)

	_, err = f.svc.RefreshToken(context.Background(), auth.RefreshToken)
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)

	// Access tokens cannot be used to refresh.
	_, err = f.svc.RefreshToken(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)
}

func TestRevokeToken_ClearsCart(t *testing.T) {
	f := newFixture()
	auth := f.register(t, "ada@example.com")
	userID := auth.User.ID

	c := domainCart.New()
	_, err := c.Add(domainCart.ProductSnapshot{ID: uuid.New(), Name: "Casual Shirt", Price: decimal.NewFromInt(8000), Stock: 3}, 1)
	require.NoError(t, err)
	require.NoError(t, f.carts.Save(context.Background(), cartUC.SessionKey(userID), c))

	require.NoError(t, f.svc.RevokeToken(context.Background(), userID, auth.RefreshToken))

	stored, err := f.carts.Get(context.Background(), cartUC.SessionKey(userID))
	require.NoError(t, err)
	assert.True(t, stored.IsEmpty())

	assert.ErrorIs(t, f.svc.RevokeToken(context.Background(), uuid.New(), auth.RefreshToken), appErrors.ErrInvalidToken)
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture()
	auth := f.register(t, "ada@example.com")

	require.NoError(t, f.svc.ForgotPassword(context.Background(), &ForgotPasswordRequest{Email: "ada@example.com"}))
	mail := f.mailer.Last()
	assert.Equal(t, "ada@example.com", mail.To)
	assert.Contains(t, mail.Body, "https://shop.example.com/reset-password?token=")
	match := resetLink.FindStringSubmatch(mail.Body)
	require.Len(t, match, 2)
	token := match[1]

	newPassword := "N3w!Password"
	req := &ResetPasswordRequest{Token: token, NewPassword: newPassword, ConfirmPassword: newPassword}
	require.NoError(t, f.svc.ResetPassword(context.Background(), req))

	_, err := f.svc.Login(context.Background(), &LoginRequest{Email: "ada@example.com", Password: newPassword})
	assert.NoError(t, err)

	// Existing sessions are revoked.
	_, err = f.svc.RefreshToken(context.Background(), auth.RefreshToken)
	assert.ErrorIs(t, err, appErrors.ErrInvalidToken)

	err = f.svc.ResetPassword(context.Background(), req)
	assert.Equal(t, appErrors.CodeInvalidToken, appErrors.CodeOf(err))
	assert.ErrorIs(t, err, domainUser.ErrResetTokenUsed)
}

func TestForgotPassword_UnknownEmailIsSilent(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.svc.ForgotPassword(context.Background(), &ForgotPasswordRequest{Email: "ghost@example.com"}))
	assert.Empty(t, f.mailer.Sent)
}

func TestResetPassword_ExpiredToken(t *testing.T) {
	f := newFixture()
	auth := f.register(t, "ada@example.com")

	token := utils.GenerateResetToken()
	require.NoError(t, f.users.CreatePasswordReset(context.Background(), &domainUser.PasswordReset{
		UserID:    auth.User.ID,
		TokenHash: utils.HashToken(token),
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	err := f.svc.ResetPassword(context.Background(), &ResetPasswordRequest{Token: token, NewPassword: "N3w!Password", ConfirmPassword: "N3w!Password"})
	assert.ErrorIs(t, err, domainUser.ErrTokenExpired)

	err = f.svc.ResetPassword(context.Background(), &ResetPasswordRequest{Token: utils.GenerateResetToken(), NewPassword: "N3w!Password", ConfirmPassword: "N3w!Password"})
	assert.Equal(t, appErrors.CodeInvalidToken, appErrors.CodeOf(err))
}

func TestChangePasswordAndProfile(t *testing.T) {
	f := newFixture()
	auth := f.register(t, "ada@example.com")
	ctx := context.Background()

	err := f.svc.ChangePassword(ctx, auth.User.ID, &ChangePasswordRequest{OldPassword: "Wr0ng!Pass", NewPassword: "N3w!Password", ConfirmPassword: "N3w!Password"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
	require.NoError(t, f.svc.ChangePassword(ctx, auth.User.ID, &ChangePasswordRequest{OldPassword: strongPassword, NewPassword: "N3w!Password", ConfirmPassword: "N3w!Password"}))

	phone := "+234 801 234 5678"
	address := "12 Marina Road, Lagos"
	profile, err := f.svc.UpdateProfile(ctx, auth.User.ID, &UpdateProfileRequest{Phone: &phone, Address: &address})
	require.NoError(t, err)
	assert.Equal(t, phone, *profile.Phone)
	assert.Equal(t, "Ada Obi", profile.Name)

	bad := "not a phone"
	_, err = f.svc.UpdateProfile(ctx, auth.User.ID, &UpdateProfileRequest{Phone: &bad})
	assert.Equal(t, appErrors.CodeValidation, appErrors.CodeOf(err))
}

func TestEnsureAdmin(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	created, err := f.svc.EnsureAdmin(ctx, "Store Admin", "admin@example.com", strongPassword)
	require.NoError(t, err)
	assert.True(t, created)

	created, err = f.svc.EnsureAdmin(ctx, "Store Admin", "admin@example.com", strongPassword)
	require.NoError(t, err)
	assert.False(t, created)

	f.register(t, "ada@example.com")
	_, err = f.svc.EnsureAdmin(ctx, "Ada", "ada@example.com", strongPassword)
	assert.ErrorIs(t, err, domainUser.ErrUserAlreadyExists)
}
