package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestTokenPair(t *testing.T) {
	userID := uuid.New()
	pair, err := GenerateTokenPair(userID, "ada@example.com", "customer", "secret", 1, 24)
	require.NoError(t, err)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	assert.InDelta(t, time.Now().Add(time.Hour).Unix(), pair.ExpiresAt, 5)

	access, err := ValidateToken(pair.AccessToken, "secret")
	require.NoError(t, err)
	assert.Equal(t, userID, access.UserID)
	assert.Equal(t, "customer", access.Role)
	assert.Equal(t, TokenTypeAccess, access.TokenType)

	refresh, err := ValidateToken(pair.RefreshToken, "secret")
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
	assert.NotEqual(t, access.ID, refresh.ID)

	_, err = ValidateToken(pair.AccessToken, "other-secret")
	assert.Error(t, err)

	_, err = GenerateTokenPair(userID, "ada@example.com", "customer", "", 1, 24)
	assert.Error(t, err)
}

func TestValidateTokenRejects(t *testing.T) {
	t.Run("expired", func(t *testing.T) {
		past := time.Now().Add(-2 * time.Hour)
		token, err := signToken(uuid.New(), "ada@example.com", "customer", TokenTypeAccess, "secret", past, past.Add(time.Hour))
		require.NoError(t, err)

		_, err = ValidateToken(token, "secret")
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("unsigned", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: uuid.New()}).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = ValidateToken(token, "secret")
		assert.Error(t, err)
	})
}

func TestPassword(t *testing.T) {
	PasswordCost = bcrypt.MinCost
	t.Cleanup(func() { PasswordCost = bcrypt.DefaultCost })

	hash, err := HashPassword("Str0ng!Pass")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "Str0ng!Pass"))
	assert.False(t, CheckPassword(hash, "str0ng!pass"))

	tests := []struct {
		password string
		valid    bool
	}{
		{"Str0ng!Pass", true},
		{"Sh0rt!", false},
		{"alllower1!", false},
		{"ALLUPPER1!", false},
		{"NoDigits!!", false},
		{"NoSymbol12", false},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "&lt;b&gt;Ada&lt;/b&gt;", SanitizeString("  <b>Ada</b> "))
	assert.Equal(t, "ada@example.com", SanitizeEmail("  <i>ADA@Example.com</i>"))
	assert.Equal(t, "+234 (801) 234-5678", SanitizePhone("<b>+234 (801) 234-5678</b>"))
	assert.Equal(t, "line one\nline two", SanitizeText("line one\nline two\x00"))

	email, err := ValidateAndSanitizeEmail(" Ada@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", email)

	_, err = ValidateAndSanitizeEmail("not-an-email")
	assert.Error(t, err)
	assert.False(t, IsValidEmail(strings.Repeat("a", 250)+"@example.com"))
}

func TestPagination(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 20))
	assert.Equal(t, 1, TotalPages(20, 20))
	assert.Equal(t, 2, TotalPages(21, 20))
	assert.Equal(t, 0, TotalPages(5, 0))

	page, size := NormalizePage(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 20, size)

	page, size = NormalizePage(3, 500)
	assert.Equal(t, 3, page)
	assert.Equal(t, 100, size)
}

func TestResetToken(t *testing.T) {
	a, b := GenerateResetToken(), GenerateResetToken()
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)

	assert.Equal(t, HashToken(a), HashToken(a))
	assert.NotEqual(t, a, HashToken(a))
}

func TestValidatorPhone(t *testing.T) {
	type contact struct {
		Phone string `validate:"required,phone"`
	}

	assert.NoError(t, ValidateStruct(contact{Phone: "+234 801 234 5678"}))
	assert.NoError(t, ValidateStruct(contact{Phone: "(0801) 234-5678"}))
	assert.Error(t, ValidateStruct(contact{Phone: "12345"}))
	assert.Error(t, ValidateStruct(contact{Phone: "call me maybe"}))
}
