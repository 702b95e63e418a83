package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "sandbox", cfg.Payment.Provider)
	assert.Equal(t, "NGN", cfg.Payment.Currency)
	assert.Equal(t, 15*time.Second, cfg.Payment.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Cart.TTL)
	assert.Equal(t, 5*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, []string{"X-Request-ID"}, cfg.CORS.ExposedHeaders)
	assert.Empty(t, cfg.CORS.AllowedOrigins)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://shop@db:5432/shop")
	t.Setenv("PUBLIC_URL", "https://shop.example.com/")
	t.Setenv("PAYMENT_PROVIDER", "Paystack")
	t.Setenv("PAYMENT_CURRENCY", "ngn")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://shop.example.com, https://admin.example.com ,")
	t.Setenv("CART_TTL", "2h")
	t.Setenv("RATE_LIMIT_GENERAL_RPS", "2.5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://shop@db:5432/shop", cfg.Database.DSN())
	assert.Equal(t, "https://shop.example.com", cfg.Server.PublicURL)
	assert.Equal(t, "paystack", cfg.Payment.Provider)
	assert.Equal(t, "NGN", cfg.Payment.Currency)
	assert.Equal(t, []string{"https://shop.example.com", "https://admin.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 2*time.Hour, cfg.Cart.TTL)
	assert.Equal(t, 2.5, cfg.RateLimit.GeneralRPS)
}

func TestDSN(t *testing.T) {
	tests := []struct {
		name string
		db   DatabaseConfig
		want string
	}{
		{
			name: "discrete settings",
			db:   DatabaseConfig{Host: "db", Port: "5432", User: "shop", Password: "pw", DBName: "shop", SSLMode: "disable"},
			want: "host=db port=5432 user=shop password=pw dbname=shop sslmode=disable",
		},
		{
			name: "url wins",
			db:   DatabaseConfig{URL: "postgres://u:p@db/shop", Host: "ignored", Password: "pw"},
			want: "postgres://u:p@db/shop",
		},
		{
			name: "password appended to key/value url",
			db:   DatabaseConfig{URL: "host=db dbname=shop", Password: "pw"},
			want: "host=db dbname=shop password=pw",
		},
		{
			name: "key/value url keeps its own password",
			db:   DatabaseConfig{URL: "host=db password=own", Password: "pw"},
			want: "host=db password=own",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.db.DSN())
		})
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{URL: "postgres://db/shop"},
			JWT:      JWTConfig{Secret: "secret"},
			Payment:  PaymentConfig{Provider: "sandbox"},
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		errMsg string
	}{
		{"no database", func(c *Config) { c.Database = DatabaseConfig{Host: "db"} }, "database configuration"},
		{"no jwt secret", func(c *Config) { c.JWT.Secret = "" }, "JWT secret"},
		{"paystack without key", func(c *Config) { c.Payment.Provider = "paystack" }, "payment secret key"},
		{"sandbox in production", func(c *Config) { c.Server.Environment = "production" }, "PAYMENT_PROVIDER=paystack"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	prod := valid()
	prod.Server.Environment = "production"
	prod.Payment = PaymentConfig{Provider: "paystack", SecretKey: "sk_live_x"}
	assert.NoError(t, prod.Validate())
}

func TestLoadProductionDefaultsRejected(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DATABASE_URL", "postgres://shop@db:5432/shop")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "sandbox", cfg.Payment.Provider)
	assert.Error(t, cfg.Validate())
}
