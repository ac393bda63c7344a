package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = strings.Repeat("k", MinJWTSecretLength)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET": testSecret,
	}))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "mentorship", cfg.Mongo.Database)
	assert.Equal(t, "mentorship-api", cfg.JWT.Issuer)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpiresIn)
	assert.Equal(t, 12, cfg.Security.BcryptCost)
	assert.Equal(t, 5, cfg.Security.LockoutThreshold)
	assert.Equal(t, 30*time.Minute, cfg.Security.LockoutDuration)
	assert.Equal(t, 10*time.Minute, cfg.Security.ResetTokenTTL)
	assert.Equal(t, 5, cfg.Security.ForgotPasswordLimit)
	assert.Equal(t, 15*time.Minute, cfg.Security.ForgotPasswordWindow)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 4, cfg.NotifyWorkers)
	assert.False(t, cfg.CookieSecure)
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
		"JWT_SECRET":        testSecret,
		"ENV":               "production",
		"LOCKOUT_DURATION":  "45m",
		"LOCKOUT_THRESHOLD": "3",
		"COOKIE_SECURE":     "true",
		"REDIS_DB":          "2",
	}))
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 45*time.Minute, cfg.Security.LockoutDuration)
	assert.Equal(t, 3, cfg.Security.LockoutThreshold)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, 2, cfg.Redis.DB)
}

func TestLoadFrom_MissingSecret(t *testing.T) {
	_, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{}))
	assert.Error(t, err)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "short secret",
			env:  map[string]string{"JWT_SECRET": "short"},
			want: "JWT_SECRET",
		},
		{
			name: "bcrypt cost",
			env:  map[string]string{"JWT_SECRET": testSecret, "BCRYPT_COST": "40"},
			want: "BCRYPT_COST",
		},
		{
			name: "zero threshold",
			env:  map[string]string{"JWT_SECRET": testSecret, "LOCKOUT_THRESHOLD": "0"},
			want: "LOCKOUT_THRESHOLD",
		},
		{
			name: "negative reset ttl",
			env:  map[string]string{"JWT_SECRET": testSecret, "RESET_TOKEN_TTL": "-1m"},
			want: "RESET_TOKEN_TTL",
		},
		{
			name: "reset ttl too short",
			env:  map[string]string{"JWT_SECRET": testSecret, "RESET_TOKEN_TTL": "5m"},
			want: "RESET_TOKEN_TTL",
		},
		{
			name: "reset ttl too long",
			env:  map[string]string{"JWT_SECRET": testSecret, "RESET_TOKEN_TTL": "24h"},
			want: "RESET_TOKEN_TTL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(context.Background(), envconfig.MapLookuper(tt.env))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFrom_ResetTokenTTLBounds(t *testing.T) {
	for _, ttl := range []string{"10m", "30m", "1h"} {
		cfg, err := LoadFrom(context.Background(), envconfig.MapLookuper(map[string]string{
			"JWT_SECRET":      testSecret,
			"RESET_TOKEN_TTL": ttl,
		}))
		require.NoError(t, err, ttl)
		assert.GreaterOrEqual(t, cfg.Security.ResetTokenTTL, MinResetTokenTTL)
		assert.LessOrEqual(t, cfg.Security.ResetTokenTTL, MaxResetTokenTTL)
	}
}
