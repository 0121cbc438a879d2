package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/SscSPs/community_billing/internal/core/domain"
	"github.com/SscSPs/community_billing/internal/core/services"
	"github.com/SscSPs/community_billing/internal/platform/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, config.StoreDriverMemory, cfg.StoreDriver)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "300-M", cfg.RateLimit)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Empty(t, cfg.CORSAllowedOrigins)
	assert.Equal(t, services.DefaultPolicy(), cfg.Policy())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("PGSQL_URL", "postgres://billing@localhost/billing")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("REFERRAL_GRACE_WINDOW", "12h")
	t.Setenv("BONUS_REFERRER_BPS", "500")
	t.Setenv("KYC_BASIC_THRESHOLD_MICRO", "50000000")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)

	policy := cfg.Policy()
	assert.Equal(t, 12*time.Hour, policy.ReferralGraceWindow)
	assert.Equal(t, int64(500), policy.ReferrerBps)
	assert.Equal(t, domain.USD(50), policy.KYCThresholds[0].ThresholdMicro)
	assert.Equal(t, domain.KYCBasic, policy.RequiredKYCLevel(domain.USD(60)))
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "postgres without url", env: map[string]string{"STORE_DRIVER": "postgres", "PGSQL_URL": ""}, want: "PGSQL_URL"},
		{name: "unknown driver", env: map[string]string{"STORE_DRIVER": "sqlite"}, want: "unknown STORE_DRIVER"},
		{name: "memory in production", env: map[string]string{"STORE_DRIVER": "memory", "IS_PRODUCTION": "true", "JWT_SECRET": "s3cret"}, want: "production"},
		{name: "default secret in production", env: map[string]string{"STORE_DRIVER": "postgres", "PGSQL_URL": "postgres://x", "IS_PRODUCTION": "true"}, want: "JWT_SECRET"},
		{name: "fee out of range", env: map[string]string{"STORE_DRIVER": "memory", "PAYOUT_FEE_BPS": "20000"}, want: "basis point"},
		{name: "thresholds not ascending", env: map[string]string{"STORE_DRIVER": "memory", "KYC_ENHANCED_THRESHOLD_MICRO": "1"}, want: "KYC thresholds"},
		{name: "bad log level", env: map[string]string{"STORE_DRIVER": "memory", "LOG_LEVEL": "loud"}, want: "LOG_LEVEL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := config.LoadConfig()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
