package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SscSPs/community_billing/internal/core/domain"
	"github.com/SscSPs/community_billing/internal/core/services"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	defaultJWTSecret = "a-very-secret-key-should-be-longer-and-random"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	Port           string
	IsProduction   bool
	StoreDriver    string
	MigrationsPath string
	DBMaxConns     int32
	DBMinConns     int32

	JWTSecret string
	JWTIssuer string

	RateLimit          string
	CORSAllowedOrigins []string
	SettlementSchedule string
	LogLevel           slog.Level

	ReferralGraceWindow       time.Duration
	BonusSettlementDelay      time.Duration
	BonusReferrerBps          int64
	BonusMaxPerReferrer       int
	BonusReviewRiskScore      float64
	PayoutMinimumMicro        int64
	PayoutRateLimitWindow     time.Duration
	PayoutFeeBps              int64
	KYCBasicThresholdMicro    int64
	KYCEnhancedThresholdMicro int64
	KYCWarningPercent         int64
}

func setDefaults(v *viper.Viper) {
	policy := services.DefaultPolicy()

	v.SetDefault("PGSQL_URL", "")
	v.SetDefault("PORT", "8080")
	v.SetDefault("IS_PRODUCTION", false)
	v.SetDefault("STORE_DRIVER", StoreDriverPostgres)
	v.SetDefault("MIGRATIONS_PATH", "file://migrations")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("RATE_LIMIT", "300-M")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "")
	v.SetDefault("SETTLEMENT_SCHEDULE", "@every 15m")
	v.SetDefault("LOG_LEVEL", "info")

	v.SetDefault("REFERRAL_GRACE_WINDOW", policy.ReferralGraceWindow.String())
	v.SetDefault("BONUS_SETTLEMENT_DELAY", policy.SettlementDelay.String())
	v.SetDefault("BONUS_REFERRER_BPS", policy.ReferrerBps)
	v.SetDefault("BONUS_MAX_PER_REFERRER", policy.MaxBonusesPerReferrer)
	v.SetDefault("BONUS_REVIEW_RISK_SCORE", policy.ReviewRiskScore)
	v.SetDefault("PAYOUT_MINIMUM_MICRO", policy.PayoutMinimumMicro)
	v.SetDefault("PAYOUT_RATE_LIMIT_WINDOW", policy.PayoutRateLimitWindow.String())
	v.SetDefault("PAYOUT_FEE_BPS", policy.PayoutFeeBps)
	v.SetDefault("KYC_BASIC_THRESHOLD_MICRO", domain.USD(100))
	v.SetDefault("KYC_ENHANCED_THRESHOLD_MICRO", domain.USD(1000))
	v.SetDefault("KYC_WARNING_PERCENT", policy.KYCWarningPercent)
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		DatabaseURL:    v.GetString("PGSQL_URL"),
		Port:           v.GetString("PORT"),
		IsProduction:   v.GetBool("IS_PRODUCTION"),
		StoreDriver:    strings.ToLower(v.GetString("STORE_DRIVER")),
		MigrationsPath: v.GetString("MIGRATIONS_PATH"),
		DBMaxConns:     v.GetInt32("DB_MAX_CONNS"),
		DBMinConns:     v.GetInt32("DB_MIN_CONNS"),

		JWTSecret: v.GetString("JWT_SECRET"),
		JWTIssuer: v.GetString("JWT_ISSUER"),

		RateLimit:          v.GetString("RATE_LIMIT"),
		CORSAllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
		SettlementSchedule: v.GetString("SETTLEMENT_SCHEDULE"),

		ReferralGraceWindow:       v.GetDuration("REFERRAL_GRACE_WINDOW"),
		BonusSettlementDelay:      v.GetDuration("BONUS_SETTLEMENT_DELAY"),
		BonusReferrerBps:          v.GetInt64("BONUS_REFERRER_BPS"),
		BonusMaxPerReferrer:       v.GetInt("BONUS_MAX_PER_REFERRER"),
		BonusReviewRiskScore:      v.GetFloat64("BONUS_REVIEW_RISK_SCORE"),
		PayoutMinimumMicro:        v.GetInt64("PAYOUT_MINIMUM_MICRO"),
		PayoutRateLimitWindow:     v.GetDuration("PAYOUT_RATE_LIMIT_WINDOW"),
		PayoutFeeBps:              v.GetInt64("PAYOUT_FEE_BPS"),
		KYCBasicThresholdMicro:    v.GetInt64("KYC_BASIC_THRESHOLD_MICRO"),
		KYCEnhancedThresholdMicro: v.GetInt64("KYC_ENHANCED_THRESHOLD_MICRO"),
		KYCWarningPercent:         v.GetInt64("KYC_WARNING_PERCENT"),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("LOG_LEVEL"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.JWTSecret == defaultJWTSecret {
		slog.Warn("JWT_SECRET environment variable not set. Using default insecure key.")
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("PGSQL_URL is required for the postgres store"))
		}
	case StoreDriverMemory:
		if c.IsProduction {
			errs = append(errs, errors.New("the memory store cannot be used in production"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}
	if c.IsProduction && c.JWTSecret == defaultJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	if c.DBMinConns > c.DBMaxConns {
		errs = append(errs, fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns))
	}
	if c.BonusReferrerBps < 0 || c.BonusReferrerBps > 10_000 || c.PayoutFeeBps < 0 || c.PayoutFeeBps > 10_000 {
		errs = append(errs, errors.New("basis point settings must be within 0..10000"))
	}
	if c.KYCBasicThresholdMicro <= 0 || c.KYCEnhancedThresholdMicro <= c.KYCBasicThresholdMicro {
		errs = append(errs, errors.New("KYC thresholds must be positive and ascending"))
	}
	if c.BonusReviewRiskScore < 0 || c.BonusReviewRiskScore > 1 {
		errs = append(errs, errors.New("BONUS_REVIEW_RISK_SCORE must be within 0..1"))
	}
	return errors.Join(errs...)
}

// Policy translates the configured business settings into a services.Policy.
// Settings without a key keep their DefaultPolicy value.
func (c *Config) Policy() services.Policy {
	p := services.DefaultPolicy()
	p.ReferralGraceWindow = c.ReferralGraceWindow
	p.SettlementDelay = c.BonusSettlementDelay
	p.ReferrerBps = c.BonusReferrerBps
	p.MaxBonusesPerReferrer = c.BonusMaxPerReferrer
	p.ReviewRiskScore = c.BonusReviewRiskScore
	p.PayoutMinimumMicro = c.PayoutMinimumMicro
	p.PayoutRateLimitWindow = c.PayoutRateLimitWindow
	p.PayoutFeeBps = c.PayoutFeeBps
	p.KYCThresholds = []domain.KYCThreshold{
		{Level: domain.KYCBasic, ThresholdMicro: c.KYCBasicThresholdMicro},
		{Level: domain.KYCEnhanced, ThresholdMicro: c.KYCEnhancedThresholdMicro},
	}
	p.KYCWarningPercent = c.KYCWarningPercent
	return p
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
