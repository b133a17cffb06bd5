package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port               string   `mapstructure:"PORT"`
	Env                string   `mapstructure:"ENV"`
	DatabaseURL        string   `mapstructure:"DATABASE_URL"`
	DBMaxConns         int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns         int32    `mapstructure:"DB_MIN_CONNS"`
	RedisAddr          string   `mapstructure:"REDIS_ADDR"`
	AuthIssuer         string   `mapstructure:"AUTH_ISSUER"`
	AuthAudience       string   `mapstructure:"AUTH_AUDIENCE"`
	AuthJWKSURL        string   `mapstructure:"AUTH_JWKS_URL"`
	AuthSigningKey     string   `mapstructure:"AUTH_SIGNING_KEY"`
	CORSOrigins        []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS       float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst     int      `mapstructure:"RATE_LIMIT_BURST"`
	LockTimeoutMS      int      `mapstructure:"LOCK_TIMEOUT_MS"`
	BookingMaxAttempts int      `mapstructure:"BOOKING_MAX_ATTEMPTS"`
	LockTTL            string   `mapstructure:"LOCK_TTL"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 100)
	v.SetDefault("RATE_LIMIT_BURST", 200)
	v.SetDefault("LOCK_TIMEOUT_MS", 2000)
	v.SetDefault("BOOKING_MAX_ATTEMPTS", 3)
	v.SetDefault("LOCK_TTL", "5s")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("REDIS_ADDR")
	v.BindEnv("AUTH_ISSUER")
	v.BindEnv("AUTH_AUDIENCE")
	v.BindEnv("AUTH_JWKS_URL")
	v.BindEnv("AUTH_SIGNING_KEY")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("RATE_LIMIT_RPS")
	v.BindEnv("RATE_LIMIT_BURST")
	v.BindEnv("LOCK_TIMEOUT_MS")
	v.BindEnv("BOOKING_MAX_ATTEMPTS")
	v.BindEnv("LOCK_TTL")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// LockTTLDuration parses LOCK_TTL, falling back to 5s on garbage input.
func (c *Config) LockTTLDuration() time.Duration {
	d, err := time.ParseDuration(c.LockTTL)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// Validate checks that the configuration is safe to run. Outside
// development a real JWT trust anchor must be configured: either a JWKS
// endpoint (with issuer) or a static HMAC signing key.
func (c *Config) Validate() error {
	if !c.IsDev() {
		if c.AuthJWKSURL == "" && c.AuthSigningKey == "" {
			return fmt.Errorf(
				"AUTH_JWKS_URL or AUTH_SIGNING_KEY must be set when ENV=%q. "+
					"Refusing to start without authentication configuration", c.Env)
		}
		if c.AuthJWKSURL != "" && c.AuthIssuer == "" {
			return fmt.Errorf("AUTH_ISSUER is required when AUTH_JWKS_URL is set")
		}
	}
	if c.LockTimeoutMS <= 0 {
		return fmt.Errorf("LOCK_TIMEOUT_MS must be positive, got %d", c.LockTimeoutMS)
	}
	if c.BookingMaxAttempts <= 0 {
		return fmt.Errorf("BOOKING_MAX_ATTEMPTS must be positive, got %d", c.BookingMaxAttempts)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) must not exceed DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}
