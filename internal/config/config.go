package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	PostgresURL string `mapstructure:"POSTGRES_URL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	GatewayBaseURL   string        `mapstructure:"GATEWAY_BASE_URL"`
	GatewaySecretKey string        `mapstructure:"GATEWAY_SECRET_KEY"`
	GatewayTimeout   time.Duration `mapstructure:"GATEWAY_TIMEOUT"`

	WebhookSecret          string `mapstructure:"WEBHOOK_SECRET"`
	WebhookSignatureHeader string `mapstructure:"WEBHOOK_SIGNATURE_HEADER"`

	PlatformRecipientID string        `mapstructure:"PLATFORM_RECIPIENT_ID"`
	PixExpiresIn        time.Duration `mapstructure:"PIX_EXPIRES_IN"`
	PhoneCountryCode    string        `mapstructure:"PHONE_COUNTRY_CODE"`

	CheckoutRatePerMinute int `mapstructure:"CHECKOUT_RATE_PER_MINUTE"`
	CheckoutRateBurst     int `mapstructure:"CHECKOUT_RATE_BURST"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	DraftTTL  time.Duration `mapstructure:"DRAFT_TTL"`

	// comma separated; empty allows every origin
	CORSOrigins string `mapstructure:"CORS_ORIGINS"`
}

var defaults = map[string]any{
	"PORT":                     "8080",
	"LOG_LEVEL":                "info",
	"REDIS_DB":                 0,
	"GATEWAY_BASE_URL":         "https://api.pagar.me/core/v5",
	"GATEWAY_TIMEOUT":          30 * time.Second,
	"WEBHOOK_SIGNATURE_HEADER": "X-Hub-Signature",
	"PIX_EXPIRES_IN":           time.Hour,
	"PHONE_COUNTRY_CODE":       "55",
	"CHECKOUT_RATE_PER_MINUTE": 10,
	"CHECKOUT_RATE_BURST":      5,
	"DRAFT_TTL":                24 * time.Hour,
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// a missing .env is normal outside local development
		_ = godotenv.Load(f)
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	// AutomaticEnv only applies to keys viper already knows about
	for _, key := range []string{
		"POSTGRES_URL", "REDIS_ADDR", "REDIS_PASSWORD", "GATEWAY_SECRET_KEY",
		"WEBHOOK_SECRET", "PLATFORM_RECIPIENT_ID", "JWT_SECRET", "CORS_ORIGINS",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

func (c *Config) Validate() error {
	var errs []error
	if c.PostgresURL == "" {
		errs = append(errs, errors.New("POSTGRES_URL is required"))
	}
	if c.WebhookSecret == "" {
		errs = append(errs, errors.New("WEBHOOK_SECRET is required"))
	}
	if c.GatewaySecretKey == "" {
		errs = append(errs, errors.New("GATEWAY_SECRET_KEY is required"))
	}
	if c.PlatformRecipientID == "" {
		errs = append(errs, errors.New("PLATFORM_RECIPIENT_ID is required"))
	}
	if c.PixExpiresIn <= 0 {
		errs = append(errs, errors.New("PIX_EXPIRES_IN must be positive"))
	}
	if c.DraftTTL <= c.PixExpiresIn {
		errs = append(errs, errors.New("DRAFT_TTL must be longer than PIX_EXPIRES_IN"))
	}
	return errors.Join(errs...)
}

// DraftRetention is how long a draft may wait for its gateway transaction before purge.
// It must outlast the PIX expiry.
func (c *Config) DraftRetention(override time.Duration) (time.Duration, error) {
	ttl := c.DraftTTL
	if override > 0 {
		ttl = override
	}
	if ttl <= c.PixExpiresIn {
		return 0, fmt.Errorf("draft retention %s must be longer than PIX_EXPIRES_IN %s", ttl, c.PixExpiresIn)
	}
	return ttl, nil
}
