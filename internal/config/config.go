package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dirham-pay/dirham_pay/internal/credential"
	"github.com/dirham-pay/dirham_pay/internal/gateway"
)

const (
	defaultAppName        = "DirhamPay"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultMetricsAddr    = ":9100"
	defaultOTPLength      = 6
	defaultOpeningBalance = 100_000 // 1000.00 MAD in centimes
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName           string
	AppEnv            string
	Port              string
	LogLevel          string
	DatabaseURL       string
	RedisURL          string
	MetricsAddr       string
	BankAPIURL        string
	BankAPIKey        string
	OTPLength         int
	OTPTTL            time.Duration
	PendingTTL        time.Duration
	OpeningBalance    int64
	GatewayMaxRetries int
	GatewayRetryDelay time.Duration
	ShutdownPeriod    time.Duration
	IdempotencyTTL    time.Duration
}

// Load reads configuration values from the environment and populates a Config
// instance. DATABASE_URL, REDIS_URL and BANK_API_URL are optional: absent, the
// service falls back to in-memory stores and the static rail simulator.
func Load() (Config, error) {
	cfg := Config{
		AppName:           getEnv("APP_NAME", defaultAppName),
		AppEnv:            getEnv("APP_ENV", defaultAppEnv),
		Port:              getEnv("PORT", defaultPort),
		LogLevel:          strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          os.Getenv("REDIS_URL"),
		MetricsAddr:       getEnv("METRICS_ADDR", defaultMetricsAddr),
		BankAPIURL:        os.Getenv("BANK_API_URL"),
		BankAPIKey:        os.Getenv("BANK_API_KEY"),
		OTPLength:         defaultOTPLength,
		OTPTTL:            credential.DefaultCodeTTL,
		PendingTTL:        credential.DefaultPendingTTL,
		OpeningBalance:    defaultOpeningBalance,
		GatewayMaxRetries: gateway.DefaultMaxRetries,
		GatewayRetryDelay: gateway.DefaultInitialDelay,
		ShutdownPeriod:    defaultShutdownDelay,
		IdempotencyTTL:    defaultIdempotencyTTL,
	}

	if err := intVar(&cfg.OTPLength, "OTP_LENGTH"); err != nil {
		return Config{}, err
	}
	if err := int64Var(&cfg.OpeningBalance, "OPENING_BALANCE"); err != nil {
		return Config{}, err
	}
	if err := intVar(&cfg.GatewayMaxRetries, "GATEWAY_MAX_RETRIES"); err != nil {
		return Config{}, err
	}
	if err := durationVar(&cfg.OTPTTL, "OTP_TTL"); err != nil {
		return Config{}, err
	}
	if err := durationVar(&cfg.PendingTTL, "PENDING_TTL"); err != nil {
		return Config{}, err
	}
	if err := durationVar(&cfg.GatewayRetryDelay, "GATEWAY_RETRY_DELAY"); err != nil {
		return Config{}, err
	}
	if err := durationVar(&cfg.ShutdownPeriod, "SHUTDOWN_TIMEOUT"); err != nil {
		return Config{}, err
	}
	if err := durationVar(&cfg.IdempotencyTTL, "IDEMPOTENCY_TTL"); err != nil {
		return Config{}, err
	}

	if cfg.OTPLength < 4 || cfg.OTPLength > 10 {
		return Config{}, fmt.Errorf("OTP_LENGTH must be between 4 and 10")
	}
	if cfg.OpeningBalance < 0 {
		return Config{}, fmt.Errorf("OPENING_BALANCE must not be negative")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intVar(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func int64Var(dst *int64, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func durationVar(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}
