package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/paywallet/wallet_ledger/internal/wallet"
)

const (
	defaultAppName           = "WalletLedger"
	defaultAppEnv            = "development"
	defaultPort              = "8080"
	defaultLogLevel          = "info"
	defaultShutdownDelay     = 10 * time.Second
	defaultIdempotencyTTL    = 24 * time.Hour
	defaultCurrency          = "NGN"
	defaultReconcilePageSize = 500
	defaultReconcileInterval = 24 * time.Hour
	defaultReconcileLockTTL  = time.Hour
	defaultReportDir         = "storage"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	// DefaultCurrency is applied to wallet creation requests that omit a currency.
	DefaultCurrency string

	ReconcilePageSize int
	ReconcileInterval time.Duration
	ReconcileLockTTL  time.Duration
	ReportDir         string
}

// Load reads configuration values from the environment (and an optional .env
// file in the working directory) and populates a Config instance.
func Load() (Config, error) {
	// A missing .env file is the normal case outside local development.
	_ = godotenv.Load()

	cfg := Config{
		AppName:         getEnv("APP_NAME", defaultAppName),
		AppEnv:          getEnv("APP_ENV", defaultAppEnv),
		Port:            getEnv("PORT", defaultPort),
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		DefaultCurrency: wallet.NormalizeCurrency(getEnv("DEFAULT_CURRENCY", defaultCurrency)),
		ReportDir:       getEnv("REPORT_DIR", defaultReportDir),
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv("SHUTDOWN_TIMEOUT", defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv("IDEMPOTENCY_TTL", defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.ReconcileInterval, err = durationEnv("RECONCILE_INTERVAL", defaultReconcileInterval); err != nil {
		return Config{}, err
	}
	if cfg.ReconcileLockTTL, err = durationEnv("RECONCILE_LOCK_TTL", defaultReconcileLockTTL); err != nil {
		return Config{}, err
	}

	cfg.ReconcilePageSize = defaultReconcilePageSize
	if v := os.Getenv("RECONCILE_PAGE_SIZE"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid RECONCILE_PAGE_SIZE: %w", err)
		}
		if size <= 0 {
			return Config{}, fmt.Errorf("RECONCILE_PAGE_SIZE must be positive")
		}
		cfg.ReconcilePageSize = size
	}

	if cfg.ReconcileInterval <= 0 {
		return Config{}, fmt.Errorf("RECONCILE_INTERVAL must be positive")
	}
	// The lock must outlive a run; a zero TTL would never expire.
	if cfg.ReconcileLockTTL <= 0 {
		return Config{}, fmt.Errorf("RECONCILE_LOCK_TTL must be positive")
	}
	if !wallet.IsSupported(cfg.DefaultCurrency) {
		return Config{}, fmt.Errorf("DEFAULT_CURRENCY %q: %w", cfg.DefaultCurrency, wallet.ErrUnsupportedCurrency)
	}

	if !cfg.IsDev() && cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
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

// IsDev reports whether the application runs in a local development mode, in
// which the in-memory backends stand in for Postgres and Redis.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// durationEnv reads <key>_SECONDS as an integer number of seconds, falling back
// to <key> as a Go duration string.
func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	secondsKey := key + "_SECONDS"
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	}
	return fallback, nil
}
