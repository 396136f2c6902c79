// Package config loads application configuration from environment variables.
package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
	Env      string // application environment (e.g. "dev", "prod")
	Port     string // HTTP port to listen on
	LogLevel string // debug, info or error

	BackendURL     string        // base URL of the booking backend REST API
	BackendTimeout time.Duration // per-request timeout for backend calls
	JWTSecret      string        // verifies backend tokens; empty reads claims unverified

	StorageDriver string        // "redis" or "mysql"
	SlotTTL       time.Duration // lifetime of a visitor's stored cart
	SessionCookie string        // name of the visitor session cookie
	TokenCookie   string        // name of the backend token cookie
	CookieSecure  bool

	DBUser string
	DBPass string
	DBHost string
	DBPort string
	DBName string

	RabbitURL string // empty disables event publishing and the consumer

	Checkout CheckoutConfig
	Cache    CacheConfig
	Limit    RateLimitConfig
	Tracing  TracingConfig
}

// CheckoutConfig configures the payment widget.
type CheckoutConfig struct {
	Key         string        // public widget key
	Secret      string        // signs and verifies payment responses
	StoreName   string        // shown in the widget header
	ThemeColor  string        // widget accent colour
	Currency    string        // default currency when a request names none
	PendingTTL  time.Duration // unanswered checkouts are dismissed after this
	SweepEvery  time.Duration
	Description string
}

// TracingConfig enables OTLP/HTTP trace export when Endpoint is set.
type TracingConfig struct {
	Endpoint    string
	ServiceName string
	Insecure    bool
	SampleRatio float64
}

// Load reads a .env file when present, then the environment. Required
// variables are enforced by must() and missing values cause the program to
// exit with a fatal log message.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: .env not loaded: %v", err)
	}

	cfg := Config{
		Env:      envStr("APP_ENV", "dev"),
		Port:     envStr("APP_PORT", "8080"),
		LogLevel: envStr("LOG_LEVEL", "info"),

		BackendURL:     must("BACKEND_URL"),
		BackendTimeout: envDur("BACKEND_TIMEOUT", 10*time.Second),
		JWTSecret:      os.Getenv("JWT_SECRET"),

		StorageDriver: envStr("STORAGE_DRIVER", "redis"),
		SlotTTL:       envDur("SLOT_TTL", 30*24*time.Hour),
		SessionCookie: envStr("SESSION_COOKIE", "sid"),
		TokenCookie:   envStr("TOKEN_COOKIE", "token"),
		CookieSecure:  envBool("COOKIE_SECURE", false),

		RabbitURL: os.Getenv("RABBITMQ_URL"),

		Checkout: CheckoutConfig{
			Key:         must("CHECKOUT_KEY"),
			Secret:      must("CHECKOUT_SECRET"),
			StoreName:   envStr("STORE_NAME", "Resort"),
			ThemeColor:  envStr("CHECKOUT_THEME_COLOR", "#0f766e"),
			Currency:    os.Getenv("STORE_CURRENCY"),
			PendingTTL:  positiveDur("CHECKOUT_PENDING_TTL", 15*time.Minute),
			SweepEvery:  positiveDur("CHECKOUT_SWEEP_INTERVAL", time.Minute),
			Description: envStr("CHECKOUT_DESCRIPTION", "Room booking"),
		},
		Cache: LoadCacheConfig(),
		Limit: LoadRateLimitConfig(),
		Tracing: TracingConfig{
			Endpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
			ServiceName: envStr("OTEL_SERVICE_NAME", "resort-storefront"),
			Insecure:    envBool("OTEL_EXPORTER_OTLP_INSECURE", false),
			SampleRatio: envFloat("OTEL_TRACES_SAMPLER_RATIO", 1),
		},
	}
	if cfg.RabbitURL == "" {
		cfg.RabbitURL = os.Getenv("AMQP_URL")
	}

	if cfg.StorageDriver == "mysql" {
		cfg.DBUser = must("DB_USER")
		cfg.DBPass = os.Getenv("DB_PASS")
		cfg.DBHost = must("DB_HOST")
		cfg.DBPort = envStr("DB_PORT", "3306")
		cfg.DBName = must("DB_NAME")
	}
	return cfg
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
// positiveDur is envDur for settings where zero or negative would disable
// a sweep; such values fall back to d.
func positiveDur(key string, d time.Duration) time.Duration {
	v := envDur(key, d)
	if v <= 0 {
		log.Printf("%s must be positive, using %s", key, d)
		return d
	}
	return v
}

func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
