package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration.
type Config struct {
	Env      string
	HTTPAddr string
	BaseURL  string

	DBDSN     string
	JWTSecret string

	LogLevel string

	RateLimitRPM        int
	WebhookRateLimitRPM int

	MercadoPagoBaseURL       string
	MercadoPagoAccessToken   string
	MercadoPagoWebhookSecret string
	MercadoPagoTimeoutMS     int

	MailAPIURL    string
	MailAPIKey    string
	MailFrom      string
	MailTimeoutMS int

	SessionDays int
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Env = strings.TrimSpace(os.Getenv("ST_ENV"))
	if cfg.Env == "" {
		return nil, fmt.Errorf("ST_ENV is required")
	}
	if cfg.Env != "dev" && cfg.Env != "prod" {
		return nil, fmt.Errorf("ST_ENV must be one of: dev, prod (got: %s)", cfg.Env)
	}

	cfg.HTTPAddr = getEnvOrDefault("ST_HTTP_ADDR", ":8080")

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("ST_BASE_URL")), "/")
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("ST_BASE_URL is required")
	}

	cfg.DBDSN = strings.TrimSpace(os.Getenv("ST_DB_DSN"))
	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("ST_DB_DSN is required")
	}

	cfg.JWTSecret = os.Getenv("ST_JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("ST_JWT_SECRET is required")
	}
	if cfg.Env == "prod" && len(cfg.JWTSecret) < 32 {
		return nil, fmt.Errorf("ST_JWT_SECRET must be at least 32 characters (currently %d)", len(cfg.JWTSecret))
	}

	cfg.LogLevel = getEnvOrDefault("ST_LOG_LEVEL", "info")
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("ST_LOG_LEVEL must be one of: debug, info, warn, error (got: %s)", cfg.LogLevel)
	}

	var err error
	cfg.RateLimitRPM, err = getEnvIntOrDefault("ST_RATE_LIMIT_RPM", 120)
	if err != nil {
		return nil, err
	}

	cfg.WebhookRateLimitRPM, err = getEnvIntOrDefault("ST_WEBHOOK_RATE_LIMIT_RPM", 300)
	if err != nil {
		return nil, err
	}

	cfg.MercadoPagoBaseURL = strings.TrimRight(getEnvOrDefault("ST_MP_BASE_URL", "https://api.mercadopago.com"), "/")

	cfg.MercadoPagoAccessToken = strings.TrimSpace(os.Getenv("ST_MP_ACCESS_TOKEN"))
	if cfg.MercadoPagoAccessToken == "" {
		return nil, fmt.Errorf("ST_MP_ACCESS_TOKEN is required")
	}

	// Optional; webhook signature validation is skipped when unset.
	cfg.MercadoPagoWebhookSecret = strings.TrimSpace(os.Getenv("ST_MP_WEBHOOK_SECRET"))

	cfg.MercadoPagoTimeoutMS, err = getEnvIntOrDefault("ST_MP_TIMEOUT_MS", 5000)
	if err != nil {
		return nil, err
	}
	if cfg.MercadoPagoTimeoutMS <= 0 || cfg.MercadoPagoTimeoutMS > 30000 {
		return nil, fmt.Errorf("ST_MP_TIMEOUT_MS must be between 1 and 30000 (got: %d)", cfg.MercadoPagoTimeoutMS)
	}

	cfg.MailAPIURL = strings.TrimSpace(os.Getenv("ST_MAIL_API_URL"))
	if cfg.MailAPIURL == "" {
		return nil, fmt.Errorf("ST_MAIL_API_URL is required")
	}

	cfg.MailAPIKey = strings.TrimSpace(os.Getenv("ST_MAIL_API_KEY"))
	if cfg.MailAPIKey == "" {
		return nil, fmt.Errorf("ST_MAIL_API_KEY is required")
	}

	cfg.MailFrom = getEnvOrDefault("ST_MAIL_FROM", "reservas@santurist.cl")

	cfg.MailTimeoutMS, err = getEnvIntOrDefault("ST_MAIL_TIMEOUT_MS", 3000)
	if err != nil {
		return nil, err
	}
	if cfg.MailTimeoutMS <= 0 || cfg.MailTimeoutMS > 30000 {
		return nil, fmt.Errorf("ST_MAIL_TIMEOUT_MS must be between 1 and 30000 (got: %d)", cfg.MailTimeoutMS)
	}

	cfg.SessionDays, err = getEnvIntOrDefault("ST_SESSION_DAYS", 7)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// IsDev returns true if running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

// RedactedValues returns a map of config values with secrets redacted.
func (c *Config) RedactedValues() map[string]string {
	return map[string]string{
		"ST_ENV":                  c.Env,
		"ST_HTTP_ADDR":            c.HTTPAddr,
		"ST_BASE_URL":             c.BaseURL,
		"ST_DB_DSN":               redactDSN(c.DBDSN),
		"ST_JWT_SECRET":           "[REDACTED]",
		"ST_LOG_LEVEL":            c.LogLevel,
		"ST_RATE_LIMIT_RPM":       fmt.Sprintf("%d", c.RateLimitRPM),
		"ST_WEBHOOK_RATE_LIMIT_RPM": fmt.Sprintf("%d", c.WebhookRateLimitRPM),
		"ST_MP_BASE_URL":          c.MercadoPagoBaseURL,
		"ST_MP_ACCESS_TOKEN":      "[REDACTED]",
		"ST_MP_WEBHOOK_SECRET":    "[REDACTED]",
		"ST_MP_TIMEOUT_MS":        fmt.Sprintf("%d", c.MercadoPagoTimeoutMS),
		"ST_MAIL_API_URL":         c.MailAPIURL,
		"ST_MAIL_API_KEY":         "[REDACTED]",
		"ST_MAIL_FROM":            c.MailFrom,
		"ST_MAIL_TIMEOUT_MS":      fmt.Sprintf("%d", c.MailTimeoutMS),
		"ST_SESSION_DAYS":         fmt.Sprintf("%d", c.SessionDays),
	}
}

func redactDSN(dsn string) string {
	if start := strings.Index(dsn, "://"); start != -1 {
		if end := strings.Index(dsn[start+3:], "@"); end != -1 {
			return dsn[:start+3] + "[REDACTED]" + dsn[start+3+end:]
		}
	}
	return dsn
}

func getEnvOrDefault(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvIntOrDefault(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer (got: %q)", key, value)
	}
	return parsed, nil
}
