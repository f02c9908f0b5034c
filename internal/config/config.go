package config

import (
	"os"
	"strconv"
)

type Config struct {
	HTTPAddr    string
	PostgresDSN string
	LogLevel    string

	LedgerURL    string
	LedgerAPIKey string
	Registrant   string

	DeliveryBaseURL   string
	DeliveryAccount   string
	DeliveryAPIKey    string
	DeliveryAPISecret string

	RetainCanonicalForms bool

	RateLimitRequests      int
	RateLimitWindowSeconds int
	RateLimitMaxKeys       int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:               addr,
		PostgresDSN:            os.Getenv("POSTGRES_DSN"),
		LogLevel:               envDefault("LOG_LEVEL", "info"),
		LedgerURL:              os.Getenv("LEDGER_URL"),
		LedgerAPIKey:           os.Getenv("LEDGER_API_KEY"),
		Registrant:             envDefault("LEDGER_REGISTRANT", "veritas"),
		DeliveryBaseURL:        os.Getenv("DELIVERY_BASE_URL"),
		DeliveryAccount:        os.Getenv("DELIVERY_ACCOUNT"),
		DeliveryAPIKey:         os.Getenv("DELIVERY_API_KEY"),
		DeliveryAPISecret:      os.Getenv("DELIVERY_API_SECRET"),
		RetainCanonicalForms:   envBoolDefault("RETAIN_CANONICAL_FORMS", true),
		RateLimitRequests:      envIntDefault("RATE_LIMIT_REQUESTS", 0),
		RateLimitWindowSeconds: envIntDefault("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitMaxKeys:       envIntDefault("RATE_LIMIT_MAX_KEYS", 10000),
		RedisAddr:              os.Getenv("REDIS_ADDR"),
		RedisPassword:          os.Getenv("REDIS_PASSWORD"),
		RedisDB:                envIntDefault("REDIS_DB", 0),
	}
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func envBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v == "true" || v == "1"
}
