package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Shop switch policies applied when a product from another shop is added
// to a non-empty cart.
const (
	ShopSwitchConfirm = "confirm"
	ShopSwitchReplace = "replace"
	ShopSwitchReject  = "reject"
)

// State backends for the per-device storage.
const (
	StateMemory   = "memory"
	StateRedis    = "redis"
	StatePostgres = "postgres"
)

// Config holds environment-driven configuration.
type Config struct {
	Addr             string
	BackendBaseURL   string
	BackendTimeout   time.Duration
	JWTSecret        string
	StateBackend     string
	RedisAddr        string
	DatabaseURL      string
	DefaultLocale    string
	SupportedLocales []string
	ShopSwitchPolicy string
	PendingOrderTTL  time.Duration
	PaymentCountdown int
	AllowOrigins     string
	MapsAPIKey       string
	Firebase         Firebase
}

// Firebase carries the web credentials used by Google/Apple social sign-in.
type Firebase struct {
	APIKey            string
	AuthDomain        string
	ProjectID         string
	StorageBucket     string
	MessagingSenderID string
	AppID             string
}

// Missing lists the required Firebase fields that are empty.
func (f Firebase) Missing() []string {
	var out []string
	check := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			out = append(out, name)
		}
	}
	check("FIREBASE_API_KEY", f.APIKey)
	check("FIREBASE_AUTH_DOMAIN", f.AuthDomain)
	check("FIREBASE_PROJECT_ID", f.ProjectID)
	check("FIREBASE_APP_ID", f.AppID)
	return out
}

// Complete reports whether social sign-in can be offered.
func (f Firebase) Complete() bool {
	return len(f.Missing()) == 0
}

// Load reads configuration from .env (when present) and environment variables.
func Load() Config {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads configuration from environment variables only.
func FromEnv() Config {
	cfg := Config{
		Addr:             getEnv("STOREFRONT_ADDR", ":8080"),
		BackendBaseURL:   strings.TrimSuffix(getEnv("BACKEND_BASE_URL", "http://localhost:8000/api/v1"), "/"),
		BackendTimeout:   getDuration("BACKEND_TIMEOUT", 15*time.Second),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		StateBackend:     strings.ToLower(getEnv("STATE_BACKEND", StateMemory)),
		RedisAddr:        getEnv("REDIS_ADDR", "localhost:6379"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		DefaultLocale:    getEnv("DEFAULT_LOCALE", "ar"),
		SupportedLocales: splitList(getEnv("SUPPORTED_LOCALES", "ar,en")),
		ShopSwitchPolicy: strings.ToLower(getEnv("CART_SHOP_SWITCH_POLICY", ShopSwitchConfirm)),
		PendingOrderTTL:  getDuration("PENDING_ORDER_TTL", time.Hour),
		PaymentCountdown: getInt("PAYMENT_COUNTDOWN", 3),
		AllowOrigins:     getEnv("ALLOW_ORIGINS", "*"),
		MapsAPIKey:       os.Getenv("MAPS_API_KEY"),
		Firebase: Firebase{
			APIKey:            os.Getenv("FIREBASE_API_KEY"),
			AuthDomain:        os.Getenv("FIREBASE_AUTH_DOMAIN"),
			ProjectID:         os.Getenv("FIREBASE_PROJECT_ID"),
			StorageBucket:     os.Getenv("FIREBASE_STORAGE_BUCKET"),
			MessagingSenderID: os.Getenv("FIREBASE_MESSAGING_SENDER_ID"),
			AppID:             os.Getenv("FIREBASE_APP_ID"),
		},
	}

	switch cfg.ShopSwitchPolicy {
	case ShopSwitchConfirm, ShopSwitchReplace, ShopSwitchReject:
	default:
		cfg.ShopSwitchPolicy = ShopSwitchConfirm
	}
	if cfg.PaymentCountdown < 0 {
		cfg.PaymentCountdown = 0
	}
	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultValue
	}
	return d
}

func getInt(key string, defaultValue int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultValue
	}
	return n
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
