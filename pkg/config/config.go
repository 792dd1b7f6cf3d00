package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend describes how to reach the remote REST API.
type Backend struct {
	// Host is the backend origin without a trailing slash. Empty means no
	// backend is configured; calls degrade to "endpoint unavailable".
	Host string
	// APILocale is the locale segment the backend itself is namespaced by
	// (distinct from the UI locale in the request path).
	APILocale   string
	AuthPrefix  string
	BooksPrefix string
}

type Config struct {
	Addr          string
	Env           string
	SessionSecret string
	SessionTTL    time.Duration
	Backend       Backend
}

func (c Config) Production() bool {
	return c.Env == "production"
}

// Load reads configuration from the environment. Host candidates are checked
// in priority order; the first non-empty value wins.
func Load() Config {
	host := firstEnv(
		"API_BASE_URL",
		"AUTH_API_BASE_URL",
		"NEXT_PUBLIC_BASE_URL",
		"NEXT_PUBLIC_API_URL",
	)
	host = strings.TrimRight(strings.TrimSpace(host), "/")

	apiLocale := firstEnv("AUTH_API_LOCALE", "NEXT_PUBLIC_API_LOCALE")
	if apiLocale == "" {
		apiLocale = "en"
	}
	apiLocale = strings.Trim(strings.TrimSpace(apiLocale), "/")

	secret := firstEnv("NEXTAUTH_SECRET", "AUTH_SECRET")
	if secret == "" {
		// dev default (change for demo / production)
		secret = "dev-secret-change-me"
	}

	env := firstEnv("APP_ENV", "GO_ENV")
	if env == "" {
		env = "development"
	}

	addr := os.Getenv("GATEWAY_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	ttl := 24 * time.Hour
	if raw := os.Getenv("SESSION_TTL_HOURS"); raw != "" {
		if hours, err := strconv.Atoi(raw); err == nil && hours > 0 {
			ttl = time.Duration(hours) * time.Hour
		}
	}

	return Config{
		Addr:          addr,
		Env:           env,
		SessionSecret: secret,
		SessionTTL:    ttl,
		Backend: Backend{
			Host:        host,
			APILocale:   apiLocale,
			AuthPrefix:  AsPrefix(firstEnv("AUTH_API_PREFIX", "NEXT_PUBLIC_AUTH_PREFIX"), "/auth"),
			BooksPrefix: AsPrefix(os.Getenv("NEXT_PUBLIC_BOOKS_PREFIX"), "/book"),
		},
	}
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// AsPrefix normalizes a path prefix to the "/name" shape, falling back when
// the value is empty.
func AsPrefix(value, fallback string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		v = fallback
	}
	v = strings.TrimRight(v, "/")
	if v != "" && !strings.HasPrefix(v, "/") {
		v = "/" + v
	}
	return v
}
