package authapi

import (
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config controls the HTTP carrier: cookie names and attributes, body limits.
type Config struct {
	MaxBodyBytes int64

	SessionCookieName  string
	RememberCookieName string
	CookiePath         string
	CookieDomain       string
	CookieSecure       bool
	CookieSameSite     http.SameSite

	// LoginIPMax failed logins per client address within LoginIPWindow
	// trigger 429 responses. Zero disables the throttle.
	LoginIPMax    int
	LoginIPWindow time.Duration
}

// DefaultConfig returns production-leaning defaults.
func DefaultConfig() Config {
	return Config{
		MaxBodyBytes:       1 << 20, // 1 MiB
		SessionCookieName:  "estate_session",
		RememberCookieName: "estate_remember",
		CookiePath:         "/",
		CookieSecure:       true,
		CookieSameSite:     http.SameSiteLaxMode,
		LoginIPMax:         10,
		LoginIPWindow:      15 * time.Minute,
	}
}

// LoadConfigFromEnv loads auth API config from environment variables with safe defaults.
//
// Env surface:
// - ESTATE_AUTH_MAX_BODY_BYTES
// - ESTATE_AUTH_SESSION_COOKIE_NAME
// - ESTATE_AUTH_REMEMBER_COOKIE_NAME
// - ESTATE_AUTH_COOKIE_PATH
// - ESTATE_AUTH_COOKIE_DOMAIN
// - ESTATE_AUTH_COOKIE_SECURE
// - ESTATE_AUTH_COOKIE_SAMESITE (strict|lax|none|default)
// - ESTATE_AUTH_LOGIN_IP_MAX (0 disables)
// - ESTATE_AUTH_LOGIN_IP_WINDOW
func LoadConfigFromEnv() Config {
	def := DefaultConfig()
	cfg := Config{
		MaxBodyBytes:       envInt64("ESTATE_AUTH_MAX_BODY_BYTES", def.MaxBodyBytes),
		SessionCookieName:  envString("ESTATE_AUTH_SESSION_COOKIE_NAME", def.SessionCookieName),
		RememberCookieName: envString("ESTATE_AUTH_REMEMBER_COOKIE_NAME", def.RememberCookieName),
		CookiePath:         envString("ESTATE_AUTH_COOKIE_PATH", def.CookiePath),
		CookieDomain:       strings.TrimSpace(os.Getenv("ESTATE_AUTH_COOKIE_DOMAIN")),
		CookieSecure:       envBool("ESTATE_AUTH_COOKIE_SECURE", def.CookieSecure),
		CookieSameSite:     def.CookieSameSite,
		LoginIPMax:         def.LoginIPMax,
		LoginIPWindow:      envDuration("ESTATE_AUTH_LOGIN_IP_WINDOW", def.LoginIPWindow),
	}
	if v := strings.TrimSpace(os.Getenv("ESTATE_AUTH_LOGIN_IP_MAX")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.LoginIPMax = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ESTATE_AUTH_COOKIE_SAMESITE")); v != "" {
		cfg.CookieSameSite = parseSameSite(v)
	}

	// Guardrails.
	if cfg.RememberCookieName == cfg.SessionCookieName {
		cfg.RememberCookieName = cfg.SessionCookieName + "_remember"
	}
	if cfg.CookieSameSite == http.SameSiteNoneMode {
		// Browsers drop SameSite=None cookies without Secure.
		cfg.CookieSecure = true
	}

	return cfg
}

func parseSameSite(v string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "default":
		return http.SameSiteDefaultMode
	default:
		return http.SameSiteLaxMode
	}
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt64(key string, def int64) int64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
