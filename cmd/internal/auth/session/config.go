package session

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config defines runtime configuration for the authentication core.
type Config struct {
	// SessionTTL bounds how long an encoded session record is accepted.
	SessionTTL time.Duration

	// RememberTTL is the lifetime of a remember-me token, fixed at issuance.
	RememberTTL time.Duration

	// RememberSecretBytes is the entropy of issued remember secrets (32..64).
	RememberSecretBytes int

	// StoreTimeout bounds every credential-store and vault call.
	// A timeout surfaces as ErrStoreUnavailable.
	StoreTimeout time.Duration

	// RevokeRememberOnLogout also deletes the account's remember token on logout.
	// Off by default: logout then only clears the client side, and a secret the
	// client still holds keeps working until it expires.
	RevokeRememberOnLogout bool

	// SessionKeyHex is the hex-encoded 32-byte PASETO v4.local key.
	SessionKeyHex string
}

// DefaultConfig returns defaults suitable for development.
// SessionKeyHex has no default and must be provided.
func DefaultConfig() Config {
	return Config{
		SessionTTL:          12 * time.Hour,
		RememberTTL:         30 * 24 * time.Hour,
		RememberSecretBytes: 32,
		StoreTimeout:        3 * time.Second,
	}
}

// LoadConfigFromEnv loads configuration from environment variables.
//
// Required:
//   - ESTATE_SESSION_KEY_HEX
//
// Optional (durations must be valid Go duration strings):
//   - ESTATE_SESSION_TTL
//   - ESTATE_REMEMBER_TTL
//   - ESTATE_REMEMBER_SECRET_BYTES
//   - ESTATE_STORE_TIMEOUT
//   - ESTATE_LOGOUT_REVOKES_REMEMBER
//
// Returns ErrConfig if configuration is invalid.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	var err error
	if cfg.SessionTTL, err = envPositiveDuration("ESTATE_SESSION_TTL", cfg.SessionTTL); err != nil {
		return Config{}, err
	}
	if cfg.RememberTTL, err = envPositiveDuration("ESTATE_REMEMBER_TTL", cfg.RememberTTL); err != nil {
		return Config{}, err
	}
	if cfg.StoreTimeout, err = envPositiveDuration("ESTATE_STORE_TIMEOUT", cfg.StoreTimeout); err != nil {
		return Config{}, err
	}

	if v := strings.TrimSpace(os.Getenv("ESTATE_REMEMBER_SECRET_BYTES")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 32 || n > 64 {
			return Config{}, ErrConfig
		}
		cfg.RememberSecretBytes = n
	}

	if v := strings.TrimSpace(os.Getenv("ESTATE_LOGOUT_REVOKES_REMEMBER")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, ErrConfig
		}
		cfg.RevokeRememberOnLogout = b
	}

	cfg.SessionKeyHex = strings.TrimSpace(os.Getenv("ESTATE_SESSION_KEY_HEX"))
	if cfg.SessionKeyHex == "" {
		return Config{}, ErrConfig
	}

	return cfg, nil
}

func envPositiveDuration(key string, def time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, ErrConfig
	}
	return d, nil
}
