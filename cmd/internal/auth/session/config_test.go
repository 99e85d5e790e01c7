package session

import (
	"testing"
	"time"
)

func TestLoadConfigFromEnv_MissingKey(t *testing.T) {
	t.Setenv("ESTATE_SESSION_KEY_HEX", "")
	_, err := LoadConfigFromEnv()
	if err != ErrConfig {
		t.Fatalf("expected ErrConfig on missing key, got %v", err)
	}
}

func TestLoadConfigFromEnv_InvalidDurations(t *testing.T) {
	t.Setenv("ESTATE_SESSION_KEY_HEX", NewSessionKeyHex())
	t.Setenv("ESTATE_REMEMBER_TTL", "-5m")
	_, err := LoadConfigFromEnv()
	if err != ErrConfig {
		t.Fatalf("expected ErrConfig for negative duration, got %v", err)
	}
}

func TestLoadConfigFromEnv_InvalidSecretBytes(t *testing.T) {
	t.Setenv("ESTATE_SESSION_KEY_HEX", NewSessionKeyHex())
	t.Setenv("ESTATE_REMEMBER_SECRET_BYTES", "16")
	_, err := LoadConfigFromEnv()
	if err != ErrConfig {
		t.Fatalf("expected ErrConfig for small secret, got %v", err)
	}
}

func TestLoadConfigFromEnv_InvalidBool(t *testing.T) {
	t.Setenv("ESTATE_SESSION_KEY_HEX", NewSessionKeyHex())
	t.Setenv("ESTATE_LOGOUT_REVOKES_REMEMBER", "sometimes")
	_, err := LoadConfigFromEnv()
	if err != ErrConfig {
		t.Fatalf("expected ErrConfig for bad bool, got %v", err)
	}
}

func TestLoadConfigFromEnv_Valid(t *testing.T) {
	key := NewSessionKeyHex()
	t.Setenv("ESTATE_SESSION_KEY_HEX", key)
	t.Setenv("ESTATE_SESSION_TTL", "2h")
	t.Setenv("ESTATE_REMEMBER_TTL", "168h")
	t.Setenv("ESTATE_REMEMBER_SECRET_BYTES", "48")
	t.Setenv("ESTATE_STORE_TIMEOUT", "1500ms")
	t.Setenv("ESTATE_LOGOUT_REVOKES_REMEMBER", "true")

	cfg, err := LoadConfigFromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SessionKeyHex != key {
		t.Fatalf("key mismatch")
	}
	if cfg.SessionTTL != 2*time.Hour {
		t.Fatalf("session ttl mismatch: %v", cfg.SessionTTL)
	}
	if cfg.RememberTTL != 168*time.Hour {
		t.Fatalf("remember ttl mismatch: %v", cfg.RememberTTL)
	}
	if cfg.RememberSecretBytes != 48 {
		t.Fatalf("secret bytes mismatch: %d", cfg.RememberSecretBytes)
	}
	if cfg.StoreTimeout != 1500*time.Millisecond {
		t.Fatalf("store timeout mismatch: %v", cfg.StoreTimeout)
	}
	if !cfg.RevokeRememberOnLogout {
		t.Fatalf("expected revoke-on-logout enabled")
	}
}

func TestDefaultConfig_PreservesLogoutGap(t *testing.T) {
	if DefaultConfig().RevokeRememberOnLogout {
		t.Fatalf("logout must not revoke remember tokens by default")
	}
}
