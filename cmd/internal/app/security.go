package app

import (
	"errors"

	"estate/cmd/security/token"
)

// ValidateSecurityConfig enforces the startup security policy.
// Under RequireTokenHMAC the process refuses to start rather than fingerprint
// remember secrets with unkeyed SHA-256.
func ValidateSecurityConfig(cfg Config) error {
	if !cfg.RequireTokenHMAC {
		return nil
	}

	// Measured in bytes: the key is used raw.
	if _, err := token.HMACKeyFromEnv(32); err != nil {
		switch {
		case errors.Is(err, token.ErrHMACKeyMissing):
			return errors.New("security policy: ESTATE_REQUIRE_TOKEN_HMAC=true but ESTATE_TOKEN_HMAC_KEY is missing")
		case errors.Is(err, token.ErrHMACKeyTooShort):
			return errors.New("security policy: ESTATE_REQUIRE_TOKEN_HMAC=true but ESTATE_TOKEN_HMAC_KEY is too short (min 32 bytes)")
		default:
			return err
		}
	}

	if !token.HasherFromEnv().HMAC() {
		return errors.New("security policy: ESTATE_REQUIRE_TOKEN_HMAC=true but token hasher is not in HMAC mode")
	}

	return nil
}
