package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"os"
	"strings"
)

var (
	ErrHMACKeyMissing  = errors.New("token: HMAC key missing")
	ErrHMACKeyTooShort = errors.New("token: HMAC key too short")
	ErrSecretTooShort  = errors.New("token: secret below 256 bits")
)

const (
	// HMACEnvKey is the env var name for the fingerprint HMAC secret.
	// #nosec G101 -- not a credential; it's an environment variable name.
	HMACEnvKey = "ESTATE_TOKEN_HMAC_KEY"

	// MinSecretBytes is the smallest secret NewSecret will produce (256 bits).
	MinSecretBytes = 32
	// MaxSecretBytes caps secret size so cookies stay small.
	MaxSecretBytes = 64

	fingerprintHexLen = 64
)

// NewSecret returns a URL-safe random secret of nBytes of entropy.
// nBytes below MinSecretBytes is rejected.
func NewSecret(nBytes int) (string, error) {
	if nBytes < MinSecretBytes {
		return "", ErrSecretTooShort
	}
	if nBytes > MaxSecretBytes {
		nBytes = MaxSecretBytes
	}

	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	// URL-safe, no padding.
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashSHA256Hex returns a SHA-256 hex digest of s.
func HashSHA256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// HashHMACSHA256Hex returns an HMAC-SHA256 hex digest of s using key.
func HashHMACSHA256Hex(s string, key []byte) string {
	m := hmac.New(sha256.New, key)
	_, _ = m.Write([]byte(s))
	return hex.EncodeToString(m.Sum(nil))
}

// HMACKeyFromEnv returns the configured HMAC key bytes (trimmed), enforcing a minimum byte length.
// If the env var is missing/blank -> ErrHMACKeyMissing.
// If too short -> ErrHMACKeyTooShort.
func HMACKeyFromEnv(minBytes int) ([]byte, error) {
	raw := strings.TrimSpace(os.Getenv(HMACEnvKey))
	if raw == "" {
		return nil, ErrHMACKeyMissing
	}
	b := []byte(raw)
	if minBytes > 0 && len(b) < minBytes {
		return nil, ErrHMACKeyTooShort
	}
	return b, nil
}

// Hasher computes fingerprints of raw secrets.
// The zero value hashes with plain SHA-256.
type Hasher struct {
	key []byte
}

// NewHasher returns a Hasher. An empty key selects SHA-256 mode.
func NewHasher(key []byte) Hasher {
	if len(key) == 0 {
		return Hasher{}
	}
	k := make([]byte, len(key))
	copy(k, key)
	return Hasher{key: k}
}

// HasherFromEnv builds a Hasher from ESTATE_TOKEN_HMAC_KEY.
// A missing key falls back to SHA-256 mode; callers enforcing HMAC should
// validate with HMACKeyFromEnv at startup.
func HasherFromEnv() Hasher {
	return NewHasher([]byte(strings.TrimSpace(os.Getenv(HMACEnvKey))))
}

// HMAC reports whether the hasher is keyed.
func (h Hasher) HMAC() bool { return len(h.key) > 0 }

// Fingerprint returns the 64-char hex digest stored in place of raw.
func (h Hasher) Fingerprint(raw string) string {
	if len(h.key) == 0 {
		return HashSHA256Hex(raw)
	}
	return HashHMACSHA256Hex(raw, h.key)
}

// EqualFingerprints compares two fingerprints in constant time.
// Anything other than two 64-char values is unequal.
func EqualFingerprints(a, b string) bool {
	if len(a) != fingerprintHexLen || len(b) != fingerprintHexLen {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
