// Package token provides the secret and fingerprint primitives behind remember-me tokens.
//
// Raw secrets are high-entropy random strings handed to the client once.
// The server keeps only a fingerprint of each secret:
// - SHA-256(secret) when no HMAC key is configured (dev mode).
// - HMAC-SHA256(secret, key) when ESTATE_TOKEN_HMAC_KEY is set.
//
// Fingerprints are always 64-char lowercase hex, suitable for a fixed-width
// indexed column and for constant-time comparison.
package token
