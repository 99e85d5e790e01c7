// Package remember implements long-lived "remember me" tokens.
//
// A token is a random secret handed to the client once. Only its fingerprint
// (SHA-256, or HMAC-SHA256 when ESTATE_TOKEN_HMAC_KEY is set) is stored, one
// row per account. Issuing a new token replaces the previous one.
//
// Tokens are never rotated or extended on use; they expire at the instant
// fixed when they were issued.
package remember
