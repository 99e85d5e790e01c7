// Package password provides password hashing and verification for estate accounts.
//
// It implements Argon2id hashing using a PHC-like encoded string format and includes:
// - Configurable Argon2id parameters (via environment variables)
// - Password policy validation for newly set passwords
// - Strict hash decoding and verification with anti-DoS bounds
// - Verification of legacy bcrypt hashes carried over from the previous site
//
// Security notes:
// - Hash strings are treated as untrusted input during Verify and are validated accordingly.
// - Matches never returns an error: malformed hashes are simply a failed verification.
package password
