package password

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Hash validates password against the policy and returns an Argon2id PHC string:
//
//	$argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<hash_b64>
func (c Config) Hash(password string) (string, error) {
	if err := c.Validate(password); err != nil {
		return "", err
	}

	salt := make([]byte, c.Params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	h := phc{
		params: c.Params,
		salt:   salt,
		key: argon2.IDKey([]byte(password), salt,
			c.Params.Iterations, c.Params.MemoryKiB, c.Params.Parallelism, c.Params.KeyLength),
	}
	return h.String(), nil
}

// Verify checks password against encodedHash.
// A mismatch is (false, nil); a malformed, unsupported or out-of-bounds hash
// is (false, ErrInvalidHash). Legacy bcrypt hashes ($2a$, $2b$, $2y$) are accepted.
func (c Config) Verify(encodedHash, password string) (bool, error) {
	if isBcrypt(encodedHash) {
		return verifyBcrypt(encodedHash, password)
	}

	h, err := parsePHC(encodedHash)
	if err != nil {
		return false, err
	}
	// Stored hashes are untrusted: refuse parameters far above our own.
	if !h.params.withinBoundsOf(c.Params) {
		return false, ErrInvalidHash
	}

	key := argon2.IDKey([]byte(password), h.salt,
		h.params.Iterations, h.params.MemoryKiB, h.params.Parallelism, h.params.KeyLength)
	return subtle.ConstantTimeCompare(key, h.key) == 1, nil
}

// Matches reports whether password matches encodedHash.
// Empty input, malformed hashes and verification errors all yield false.
func (c Config) Matches(password, encodedHash string) bool {
	if password == "" || encodedHash == "" {
		return false
	}
	ok, err := c.Verify(encodedHash, password)
	return err == nil && ok
}

// NeedsRehash reports whether encodedHash was produced by anything other
// than Argon2id under the current parameters. Malformed input needs a rehash.
func (c Config) NeedsRehash(encodedHash string) bool {
	if isBcrypt(encodedHash) {
		return true
	}
	h, err := parsePHC(encodedHash)
	if err != nil {
		return true
	}
	p := h.params
	return p.MemoryKiB != c.Params.MemoryKiB ||
		p.Iterations != c.Params.Iterations ||
		p.Parallelism != c.Params.Parallelism ||
		p.KeyLength != c.Params.KeyLength
}
