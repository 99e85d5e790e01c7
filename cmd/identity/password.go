package identity

import (
	"errors"

	"estate/cmd/security/password"
)

// HashPassword validates plain against cfg's policy and returns an encoded Argon2id hash.
func HashPassword(cfg password.Config, plain string) (string, error) {
	const op = "identity.HashPassword"

	enc, err := cfg.Hash(plain)
	if err != nil {
		switch {
		case errors.Is(err, password.ErrPasswordTooShort),
			errors.Is(err, password.ErrPasswordTooLong),
			errors.Is(err, password.ErrWeakPassword):
			return "", OpError{Op: op, Kind: ErrInvalidInput, Msg: err.Error()}
		default:
			return "", err
		}
	}
	return enc, nil
}
