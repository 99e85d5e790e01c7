package password

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var bcryptPrefixes = []string{"$2a$", "$2b$", "$2y$"}

func isBcrypt(encoded string) bool {
	for _, p := range bcryptPrefixes {
		if strings.HasPrefix(encoded, p) {
			return true
		}
	}
	return false
}

// verifyBcrypt checks a legacy hash. PHP writes $2y$, which is $2b$ under another name.
func verifyBcrypt(encoded, password string) (bool, error) {
	if rest, ok := strings.CutPrefix(encoded, "$2y$"); ok {
		encoded = "$2b$" + rest
	}
	if _, err := bcrypt.Cost([]byte(encoded)); err != nil {
		return false, ErrInvalidHash
	}

	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, ErrInvalidHash
	}
}
