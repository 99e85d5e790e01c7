package password

import "errors"

// Policy errors are returned by Validate and Hash.
var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrWeakPassword     = errors.New("weak password")
)

// ErrInvalidHash is returned by Verify for malformed, unsupported or
// out-of-bounds stored hashes. Matches folds it into false.
var ErrInvalidHash = errors.New("invalid password hash")
