package remember

import (
	"errors"
	"fmt"

	"estate/cmd/identity"
)

var (
	// ErrNotFound is returned when no stored token matches the presented secret.
	ErrNotFound = fmt.Errorf("remember token not found: %w", identity.ErrNotActive)

	// ErrExpired is returned when the token matched but its expiry has passed.
	// Callers must treat it exactly like ErrNotFound in anything user-visible.
	ErrExpired = fmt.Errorf("remember token expired: %w", identity.ErrNotActive)

	// ErrConfig is returned for invalid manager options.
	ErrConfig = errors.New("remember: invalid config")
)
