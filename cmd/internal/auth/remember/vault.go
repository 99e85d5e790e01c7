package remember

import (
	"context"
	"time"
)

// Record is a stored remember token. The raw secret is never part of it.
type Record struct {
	AccountID   string
	Fingerprint string
	ExpiresAt   time.Time
}

// Vault persists remember-token fingerprints, one live row per account.
//
// UpsertToken must be a single atomic replace-if-exists write keyed by account.
// FindByFingerprint returns identity.ErrNotFound when nothing matches and
// identity.ErrUnavailable when the backing store cannot answer.
type Vault interface {
	UpsertToken(ctx context.Context, accountID, fingerprint string, expiresAt time.Time) error
	FindByFingerprint(ctx context.Context, fingerprint string) (Record, error)
	DeleteByAccount(ctx context.Context, accountID string) error
}
