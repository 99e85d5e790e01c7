package remember

import (
	"context"
	"errors"
	"strings"
	"time"

	"estate/cmd/identity"
	"estate/cmd/security/token"
)

// maxSecretLen bounds presented secrets before hashing.
const maxSecretLen = 4096

// Manager issues and resolves remember tokens on top of a Vault.
type Manager struct {
	vault       Vault
	hasher      token.Hasher
	secretBytes int
	now         func() time.Time
}

// Option configures a Manager.
type Option func(*Manager) error

// WithSecretBytes sets the entropy of issued secrets (32..64 bytes).
func WithSecretBytes(n int) Option {
	return func(m *Manager) error {
		if n < token.MinSecretBytes || n > token.MaxSecretBytes {
			return ErrConfig
		}
		m.secretBytes = n
		return nil
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(m *Manager) error {
		if now == nil {
			return ErrConfig
		}
		m.now = now
		return nil
	}
}

// NewManager builds a Manager. The hasher must be the same one used for
// every previously issued token, or existing tokens stop resolving.
func NewManager(vault Vault, hasher token.Hasher, opts ...Option) (*Manager, error) {
	if vault == nil {
		return nil, ErrConfig
	}
	m := &Manager{
		vault:       vault,
		hasher:      hasher,
		secretBytes: token.MinSecretBytes,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Issue creates a new secret for accountID valid for ttl, replacing any
// previous token for the account. Only the fingerprint is persisted; the
// returned raw secret must be handed to the client and then forgotten.
func (m *Manager) Issue(ctx context.Context, accountID string, ttl time.Duration) (string, error) {
	const op = "remember.Issue"

	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return "", identity.OpError{Op: op, Kind: identity.ErrInvalidInput, Msg: "missing account_id"}
	}
	if ttl <= 0 {
		return "", identity.OpError{Op: op, Kind: identity.ErrInvalidInput, Msg: "ttl must be positive"}
	}

	raw, err := token.NewSecret(m.secretBytes)
	if err != nil {
		return "", err
	}

	expiresAt := m.now().Add(ttl)
	if err := m.vault.UpsertToken(ctx, accountID, m.hasher.Fingerprint(raw), expiresAt); err != nil {
		return "", err
	}
	return raw, nil
}

// Resolve maps a presented secret to its stored record.
//
// It returns ErrNotFound when nothing matches and ErrExpired when the row's
// expiry is at or before now. Store failures are passed through unchanged.
// The stored expiry is never modified.
func (m *Manager) Resolve(ctx context.Context, raw string) (Record, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || len(raw) > maxSecretLen {
		return Record{}, ErrNotFound
	}

	fp := m.hasher.Fingerprint(raw)

	rec, err := m.vault.FindByFingerprint(ctx, fp)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}

	// Vaults look up by index; re-check the full digest without early exit.
	if !token.EqualFingerprints(rec.Fingerprint, fp) {
		return Record{}, ErrNotFound
	}
	if !rec.ExpiresAt.After(m.now()) {
		return Record{}, ErrExpired
	}
	return rec, nil
}

// Revoke deletes the account's token, if any. Revoking twice is not an error.
func (m *Manager) Revoke(ctx context.Context, accountID string) error {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		return identity.OpError{Op: "remember.Revoke", Kind: identity.ErrInvalidInput, Msg: "missing account_id"}
	}
	return m.vault.DeleteByAccount(ctx, accountID)
}
