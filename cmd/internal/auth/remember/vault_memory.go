package remember

import (
	"context"
	"sync"
	"time"

	"estate/cmd/identity"
)

// MemoryVault is an in-process Vault for tests and single-node development.
type MemoryVault struct {
	mu        sync.Mutex
	byAccount map[string]Record
	byFP      map[string]string // fingerprint -> account_id
}

// NewMemoryVault returns an empty MemoryVault.
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{
		byAccount: make(map[string]Record),
		byFP:      make(map[string]string),
	}
}

var _ Vault = (*MemoryVault)(nil)

func (v *MemoryVault) UpsertToken(ctx context.Context, accountID, fingerprint string, expiresAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return identity.UnavailableError{Op: "remember.UpsertToken", Err: err}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if owner, ok := v.byFP[fingerprint]; ok && owner != accountID {
		return identity.ConflictError{Op: "remember.UpsertToken", Field: "token_fingerprint"}
	}
	if prev, ok := v.byAccount[accountID]; ok {
		delete(v.byFP, prev.Fingerprint)
	}
	v.byAccount[accountID] = Record{AccountID: accountID, Fingerprint: fingerprint, ExpiresAt: expiresAt}
	v.byFP[fingerprint] = accountID
	return nil
}

func (v *MemoryVault) FindByFingerprint(ctx context.Context, fingerprint string) (Record, error) {
	const op = "remember.FindByFingerprint"
	if err := ctx.Err(); err != nil {
		return Record{}, identity.UnavailableError{Op: op, Err: err}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	id, ok := v.byFP[fingerprint]
	if !ok {
		return Record{}, identity.NotFoundError{Op: op, Resource: "remember_token"}
	}
	return v.byAccount[id], nil
}

func (v *MemoryVault) DeleteByAccount(ctx context.Context, accountID string) error {
	if err := ctx.Err(); err != nil {
		return identity.UnavailableError{Op: "remember.DeleteByAccount", Err: err}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if prev, ok := v.byAccount[accountID]; ok {
		delete(v.byFP, prev.Fingerprint)
		delete(v.byAccount, accountID)
	}
	return nil
}

// PurgeExpired deletes rows whose expiry is at or before now.
func (v *MemoryVault) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, identity.UnavailableError{Op: "remember.PurgeExpired", Err: err}
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	var n int64
	for id, rec := range v.byAccount {
		if !rec.ExpiresAt.After(now) {
			delete(v.byFP, rec.Fingerprint)
			delete(v.byAccount, id)
			n++
		}
	}
	return n, nil
}
