package identity

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is a dev/test CredentialStore used when no database is configured.
type MemoryStore struct {
	mu      sync.RWMutex
	byID    map[string]Account
	byEmail map[string]string // email_norm -> id
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:    make(map[string]Account),
		byEmail: make(map[string]string),
	}
}

var _ CredentialStore = (*MemoryStore)(nil)

// CreateAccount mirrors PostgresStore.CreateAccount, including the unique-email check.
func (s *MemoryStore) CreateAccount(ctx context.Context, in CreateAccountInput) (Account, error) {
	const op = "identity.CreateAccount"

	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	acc, err := newAccount(op, in)
	if err != nil {
		return Account{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[acc.EmailNorm]; exists {
		return Account{}, ConflictError{Op: op, Field: "email"}
	}
	s.byID[acc.ID] = acc
	s.byEmail[acc.EmailNorm] = acc.ID
	return cloneAccount(acc), nil
}

// FindByEmail loads an account by case-insensitive email.
func (s *MemoryStore) FindByEmail(ctx context.Context, email string) (Account, error) {
	const op = "identity.FindByEmail"

	if err := ctx.Err(); err != nil {
		return Account{}, UnavailableError{Op: op, Err: err}
	}
	norm := NormalizeEmail(email)
	if norm == "" {
		return Account{}, pgInvalid(op, "missing email")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[norm]
	if !ok {
		return Account{}, NotFoundError{Op: op, Resource: "account"}
	}
	return cloneAccount(s.byID[id]), nil
}

// FindByID loads an account by id.
func (s *MemoryStore) FindByID(ctx context.Context, id string) (Account, error) {
	const op = "identity.FindByID"

	if err := ctx.Err(); err != nil {
		return Account{}, UnavailableError{Op: op, Err: err}
	}
	if strings.TrimSpace(id) == "" {
		return Account{}, pgInvalid(op, "missing account_id")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	acc, ok := s.byID[id]
	if !ok {
		return Account{}, NotFoundError{Op: op, Resource: "account"}
	}
	return cloneAccount(acc), nil
}

// UpdateLastLogin stamps LastLoginAt.
func (s *MemoryStore) UpdateLastLogin(ctx context.Context, id string, now time.Time) error {
	const op = "identity.UpdateLastLogin"

	if err := ctx.Err(); err != nil {
		return UnavailableError{Op: op, Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.byID[id]
	if !ok {
		return NotFoundError{Op: op, Resource: "account"}
	}
	ts := now
	acc.LastLoginAt = &ts
	s.byID[id] = acc
	return nil
}

func cloneAccount(a Account) Account {
	if a.LastLoginAt != nil {
		ts := *a.LastLoginAt
		a.LastLoginAt = &ts
	}
	return a
}
