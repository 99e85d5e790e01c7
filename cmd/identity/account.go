package identity

import (
	"context"
	"time"
)

// Account is the principal under authentication.
// PasswordHash is an encoded one-way hash and must never leave the server.
type Account struct {
	ID           string
	Email        string
	EmailNorm    string
	DisplayName  string
	PasswordHash string
	Role         Role

	CreatedAt   time.Time
	LastLoginAt *time.Time
}

// CreateAccountInput describes a registration request.
// PasswordHash must already be encoded (see HashPassword).
type CreateAccountInput struct {
	Email        string
	DisplayName  string
	PasswordHash string
	Role         Role
	Now          time.Time
}

// CredentialStore is the account persistence boundary used by authentication.
//
// Lookups return ErrNotFound for missing accounts and ErrUnavailable when the
// backing store cannot answer. UpdateLastLogin is the only mutation on the
// login path.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (Account, error)
	FindByID(ctx context.Context, id string) (Account, error)
	UpdateLastLogin(ctx context.Context, id string, now time.Time) error
}
