package remember

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"estate/cmd/identity"
)

// PostgresVault implements Vault over <schema>.remember_tokens.
//
// The pool is owned by the caller. Driver and network errors are returned as
// identity.UnavailableError so callers never mistake them for a missing token.
type PostgresVault struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the vault.
type PostgresOption func(*PostgresVault) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema (default "estate").
func WithSchema(schema string) PostgresOption {
	return func(v *PostgresVault) error {
		schema = strings.TrimSpace(schema)
		if schema == "" || !pgIdentRe.MatchString(schema) {
			return fmt.Errorf("remember: invalid schema identifier")
		}
		v.schema = schema
		return nil
	}
}

// NewPostgresVault constructs a PostgresVault.
func NewPostgresVault(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresVault, error) {
	v := &PostgresVault{pool: pool, schema: "estate"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(v); err != nil {
			return nil, err
		}
	}
	if v.pool == nil {
		return nil, fmt.Errorf("remember: nil pool")
	}
	return v, nil
}

var _ Vault = (*PostgresVault)(nil)

func (v *PostgresVault) table() string {
	return pgx.Identifier{v.schema, "remember_tokens"}.Sanitize()
}

// UpsertToken replaces the account's token in a single statement.
// Concurrent upserts for one account serialize on the primary key; the last
// writer wins and earlier secrets stop resolving.
func (v *PostgresVault) UpsertToken(ctx context.Context, accountID, fingerprint string, expiresAt time.Time) error {
	const op = "remember.UpsertToken"

	_, err := v.pool.Exec(ctx, `
		INSERT INTO `+v.table()+` (account_id, token_fingerprint, expires_at, created_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (account_id) DO UPDATE
		   SET token_fingerprint = EXCLUDED.token_fingerprint,
		       expires_at        = EXCLUDED.expires_at,
		       created_at        = EXCLUDED.created_at
	`, accountID, fingerprint, expiresAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23503": // foreign_key_violation
				return identity.NotFoundError{Op: op, Resource: "account"}
			case "23505": // unique_violation on token_fingerprint
				return identity.ConflictError{Op: op, Field: "token_fingerprint"}
			}
		}
		return identity.UnavailableError{Op: op, Err: err}
	}
	return nil
}

// FindByFingerprint loads the row for fingerprint. Expiry is left to the caller.
func (v *PostgresVault) FindByFingerprint(ctx context.Context, fingerprint string) (Record, error) {
	const op = "remember.FindByFingerprint"

	var rec Record
	err := v.pool.QueryRow(ctx, `
		SELECT account_id, token_fingerprint, expires_at
		  FROM `+v.table()+`
		 WHERE token_fingerprint = $1
	`, fingerprint).Scan(&rec.AccountID, &rec.Fingerprint, &rec.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, identity.NotFoundError{Op: op, Resource: "remember_token"}
	}
	if err != nil {
		return Record{}, identity.UnavailableError{Op: op, Err: err}
	}
	return rec, nil
}

// DeleteByAccount removes the account's token (idempotent).
func (v *PostgresVault) DeleteByAccount(ctx context.Context, accountID string) error {
	_, err := v.pool.Exec(ctx, `DELETE FROM `+v.table()+` WHERE account_id = $1`, accountID)
	if err != nil {
		return identity.UnavailableError{Op: "remember.DeleteByAccount", Err: err}
	}
	return nil
}

// PurgeExpired deletes rows whose expiry is at or before now and reports how many went.
func (v *PostgresVault) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	ct, err := v.pool.Exec(ctx, `DELETE FROM `+v.table()+` WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, identity.UnavailableError{Op: "remember.PurgeExpired", Err: err}
	}
	return ct.RowsAffected(), nil
}
