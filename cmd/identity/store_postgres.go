package identity

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
)

// PostgresStore implements CredentialStore over PostgreSQL.
//
// Design notes:
// - The pgx pool is owned by the caller; this store must NOT close it.
// - Schema/table identifiers are safely quoted to avoid SQL injection via identifiers.
// - Email lookups go through the unique email_norm index (case-insensitive).
// - Driver and network failures are reported as ErrUnavailable, never as ErrNotFound.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the store.
type PostgresOption func(*PostgresStore) error

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// WithSchema sets the Postgres schema used by the identity store (default "estate").
// The schema name is validated to be a legal PostgreSQL identifier.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return fmt.Errorf("identity: empty schema")
		}
		if !pgIdentIsValid(schema) {
			return fmt.Errorf("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore with secure defaults.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: "estate",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, fmt.Errorf("identity: nil pool")
	}
	return st, nil
}

var _ CredentialStore = (*PostgresStore)(nil)

const accountColumns = `id, email, email_norm, display_name, password_hash, role, created_at, last_login_at`

// CreateAccount inserts a new account. A duplicate email (case-insensitive)
// returns ConflictError{Field: "email"}.
func (s *PostgresStore) CreateAccount(ctx context.Context, in CreateAccountInput) (Account, error) {
	const op = "identity.CreateAccount"

	if s == nil || s.pool == nil {
		return Account{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}

	acc, err := newAccount(op, in)
	if err != nil {
		return Account{}, err
	}

	accounts := pgIdent(s.schema, "accounts")

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+accounts+` (
		     id, email, email_norm, display_name, password_hash, role, created_at
		   ) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		acc.ID,
		acc.Email,
		acc.EmailNorm,
		acc.DisplayName,
		acc.PasswordHash,
		acc.Role.String(),
		acc.CreatedAt,
	)
	if err != nil {
		if field, ok := pgClassifyUniqueViolation(err); ok {
			return Account{}, ConflictError{Op: op, Field: field}
		}
		return Account{}, UnavailableError{Op: op, Err: err}
	}

	return acc, nil
}

// FindByEmail loads an account by case-insensitive email.
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (Account, error) {
	const op = "identity.FindByEmail"

	if s == nil || s.pool == nil {
		return Account{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	norm := NormalizeEmail(email)
	if norm == "" {
		return Account{}, pgInvalid(op, "missing email")
	}

	accounts := pgIdent(s.schema, "accounts")
	row := s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+`
		   FROM `+accounts+`
		  WHERE email_norm = $1`,
		norm,
	)
	return scanAccount(op, row)
}

// FindByID loads an account by id.
func (s *PostgresStore) FindByID(ctx context.Context, id string) (Account, error) {
	const op = "identity.FindByID"

	if s == nil || s.pool == nil {
		return Account{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	if strings.TrimSpace(id) == "" {
		return Account{}, pgInvalid(op, "missing account_id")
	}

	accounts := pgIdent(s.schema, "accounts")
	row := s.pool.QueryRow(ctx,
		`SELECT `+accountColumns+`
		   FROM `+accounts+`
		  WHERE id = $1`,
		id,
	)
	return scanAccount(op, row)
}

// UpdateLastLogin stamps last_login_at. Missing accounts return ErrNotFound.
func (s *PostgresStore) UpdateLastLogin(ctx context.Context, id string, now time.Time) error {
	const op = "identity.UpdateLastLogin"

	if s == nil || s.pool == nil {
		return OpError{Op: op, Kind: ErrInvalidInput, Msg: "nil store"}
	}
	if strings.TrimSpace(id) == "" {
		return pgInvalid(op, "missing account_id")
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	accounts := pgIdent(s.schema, "accounts")
	ct, err := s.pool.Exec(ctx,
		`UPDATE `+accounts+`
		    SET last_login_at = $1
		  WHERE id = $2`,
		now, id,
	)
	if err != nil {
		return UnavailableError{Op: op, Err: err}
	}
	if ct.RowsAffected() == 0 {
		return NotFoundError{Op: op, Resource: "account"}
	}
	return nil
}

func scanAccount(op string, row pgx.Row) (Account, error) {
	var (
		out     Account
		roleTag string
	)
	err := row.Scan(
		&out.ID,
		&out.Email,
		&out.EmailNorm,
		&out.DisplayName,
		&out.PasswordHash,
		&roleTag,
		&out.CreatedAt,
		&out.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, NotFoundError{Op: op, Resource: "account"}
		}
		return Account{}, UnavailableError{Op: op, Err: err}
	}

	role, err := ParseRole(roleTag)
	if err != nil {
		// The schema CHECK constraint should make this unreachable.
		return Account{}, OpError{Op: op, Kind: ErrInvalidInput, Msg: "stored role is invalid"}
	}
	out.Role = role
	return out, nil
}

// newAccount validates registration input and builds the row to insert.
func newAccount(op string, in CreateAccountInput) (Account, error) {
	email := strings.TrimSpace(in.Email)
	if !ValidEmail(email) {
		return Account{}, pgInvalid(op, "invalid email")
	}
	if strings.TrimSpace(in.PasswordHash) == "" {
		return Account{}, pgInvalid(op, "password hash is required")
	}
	if !in.Role.Valid() {
		return Account{}, pgInvalid(op, "invalid role")
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := NewULID(now)
	if err != nil {
		return Account{}, err
	}

	display := strings.TrimSpace(in.DisplayName)
	if display == "" {
		display = email
	}

	return Account{
		ID:           id,
		Email:        email,
		EmailNorm:    NormalizeEmail(email),
		DisplayName:  display,
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		CreatedAt:    now,
	}, nil
}

// ---- helpers ----

// pgInvalid standardizes invalid input errors.
func pgInvalid(op, msg string) error {
	return OpError{Op: op, Kind: ErrInvalidInput, Msg: msg}
}

// pgIdentIsValid checks if a string is a safe Postgres identifier.
func pgIdentIsValid(s string) bool {
	return pgIdentRe.MatchString(s)
}

// pgIdent safely quotes a schema-qualified identifier: "schema"."name".
func pgIdent(schema, name string) string {
	return pgx.Identifier{schema, name}.Sanitize()
}

func pgClassifyUniqueViolation(err error) (field string, ok bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return "", false
	}
	if pgErr.Code != "23505" { // unique_violation
		return "", false
	}

	// Prefer stable schema constraint names. Fall back to substring matching.
	c := strings.ToLower(strings.TrimSpace(pgErr.ConstraintName))

	switch c {
	case "uq_accounts_email_norm":
		return "email", true
	case "accounts_pkey":
		return "id", true
	default:
		if strings.Contains(c, "email") {
			return "email", true
		}
		return "unique", true
	}
}
