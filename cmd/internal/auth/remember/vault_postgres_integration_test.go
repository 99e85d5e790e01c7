package remember

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"estate/cmd/identity"
	"estate/cmd/internal/pgtest"
	"estate/cmd/security/token"
)

// Integration tests are opt-in and require ESTATE_DATABASE_URL.

func TestPostgresVault_IssueResolveReplace(t *testing.T) {
	t.Parallel()

	pool, schema := mustVaultFixture(t)
	accountID := mustInsertAccount(t, pool, schema, "a@x.com")

	vault, err := NewPostgresVault(pool, WithSchema(schema))
	require.NoError(t, err)
	m, err := NewManager(vault, token.NewHasher(nil))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	first, err := m.Issue(ctx, accountID, time.Hour)
	require.NoError(t, err)
	rec, err := m.Resolve(ctx, first)
	require.NoError(t, err)
	require.Equal(t, accountID, rec.AccountID)

	second, err := m.Issue(ctx, accountID, time.Hour)
	require.NoError(t, err)

	_, err = m.Resolve(ctx, first)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = m.Resolve(ctx, second)
	require.NoError(t, err)

	var rows int
	require.NoError(t, pool.QueryRow(ctx,
		`SELECT count(*) FROM `+pgx.Identifier{schema, "remember_tokens"}.Sanitize()).Scan(&rows))
	require.Equal(t, 1, rows)

	require.NoError(t, m.Revoke(ctx, accountID))
	_, err = m.Resolve(ctx, second)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresVault_ConcurrentUpsertLastWriterWins(t *testing.T) {
	t.Parallel()

	pool, schema := mustVaultFixture(t)
	accountID := mustInsertAccount(t, pool, schema, "race@x.com")

	vault, err := NewPostgresVault(pool, WithSchema(schema))
	require.NoError(t, err)
	m, err := NewManager(vault, token.NewHasher(nil))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	const n = 8
	secrets := make([]string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			raw, err := m.Issue(ctx, accountID, time.Hour)
			if err == nil {
				secrets[i] = raw
			}
		}(i)
	}
	wg.Wait()

	live := 0
	for _, s := range secrets {
		if s == "" {
			continue
		}
		if _, err := m.Resolve(ctx, s); err == nil {
			live++
		}
	}
	require.Equal(t, 1, live)
}

func TestPostgresVault_UnknownAccountAndPurge(t *testing.T) {
	t.Parallel()

	pool, schema := mustVaultFixture(t)
	accountID := mustInsertAccount(t, pool, schema, "purge@x.com")

	vault, err := NewPostgresVault(pool, WithSchema(schema))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err = vault.UpsertToken(ctx, "01HZZZZZZZZZZZZZZZZZZZZZZZ", token.HashSHA256Hex("x"), time.Now().Add(time.Hour))
	require.True(t, identity.IsNotFound(err), "got %v", err)

	now := time.Now().UTC()
	require.NoError(t, vault.UpsertToken(ctx, accountID, token.HashSHA256Hex("y"), now.Add(-time.Minute)))

	n, err := vault.PurgeExpired(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	_, err = vault.FindByFingerprint(ctx, token.HashSHA256Hex("y"))
	require.True(t, identity.IsNotFound(err))
}

func TestPostgresVault_AccountDeleteCascades(t *testing.T) {
	t.Parallel()

	pool, schema := mustVaultFixture(t)
	accountID := mustInsertAccount(t, pool, schema, "gone@x.com")

	vault, err := NewPostgresVault(pool, WithSchema(schema))
	require.NoError(t, err)
	m, err := NewManager(vault, token.NewHasher([]byte("k-0123456789abcdef0123456789abcdef")))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	raw, err := m.Issue(ctx, accountID, time.Hour)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, `DELETE FROM `+pgx.Identifier{schema, "accounts"}.Sanitize()+` WHERE id = $1`, accountID)
	require.NoError(t, err)

	_, err = m.Resolve(ctx, raw)
	require.ErrorIs(t, err, ErrNotFound)
}

func mustVaultFixture(t *testing.T) (*pgxpool.Pool, string) {
	t.Helper()

	pool := pgtest.Open(t)
	return pool, pgtest.Schema(t, pool)
}

func mustInsertAccount(t *testing.T, pool *pgxpool.Pool, schema, email string) string {
	t.Helper()

	store, err := identity.NewPostgresStore(pool, identity.WithSchema(schema))
	require.NoError(t, err)

	acc, err := store.CreateAccount(context.Background(), identity.CreateAccountInput{
		Email:        email,
		PasswordHash: "$argon2id$placeholder",
		Role:         identity.RoleClient,
	})
	require.NoError(t, err)
	return acc.ID
}
