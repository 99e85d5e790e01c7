package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{in: "a@x.com", want: "a@x.com"},
		{in: "  A@X.Com ", want: "a@x.com"},
		{in: "", want: ""},
	}
	for _, tc := range cases {
		if got := NormalizeEmail(tc.in); got != tc.want {
			t.Fatalf("NormalizeEmail(%q)=%q want=%q", tc.in, got, tc.want)
		}
	}
}

func TestValidEmail(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want bool
	}{
		{in: "a@x.com", want: true},
		{in: " a@x.com ", want: true},
		{in: "Agent.Smith@Example.org", want: true},
		{in: "", want: false},
		{in: "not-an-email", want: false},
		{in: "Bob <bob@x.com>", want: false},
		{in: "a@x.com, b@x.com", want: false},
	}
	for _, tc := range cases {
		if got := ValidEmail(tc.in); got != tc.want {
			t.Fatalf("ValidEmail(%q)=%v want=%v", tc.in, got, tc.want)
		}
	}
}

func TestRole_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, r := range []Role{RoleAdmin, RoleAgent, RoleClient} {
		got, err := ParseRole(r.String())
		require.NoError(t, err)
		require.Equal(t, r, got)
	}

	_, err := ParseRole("superuser")
	require.True(t, IsInvalidInput(err))

	_, err = RoleUnknown.MarshalText()
	require.Error(t, err)

	var r Role
	require.NoError(t, r.UnmarshalText([]byte("agent")))
	require.Equal(t, RoleAgent, r)
}

func TestMemoryStore_CreateAndFind(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()

	acc, err := s.CreateAccount(ctx, CreateAccountInput{
		Email:        "Agent@Example.com",
		DisplayName:  "Agent",
		PasswordHash: "$argon2id$placeholder",
		Role:         RoleAgent,
		Now:          time.Now().UTC(),
	})
	require.NoError(t, err)
	require.Len(t, acc.ID, 26)
	require.Equal(t, "agent@example.com", acc.EmailNorm)

	got, err := s.FindByEmail(ctx, "AGENT@example.COM")
	require.NoError(t, err)
	require.Equal(t, acc.ID, got.ID)
	require.Equal(t, RoleAgent, got.Role)

	byID, err := s.FindByID(ctx, acc.ID)
	require.NoError(t, err)
	require.Equal(t, acc.Email, byID.Email)

	_, err = s.FindByEmail(ctx, "missing@example.com")
	require.True(t, IsNotFound(err))
}

func TestMemoryStore_DuplicateEmailConflicts(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()

	in := CreateAccountInput{Email: "a@x.com", PasswordHash: "h", Role: RoleClient}
	_, err := s.CreateAccount(ctx, in)
	require.NoError(t, err)

	in.Email = "A@X.COM"
	_, err = s.CreateAccount(ctx, in)
	require.True(t, IsConflict(err))
	require.ErrorIs(t, err, ErrConflict)
}

func TestMemoryStore_CreateAccount_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()

	_, err := s.CreateAccount(ctx, CreateAccountInput{Email: "bad", PasswordHash: "h", Role: RoleClient})
	require.True(t, IsInvalidInput(err))

	_, err = s.CreateAccount(ctx, CreateAccountInput{Email: "a@x.com", PasswordHash: "", Role: RoleClient})
	require.True(t, IsInvalidInput(err))

	_, err = s.CreateAccount(ctx, CreateAccountInput{Email: "a@x.com", PasswordHash: "h"})
	require.True(t, IsInvalidInput(err))
}

func TestMemoryStore_UpdateLastLogin(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore()

	acc, err := s.CreateAccount(ctx, CreateAccountInput{Email: "a@x.com", PasswordHash: "h", Role: RoleAdmin})
	require.NoError(t, err)
	require.Nil(t, acc.LastLoginAt)

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, s.UpdateLastLogin(ctx, acc.ID, now))

	got, err := s.FindByID(ctx, acc.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastLoginAt)
	require.True(t, got.LastLoginAt.Equal(now))

	require.True(t, IsNotFound(s.UpdateLastLogin(ctx, "01JUNKNOWNACCOUNT000000000", now)))
}

func TestMemoryStore_CanceledContextIsUnavailable(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMemoryStore().FindByEmail(ctx, "a@x.com")
	require.True(t, IsUnavailable(err))
	require.True(t, errors.Is(err, context.Canceled))
}

// Not parallel: another goroutine minting in a different millisecond reseeds the entropy.
func TestNewULID_SortsWithinMillisecond(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	prev := ""
	for i := 0; i < 50; i++ {
		id, err := NewULID(now)
		require.NoError(t, err)
		require.Len(t, id, 26)
		require.True(t, ValidAccountID(id))
		require.Greater(t, id, prev)
		prev = id
	}

	require.False(t, ValidAccountID(""))
	require.False(t, ValidAccountID("acct"))
	require.False(t, ValidAccountID("8ZZZZZZZZZZZZZZZZZZZZZZZZZ"), "overflowing timestamp")
}
