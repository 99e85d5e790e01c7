// Package pgtest provisions throwaway Postgres schemas for integration tests.
//
// Tests are opt-in: without ESTATE_DATABASE_URL they skip. Outside CI an
// unreachable server also skips, so local runs stay fast.
package pgtest

import (
	"context"
	"errors"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"estate/cmd/internal/migrations"
)

// EnvDatabaseURL names the variable holding the test database DSN.
const EnvDatabaseURL = "ESTATE_DATABASE_URL"

// Open connects to the test database or skips t. The pool closes on cleanup.
func Open(t testing.TB) *pgxpool.Pool {
	t.Helper()

	raw := strings.TrimSpace(os.Getenv(EnvDatabaseURL))
	if raw == "" {
		t.Skip("integration test skipped: " + EnvDatabaseURL + " is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, raw)
	if err != nil {
		t.Fatalf("parse %s: %v", EnvDatabaseURL, err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		if os.Getenv("CI") == "" && Unreachable(err) {
			t.Skipf("integration test skipped: Postgres unreachable: %v", err)
		}
		t.Fatalf("ping: %v", err)
	}

	t.Cleanup(pool.Close)
	return pool
}

// Schema creates a fresh schema holding the migrated tables and drops it on
// cleanup. Cleanups run last-in first-out, so the drop precedes Open's close.
func Schema(t testing.TB, pool *pgxpool.Pool) string {
	t.Helper()

	schema := "estate_it_" + strings.ToLower(ulid.Make().String())
	ddl, err := migrations.UpSQL(schema)
	if err != nil {
		t.Fatalf("migration sql: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	if _, err := pool.Exec(ctx, ddl); err != nil {
		t.Fatalf("apply schema %s: %v", schema, err)
	}

	t.Cleanup(func() { Drop(pool, schema) })
	return schema
}

// Drop removes schema and everything in it. Errors are ignored.
func Drop(pool *pgxpool.Pool, schema string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, _ = pool.Exec(ctx, `DROP SCHEMA IF EXISTS `+pgx.Identifier{schema}.Sanitize()+` CASCADE`)
}

// Unreachable reports whether err looks like a connection failure rather
// than a server-side error.
func Unreachable(err error) bool {
	if err == nil {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection refused", "context deadline exceeded", "timeout", "dial tcp", "no such host"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
