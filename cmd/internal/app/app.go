// Package app wires the estate server runtime: config, logging, persistence,
// the authentication core and its HTTP surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"estate/cmd/identity"
	authapi "estate/cmd/internal/auth/api"
	"estate/cmd/internal/auth/remember"
	"estate/cmd/internal/auth/session"
	"estate/cmd/security/password"
	"estate/cmd/security/token"
)

// Store is a small app-level lifecycle abstraction.
// It exists to allow DB-backed resources to be closed gracefully.
type Store interface {
	Close(ctx context.Context) error
}

// nopStore is used for in-memory store mode.
type nopStore struct{}

func (nopStore) Close(_ context.Context) error { return nil }

type dbStore struct {
	pool *pgxpool.Pool
}

func (s dbStore) Close(_ context.Context) error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}

// backend is the persistence selected for this process.
type backend struct {
	store    Store
	accounts identity.CredentialStore
	vault    remember.Vault
	pool     *pgxpool.Pool
}

// App is the estate server runtime.
type App struct {
	cfg Config
	log Logger

	store Store

	dbPool    *pgxpool.Pool
	dbEnabled bool

	registry *prometheus.Registry
	auth     *authapi.Handler
}

// New constructs a fully wired App instance from config and logger.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	pcfg, err := password.FromEnv()
	if err != nil {
		return nil, err
	}
	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, err
	}
	codec, err := session.NewCodec(sessCfg.SessionKeyHex, sessCfg.SessionTTL)
	if err != nil {
		return nil, err
	}

	be, err := newBackend(ctx, cfg, log, pcfg)
	if err != nil {
		return nil, err
	}
	fail := func(err error) (*App, error) {
		_ = be.store.Close(context.Background())
		return nil, err
	}

	hasher := token.HasherFromEnv()
	if !hasher.HMAC() {
		log.Warn("security.token_hmac.disabled", "detail", "remember fingerprints use unkeyed SHA-256")
	}
	tokens, err := remember.NewManager(be.vault, hasher, remember.WithSecretBytes(sessCfg.RememberSecretBytes))
	if err != nil {
		return fail(err)
	}

	dummy, err := dummyHash(pcfg)
	if err != nil {
		return fail(err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := session.NewMetrics(reg)
	if err != nil {
		return fail(err)
	}

	authn, err := session.NewAuthenticator(sessCfg, be.accounts, pcfg, tokens,
		session.WithLogger(log),
		session.WithMetrics(metrics),
		session.WithDummyHash(dummy),
	)
	if err != nil {
		return fail(err)
	}

	handler, err := authapi.NewHandler(log, authapi.LoadConfigFromEnv(), authn, codec)
	if err != nil {
		return fail(err)
	}

	return &App{
		cfg:       cfg,
		log:       log,
		store:     be.store,
		dbPool:    be.pool,
		dbEnabled: be.pool != nil,
		registry:  reg,
		auth:      handler,
	}, nil
}

// Handler returns the fully wrapped HTTP handler.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.registry, a.auth)
	return buildHandler(mux, a.log, a.auth)
}

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		_ = a.store.Close(context.Background())
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if err := a.store.Close(shutdownCtx); err != nil {
		a.log.Error("store.close.fail", "err", err)
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// newBackend decides between Postgres-backed persistence and the in-memory dev store.
func newBackend(ctx context.Context, cfg Config, log Logger, pcfg password.Config) (backend, error) {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")
		accounts := identity.NewMemoryStore()
		if err := seedDevAdmin(ctx, cfg, log, pcfg, accounts); err != nil {
			return backend{}, err
		}
		return backend{
			store:    nopStore{},
			accounts: accounts,
			vault:    remember.NewMemoryVault(),
		}, nil
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return backend{}, err
	}

	if cfg.DBAutoMigrate {
		if err := Migrate(ctx, pool); err != nil {
			pool.Close()
			return backend{}, err
		}
		log.Info("db.migrated")
	}

	// The app owns the pool; stores only borrow it.
	accounts, err := identity.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return backend{}, err
	}
	vault, err := remember.NewPostgresVault(pool)
	if err != nil {
		pool.Close()
		return backend{}, err
	}

	log.Info("db.enabled.postgres_store")
	return backend{
		store:    dbStore{pool: pool},
		accounts: accounts,
		vault:    vault,
		pool:     pool,
	}, nil
}

func seedDevAdmin(ctx context.Context, cfg Config, log Logger, pcfg password.Config, accounts *identity.MemoryStore) error {
	if cfg.DevAdminEmail == "" || cfg.DevAdminPassword == "" {
		return nil
	}
	hash, err := identity.HashPassword(pcfg, cfg.DevAdminPassword)
	if err != nil {
		return fmt.Errorf("dev admin: %w", err)
	}
	acc, err := accounts.CreateAccount(ctx, identity.CreateAccountInput{
		Email:        cfg.DevAdminEmail,
		DisplayName:  "Dev Admin",
		PasswordHash: hash,
		Role:         identity.RoleAdmin,
		Now:          time.Now(),
	})
	if err != nil {
		return fmt.Errorf("dev admin: %w", err)
	}
	log.Info("dev.admin.seeded", "account_id", acc.ID)
	return nil
}

// dummyHash produces a throwaway hash under the live parameters so unknown
// emails cost one full verification.
func dummyHash(pcfg password.Config) (string, error) {
	secret, err := token.NewSecret(token.MinSecretBytes)
	if err != nil {
		return "", err
	}
	return pcfg.Hash(secret)
}
