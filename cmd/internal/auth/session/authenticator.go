package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"estate/cmd/identity"
	"estate/cmd/internal/auth/remember"
)

// maxPasswordBytes rejects pathological inputs before they reach the hasher.
const maxPasswordBytes = 1024

// PasswordVerifier checks a plaintext password against an encoded hash.
// Malformed hashes must report false.
type PasswordVerifier interface {
	Matches(password, encodedHash string) bool
}

// rehashReporter is implemented by verifiers that can flag hashes made under
// outdated parameters or a legacy scheme.
type rehashReporter interface {
	NeedsRehash(encodedHash string) bool
}

// RememberTokens issues and resolves remember-me secrets.
type RememberTokens interface {
	Issue(ctx context.Context, accountID string, ttl time.Duration) (string, error)
	Resolve(ctx context.Context, raw string) (remember.Record, error)
	Revoke(ctx context.Context, accountID string) error
}

// Authenticator orchestrates login, silent resume, and logout.
// It is safe for concurrent use; all per-client state lives in the Carrier.
type Authenticator struct {
	cfg       Config
	accounts  identity.CredentialStore
	passwords PasswordVerifier
	tokens    RememberTokens

	log       *slog.Logger
	metrics   *Metrics
	now       func() time.Time
	dummyHash string
}

// Option configures optional Authenticator dependencies.
type Option func(*Authenticator)

// WithLogger sets the logger (default slog.Default()).
func WithLogger(log *slog.Logger) Option {
	return func(a *Authenticator) {
		if log != nil {
			a.log = log
		}
	}
}

// WithMetrics sets the outcome counters.
func WithMetrics(m *Metrics) Option {
	return func(a *Authenticator) { a.metrics = m }
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) {
		if now != nil {
			a.now = now
		}
	}
}

// WithDummyHash sets a well-formed hash verified when the email is unknown,
// so unknown-email and wrong-password rejections cost the same.
func WithDummyHash(hash string) Option {
	return func(a *Authenticator) { a.dummyHash = hash }
}

// NewAuthenticator constructs an Authenticator.
func NewAuthenticator(cfg Config, accounts identity.CredentialStore, passwords PasswordVerifier, tokens RememberTokens, opts ...Option) (*Authenticator, error) {
	if accounts == nil || passwords == nil || tokens == nil {
		return nil, ErrConfig
	}
	if cfg.RememberTTL <= 0 || cfg.StoreTimeout <= 0 {
		return nil, ErrConfig
	}

	a := &Authenticator{
		cfg:       cfg,
		accounts:  accounts,
		passwords: passwords,
		tokens:    tokens,
		log:       slog.Default(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(a)
	}
	return a, nil
}

// Login authenticates by email and password.
//
// Unknown email and wrong password both return ErrInvalidCredentials. With
// remember set, a new remember secret is issued (replacing any earlier one for
// the account) and handed to the carrier. Without it, any secret the client
// still carries is dropped, so a later resume cannot sign in a previous user.
// Store failures return ErrStoreUnavailable and leave the carrier untouched.
//
// If the carrier refuses the new secret the login fails, the carrier is
// cleared and the new token is revoked. The account's earlier token was
// already replaced at issue time and stays gone.
func (a *Authenticator) Login(ctx context.Context, c Carrier, email, password string, remember bool) (Session, error) {
	const op = "session.Login"

	if c == nil {
		return Session{}, fmt.Errorf("%s: nil carrier", op)
	}
	if err := validateLogin(email, password); err != nil {
		a.metrics.login(resultInvalid)
		return Session{}, err
	}

	sctx, cancel := a.storeContext(ctx)
	acc, err := a.accounts.FindByEmail(sctx, email)
	cancel()
	if err != nil {
		if identity.IsNotFound(err) {
			if a.dummyHash != "" {
				_ = a.passwords.Matches(password, a.dummyHash)
			}
			a.reject(ctx, "unknown_email", "")
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, a.loginFailure(ctx, op, err)
	}

	if !a.passwords.Matches(password, acc.PasswordHash) {
		a.reject(ctx, "bad_password", acc.ID)
		return Session{}, ErrInvalidCredentials
	}
	if r, ok := a.passwords.(rehashReporter); ok && r.NeedsRehash(acc.PasswordHash) {
		a.log.InfoContext(ctx, "auth.login.stale_hash", "account_id", acc.ID)
	}

	now := a.now()
	if err := a.touch(ctx, acc.ID, now); err != nil {
		if identity.IsNotFound(err) {
			// Deleted between lookup and update.
			a.reject(ctx, "account_gone", acc.ID)
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, a.loginFailure(ctx, op, err)
	}

	var raw string
	if remember {
		sctx, cancel := a.storeContext(ctx)
		raw, err = a.tokens.Issue(sctx, acc.ID, a.cfg.RememberTTL)
		cancel()
		if err != nil {
			return Session{}, a.loginFailure(ctx, op, err)
		}
	}

	s := newSession(acc, ViaCredential, now)
	if err := c.Establish(s); err != nil {
		a.metrics.login(resultError)
		return Session{}, fmt.Errorf("%s: establish session: %w", op, err)
	}
	if raw == "" {
		c.DropSecret()
	} else if err := c.CarrySecret(raw, a.cfg.RememberTTL); err != nil {
		c.Clear()
		a.revokeUndelivered(ctx, acc.ID)
		a.metrics.login(resultError)
		return Session{}, fmt.Errorf("%s: carry remember secret: %w", op, err)
	}

	a.metrics.login(resultSuccess)
	a.log.InfoContext(ctx, "auth.login.success",
		"account_id", acc.ID,
		"role", acc.Role.String(),
		"remember", remember,
	)
	return s, nil
}

// ResumeFromToken re-establishes a session from the carrier's remember secret.
//
// A carrier that already holds a session is returned as is. A missing,
// unknown or expired secret leaves the caller unauthenticated without an
// error; the stale secret is cleared from the carrier. The token itself is
// neither reissued nor extended. Only store failures return an error.
func (a *Authenticator) ResumeFromToken(ctx context.Context, c Carrier) (Session, bool, error) {
	const op = "session.ResumeFromToken"

	if c == nil {
		return Session{}, false, nil
	}
	if s, ok := c.Current(); ok {
		return s, true, nil
	}
	raw, ok := c.ReadSecret()
	if !ok {
		return Session{}, false, nil
	}

	sctx, cancel := a.storeContext(ctx)
	rec, err := a.tokens.Resolve(sctx, raw)
	cancel()
	if err != nil {
		if errors.Is(err, identity.ErrNotActive) {
			c.Clear()
			a.metrics.resume(resultRejected)
			a.log.DebugContext(ctx, "auth.resume.rejected", "reason", resumeReason(err))
			return Session{}, false, nil
		}
		a.metrics.resume(resultError)
		return Session{}, false, a.storeFailure(ctx, op, err)
	}

	sctx, cancel = a.storeContext(ctx)
	acc, err := a.accounts.FindByID(sctx, rec.AccountID)
	cancel()
	if err != nil {
		if identity.IsNotFound(err) {
			c.Clear()
			a.metrics.resume(resultRejected)
			return Session{}, false, nil
		}
		a.metrics.resume(resultError)
		return Session{}, false, a.storeFailure(ctx, op, err)
	}

	now := a.now()
	if err := a.touch(ctx, acc.ID, now); err != nil {
		if identity.IsNotFound(err) {
			c.Clear()
			a.metrics.resume(resultRejected)
			return Session{}, false, nil
		}
		a.metrics.resume(resultError)
		return Session{}, false, a.storeFailure(ctx, op, err)
	}

	s := newSession(acc, ViaToken, now)
	if err := c.Establish(s); err != nil {
		a.metrics.resume(resultError)
		return Session{}, false, fmt.Errorf("%s: establish session: %w", op, err)
	}

	a.metrics.resume(resultSuccess)
	a.log.InfoContext(ctx, "auth.resume.success", "account_id", acc.ID, "role", acc.Role.String())
	return s, true, nil
}

// Logout clears the carrier's session and remember slot. It never fails and
// is idempotent.
//
// With RevokeRememberOnLogout the account's stored token is deleted as well;
// a revoke failure is logged and does not affect the outcome.
func (a *Authenticator) Logout(ctx context.Context, c Carrier) {
	if c == nil {
		return
	}

	var accountID string
	if a.cfg.RevokeRememberOnLogout {
		accountID = a.logoutAccount(ctx, c)
	}

	c.Clear()
	a.metrics.logout()

	if accountID == "" {
		return
	}
	sctx, cancel := a.storeContext(ctx)
	defer cancel()
	if err := a.tokens.Revoke(sctx, accountID); err != nil {
		a.log.WarnContext(ctx, "auth.logout.revoke.fail", "account_id", accountID, "err", err)
	}
}

// CurrentIdentity returns the session held by c without touching any store.
func (a *Authenticator) CurrentIdentity(c Carrier) (Session, bool) {
	if c == nil {
		return Session{}, false
	}
	return c.Current()
}

// logoutAccount finds whose token to revoke: the live session's account, or
// failing that the owner of a still-valid secret the client presents.
func (a *Authenticator) logoutAccount(ctx context.Context, c Carrier) string {
	if s, ok := c.Current(); ok {
		return s.AccountID
	}
	raw, ok := c.ReadSecret()
	if !ok {
		return ""
	}
	sctx, cancel := a.storeContext(ctx)
	defer cancel()
	rec, err := a.tokens.Resolve(sctx, raw)
	if err != nil {
		return ""
	}
	return rec.AccountID
}

// revokeUndelivered deletes a token whose secret never reached the client.
func (a *Authenticator) revokeUndelivered(ctx context.Context, accountID string) {
	sctx, cancel := a.storeContext(ctx)
	defer cancel()
	if err := a.tokens.Revoke(sctx, accountID); err != nil {
		a.log.WarnContext(ctx, "auth.login.revoke.fail", "account_id", accountID, "err", err)
	}
}

func (a *Authenticator) touch(ctx context.Context, accountID string, now time.Time) error {
	sctx, cancel := a.storeContext(ctx)
	defer cancel()
	return a.accounts.UpdateLastLogin(sctx, accountID, now)
}

func (a *Authenticator) storeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.cfg.StoreTimeout)
}

func (a *Authenticator) reject(ctx context.Context, reason, accountID string) {
	a.metrics.login(resultRejected)
	attrs := []any{"reason", reason}
	if accountID != "" {
		attrs = append(attrs, "account_id", accountID)
	}
	a.log.InfoContext(ctx, "auth.login.failed", attrs...)
}

// storeFailure classifies err. Unavailability and timeouts become StoreError;
// anything else is an internal error.
func (a *Authenticator) storeFailure(ctx context.Context, op string, err error) error {
	if identity.IsUnavailable(err) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) {
		a.log.ErrorContext(ctx, "auth.store.unavailable", "op", op, "err", err)
		return StoreError{Op: op, Err: err}
	}
	a.log.ErrorContext(ctx, "auth.store.fail", "op", op, "err", err)
	return fmt.Errorf("%s: %w", op, err)
}

func (a *Authenticator) loginFailure(ctx context.Context, op string, err error) error {
	a.metrics.login(resultError)
	return a.storeFailure(ctx, op, err)
}

func validateLogin(email, password string) error {
	email = strings.TrimSpace(email)
	switch {
	case email == "":
		return ValidationError{Field: "email", Reason: "is required"}
	case !identity.ValidEmail(email):
		return ValidationError{Field: "email", Reason: "is malformed"}
	case password == "":
		return ValidationError{Field: "password", Reason: "is required"}
	case len(password) > maxPasswordBytes:
		return ValidationError{Field: "password", Reason: "is too long"}
	}
	return nil
}

func resumeReason(err error) string {
	if errors.Is(err, remember.ErrExpired) {
		return "expired"
	}
	return "not_found"
}
