package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"estate/cmd/internal/auth/session"
)

// Handler wires HTTP auth endpoints and the cookie carrier to the Authenticator.
type Handler struct {
	log   *slog.Logger
	cfg   Config
	auth  *session.Authenticator
	codec *session.Codec
	now   func() time.Time

	// retryAfter is advertised on store_unavailable responses.
	retryAfter time.Duration

	throttle *loginThrottle
}

// HandlerOption configures optional handler behavior.
type HandlerOption func(*Handler)

// WithClock overrides the time source used to validate session cookies.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *Handler) {
		if h == nil || now == nil {
			return
		}
		h.now = now
	}
}

// WithRetryAfter sets the Retry-After hint for store outages.
func WithRetryAfter(d time.Duration) HandlerOption {
	return func(h *Handler) {
		if h == nil || d <= 0 {
			return
		}
		h.retryAfter = d
	}
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, auth *session.Authenticator, codec *session.Codec, opts ...HandlerOption) (*Handler, error) {
	if auth == nil || codec == nil {
		return nil, errors.New("auth: nil authenticator or codec")
	}
	if log == nil {
		log = slog.Default()
	}

	h := &Handler{
		log:        log,
		cfg:        cfg,
		auth:       auth,
		codec:      codec,
		now:        func() time.Time { return time.Now().UTC() },
		retryAfter: 5 * time.Second,
		throttle:   newLoginThrottle(cfg.LoginIPMax, cfg.LoginIPWindow),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(h)
	}
	return h, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/auth/login", h.handleLogin)
	mux.HandleFunc("/auth/logout", h.handleLogout)
	mux.HandleFunc("/me", h.handleMe)
}

// Resume binds a carrier to every request and, when the client has no live
// session but presents a remember secret, silently re-establishes one.
// Store failures are logged and the request continues unauthenticated.
func (h *Handler) Resume(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := newCookieCarrier(w, r, h.cfg, h.codec, h.now)
		ctx := withCarrier(r.Context(), c)

		if _, _, err := h.auth.ResumeFromToken(ctx, c); err != nil {
			h.log.WarnContext(ctx, "auth.resume.fail", "err", err)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ---- handlers ----

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ip := clientIP(r)
	slot, wait, ok := h.throttle.reserve(ip, h.now())
	if !ok {
		h.log.WarnContext(r.Context(), "auth.login.throttled", "ip", ip)
		writeRateLimited(w, wait)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		h.throttle.release(ip, slot)
		writeDecodeError(w, err)
		return
	}

	c := h.carrier(w, r)
	s, err := h.auth.Login(r.Context(), c, req.Email, req.Password, req.RememberMe)
	if !errors.Is(err, session.ErrInvalidCredentials) {
		h.throttle.release(ip, slot)
	}
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Account:  toAccountResponse(s),
		Via:      s.Via.String(),
		Remember: req.RememberMe,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	h.auth.Logout(r.Context(), h.carrier(w, r))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	s, ok := h.auth.CurrentIdentity(h.carrier(w, r))
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
		return
	}

	writeJSON(w, http.StatusOK, meResponse{
		Account:       toAccountResponse(s),
		Via:           s.Via.String(),
		EstablishedAt: s.EstablishedAt,
	})
}

// carrier returns the request's bound carrier, or a fresh one when the
// handler is mounted without Resume.
func (h *Handler) carrier(w http.ResponseWriter, r *http.Request) session.Carrier {
	if c, ok := CarrierFrom(r.Context()); ok {
		return c
	}
	return newCookieCarrier(w, r, h.cfg, h.codec, h.now)
}

// writeAuthError maps the session error taxonomy onto HTTP.
// Messages are fixed strings; causes go to the log only.
func (h *Handler) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	var ve session.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, "invalid_request", ve.Field+" "+ve.Reason)
	case errors.Is(err, session.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
	case errors.Is(err, session.ErrStoreUnavailable):
		w.Header().Set("Retry-After", strconv.FormatInt(int64(h.retryAfter.Seconds()), 10))
		writeError(w, http.StatusServiceUnavailable, "store_unavailable", "please retry later")
	default:
		h.log.ErrorContext(r.Context(), "auth.login.fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}
