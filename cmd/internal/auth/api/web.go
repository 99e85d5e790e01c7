package authapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"estate/cmd/internal/auth/session"
)

// cookieCarrier is a session.Carrier over one HTTP exchange.
//
// The session record travels in an encrypted cookie (session.Codec). The
// remember secret travels in its own HttpOnly cookie and is never echoed in
// response bodies. Writes must happen before the response header is sent.
type cookieCarrier struct {
	w     http.ResponseWriter
	r     *http.Request
	cfg   Config
	codec *session.Codec
	now   func() time.Time

	decoded bool
	current *session.Session
	cleared bool
	dropped bool
	secret  string
}

var _ session.Carrier = (*cookieCarrier)(nil)

func newCookieCarrier(w http.ResponseWriter, r *http.Request, cfg Config, codec *session.Codec, now func() time.Time) *cookieCarrier {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &cookieCarrier{w: w, r: r, cfg: cfg, codec: codec, now: now}
}

func (c *cookieCarrier) Establish(s session.Session) error {
	raw, exp, err := c.codec.Encode(s)
	if err != nil {
		return err
	}
	c.setCookie(c.cfg.SessionCookieName, raw, exp)
	c.current = &s
	c.decoded = true
	c.cleared = false
	return nil
}

func (c *cookieCarrier) CarrySecret(raw string, ttl time.Duration) error {
	c.setCookie(c.cfg.RememberCookieName, raw, c.now().Add(ttl))
	c.secret = raw
	c.cleared = false
	c.dropped = false
	return nil
}

func (c *cookieCarrier) DropSecret() {
	if _, presented := c.cookieValue(c.cfg.RememberCookieName); presented || c.secret != "" {
		c.expireCookie(c.cfg.RememberCookieName)
	}
	c.secret = ""
	c.dropped = true
}

func (c *cookieCarrier) Clear() {
	c.expireCookie(c.cfg.SessionCookieName)
	c.expireCookie(c.cfg.RememberCookieName)
	c.current = nil
	c.decoded = true
	c.secret = ""
	c.cleared = true
}

func (c *cookieCarrier) ReadSecret() (string, bool) {
	if c.cleared || c.dropped {
		return "", false
	}
	if c.secret != "" {
		return c.secret, true
	}
	return c.cookieValue(c.cfg.RememberCookieName)
}

func (c *cookieCarrier) Current() (session.Session, bool) {
	if !c.decoded {
		c.decoded = true
		if raw, ok := c.cookieValue(c.cfg.SessionCookieName); ok {
			if s, err := c.codec.Decode(raw, c.now()); err == nil {
				c.current = &s
			}
		}
	}
	if c.current == nil {
		return session.Session{}, false
	}
	return *c.current, true
}

func (c *cookieCarrier) cookieValue(name string) (string, bool) {
	if c.r == nil {
		return "", false
	}
	ck, err := c.r.Cookie(name)
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(ck.Value)
	if v == "" {
		return "", false
	}
	return v, true
}

func (c *cookieCarrier) setCookie(name, value string, exp time.Time) {
	if c.w == nil {
		return
	}
	http.SetCookie(c.w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     c.cfg.CookiePath,
		Domain:   c.cfg.CookieDomain,
		Expires:  exp,
		HttpOnly: true,
		Secure:   c.cfg.CookieSecure,
		SameSite: c.cfg.CookieSameSite,
	})
}

func (c *cookieCarrier) expireCookie(name string) {
	if c.w == nil || strings.TrimSpace(name) == "" {
		return
	}
	http.SetCookie(c.w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     c.cfg.CookiePath,
		Domain:   c.cfg.CookieDomain,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.cfg.CookieSecure,
		SameSite: c.cfg.CookieSameSite,
	})
}

type carrierKey struct{}

func withCarrier(ctx context.Context, c session.Carrier) context.Context {
	return context.WithValue(ctx, carrierKey{}, c)
}

// CarrierFrom returns the carrier the resume middleware bound to ctx.
func CarrierFrom(ctx context.Context) (session.Carrier, bool) {
	c, ok := ctx.Value(carrierKey{}).(session.Carrier)
	return c, ok && c != nil
}

// CurrentSession returns the authenticated session for r, if any.
// It never touches a store.
func CurrentSession(r *http.Request) (session.Session, bool) {
	if r == nil {
		return session.Session{}, false
	}
	c, ok := CarrierFrom(r.Context())
	if !ok {
		return session.Session{}, false
	}
	return c.Current()
}
