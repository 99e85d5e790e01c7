package session

import (
	"sync"
	"time"
)

// Carrier transports a Session to the caller and the remember secret back to
// the client. One Carrier is bound to one client context (an HTTP request).
type Carrier interface {
	// Establish records s as the client's session.
	Establish(s Session) error
	// CarrySecret hands the raw remember secret to the client for ttl.
	CarrySecret(raw string, ttl time.Duration) error
	// DropSecret empties the remember slot and keeps the session. It cannot fail.
	DropSecret()
	// Clear drops the session and the remember slot. It cannot fail.
	Clear()
	// ReadSecret returns the remember secret presented by the client, if any.
	ReadSecret() (string, bool)
	// Current returns the session already held by the client, if any.
	Current() (Session, bool)
}

// MemoryCarrier is a Carrier held entirely in memory. It backs tests and the
// CLI, where there is no transport to speak of.
type MemoryCarrier struct {
	mu        sync.Mutex
	session   *Session
	secret    string
	secretTTL time.Duration
}

var _ Carrier = (*MemoryCarrier)(nil)

// NewMemoryCarrier returns a carrier that presents secret (may be empty).
func NewMemoryCarrier(secret string) *MemoryCarrier {
	return &MemoryCarrier{secret: secret}
}

func (c *MemoryCarrier) Establish(s Session) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = &s
	return nil
}

func (c *MemoryCarrier) CarrySecret(raw string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.secret = raw
	c.secretTTL = ttl
	return nil
}

func (c *MemoryCarrier) DropSecret() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.secret = ""
	c.secretTTL = 0
}

func (c *MemoryCarrier) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = nil
	c.secret = ""
	c.secretTTL = 0
}

func (c *MemoryCarrier) ReadSecret() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.secret, c.secret != ""
}

func (c *MemoryCarrier) Current() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// SecretTTL returns the lifetime requested by the last CarrySecret.
func (c *MemoryCarrier) SecretTTL() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.secretTTL
}
