package authapi

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// maxTrackedClients bounds the failure table; stale entries are swept first.
const maxTrackedClients = 10000

// loginThrottle is a per-client sliding window over failed logins. Attempts
// are reserved up front and released unless they fail on credentials.
// It keys on the client address only, so it never reveals whether an email exists.
type loginThrottle struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	clients map[string][]time.Time
}

func newLoginThrottle(limit int, window time.Duration) *loginThrottle {
	if limit <= 0 || window <= 0 {
		return nil
	}
	return &loginThrottle{
		limit:   limit,
		window:  window,
		clients: make(map[string][]time.Time),
	}
}

// reserve counts an attempt for key before credentials are checked. Check and
// record happen under one lock, so concurrent attempts cannot overrun the
// limit. When key is over its limit it returns how long until the oldest
// attempt ages out. The returned slot is handed back to release.
func (t *loginThrottle) reserve(key string, now time.Time) (slot time.Time, wait time.Duration, ok bool) {
	if t == nil || key == "" {
		return time.Time{}, 0, true
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	events := t.prune(key, now)
	if len(events) >= t.limit {
		return time.Time{}, events[0].Add(t.window).Sub(now), false
	}
	if len(events) == 0 && len(t.clients) >= maxTrackedClients {
		t.sweep(now)
		if len(t.clients) >= maxTrackedClients {
			return time.Time{}, 0, true
		}
	}
	t.clients[key] = append(events, now)
	return now, 0, true
}

// release drops a reserved attempt that did not end in a credential failure.
func (t *loginThrottle) release(key string, slot time.Time) {
	if t == nil || key == "" || slot.IsZero() {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	events := t.clients[key]
	for i, e := range events {
		if e.Equal(slot) {
			events = append(events[:i], events[i+1:]...)
			break
		}
	}
	if len(events) == 0 {
		delete(t.clients, key)
		return
	}
	t.clients[key] = events
}

// prune drops events at or before now-window. Callers hold mu.
func (t *loginThrottle) prune(key string, now time.Time) []time.Time {
	events := t.clients[key]
	cut := now.Add(-t.window)
	dst := events[:0]
	for _, e := range events {
		if e.After(cut) {
			dst = append(dst, e)
		}
	}
	if len(dst) == 0 {
		delete(t.clients, key)
		return nil
	}
	t.clients[key] = dst
	return dst
}

func (t *loginThrottle) sweep(now time.Time) {
	for key := range t.clients {
		t.prune(key, now)
	}
}

// clientIP returns the host part of RemoteAddr. Forwarding headers are ignored;
// a trusted proxy should rewrite RemoteAddr instead.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err != nil {
		host = strings.TrimSpace(r.RemoteAddr)
	}
	if ip := net.ParseIP(host); ip != nil {
		return ip.String()
	}
	return host
}

func writeRateLimited(w http.ResponseWriter, retryAfter time.Duration) {
	if retryAfter > 0 {
		secs := int64((retryAfter + time.Second - 1) / time.Second)
		w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
	}
	writeError(w, http.StatusTooManyRequests, "rate_limited", "too many attempts")
}
