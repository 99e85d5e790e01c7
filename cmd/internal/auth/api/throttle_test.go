package authapi

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoginThrottle_SlidingWindow(t *testing.T) {
	t.Parallel()

	th := newLoginThrottle(3, time.Minute)
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, _, ok := th.reserve("10.0.0.1", t0.Add(time.Duration(i)*10*time.Second))
		require.True(t, ok)
	}

	_, wait, ok := th.reserve("10.0.0.1", t0.Add(30*time.Second))
	require.False(t, ok)
	require.Equal(t, 30*time.Second, wait)

	_, _, ok = th.reserve("10.0.0.2", t0.Add(30*time.Second))
	require.True(t, ok, "other clients are unaffected")

	// The first attempt ages out exactly one window after it happened.
	_, _, ok = th.reserve("10.0.0.1", t0.Add(time.Minute))
	require.True(t, ok)
}

func TestLoginThrottle_ReleaseFreesSlot(t *testing.T) {
	t.Parallel()

	th := newLoginThrottle(1, time.Minute)
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	slot, _, ok := th.reserve("10.0.0.1", t0)
	require.True(t, ok)
	_, _, ok = th.reserve("10.0.0.1", t0.Add(time.Second))
	require.False(t, ok)

	th.release("10.0.0.1", slot)
	require.NotContains(t, th.clients, "10.0.0.1")
	_, _, ok = th.reserve("10.0.0.1", t0.Add(time.Second))
	require.True(t, ok)
}

func TestLoginThrottle_ConcurrentReservationsRespectLimit(t *testing.T) {
	t.Parallel()

	const limit, attempts = 5, 64
	th := newLoginThrottle(limit, time.Minute)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	var (
		wg       sync.WaitGroup
		admitted atomic.Int32
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, ok := th.reserve("10.0.0.1", now); ok {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, limit, admitted.Load())
}

func TestLoginThrottle_DisabledAndEmptyKey(t *testing.T) {
	t.Parallel()

	off := newLoginThrottle(0, time.Minute)
	require.Nil(t, off)
	slot, _, ok := off.reserve("10.0.0.1", time.Now())
	require.True(t, ok)
	off.release("10.0.0.1", slot)

	th := newLoginThrottle(1, time.Minute)
	for i := 0; i < 3; i++ {
		_, _, ok = th.reserve("", time.Now())
		require.True(t, ok)
	}
	require.Empty(t, th.clients)
}

func TestLoginThrottle_SweepsWhenFull(t *testing.T) {
	t.Parallel()

	th := newLoginThrottle(1, time.Minute)
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < maxTrackedClients; i++ {
		th.reserve("c"+strconv.Itoa(i), t0)
	}
	require.Len(t, th.clients, maxTrackedClients)

	_, _, ok := th.reserve("late", t0.Add(2*time.Minute))
	require.True(t, ok)
	require.Len(t, th.clients, 1)
	_, _, ok = th.reserve("late", t0.Add(2*time.Minute))
	require.False(t, ok)
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"192.0.2.1:1234":    "192.0.2.1",
		"[2001:db8::1]:443": "2001:db8::1",
		"unix":              "unix",
	}
	for in, want := range cases {
		r := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		r.RemoteAddr = in
		require.Equal(t, want, clientIP(r), in)
	}
}

func TestLogin_ThrottlesRepeatedFailures(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, nil)
	for i := 0; i < f.cfg.LoginIPMax; i++ {
		rr := f.do(t, http.MethodPost, "/auth/login", loginRequest{Email: "a@x.com", Password: "wrong-password"})
		require.Equal(t, http.StatusUnauthorized, rr.Code)
	}

	rr := f.do(t, http.MethodPost, "/auth/login", loginRequest{Email: "a@x.com", Password: "Secret123!"})
	require.Equal(t, http.StatusTooManyRequests, rr.Code)
	require.NotEmpty(t, rr.Header().Get("Retry-After"))
	require.Equal(t, "rate_limited", decodeError(t, rr).Code)
	require.Nil(t, cookieNamed(rr, f.cfg.SessionCookieName))
}

func TestLogin_SuccessDoesNotCountTowardsThrottle(t *testing.T) {
	t.Parallel()

	f := newAPIFixture(t, nil)
	for i := 0; i < f.cfg.LoginIPMax+2; i++ {
		rr := f.do(t, http.MethodPost, "/auth/login", loginRequest{Email: "a@x.com", Password: "Secret123!"})
		require.Equal(t, http.StatusOK, rr.Code, "attempt %d", i)
	}
}
