package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"estate/cmd/internal/auth/session"
)

const testAdminPassword = "correct horse battery"

func setTestEnv(t *testing.T) {
	t.Helper()

	t.Setenv("ESTATE_SESSION_KEY_HEX", session.NewSessionKeyHex())
	t.Setenv("ESTATE_TOKEN_HMAC_KEY", strings.Repeat("k", 32))
	t.Setenv("ESTATE_ARGON2_MEMORY_KIB", "8192")
	t.Setenv("ESTATE_ARGON2_ITERATIONS", "1")
	t.Setenv("ESTATE_ARGON2_PARALLELISM", "1")
}

func newTestApp(t *testing.T, cfg Config) *App {
	t.Helper()

	a, err := New(context.Background(), cfg, newLogger(io.Discard, "error", "json", false))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.store.Close(context.Background()) })
	return a
}

func TestNew_RequiresSessionKey(t *testing.T) {
	setTestEnv(t)
	t.Setenv("ESTATE_SESSION_KEY_HEX", "")

	if _, err := New(context.Background(), Config{}, newLogger(io.Discard, "error", "json", false)); err == nil {
		t.Fatalf("expected error without session key")
	}
}

func TestApp_HealthAndReadiness(t *testing.T) {
	setTestEnv(t)
	a := newTestApp(t, Config{})

	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	res, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	body, _ := io.ReadAll(res.Body)
	_ = res.Body.Close()
	if res.StatusCode != http.StatusOK || string(body) != "ok\n" {
		t.Fatalf("healthz=%d %q", res.StatusCode, body)
	}
	if res.Header.Get("X-Request-ID") == "" {
		t.Fatalf("missing X-Request-ID")
	}
	if res.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing security headers")
	}

	res, err = http.Get(srv.URL + "/readyz")
	if err != nil {
		t.Fatalf("GET /readyz: %v", err)
	}
	_ = res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("readyz without db=%d", res.StatusCode)
	}

	a.cfg.ReadinessRequireDB = true
	strict := httptest.NewServer(a.Handler())
	defer strict.Close()

	res, err = http.Get(strict.URL + "/readyz")
	if err != nil {
		t.Fatalf("GET /readyz: %v", err)
	}
	_ = res.Body.Close()
	if res.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("readyz requiring db=%d want 503", res.StatusCode)
	}
}

func TestApp_DevAdminLoginAndMetrics(t *testing.T) {
	setTestEnv(t)
	a := newTestApp(t, Config{
		DevAdminEmail:    "admin@estate.test",
		DevAdminPassword: testAdminPassword,
	})

	srv := httptest.NewServer(a.Handler())
	defer srv.Close()

	body := `{"email":"Admin@Estate.test","password":"` + testAdminPassword + `","remember_me":true}`
	res, err := http.Post(srv.URL+"/auth/login", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /auth/login: %v", err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("login=%d", res.StatusCode)
	}

	var out struct {
		Account struct {
			Role string `json:"role"`
		} `json:"account"`
		Via string `json:"via"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Account.Role != "admin" || out.Via != "credential" {
		t.Fatalf("unexpected login response: %+v", out)
	}

	// Secure cookies are not replayed by a jar over plain http; copy them by hand.
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/me", nil)
	for _, c := range res.Cookies() {
		req.AddCookie(&http.Cookie{Name: c.Name, Value: c.Value})
	}
	me, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /me: %v", err)
	}
	_ = me.Body.Close()
	if me.StatusCode != http.StatusOK {
		t.Fatalf("/me=%d", me.StatusCode)
	}

	mres, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	metrics, _ := io.ReadAll(mres.Body)
	_ = mres.Body.Close()
	if !strings.Contains(string(metrics), `estate_auth_logins_total{result="success"} 1`) {
		t.Fatalf("login counter missing from /metrics")
	}
}

func TestApp_DevAdminRejectsPolicyViolation(t *testing.T) {
	setTestEnv(t)

	_, err := New(context.Background(), Config{
		DevAdminEmail:    "admin@estate.test",
		DevAdminPassword: "short",
	}, newLogger(io.Discard, "error", "json", false))
	if err == nil || !strings.Contains(err.Error(), "dev admin") {
		t.Fatalf("expected dev admin error, got %v", err)
	}
}

func TestValidateSecurityConfig(t *testing.T) {
	cfg := Config{RequireTokenHMAC: true}

	t.Setenv("ESTATE_TOKEN_HMAC_KEY", "")
	if err := ValidateSecurityConfig(cfg); err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("missing key: %v", err)
	}

	t.Setenv("ESTATE_TOKEN_HMAC_KEY", "short")
	if err := ValidateSecurityConfig(cfg); err == nil || !strings.Contains(err.Error(), "too short") {
		t.Fatalf("short key: %v", err)
	}

	t.Setenv("ESTATE_TOKEN_HMAC_KEY", strings.Repeat("s", 32))
	if err := ValidateSecurityConfig(cfg); err != nil {
		t.Fatalf("valid key: %v", err)
	}

	t.Setenv("ESTATE_TOKEN_HMAC_KEY", "")
	if err := ValidateSecurityConfig(Config{}); err != nil {
		t.Fatalf("policy off: %v", err)
	}
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("ESTATE_HTTP_ADDR", "127.0.0.1:9999")
	t.Setenv("ESTATE_LOG_FORMAT", "pretty")
	t.Setenv("ESTATE_DB_MAX_CONNS", "-3")
	t.Setenv("ESTATE_DB_AUTO_MIGRATE", "true")

	cfg := LoadConfig()
	if cfg.HTTPAddr != "127.0.0.1:9999" || cfg.LogFormat != "pretty" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
	if cfg.DBMaxConns != 10 {
		t.Fatalf("negative max conns should fall back, got %d", cfg.DBMaxConns)
	}
	if !cfg.DBAutoMigrate {
		t.Fatalf("auto migrate not read")
	}
}
