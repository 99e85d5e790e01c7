package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string // "json" (default) or "pretty"

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	DBMaxConnLifetime time.Duration
	DBConnectTimeout  time.Duration

	// DBAutoMigrate applies embedded migrations at startup.
	DBAutoMigrate bool

	// If true:
	// - /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool

	// Security policy:
	// If true, ESTATE_TOKEN_HMAC_KEY MUST be set (>= 32 bytes) and remember-token
	// fingerprints must be HMAC-based.
	RequireTokenHMAC bool

	// In-memory mode only: seeds one admin account at startup when both are set.
	DevAdminEmail    string
	DevAdminPassword string
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("ESTATE_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("ESTATE_LOG_LEVEL", "info"),
		LogFormat: EnvString("ESTATE_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("ESTATE_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("ESTATE_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("ESTATE_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("ESTATE_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("ESTATE_HTTP_MAX_HEADER_BYTES", 1<<20),

		DatabaseURL:   EnvString("ESTATE_DATABASE_URL", ""),
		DBMaxConns:    EnvInt32("ESTATE_DB_MAX_CONNS", 10),
		DBMinConns:    EnvInt32("ESTATE_DB_MIN_CONNS", 0),
		DBAutoMigrate: EnvBool("ESTATE_DB_AUTO_MIGRATE", false),

		DBMaxConnLifetime: EnvDuration("ESTATE_DB_MAX_CONN_LIFETIME", time.Hour),
		DBConnectTimeout:  EnvDuration("ESTATE_DB_CONNECT_TIMEOUT", 3*time.Second),

		ReadinessRequireDB: EnvBool("ESTATE_READINESS_REQUIRE_DB", false),

		RequireTokenHMAC: EnvBool("ESTATE_REQUIRE_TOKEN_HMAC", false),

		DevAdminEmail:    EnvString("ESTATE_DEV_ADMIN_EMAIL", ""),
		DevAdminPassword: EnvString("ESTATE_DEV_ADMIN_PASSWORD", ""),
	}
}
