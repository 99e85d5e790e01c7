package password

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"
)

// Argon2idParams controls Argon2id hashing cost.
// MemoryKiB is in KiB as required by argon2.IDKey.
type Argon2idParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Policy applies to newly chosen passwords only. Verification of stored
// hashes never consults it, so tightening the policy locks nobody out.
type Policy struct {
	MinLength int
	MaxLength int
	// RejectVeryWeak enables the minimal blocklist and pattern check.
	RejectVeryWeak bool
}

// Config is the single configuration surface for this package.
type Config struct {
	Params Argon2idParams
	Policy Policy
}

// DefaultConfig returns a strong baseline suitable for interactive logins.
func DefaultConfig() Config {
	// Parallelism follows the CPU count, clamped to [1..4].
	threads := min(max(runtime.NumCPU(), 1), 4)

	return Config{
		Params: Argon2idParams{
			MemoryKiB:   64 * 1024, // 64 MiB
			Iterations:  3,
			Parallelism: uint8(threads), // #nosec G115 -- clamped to [1..4] above.
			SaltLength:  16,
			KeyLength:   32,
		},
		Policy: Policy{
			MinLength:      12,
			MaxLength:      256,
			RejectVeryWeak: false,
		},
	}
}

// envSetting binds one environment variable to a Config field.
type envSetting struct {
	key   string
	apply func(cfg *Config, raw string) error
}

var envSettings = []envSetting{
	{"ESTATE_PASSWORD_MIN_LEN", func(cfg *Config, raw string) (err error) {
		cfg.Policy.MinLength, err = parseIntRange(raw, 1, 1024)
		return err
	}},
	{"ESTATE_PASSWORD_MAX_LEN", func(cfg *Config, raw string) (err error) {
		cfg.Policy.MaxLength, err = parseIntRange(raw, 1, 4096)
		return err
	}},
	{"ESTATE_PASSWORD_REJECT_VERY_WEAK", func(cfg *Config, raw string) (err error) {
		cfg.Policy.RejectVeryWeak, err = parseBool(raw)
		return err
	}},
	{"ESTATE_ARGON2_MEMORY_KIB", func(cfg *Config, raw string) (err error) {
		cfg.Params.MemoryKiB, err = parseU32Range(raw, 8*1024, 1024*1024) // 8 MiB .. 1 GiB
		return err
	}},
	{"ESTATE_ARGON2_ITERATIONS", func(cfg *Config, raw string) (err error) {
		cfg.Params.Iterations, err = parseU32Range(raw, 1, 20)
		return err
	}},
	{"ESTATE_ARGON2_PARALLELISM", func(cfg *Config, raw string) error {
		u, err := parseU32Range(raw, 1, 64)
		if err != nil {
			return err
		}
		if u > math.MaxUint8 {
			return fmt.Errorf("out of range [0..%d]", math.MaxUint8)
		}
		cfg.Params.Parallelism = uint8(u)
		return nil
	}},
	{"ESTATE_ARGON2_SALT_LEN", func(cfg *Config, raw string) (err error) {
		cfg.Params.SaltLength, err = parseU32Range(raw, 8, 64)
		return err
	}},
	{"ESTATE_ARGON2_KEY_LEN", func(cfg *Config, raw string) (err error) {
		cfg.Params.KeyLength, err = parseU32Range(raw, 16, 64)
		return err
	}},
}

// FromEnv loads config from environment variables on top of DefaultConfig.
// A set but invalid variable is an error naming the variable.
//
// Env surface:
// - ESTATE_PASSWORD_MIN_LEN
// - ESTATE_PASSWORD_MAX_LEN
// - ESTATE_PASSWORD_REJECT_VERY_WEAK (true/false)
// - ESTATE_ARGON2_MEMORY_KIB
// - ESTATE_ARGON2_ITERATIONS
// - ESTATE_ARGON2_PARALLELISM
// - ESTATE_ARGON2_SALT_LEN
// - ESTATE_ARGON2_KEY_LEN
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	for _, s := range envSettings {
		raw, ok := os.LookupEnv(s.key)
		if !ok {
			continue
		}
		if err := s.apply(&cfg, strings.TrimSpace(raw)); err != nil {
			return Config{}, fmt.Errorf("%s: %w", s.key, err)
		}
	}

	if cfg.Policy.MinLength > cfg.Policy.MaxLength {
		return Config{}, fmt.Errorf(
			"password policy invalid: min_len(%d) > max_len(%d)",
			cfg.Policy.MinLength,
			cfg.Policy.MaxLength,
		)
	}

	return cfg, nil
}

func parseIntRange(s string, minVal, maxVal int) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not an integer")
	}
	if n < minVal || n > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return n, nil
}

func parseU32Range(s string, minVal, maxVal uint32) (uint32, error) {
	u64, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("not an unsigned integer")
	}
	u := uint32(u64)
	if u < minVal || u > maxVal {
		return 0, fmt.Errorf("out of range [%d..%d]", minVal, maxVal)
	}
	return u, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean")
	}
}
