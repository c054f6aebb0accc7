package authgate

import (
	"errors"
	"time"
)

// Config carries every tunable of the engine, grouped by subsystem.
// Instances are supplied once to the [Builder] and treated as immutable
// afterwards.
type Config struct {
	JWT       JWTConfig
	Password  PasswordConfig
	Codes     CodeConfig
	RateLimit RateLimitConfig
	Blacklist BlacklistConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures the session-token issuer. SigningMethod is
// "hs256" or "ed25519".
type JWTConfig struct {
	AccessTTL     time.Duration
	SigningMethod string
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Leeway        time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig holds the Argon2id parameters. Memory is in KB.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

/*
====================================
VERIFICATION CODE CONFIG
====================================
*/

// CodeConfig governs one-time verification codes for activation and
// password reset. CodeTTL is capped at 15 minutes: codes are short-lived
// secrets and a longer window widens the brute-force budget.
type CodeConfig struct {
	CodeTTL        time.Duration
	Digits         int
	ResendInterval time.Duration
	MaxAttempts    int
}

/*
====================================
RATE LIMIT CONFIG
====================================
*/

// RateLimitConfig bounds failed logins per identity and, optionally, per
// client IP. Counters live in fixed windows of CooldownDuration.
type RateLimitConfig struct {
	MaxLoginAttempts int
	CooldownDuration time.Duration
	EnableIPThrottle bool
}

/*
====================================
BLACKLIST CONFIG
====================================
*/

// BlacklistConfig configures the revocation list key space.
type BlacklistConfig struct {
	RedisPrefix string
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig enables the asynchronous audit dispatcher. Events that do
// not fit in the buffer are counted as dropped, never blocked on.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig enables the in-process atomic counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the configuration the [Builder] starts from.
// Callers adjust the sections they care about and pass the result to
// [Builder.WithConfig].
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     2 * time.Hour,
			SigningMethod: "ed25519",
			Leeway:        30 * time.Second,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Codes: CodeConfig{
			CodeTTL:        10 * time.Minute,
			Digits:         6,
			ResendInterval: time.Minute,
			MaxAttempts:    5,
		},
		RateLimit: RateLimitConfig{
			MaxLoginAttempts: 5,
			CooldownDuration: 10 * time.Minute,
			EnableIPThrottle: false,
		},
		Blacklist: BlacklistConfig{
			RedisPrefix: "abl",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func validateConfig(cfg Config) error {
	if cfg.JWT.AccessTTL <= 0 {
		return errors.New("jwt access ttl must be positive")
	}
	if cfg.Codes.CodeTTL <= 0 || cfg.Codes.CodeTTL > 15*time.Minute {
		return errors.New("code ttl must be positive and at most 15 minutes")
	}
	if cfg.Codes.Digits < 6 || cfg.Codes.Digits > 10 {
		return errors.New("code digits must be between 6 and 10")
	}
	if cfg.Codes.ResendInterval <= 0 {
		return errors.New("code resend interval must be positive")
	}
	if cfg.Codes.MaxAttempts < 1 {
		return errors.New("code max attempts must be at least 1")
	}
	if cfg.RateLimit.MaxLoginAttempts < 1 {
		return errors.New("max login attempts must be at least 1")
	}
	if cfg.RateLimit.CooldownDuration <= 0 {
		return errors.New("login cooldown must be positive")
	}
	if cfg.Blacklist.RedisPrefix == "" {
		return errors.New("blacklist redis prefix must not be empty")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = append([]byte(nil), cfg.JWT.PrivateKey...)
	out.JWT.PublicKey = append([]byte(nil), cfg.JWT.PublicKey...)
	return out
}
