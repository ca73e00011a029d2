package roleauth

import (
	"errors"
	"time"
)

// Config defines a public type used by roleauth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Session SessionConfig
	Login   LoginConfig
	Audit   AuditConfig
	Metrics MetricsConfig
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the persisted session record.
type SessionConfig struct {
	// RedisPrefix namespaces the single session key. Default "ras".
	RedisPrefix string

	// SigningKey feeds the record codec; at least 32 bytes. Required when
	// Build wires the Redis-backed store.
	SigningKey []byte

	// RecordTTL bounds how long a saved record survives without a new
	// Save. 0 keeps the record until logout.
	RecordTTL time.Duration
}

/*
====================================
LOGIN CONFIG
====================================
*/

// LoginConfig controls the credential check against the identity provider.
type LoginConfig struct {
	// VerifyTimeout bounds a single IdentityProvider.Verify call. The
	// credential check is the only operation expected to suspend for
	// non-trivial latency; on expiry the machine fails the login with a
	// timeout message instead of hanging. 0 disables the deadline.
	VerifyTimeout time.Duration
}

// AuditConfig defines a public type used by roleauth APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by roleauth APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

// DefaultConfig returns the baseline configuration: a 10s credential-check
// deadline, no record expiry, metrics on, audit off.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Session: SessionConfig{
			RedisPrefix: "ras",
			RecordTTL:   0,
		},
		Login: LoginConfig{
			VerifyTimeout: 10 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks the configuration for internally inconsistent values.
// The signing key length is enforced separately by the session codec when
// the Redis-backed store is wired.
func (c Config) Validate() error {
	if c.Session.RecordTTL < 0 {
		return errors.New("session record TTL must not be negative")
	}
	if c.Login.VerifyTimeout < 0 {
		return errors.New("login verify timeout must not be negative")
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("audit buffer size must not be negative")
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Session.SigningKey = cloneBytes(cfg.Session.SigningKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
