package goAccount

import (
	"crypto/subtle"
	"errors"
	"os"
	"time"
)

// Config defines a public type used by goAccount APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	JWT          JWTConfig
	Password     PasswordConfig
	Verification VerificationConfig
	Recovery     RecoveryConfig
	Audit        AuditConfig
	Metrics      MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig defines a public type used by goAccount APIs.
//
// Access and refresh tokens are signed with separate HS256 secrets so a
// leaked access secret can never mint refresh tokens.
type JWTConfig struct {
	AccessSecret  []byte
	RefreshSecret []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig defines a public type used by goAccount APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Memory         uint32 // in KB
	Time           uint32
	Parallelism    uint8
	SaltLength     uint32
	KeyLength      uint32
	UpgradeOnLogin bool
}

// VerificationConfig defines a public type used by goAccount APIs.
//
// VerificationConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type VerificationConfig struct {
	Enabled         bool
	TicketTTL       time.Duration
	MaxAttempts     int
	RequireForLogin bool

	// BaseURL is the frontend location prepended to verification links,
	// e.g. "https://example.com". The token is appended as ?code=<token>.
	BaseURL string
}

// RecoveryConfig defines a public type used by goAccount APIs.
//
// RecoveryConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RecoveryConfig struct {
	Enabled     bool
	OTPDigits   int
	OTPTTL      time.Duration
	TicketTTL   time.Duration
	MaxAttempts int
}

// AuditConfig defines a public type used by goAccount APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig defines a public type used by goAccount APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  5 * time.Hour,
			RefreshTTL: 30 * 24 * time.Hour,
		},
		Password: PasswordConfig{
			Memory:         65536,
			Time:           3,
			Parallelism:    2,
			SaltLength:     16,
			KeyLength:      32,
			UpgradeOnLogin: true,
		},
		Verification: VerificationConfig{
			Enabled:         true,
			TicketTTL:       15 * time.Minute,
			MaxAttempts:     5,
			RequireForLogin: false,
		},
		Recovery: RecoveryConfig{
			Enabled:     true,
			OTPDigits:   6,
			OTPTTL:      60 * time.Minute,
			TicketTTL:   10 * time.Minute,
			MaxAttempts: 5,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 false,
			EnableLatencyHistograms: false,
		},
	}
}

// ConfigFromEnv returns the default configuration with JWT secrets and the
// verification base URL read from the environment variables
// SECRET_KEY_ACCESS_TOKEN, SECRET_KEY_REFRESH_TOKEN, and FRONTEND_URL.
func ConfigFromEnv() Config {
	cfg := defaultConfig()
	cfg.JWT.AccessSecret = []byte(os.Getenv("SECRET_KEY_ACCESS_TOKEN"))
	cfg.JWT.RefreshSecret = []byte(os.Getenv("SECRET_KEY_REFRESH_TOKEN"))
	cfg.Verification.BaseURL = os.Getenv("FRONTEND_URL")
	return cfg
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.AccessSecret = cloneBytes(cfg.JWT.AccessSecret)
	out.JWT.RefreshSecret = cloneBytes(cfg.JWT.RefreshSecret)
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	// JWT
	if len(c.JWT.AccessSecret) == 0 {
		return errors.New("JWT AccessSecret is required")
	}
	if len(c.JWT.RefreshSecret) == 0 {
		return errors.New("JWT RefreshSecret is required")
	}
	if len(c.JWT.AccessSecret) == len(c.JWT.RefreshSecret) &&
		subtle.ConstantTimeCompare(c.JWT.AccessSecret, c.JWT.RefreshSecret) == 1 {
		return errors.New("JWT AccessSecret and RefreshSecret must differ")
	}
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be > AccessTTL")
	}

	// Password
	if c.Password.Memory < 8*1024 {
		return errors.New("Password Memory must be >= 8192 KB")
	}
	if c.Password.Time < 1 {
		return errors.New("Password Time must be >= 1")
	}
	if c.Password.Parallelism < 1 {
		return errors.New("Password Parallelism must be >= 1")
	}
	if c.Password.SaltLength < 16 {
		return errors.New("Password SaltLength must be >= 16")
	}
	if c.Password.KeyLength < 16 {
		return errors.New("Password KeyLength must be >= 16")
	}

	// Email verification
	if c.Verification.Enabled {
		if c.Verification.TicketTTL <= 0 {
			return errors.New("Verification TicketTTL must be > 0")
		}
		if c.Verification.MaxAttempts <= 0 {
			return errors.New("Verification MaxAttempts must be > 0")
		}
	}
	if c.Verification.RequireForLogin && !c.Verification.Enabled {
		return errors.New("Verification RequireForLogin requires Verification Enabled")
	}

	// Recovery
	if c.Recovery.Enabled {
		if c.Recovery.OTPDigits < 4 || c.Recovery.OTPDigits > 10 {
			return errors.New("Recovery OTPDigits must be between 4 and 10")
		}
		if c.Recovery.OTPTTL <= 0 {
			return errors.New("Recovery OTPTTL must be > 0")
		}
		if c.Recovery.TicketTTL <= 0 {
			return errors.New("Recovery TicketTTL must be > 0")
		}
		if c.Recovery.MaxAttempts <= 0 {
			return errors.New("Recovery MaxAttempts must be > 0")
		}
	}

	// Audit
	if c.Audit.Enabled {
		if c.Audit.BufferSize <= 0 {
			return errors.New("Audit BufferSize must be > 0 when audit is enabled")
		}
	}

	return nil
}
