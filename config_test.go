package goAccount

import (
	"testing"
	"time"
)

func TestConfigValidateSecrets(t *testing.T) {
	cfg := testConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	missing := testConfig()
	missing.JWT.AccessSecret = nil
	if err := missing.Validate(); err == nil {
		t.Fatal("expected rejection for missing access secret")
	}

	missing = testConfig()
	missing.JWT.RefreshSecret = nil
	if err := missing.Validate(); err == nil {
		t.Fatal("expected rejection for missing refresh secret")
	}

	// Shared secrets collapse the access/refresh trust boundary.
	shared := testConfig()
	shared.JWT.AccessSecret = []byte("same-secret-value")
	shared.JWT.RefreshSecret = []byte("same-secret-value")
	if err := shared.Validate(); err == nil {
		t.Fatal("expected rejection for equal secrets")
	}
}

func TestConfigValidateTTLs(t *testing.T) {
	cfg := testConfig()
	cfg.JWT.AccessTTL = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected rejection for zero access TTL")
	}

	cfg = testConfig()
	cfg.JWT.RefreshTTL = cfg.JWT.AccessTTL
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected rejection when refresh TTL does not exceed access TTL")
	}
}

func TestConfigValidateSections(t *testing.T) {
	cfg := testConfig()
	cfg.Password.Memory = 1024
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected rejection for tiny argon2 memory")
	}

	cfg = testConfig()
	cfg.Verification.Enabled = true
	cfg.Verification.MaxAttempts = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected rejection for zero verification attempts")
	}

	cfg = testConfig()
	cfg.Verification.Enabled = false
	cfg.Verification.RequireForLogin = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected rejection for login gate without verification")
	}

	cfg = testConfig()
	cfg.Recovery.OTPDigits = 3
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected rejection for short OTP")
	}

	cfg = testConfig()
	cfg.Audit.Enabled = true
	cfg.Audit.BufferSize = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected rejection for zero audit buffer")
	}
}

func TestDefaultConfigTTLs(t *testing.T) {
	cfg := defaultConfig()
	if cfg.JWT.AccessTTL != 5*time.Hour {
		t.Fatalf("unexpected access TTL %v", cfg.JWT.AccessTTL)
	}
	if cfg.JWT.RefreshTTL != 30*24*time.Hour {
		t.Fatalf("unexpected refresh TTL %v", cfg.JWT.RefreshTTL)
	}
	if cfg.Recovery.OTPTTL != 60*time.Minute {
		t.Fatalf("unexpected OTP TTL %v", cfg.Recovery.OTPTTL)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("SECRET_KEY_ACCESS_TOKEN", "env-access")
	t.Setenv("SECRET_KEY_REFRESH_TOKEN", "env-refresh")
	t.Setenv("FRONTEND_URL", "https://app.example.com")

	cfg := ConfigFromEnv()
	if string(cfg.JWT.AccessSecret) != "env-access" {
		t.Fatalf("unexpected access secret %q", cfg.JWT.AccessSecret)
	}
	if string(cfg.JWT.RefreshSecret) != "env-refresh" {
		t.Fatalf("unexpected refresh secret %q", cfg.JWT.RefreshSecret)
	}
	if cfg.Verification.BaseURL != "https://app.example.com" {
		t.Fatalf("unexpected base url %q", cfg.Verification.BaseURL)
	}
}

func TestCloneConfigDetachesSecrets(t *testing.T) {
	cfg := testConfig()
	clone := cloneConfig(cfg)
	clone.JWT.AccessSecret[0] ^= 0xFF
	if cfg.JWT.AccessSecret[0] == clone.JWT.AccessSecret[0] {
		t.Fatal("clone must not alias the original secret")
	}
}

func TestBuilderSingleUse(t *testing.T) {
	_, rdb := newTestRedis(t)
	b := New().
		WithConfig(testConfig()).
		WithRedis(rdb).
		WithStore(newMockAccountStore())

	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	if _, err := b.Build(); err == nil {
		t.Fatal("expected second Build to fail")
	}
}

func TestBuilderRequiresStoreAndRedis(t *testing.T) {
	if _, err := New().WithConfig(testConfig()).Build(); err == nil {
		t.Fatal("expected failure without account store")
	}

	// Redis is mandatory while verification or recovery is on.
	if _, err := New().WithConfig(testConfig()).WithStore(newMockAccountStore()).Build(); err == nil {
		t.Fatal("expected failure without redis")
	}

	// With both challenge flows off, redis becomes optional.
	cfg := testConfig()
	cfg.Verification.Enabled = false
	cfg.Recovery.Enabled = false
	engine, err := New().WithConfig(cfg).WithStore(newMockAccountStore()).Build()
	if err != nil {
		t.Fatalf("Build without redis: %v", err)
	}
	engine.Close()
}
