package password

import (
	"strings"
	"testing"
)

func testHasher(t *testing.T) *Argon2 {
	t.Helper()
	h, err := NewArgon2(Config{
		Memory:      8 * 1024,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewArgon2: %v", err)
	}
	return h
}

func TestNewArgon2Validation(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
	}{
		{"memory", Config{Memory: 1024, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}},
		{"time", Config{Memory: 8192, Time: 0, Parallelism: 1, SaltLength: 16, KeyLength: 32}},
		{"parallelism", Config{Memory: 8192, Time: 1, Parallelism: 0, SaltLength: 16, KeyLength: 32}},
		{"salt", Config{Memory: 8192, Time: 1, Parallelism: 1, SaltLength: 8, KeyLength: 32}},
		{"key", Config{Memory: 8192, Time: 1, Parallelism: 1, SaltLength: 16, KeyLength: 8}},
	}
	for _, tc := range cases {
		if _, err := NewArgon2(tc.cfg); err == nil {
			t.Fatalf("%s: expected rejection", tc.name)
		}
	}
}

func TestHashAndVerify(t *testing.T) {
	h := testHasher(t)

	encoded, err := h.Hash("s3cret-password")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$") {
		t.Fatalf("unexpected hash prefix: %q", encoded)
	}
	if strings.Contains(encoded, "s3cret-password") {
		t.Fatal("plaintext leaked into encoded hash")
	}

	ok, err := h.Verify("s3cret-password", encoded)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("correct password rejected")
	}

	ok, err = h.Verify("wrong-password", encoded)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Fatal("wrong password accepted")
	}
}

func TestHashSaltsAreUnique(t *testing.T) {
	h := testHasher(t)

	first, err := h.Hash("same-input")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	second, err := h.Hash("same-input")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same password are identical")
	}
}

func TestHashRejectsEmptyPassword(t *testing.T) {
	h := testHasher(t)
	if _, err := h.Hash(""); err == nil {
		t.Fatal("expected rejection for empty password")
	}
}

func TestNeedsUpgrade(t *testing.T) {
	weak := testHasher(t)
	encoded, err := weak.Hash("upgrade-me")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	upgrade, err := weak.NeedsUpgrade(encoded)
	if err != nil {
		t.Fatalf("NeedsUpgrade: %v", err)
	}
	if upgrade {
		t.Fatal("hash at current parameters flagged for upgrade")
	}

	strong, err := NewArgon2(Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	})
	if err != nil {
		t.Fatalf("NewArgon2: %v", err)
	}

	upgrade, err = strong.NeedsUpgrade(encoded)
	if err != nil {
		t.Fatalf("NeedsUpgrade: %v", err)
	}
	if !upgrade {
		t.Fatal("weaker hash not flagged for upgrade")
	}

	// Old hashes still verify under the stronger policy because the
	// parameters are read back from the PHC string itself.
	ok, err := strong.Verify("upgrade-me", encoded)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Fatal("legacy hash no longer verifies")
	}
}

func TestParsePHCErrors(t *testing.T) {
	h := testHasher(t)
	valid, err := h.Hash("parse-me")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	parts := strings.Split(valid, "$")

	cases := []struct {
		name    string
		encoded string
	}{
		{"empty", ""},
		{"not phc", "plain-md5-style"},
		{"wrong algorithm", strings.Replace(valid, "argon2id", "bcrypt", 1)},
		{"bad version", strings.Replace(valid, "v=19", "v=12", 1)},
		{"missing sections", "$argon2id$v=19$m=8192,t=1,p=1"},
		{"bad params", "$argon2id$v=19$m=8192,t=1$" + parts[4] + "$" + parts[5]},
		{"tiny memory param", "$argon2id$v=19$m=64,t=1,p=1$" + parts[4] + "$" + parts[5]},
		{"bad salt encoding", "$argon2id$v=19$m=8192,t=1,p=1$!!!$" + parts[5]},
		{"bad hash encoding", "$argon2id$v=19$m=8192,t=1,p=1$" + parts[4] + "$!!!"},
	}

	for _, tc := range cases {
		if _, err := h.Verify("parse-me", tc.encoded); err == nil {
			t.Fatalf("%s: expected parse error", tc.name)
		}
		if _, err := h.NeedsUpgrade(tc.encoded); err == nil {
			t.Fatalf("%s: expected parse error from NeedsUpgrade", tc.name)
		}
	}
}
