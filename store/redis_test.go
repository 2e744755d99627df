package store

import (
	"context"
	"crypto/sha256"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goAccount "github.com/MrEthical07/goAccount"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) *Redis {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedis(client)
}

func createTestAccount(t *testing.T, s *Redis, email string) *goAccount.Account {
	t.Helper()
	account, err := s.Create(context.Background(), goAccount.CreateAccountInput{
		Email:        email,
		Name:         "Test User",
		PasswordHash: "$argon2id$stub",
		Status:       goAccount.AccountActive,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return account
}

func TestCreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := createTestAccount(t, s, "a@example.com")

	byID, err := s.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if byID.Email != "a@example.com" || byID.Name != "Test User" {
		t.Fatalf("unexpected account: %+v", byID)
	}
	if byID.Status != goAccount.AccountActive {
		t.Fatalf("expected active status, got %v", byID.Status)
	}

	byEmail, err := s.GetByEmail(ctx, "a@example.com")
	if err != nil {
		t.Fatalf("GetByEmail: %v", err)
	}
	if byEmail.ID != created.ID {
		t.Fatalf("email index resolved wrong account")
	}
}

func TestCreateDuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	createTestAccount(t, s, "dup@example.com")

	_, err := s.Create(context.Background(), goAccount.CreateAccountInput{
		Email:        "dup@example.com",
		Name:         "Other",
		PasswordHash: "$argon2id$stub",
		Status:       goAccount.AccountActive,
	})
	if !errors.Is(err, goAccount.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestGetMissing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.GetByID(ctx, "nope"); !errors.Is(err, goAccount.ErrAccountNotFound) {
		t.Fatalf("GetByID missing: %v", err)
	}
	if _, err := s.GetByEmail(ctx, "nobody@example.com"); !errors.Is(err, goAccount.ErrAccountNotFound) {
		t.Fatalf("GetByEmail missing: %v", err)
	}
}

func TestSetVerified(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	account := createTestAccount(t, s, "v@example.com")

	at := time.Now().UTC().Truncate(time.Second)
	if err := s.SetVerified(ctx, account.ID, at); err != nil {
		t.Fatalf("SetVerified: %v", err)
	}

	got, err := s.GetByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !got.Verified() {
		t.Fatal("expected verified account")
	}
	if !got.VerifiedAt.Equal(at) {
		t.Fatalf("verified_at mismatch: got %v want %v", got.VerifiedAt, at)
	}
}

func TestSwapRefreshDigest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	account := createTestAccount(t, s, "swap@example.com")

	first := sha256.Sum256([]byte("first"))
	second := sha256.Sum256([]byte("second"))
	var zero [32]byte

	if err := s.SetRefreshDigest(ctx, account.ID, first); err != nil {
		t.Fatalf("SetRefreshDigest: %v", err)
	}

	if err := s.SwapRefreshDigest(ctx, account.ID, first, second); err != nil {
		t.Fatalf("SwapRefreshDigest: %v", err)
	}

	// The previous digest is no longer installed, so a replay must fail.
	if err := s.SwapRefreshDigest(ctx, account.ID, first, second); !errors.Is(err, goAccount.ErrDigestMismatch) {
		t.Fatalf("expected ErrDigestMismatch, got %v", err)
	}

	if err := s.SwapRefreshDigest(ctx, "missing", zero, second); !errors.Is(err, goAccount.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestClearRefreshDigest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	account := createTestAccount(t, s, "clear@example.com")

	digest := sha256.Sum256([]byte("token"))
	if err := s.SetRefreshDigest(ctx, account.ID, digest); err != nil {
		t.Fatalf("SetRefreshDigest: %v", err)
	}
	if err := s.ClearRefreshDigest(ctx, account.ID); err != nil {
		t.Fatalf("ClearRefreshDigest: %v", err)
	}

	got, err := s.GetByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	var zero [32]byte
	if got.RefreshDigest != zero {
		t.Fatal("expected cleared refresh digest")
	}
}

func TestRecoveryOTPRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	account := createTestAccount(t, s, "otp@example.com")

	hash := sha256.Sum256([]byte("123456"))
	expires := time.Now().Add(time.Hour).Unix()

	if err := s.SetRecoveryOTP(ctx, account.ID, hash, expires); err != nil {
		t.Fatalf("SetRecoveryOTP: %v", err)
	}

	got, err := s.GetByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.RecoveryOTPHash != hash {
		t.Fatal("otp hash mismatch")
	}
	if got.RecoveryOTPExpiresAt != expires {
		t.Fatalf("otp expiry mismatch: got %d want %d", got.RecoveryOTPExpiresAt, expires)
	}

	if err := s.ClearRecoveryOTP(ctx, account.ID); err != nil {
		t.Fatalf("ClearRecoveryOTP: %v", err)
	}
	got, err = s.GetByID(ctx, account.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	var zero [32]byte
	if got.RecoveryOTPHash != zero || got.RecoveryOTPExpiresAt != 0 {
		t.Fatal("expected cleared recovery otp")
	}
}

func TestUpdateProfile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	account := createTestAccount(t, s, "old@example.com")

	name := "Renamed"
	email := "new@example.com"
	mobile := "+15550001111"

	updated, err := s.UpdateProfile(ctx, account.ID, goAccount.ProfileUpdate{
		Name:   &name,
		Email:  &email,
		Mobile: &mobile,
	})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.Name != name || updated.Email != email || updated.Mobile != mobile {
		t.Fatalf("unexpected profile: %+v", updated)
	}

	// Old address is released, new one resolves.
	if _, err := s.GetByEmail(ctx, "old@example.com"); !errors.Is(err, goAccount.ErrAccountNotFound) {
		t.Fatalf("old email still indexed: %v", err)
	}
	byEmail, err := s.GetByEmail(ctx, email)
	if err != nil {
		t.Fatalf("GetByEmail new: %v", err)
	}
	if byEmail.ID != account.ID {
		t.Fatal("new email resolved wrong account")
	}
}

func TestUpdateProfileEmailTaken(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	createTestAccount(t, s, "taken@example.com")
	account := createTestAccount(t, s, "mine@example.com")

	email := "taken@example.com"
	_, err := s.UpdateProfile(ctx, account.ID, goAccount.ProfileUpdate{Email: &email})
	if !errors.Is(err, goAccount.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestSetAvatarURL(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	account := createTestAccount(t, s, "avatar@example.com")

	updated, err := s.SetAvatarURL(ctx, account.ID, "https://cdn.example.com/a.png")
	if err != nil {
		t.Fatalf("SetAvatarURL: %v", err)
	}
	if updated.AvatarURL != "https://cdn.example.com/a.png" {
		t.Fatalf("avatar url mismatch: %q", updated.AvatarURL)
	}
}
