package goAccount

import (
	"context"
	"io"
	"time"
)

// AccountStatus represents the lifecycle state of an account.
type AccountStatus uint8

const (
	// AccountActive is an exported constant or variable used by the account engine.
	AccountActive AccountStatus = iota
	// AccountInactive is an exported constant or variable used by the account engine.
	AccountInactive
	// AccountSuspended is an exported constant or variable used by the account engine.
	AccountSuspended
)

// String describes the string operation and its observable behavior.
//
// String does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s AccountStatus) String() string {
	switch s {
	case AccountActive:
		return "active"
	case AccountInactive:
		return "inactive"
	case AccountSuspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// Account is the full account record exchanged with [AccountStore].
// Credential and challenge material is carried as digests only; the engine
// never asks the store to persist a plaintext password, refresh token, or OTP.
type Account struct {
	ID           string
	Email        string
	Name         string
	Mobile       string
	PasswordHash string
	AvatarURL    string
	Status       AccountStatus
	VerifiedAt   time.Time

	// RefreshDigest is the SHA-256 digest of the currently valid refresh
	// token. The zero value means no refresh token is outstanding.
	RefreshDigest [32]byte

	// RecoveryOTPHash and RecoveryOTPExpiresAt are set and cleared together.
	// A zero RecoveryOTPExpiresAt means no recovery challenge is pending.
	RecoveryOTPHash      [32]byte
	RecoveryOTPExpiresAt int64

	LastLogin time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Verified reports whether the account completed email verification.
func (a *Account) Verified() bool {
	return !a.VerifiedAt.IsZero()
}

// CreateAccountInput is the input for [AccountStore.Create].
type CreateAccountInput struct {
	Email        string
	Name         string
	PasswordHash string
	Status       AccountStatus
}

// ProfileUpdate carries the mutable profile fields for
// [AccountStore.UpdateProfile]. Nil fields are left unchanged.
type ProfileUpdate struct {
	Name         *string
	Email        *string
	Mobile       *string
	PasswordHash *string
}

// AccountStore is the primary interface that callers must implement to
// integrate goAccount with their account database. It covers credential
// lookup, account creation, profile updates, refresh digest tracking, and
// recovery OTP storage.
type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (*Account, error)
	GetByID(ctx context.Context, id string) (*Account, error)
	Create(ctx context.Context, input CreateAccountInput) (*Account, error)
	UpdatePasswordHash(ctx context.Context, id string, newHash string) error
	SetVerified(ctx context.Context, id string, at time.Time) error
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (*Account, error)
	SetAvatarURL(ctx context.Context, id string, url string) (*Account, error)
	SetLastLogin(ctx context.Context, id string, at time.Time) error

	// SetRefreshDigest unconditionally installs a new refresh digest.
	// SwapRefreshDigest installs next only when the stored digest still
	// equals prev, returning [ErrRefreshReuse]-compatible failure via
	// a store-defined sentinel when it does not.
	SetRefreshDigest(ctx context.Context, id string, digest [32]byte) error
	SwapRefreshDigest(ctx context.Context, id string, prev, next [32]byte) error
	ClearRefreshDigest(ctx context.Context, id string) error

	// SetRecoveryOTP persists hash and expiry as a single atomic pair.
	SetRecoveryOTP(ctx context.Context, id string, hash [32]byte, expiresAt int64) error
	ClearRecoveryOTP(ctx context.Context, id string) error
}

// Hasher abstracts the password hashing scheme used by the engine.
// The default implementation is [password.Argon2].
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password string, encodedHash string) (bool, error)
}

// AvatarStore persists uploaded avatar images and returns a public URL.
// Implementations live under blob/ (filesystem and S3-compatible storage).
type AvatarStore interface {
	Put(ctx context.Context, key string, contentType string, body io.Reader, size int64) (string, error)
}

// TokenPair is returned by [Engine.Login] and [Engine.Refresh].
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthResult is returned by [Engine.Validate]. It contains the
// authenticated account's ID decoded from the access token.
type AuthResult struct {
	UserID string
}

// RegisterRequest is the input for [Engine.Register].
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
}

// RegisterResult is returned by [Engine.Register]. VerificationToken is the
// opaque single-use token embedded in the verification link; it is returned
// to the caller in addition to being delivered through the [notify.Notifier]
// so that tests and custom mailers can build their own links.
type RegisterResult struct {
	UserID            string
	VerificationToken string
}

// ProfileUpdateRequest is the input for [Engine.UpdateProfile]. Empty
// fields are left unchanged. Password, when present, is re-hashed before
// storage.
type ProfileUpdateRequest struct {
	Name     string
	Email    string
	Mobile   string
	Password string
}
