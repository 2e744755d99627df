// Package store provides a Redis-backed implementation of
// [goAccount.AccountStore]. Accounts live in hashes keyed by ID with a
// separate email index; compare-and-swap operations use optimistic locking
// so refresh rotation stays correct under concurrent callers.
package store

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	goAccount "github.com/MrEthical07/goAccount"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	accountKeyPrefix = "acct"
	emailIndexPrefix = "acct:email"
)

// Redis implements [goAccount.AccountStore] on a Redis client.
type Redis struct {
	client *redis.Client
}

// NewRedis describes the newredis operation and its observable behavior.
//
// NewRedis does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func accountKey(id string) string {
	return accountKeyPrefix + ":" + id
}

func emailKey(email string) string {
	return emailIndexPrefix + ":" + email
}

// Create describes the create operation and its observable behavior.
//
// Create may return an error when input validation, dependency calls, or security checks fail.
// Create does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Redis) Create(ctx context.Context, input goAccount.CreateAccountInput) (*goAccount.Account, error) {
	id := uuid.NewString()
	now := time.Now().UTC()

	// The email index claim is the uniqueness gate.
	ok, err := s.client.SetNX(ctx, emailKey(input.Email), id, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", goAccount.ErrStoreUnavailable, err)
	}
	if !ok {
		return nil, goAccount.ErrAccountExists
	}

	account := &goAccount.Account{
		ID:           id,
		Email:        input.Email,
		Name:         input.Name,
		PasswordHash: input.PasswordHash,
		Status:       input.Status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.client.HSet(ctx, accountKey(id), flatten(account)).Err(); err != nil {
		// Roll the index claim back so the email is not burned.
		_ = s.client.Del(ctx, emailKey(input.Email)).Err()
		return nil, fmt.Errorf("%w: %v", goAccount.ErrStoreUnavailable, err)
	}

	return account, nil
}

// GetByEmail describes the getbyemail operation and its observable behavior.
//
// GetByEmail may return an error when input validation, dependency calls, or security checks fail.
// GetByEmail does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Redis) GetByEmail(ctx context.Context, email string) (*goAccount.Account, error) {
	id, err := s.client.Get(ctx, emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, goAccount.ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: %v", goAccount.ErrStoreUnavailable, err)
	}
	return s.GetByID(ctx, id)
}

// GetByID describes the getbyid operation and its observable behavior.
//
// GetByID may return an error when input validation, dependency calls, or security checks fail.
// GetByID does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Redis) GetByID(ctx context.Context, id string) (*goAccount.Account, error) {
	fields, err := s.client.HGetAll(ctx, accountKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", goAccount.ErrStoreUnavailable, err)
	}
	if len(fields) == 0 {
		return nil, goAccount.ErrAccountNotFound
	}
	return unflatten(id, fields)
}

// UpdatePasswordHash describes the updatepasswordhash operation and its observable behavior.
//
// UpdatePasswordHash may return an error when input validation, dependency calls, or security checks fail.
// UpdatePasswordHash does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Redis) UpdatePasswordHash(ctx context.Context, id string, newHash string) error {
	return s.setFields(ctx, id, map[string]interface{}{
		"password_hash": newHash,
	})
}

// SetVerified describes the setverified operation and its observable behavior.
//
// SetVerified may return an error when input validation, dependency calls, or security checks fail.
// SetVerified does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Redis) SetVerified(ctx context.Context, id string, at time.Time) error {
	return s.setFields(ctx, id, map[string]interface{}{
		"verified_at": at.UTC().Unix(),
	})
}

// SetLastLogin describes the setlastlogin operation and its observable behavior.
//
// SetLastLogin may return an error when input validation, dependency calls, or security checks fail.
// SetLastLogin does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Redis) SetLastLogin(ctx context.Context, id string, at time.Time) error {
	return s.setFields(ctx, id, map[string]interface{}{
		"last_login": at.UTC().Unix(),
	})
}

// UpdateProfile applies a partial profile update. An email change re-points
// the email index under optimistic locking so two accounts can never share
// an address.
func (s *Redis) UpdateProfile(ctx context.Context, id string, update goAccount.ProfileUpdate) (*goAccount.Account, error) {
	if update.Email != nil {
		if err := s.changeEmail(ctx, id, *update.Email); err != nil {
			return nil, err
		}
	}

	fields := map[string]interface{}{}
	if update.Name != nil {
		fields["name"] = *update.Name
	}
	if update.Mobile != nil {
		fields["mobile"] = *update.Mobile
	}
	if update.PasswordHash != nil {
		fields["password_hash"] = *update.PasswordHash
	}
	if len(fields) > 0 {
		if err := s.setFields(ctx, id, fields); err != nil {
			return nil, err
		}
	}

	return s.GetByID(ctx, id)
}

// SetAvatarURL describes the setavatarurl operation and its observable behavior.
//
// SetAvatarURL may return an error when input validation, dependency calls, or security checks fail.
// SetAvatarURL does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Redis) SetAvatarURL(ctx context.Context, id string, url string) (*goAccount.Account, error) {
	if err := s.setFields(ctx, id, map[string]interface{}{
		"avatar_url": url,
	}); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

// SetRefreshDigest describes the setrefreshdigest operation and its observable behavior.
//
// SetRefreshDigest may return an error when input validation, dependency calls, or security checks fail.
// SetRefreshDigest does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Redis) SetRefreshDigest(ctx context.Context, id string, digest [32]byte) error {
	return s.setFields(ctx, id, map[string]interface{}{
		"refresh_digest": hex.EncodeToString(digest[:]),
	})
}

// SwapRefreshDigest installs next only when the stored digest still equals
// prev. Optimistic locking retries up to four times on concurrent
// modification; a genuine mismatch returns [goAccount.ErrDigestMismatch].
func (s *Redis) SwapRefreshDigest(ctx context.Context, id string, prev, next [32]byte) error {
	const maxRetries = 4
	key := accountKey(id)

	for i := 0; i < maxRetries; i++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			exists, err := tx.Exists(ctx, key).Result()
			if err != nil {
				return err
			}
			if exists == 0 {
				return goAccount.ErrAccountNotFound
			}

			stored, err := tx.HGet(ctx, key, "refresh_digest").Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			if stored != hex.EncodeToString(prev[:]) {
				return goAccount.ErrDigestMismatch
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.HSet(ctx, key, "refresh_digest", hex.EncodeToString(next[:]))
				return nil
			})
			return err
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			switch {
			case errors.Is(err, goAccount.ErrAccountNotFound), errors.Is(err, goAccount.ErrDigestMismatch):
				return err
			default:
				return fmt.Errorf("%w: %v", goAccount.ErrStoreUnavailable, err)
			}
		}
		return nil
	}

	return goAccount.ErrDigestMismatch
}

// ClearRefreshDigest describes the clearrefreshdigest operation and its observable behavior.
//
// ClearRefreshDigest may return an error when input validation, dependency calls, or security checks fail.
// ClearRefreshDigest does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Redis) ClearRefreshDigest(ctx context.Context, id string) error {
	if err := s.requireAccount(ctx, id); err != nil {
		return err
	}
	if err := s.client.HDel(ctx, accountKey(id), "refresh_digest").Err(); err != nil {
		return fmt.Errorf("%w: %v", goAccount.ErrStoreUnavailable, err)
	}
	return nil
}

// SetRecoveryOTP persists the OTP digest and expiry in one HSET so readers
// never observe a digest without its expiry.
func (s *Redis) SetRecoveryOTP(ctx context.Context, id string, hash [32]byte, expiresAt int64) error {
	return s.setFields(ctx, id, map[string]interface{}{
		"otp_hash":       hex.EncodeToString(hash[:]),
		"otp_expires_at": expiresAt,
	})
}

// ClearRecoveryOTP describes the clearrecoveryotp operation and its observable behavior.
//
// ClearRecoveryOTP may return an error when input validation, dependency calls, or security checks fail.
// ClearRecoveryOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *Redis) ClearRecoveryOTP(ctx context.Context, id string) error {
	if err := s.requireAccount(ctx, id); err != nil {
		return err
	}
	if err := s.client.HDel(ctx, accountKey(id), "otp_hash", "otp_expires_at").Err(); err != nil {
		return fmt.Errorf("%w: %v", goAccount.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Redis) setFields(ctx context.Context, id string, fields map[string]interface{}) error {
	if err := s.requireAccount(ctx, id); err != nil {
		return err
	}
	fields["updated_at"] = time.Now().UTC().Unix()
	if err := s.client.HSet(ctx, accountKey(id), fields).Err(); err != nil {
		return fmt.Errorf("%w: %v", goAccount.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Redis) requireAccount(ctx context.Context, id string) error {
	exists, err := s.client.Exists(ctx, accountKey(id)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", goAccount.ErrStoreUnavailable, err)
	}
	if exists == 0 {
		return goAccount.ErrAccountNotFound
	}
	return nil
}

func (s *Redis) changeEmail(ctx context.Context, id, newEmail string) error {
	account, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if account.Email == newEmail {
		return nil
	}

	ok, err := s.client.SetNX(ctx, emailKey(newEmail), id, 0).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", goAccount.ErrStoreUnavailable, err)
	}
	if !ok {
		return goAccount.ErrAccountExists
	}

	if err := s.client.HSet(ctx, accountKey(id), "email", newEmail).Err(); err != nil {
		_ = s.client.Del(ctx, emailKey(newEmail)).Err()
		return fmt.Errorf("%w: %v", goAccount.ErrStoreUnavailable, err)
	}

	_ = s.client.Del(ctx, emailKey(account.Email)).Err()
	return nil
}

func flatten(a *goAccount.Account) map[string]interface{} {
	fields := map[string]interface{}{
		"email":         a.Email,
		"name":          a.Name,
		"password_hash": a.PasswordHash,
		"status":        int(a.Status),
		"created_at":    a.CreatedAt.UTC().Unix(),
		"updated_at":    a.UpdatedAt.UTC().Unix(),
	}
	if a.Mobile != "" {
		fields["mobile"] = a.Mobile
	}
	if a.AvatarURL != "" {
		fields["avatar_url"] = a.AvatarURL
	}
	return fields
}

func unflatten(id string, fields map[string]string) (*goAccount.Account, error) {
	account := &goAccount.Account{
		ID:           id,
		Email:        fields["email"],
		Name:         fields["name"],
		Mobile:       fields["mobile"],
		PasswordHash: fields["password_hash"],
		AvatarURL:    fields["avatar_url"],
	}

	if v := fields["status"]; v != "" {
		status, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("corrupt status field: %v", err)
		}
		account.Status = goAccount.AccountStatus(status)
	}
	if v := fields["verified_at"]; v != "" {
		sec, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt verified_at field: %v", err)
		}
		account.VerifiedAt = time.Unix(sec, 0).UTC()
	}
	if v := fields["refresh_digest"]; v != "" {
		raw, err := hex.DecodeString(v)
		if err != nil || len(raw) != len(account.RefreshDigest) {
			return nil, errors.New("corrupt refresh_digest field")
		}
		copy(account.RefreshDigest[:], raw)
	}
	if v := fields["otp_hash"]; v != "" {
		raw, err := hex.DecodeString(v)
		if err != nil || len(raw) != len(account.RecoveryOTPHash) {
			return nil, errors.New("corrupt otp_hash field")
		}
		copy(account.RecoveryOTPHash[:], raw)
	}
	if v := fields["otp_expires_at"]; v != "" {
		sec, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt otp_expires_at field: %v", err)
		}
		account.RecoveryOTPExpiresAt = sec
	}
	if v := fields["last_login"]; v != "" {
		sec, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt last_login field: %v", err)
		}
		account.LastLogin = time.Unix(sec, 0).UTC()
	}
	if v := fields["created_at"]; v != "" {
		sec, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt created_at field: %v", err)
		}
		account.CreatedAt = time.Unix(sec, 0).UTC()
	}
	if v := fields["updated_at"]; v != "" {
		sec, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt updated_at field: %v", err)
		}
		account.UpdatedAt = time.Unix(sec, 0).UTC()
	}

	return account, nil
}
