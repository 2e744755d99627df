package goAccount

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// UpdateProfile describes the updateprofile operation and its observable behavior.
//
// UpdateProfile applies a partial update to the account profile. Empty
// request fields are left unchanged; a non-empty Password is re-hashed
// before storage.
//
// UpdateProfile may return an error when input validation, dependency calls, or security checks fail.
// UpdateProfile does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) UpdateProfile(ctx context.Context, userID string, req ProfileUpdateRequest) (*Account, error) {
	if e == nil || e.store == nil || e.hasher == nil {
		return nil, ErrEngineNotReady
	}
	if userID == "" {
		return nil, ErrValidation
	}

	var update ProfileUpdate
	if req.Name != "" {
		update.Name = &req.Name
	}
	if req.Email != "" {
		if !strings.Contains(req.Email, "@") {
			return nil, ErrValidation
		}
		update.Email = &req.Email
	}
	if req.Mobile != "" {
		update.Mobile = &req.Mobile
	}
	if req.Password != "" {
		hash, err := e.hasher.Hash(req.Password)
		if err != nil {
			return nil, err
		}
		update.PasswordHash = &hash
	}

	account, err := e.store.UpdateProfile(ctx, userID, update)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricProfileUpdate)
	e.emitAudit(ctx, auditEventProfileUpdate, true, userID, nil, nil)

	return account, nil
}

// UploadAvatar describes the uploadavatar operation and its observable behavior.
//
// UploadAvatar stores the image through the configured [AvatarStore] under a
// random key and records the returned URL on the account. The previous
// avatar URL is overwritten, not deleted.
//
// UploadAvatar may return an error when input validation, dependency calls, or security checks fail.
// UploadAvatar does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) UploadAvatar(ctx context.Context, userID, filename, contentType string, body io.Reader, size int64) (*Account, error) {
	if e == nil || e.store == nil {
		return nil, ErrEngineNotReady
	}
	if e.avatars == nil {
		return nil, ErrAvatarStoreNotConfigured
	}
	if userID == "" || body == nil {
		return nil, ErrValidation
	}

	ext := path.Ext(filename)
	key := "avatars/" + userID + "/" + uuid.NewString() + ext

	url, err := e.avatars.Put(ctx, key, contentType, body, size)
	if err != nil {
		e.emitAudit(ctx, auditEventAvatarUpload, false, userID, ErrUploadFailed, nil)
		return nil, ErrUploadFailed
	}

	account, err := e.store.SetAvatarURL(ctx, userID, url)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricAvatarUpload)
	e.emitAudit(ctx, auditEventAvatarUpload, true, userID, nil, func() map[string]string {
		return map[string]string{
			"key": key,
		}
	})

	return account, nil
}
