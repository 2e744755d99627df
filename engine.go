package goAccount

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/MrEthical07/goAccount/internal"
	"github.com/MrEthical07/goAccount/jwt"
	"github.com/MrEthical07/goAccount/notify"
)

// Engine defines a public type used by goAccount APIs.
//
// Engine instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Engine struct {
	config            Config
	store             AccountStore
	hasher            Hasher
	jwtManager        *jwt.Manager
	notifier          notify.Notifier
	avatars           AvatarStore
	verificationStore *ticketStore
	resetStore        *ticketStore
	audit             *auditDispatcher
	metrics           *Metrics
}

// Close describes the close operation and its observable behavior.
//
// Close may return an error when input validation, dependency calls, or security checks fail.
// Close does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped describes the auditdropped operation and its observable behavior.
//
// AuditDropped does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

// MetricsSnapshot describes the metricssnapshot operation and its observable behavior.
//
// MetricsSnapshot does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

// Login describes the login operation and its observable behavior.
//
// Login checks account existence first, then account status, then the
// password, so a suspended account is reported as suspended even when the
// supplied password is wrong. On success it issues an access/refresh token
// pair, installs the refresh token digest, and records the login time.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	if e == nil || e.store == nil || e.hasher == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}
	if email == "" || password == "" {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, "", ErrValidation, func() map[string]string {
			return map[string]string{
				"reason": "missing_fields",
			}
		})
		return nil, ErrValidation
	}

	account, err := e.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.metricInc(MetricLoginFailure)
			e.emitAudit(ctx, auditEventLoginFailure, false, "", ErrAccountNotFound, func() map[string]string {
				return map[string]string{
					"identifier": email,
					"reason":     "account_not_found",
				}
			})
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if statusErr := accountStatusToError(account.Status); statusErr != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, account.ID, statusErr, func() map[string]string {
			return map[string]string{
				"identifier": email,
				"reason":     "account_status",
			}
		})
		return nil, statusErr
	}

	ok, err := e.hasher.Verify(password, account.PasswordHash)
	if err != nil || !ok {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, account.ID, ErrInvalidCredentials, func() map[string]string {
			return map[string]string{
				"identifier": email,
				"reason":     "password_mismatch",
			}
		})
		return nil, ErrInvalidCredentials
	}

	if e.config.Verification.RequireForLogin && !account.Verified() {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, account.ID, ErrAccountUnverified, func() map[string]string {
			return map[string]string{
				"identifier": email,
				"reason":     "pending_verification",
			}
		})
		return nil, ErrAccountUnverified
	}

	if e.config.Password.UpgradeOnLogin {
		if upgrader, ok := e.hasher.(interface{ NeedsUpgrade(string) (bool, error) }); ok {
			if needsUpgrade, err := upgrader.NeedsUpgrade(account.PasswordHash); err == nil && needsUpgrade {
				if upgradedHash, err := e.hasher.Hash(password); err == nil {
					// Rehash update is best-effort and must not block successful login.
					if err := e.store.UpdatePasswordHash(ctx, account.ID, upgradedHash); err != nil {
						log.Print("goAccount: password hash upgrade update failed")
					}
				} else {
					log.Print("goAccount: password hash upgrade generation failed")
				}
			}
		}
	}
	password = ""

	pair, err := e.issueTokens(ctx, account.ID)
	if err != nil {
		e.metricInc(MetricLoginFailure)
		e.emitAudit(ctx, auditEventLoginFailure, false, account.ID, err, func() map[string]string {
			return map[string]string{
				"identifier": email,
				"reason":     "token_issue",
			}
		})
		return nil, err
	}

	if err := e.store.SetLastLogin(ctx, account.ID, time.Now().UTC()); err != nil {
		// Last-login bookkeeping is best-effort.
		log.Print("goAccount: last login update failed")
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, account.ID, nil, nil)

	return pair, nil
}

// Logout describes the logout operation and its observable behavior.
//
// Logout revokes the outstanding refresh token by clearing its stored
// digest. It is idempotent: logging out an account with no outstanding
// refresh token succeeds.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Logout(ctx context.Context, userID string) error {
	if e == nil || e.store == nil {
		return ErrEngineNotReady
	}
	if userID == "" {
		return ErrValidation
	}

	if err := e.store.ClearRefreshDigest(ctx, userID); err != nil {
		return err
	}

	e.metricInc(MetricLogout)
	e.emitAudit(ctx, auditEventLogout, true, userID, nil, nil)

	return nil
}

// Refresh describes the refresh operation and its observable behavior.
//
// Refresh validates the presented refresh token, rotates it, and issues a
// new access/refresh pair. The previous token is invalidated by swapping the
// stored digest; presenting a structurally valid token whose digest no
// longer matches is treated as reuse, revokes the active refresh token, and
// returns [ErrRefreshReuse].
//
// Refresh may return an error when input validation, dependency calls, or security checks fail.
// Refresh does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if e == nil || e.store == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}
	if refreshToken == "" {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, "", ErrTokenMissing, nil)
		return nil, ErrTokenMissing
	}

	claims, err := e.jwtManager.ParseRefresh(refreshToken)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, "", ErrRefreshInvalid, nil)
		return nil, ErrRefreshInvalid
	}

	prevDigest := internal.HashBytes([]byte(refreshToken))

	newRefresh, err := e.jwtManager.CreateRefresh(claims.ID)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		e.emitAudit(ctx, auditEventRefreshInvalid, false, claims.ID, err, nil)
		return nil, err
	}
	nextDigest := internal.HashBytes([]byte(newRefresh))

	if err := e.store.SwapRefreshDigest(ctx, claims.ID, prevDigest, nextDigest); err != nil {
		if errors.Is(err, ErrDigestMismatch) {
			// A digest mismatch on a structurally valid token means the
			// token was already rotated or revoked: revoke the whole chain.
			if clearErr := e.store.ClearRefreshDigest(ctx, claims.ID); clearErr != nil {
				log.Print("goAccount: refresh reuse revocation failed")
			}
			e.metricInc(MetricRefreshReuseDetected)
			e.emitAudit(ctx, auditEventRefreshReuseDetected, false, claims.ID, ErrRefreshReuse, nil)
			return nil, ErrRefreshReuse
		}
		if errors.Is(err, ErrAccountNotFound) {
			e.metricInc(MetricRefreshFailure)
			e.emitAudit(ctx, auditEventRefreshInvalid, false, claims.ID, ErrRefreshInvalid, nil)
			return nil, ErrRefreshInvalid
		}
		e.metricInc(MetricRefreshFailure)
		return nil, err
	}

	access, err := e.jwtManager.CreateAccess(claims.ID)
	if err != nil {
		e.metricInc(MetricRefreshFailure)
		return nil, err
	}

	e.metricInc(MetricRefreshSuccess)
	e.emitAudit(ctx, auditEventRefreshSuccess, true, claims.ID, nil, nil)

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: newRefresh,
	}, nil
}

// Validate describes the validate operation and its observable behavior.
//
// Validate verifies the access token signature and expiry without any store
// round-trip and returns the authenticated account ID.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Validate(ctx context.Context, accessToken string) (*AuthResult, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}
	if accessToken == "" {
		return nil, ErrTokenMissing
	}

	start := time.Now()
	claims, err := e.jwtManager.ParseAccess(accessToken)
	if e.metrics.LatencyEnabled() {
		e.metrics.Observe(MetricValidateLatency, time.Since(start))
	}
	if err != nil {
		return nil, ErrTokenInvalid
	}

	return &AuthResult{UserID: claims.ID}, nil
}

func (e *Engine) issueTokens(ctx context.Context, userID string) (*TokenPair, error) {
	access, err := e.jwtManager.CreateAccess(userID)
	if err != nil {
		return nil, err
	}
	refresh, err := e.jwtManager.CreateRefresh(userID)
	if err != nil {
		return nil, err
	}

	digest := internal.HashBytes([]byte(refresh))
	if err := e.store.SetRefreshDigest(ctx, userID, digest); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func accountStatusToError(status AccountStatus) error {
	switch status {
	case AccountActive:
		return nil
	case AccountInactive:
		return ErrAccountInactive
	case AccountSuspended:
		return ErrAccountSuspended
	default:
		return ErrAccountInactive
	}
}
