package goAccount

import (
	"context"
	"crypto/subtle"
	"log"
	"time"

	"github.com/MrEthical07/goAccount/internal"
	"github.com/MrEthical07/goAccount/notify"
)

// ForgotPassword describes the forgotpassword operation and its observable behavior.
//
// ForgotPassword generates a numeric OTP, stores its SHA-256 digest and
// expiry on the account as one atomic pair, and delivers the OTP through the
// configured notifier. The OTP plaintext is returned so tests and custom
// mailers can deliver it themselves; it is never persisted.
//
// ForgotPassword may return an error when input validation, dependency calls, or security checks fail.
// ForgotPassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ForgotPassword(ctx context.Context, email string) (string, error) {
	if e == nil || e.store == nil {
		return "", ErrEngineNotReady
	}
	if !e.config.Recovery.Enabled {
		return "", ErrRecoveryDisabled
	}
	if email == "" {
		e.metricInc(MetricRecoveryRequestFailure)
		return "", ErrValidation
	}

	account, err := e.store.GetByEmail(ctx, email)
	if err != nil {
		e.metricInc(MetricRecoveryRequestFailure)
		e.emitAudit(ctx, auditEventRecoveryRequest, false, "", err, func() map[string]string {
			return map[string]string{
				"identifier": email,
			}
		})
		return "", err
	}

	otp, err := internal.NewOTP(e.config.Recovery.OTPDigits)
	if err != nil {
		e.metricInc(MetricRecoveryRequestFailure)
		return "", err
	}

	expiresAt := time.Now().Add(e.config.Recovery.OTPTTL).Unix()
	if err := e.store.SetRecoveryOTP(ctx, account.ID, internal.HashBytes([]byte(otp)), expiresAt); err != nil {
		e.metricInc(MetricRecoveryRequestFailure)
		e.emitAudit(ctx, auditEventRecoveryRequest, false, account.ID, err, nil)
		return "", err
	}

	go e.sendRecoveryMail(context.WithoutCancel(ctx), account, otp)

	e.metricInc(MetricRecoveryRequest)
	e.emitAudit(ctx, auditEventRecoveryRequest, true, account.ID, nil, nil)

	return otp, nil
}

// VerifyRecoveryOTP describes the verifyrecoveryotp operation and its observable behavior.
//
// VerifyRecoveryOTP checks the submitted OTP against the stored digest in
// constant time. On success the OTP is cleared (single use) and a single-use
// reset ticket is issued; [Engine.ResetPassword] requires that ticket, so a
// password can never be reset without first proving OTP possession.
//
// VerifyRecoveryOTP may return an error when input validation, dependency calls, or security checks fail.
// VerifyRecoveryOTP does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) VerifyRecoveryOTP(ctx context.Context, email, otp string) (string, error) {
	if e == nil || e.store == nil || e.resetStore == nil {
		return "", ErrEngineNotReady
	}
	if !e.config.Recovery.Enabled {
		return "", ErrRecoveryDisabled
	}
	if email == "" || otp == "" {
		return "", ErrValidation
	}

	account, err := e.store.GetByEmail(ctx, email)
	if err != nil {
		e.metricInc(MetricRecoveryOTPFailure)
		e.emitAudit(ctx, auditEventRecoveryOTPConfirm, false, "", err, nil)
		return "", err
	}

	if account.RecoveryOTPExpiresAt == 0 || time.Now().Unix() > account.RecoveryOTPExpiresAt {
		e.metricInc(MetricRecoveryOTPFailure)
		e.emitAudit(ctx, auditEventRecoveryOTPConfirm, false, account.ID, ErrOTPExpired, nil)
		return "", ErrOTPExpired
	}

	provided := internal.HashBytes([]byte(otp))
	if subtle.ConstantTimeCompare(provided[:], account.RecoveryOTPHash[:]) != 1 {
		e.metricInc(MetricRecoveryOTPFailure)
		e.emitAudit(ctx, auditEventRecoveryOTPConfirm, false, account.ID, ErrOTPMismatch, nil)
		return "", ErrOTPMismatch
	}

	// Single use: the OTP is gone whether or not the reset completes.
	if err := e.store.ClearRecoveryOTP(ctx, account.ID); err != nil {
		return "", err
	}

	ticket, err := e.issueResetTicket(ctx, account.ID)
	if err != nil {
		return "", err
	}

	e.metricInc(MetricRecoveryOTPSuccess)
	e.emitAudit(ctx, auditEventRecoveryOTPConfirm, true, account.ID, nil, nil)

	return ticket, nil
}

// ResetPassword describes the resetpassword operation and its observable behavior.
//
// ResetPassword consumes the reset ticket issued by
// [Engine.VerifyRecoveryOTP], installs the new password hash, and revokes
// any outstanding refresh token so stolen sessions do not survive a
// recovery.
//
// ResetPassword may return an error when input validation, dependency calls, or security checks fail.
// ResetPassword does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) ResetPassword(ctx context.Context, ticket, newPassword, confirmPassword string) error {
	if e == nil || e.store == nil || e.hasher == nil || e.resetStore == nil {
		return ErrEngineNotReady
	}
	if !e.config.Recovery.Enabled {
		return ErrRecoveryDisabled
	}
	if ticket == "" || newPassword == "" || confirmPassword == "" {
		e.metricInc(MetricResetFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, "", ErrValidation, nil)
		return ErrValidation
	}
	if newPassword != confirmPassword {
		e.metricInc(MetricResetFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, "", ErrPasswordMismatch, nil)
		return ErrPasswordMismatch
	}

	ticketID, secret, err := internal.DecodeTicketToken(ticket)
	if err != nil {
		e.metricInc(MetricResetFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, "", ErrResetTicketInvalid, nil)
		return ErrResetTicketInvalid
	}

	record, err := e.resetStore.Consume(ctx, ticketID, internal.HashTicketSecret(secret), e.config.Recovery.MaxAttempts)
	if err != nil {
		mapped := mapTicketError(err, ErrResetTicketInvalid, ErrResetAttempts, ErrStoreUnavailable)
		e.metricInc(MetricResetFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, "", mapped, nil)
		return mapped
	}

	hash, err := e.hasher.Hash(newPassword)
	if err != nil {
		e.metricInc(MetricResetFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, record.UserID, err, nil)
		return err
	}

	if err := e.store.UpdatePasswordHash(ctx, record.UserID, hash); err != nil {
		e.metricInc(MetricResetFailure)
		e.emitAudit(ctx, auditEventPasswordResetConfirm, false, record.UserID, err, nil)
		return err
	}

	// Recovered accounts start with a clean session slate.
	if err := e.store.ClearRefreshDigest(ctx, record.UserID); err != nil {
		log.Print("goAccount: refresh revocation after password reset failed")
	}

	e.metricInc(MetricResetSuccess)
	e.emitAudit(ctx, auditEventPasswordResetConfirm, true, record.UserID, nil, nil)

	return nil
}

func (e *Engine) issueResetTicket(ctx context.Context, userID string) (string, error) {
	tid, err := internal.NewTicketID()
	if err != nil {
		return "", err
	}
	secret, err := internal.NewTicketSecret()
	if err != nil {
		return "", err
	}

	record := &ticketRecord{
		UserID:     userID,
		SecretHash: internal.HashTicketSecret(secret),
		ExpiresAt:  time.Now().Add(e.config.Recovery.TicketTTL).Unix(),
	}
	if err := e.resetStore.Save(ctx, tid.String(), record, e.config.Recovery.TicketTTL); err != nil {
		return "", ErrStoreUnavailable
	}

	return internal.EncodeTicketToken(tid.String(), secret)
}

func (e *Engine) sendRecoveryMail(ctx context.Context, account *Account, otp string) {
	if e.notifier == nil {
		return
	}

	html, err := notify.RecoveryOTPHTML(account.Name, otp, e.config.Recovery.OTPTTL)
	if err != nil {
		log.Print("goAccount: recovery template render failed")
		return
	}

	msg := notify.Message{
		To:      account.Email,
		Subject: "Password recovery code",
		HTML:    html,
	}
	if err := e.notifier.Send(ctx, msg); err != nil {
		log.Print("goAccount: recovery mail send failed")
	}
}
