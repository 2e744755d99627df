package goAccount

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/MrEthical07/goAccount/internal"
	"github.com/MrEthical07/goAccount/notify"
)

// Register describes the register operation and its observable behavior.
//
// Register creates a new account in the unverified state, then issues a
// single-use email verification ticket and hands the verification message to
// the configured notifier. Notification delivery is best-effort: a mailer
// failure does not roll the account back.
//
// Register may return an error when input validation, dependency calls, or security checks fail.
// Register does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	if e == nil || e.store == nil || e.hasher == nil {
		return nil, ErrEngineNotReady
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", ErrValidation, func() map[string]string {
			return map[string]string{
				"reason": "missing_fields",
			}
		})
		return nil, ErrValidation
	}
	if !strings.Contains(req.Email, "@") {
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", ErrValidation, func() map[string]string {
			return map[string]string{
				"reason": "invalid_email",
			}
		})
		return nil, ErrValidation
	}

	hash, err := e.hasher.Hash(req.Password)
	if err != nil {
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", err, nil)
		return nil, err
	}

	account, err := e.store.Create(ctx, CreateAccountInput{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hash,
		Status:       AccountActive,
	})
	if err != nil {
		if errors.Is(err, ErrAccountExists) {
			e.metricInc(MetricRegisterDuplicate)
			e.emitAudit(ctx, auditEventRegisterDuplicate, false, "", ErrAccountExists, func() map[string]string {
				return map[string]string{
					"identifier": req.Email,
				}
			})
			return nil, ErrAccountExists
		}
		e.metricInc(MetricRegisterFailure)
		e.emitAudit(ctx, auditEventRegisterFailure, false, "", err, nil)
		return nil, err
	}

	result := &RegisterResult{UserID: account.ID}

	if e.config.Verification.Enabled {
		token, err := e.issueVerificationTicket(ctx, account)
		if err != nil {
			// The account exists; the caller can re-request verification.
			log.Print("goAccount: verification ticket issue failed after registration")
		} else {
			result.VerificationToken = token
		}
	}

	e.metricInc(MetricRegisterSuccess)
	e.emitAudit(ctx, auditEventRegisterSuccess, true, account.ID, nil, func() map[string]string {
		return map[string]string{
			"identifier": req.Email,
		}
	})

	return result, nil
}

// RequestEmailVerification describes the requestemailverification operation and its observable behavior.
//
// RequestEmailVerification re-issues a verification ticket for an existing
// unverified account and re-sends the verification message. It is a no-op
// for accounts that already completed verification.
//
// RequestEmailVerification may return an error when input validation, dependency calls, or security checks fail.
// RequestEmailVerification does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) RequestEmailVerification(ctx context.Context, email string) (string, error) {
	if e == nil || e.store == nil || e.verificationStore == nil {
		return "", ErrEngineNotReady
	}
	if !e.config.Verification.Enabled {
		return "", ErrVerificationDisabled
	}
	if email == "" {
		return "", ErrValidation
	}

	account, err := e.store.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if account.Verified() {
		return "", nil
	}

	token, err := e.issueVerificationTicket(ctx, account)
	if err != nil {
		return "", err
	}

	e.metricInc(MetricVerificationRequest)
	e.emitAudit(ctx, auditEventVerificationRequest, true, account.ID, nil, nil)

	return token, nil
}

// VerifyEmail describes the verifyemail operation and its observable behavior.
//
// VerifyEmail consumes a single-use verification ticket and marks the
// account verified. A consumed or expired ticket fails with
// [ErrVerificationInvalid]; marking an already-verified account verified
// again through a fresh ticket is not an error.
//
// VerifyEmail may return an error when input validation, dependency calls, or security checks fail.
// VerifyEmail does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (e *Engine) VerifyEmail(ctx context.Context, token string) error {
	if e == nil || e.store == nil || e.verificationStore == nil {
		return ErrEngineNotReady
	}
	if !e.config.Verification.Enabled {
		return ErrVerificationDisabled
	}
	if token == "" {
		e.metricInc(MetricVerificationFailure)
		e.emitAudit(ctx, auditEventVerificationConfirm, false, "", ErrVerificationInvalid, nil)
		return ErrVerificationInvalid
	}

	ticketID, secret, err := internal.DecodeTicketToken(token)
	if err != nil {
		e.metricInc(MetricVerificationFailure)
		e.emitAudit(ctx, auditEventVerificationConfirm, false, "", ErrVerificationInvalid, nil)
		return ErrVerificationInvalid
	}

	record, err := e.verificationStore.Consume(ctx, ticketID, internal.HashTicketSecret(secret), e.config.Verification.MaxAttempts)
	if err != nil {
		mapped := mapTicketError(err, ErrVerificationInvalid, ErrVerificationAttempts, ErrVerificationUnavailable)
		e.metricInc(MetricVerificationFailure)
		e.emitAudit(ctx, auditEventVerificationConfirm, false, "", mapped, nil)
		return mapped
	}

	if err := e.store.SetVerified(ctx, record.UserID, time.Now().UTC()); err != nil {
		e.metricInc(MetricVerificationFailure)
		e.emitAudit(ctx, auditEventVerificationConfirm, false, record.UserID, err, nil)
		return err
	}

	e.metricInc(MetricVerificationSuccess)
	e.emitAudit(ctx, auditEventVerificationConfirm, true, record.UserID, nil, nil)

	return nil
}

func (e *Engine) issueVerificationTicket(ctx context.Context, account *Account) (string, error) {
	tid, err := internal.NewTicketID()
	if err != nil {
		return "", err
	}
	secret, err := internal.NewTicketSecret()
	if err != nil {
		return "", err
	}

	record := &ticketRecord{
		UserID:     account.ID,
		SecretHash: internal.HashTicketSecret(secret),
		ExpiresAt:  time.Now().Add(e.config.Verification.TicketTTL).Unix(),
	}
	if err := e.verificationStore.Save(ctx, tid.String(), record, e.config.Verification.TicketTTL); err != nil {
		return "", ErrVerificationUnavailable
	}

	token, err := internal.EncodeTicketToken(tid.String(), secret)
	if err != nil {
		return "", err
	}

	go e.sendVerificationMail(context.WithoutCancel(ctx), account, token)

	return token, nil
}

// Delivery is fire-and-forget: persisted state stands even when the mail
// never goes out, and send failures are logged rather than surfaced.
func (e *Engine) sendVerificationMail(ctx context.Context, account *Account, token string) {
	if e.notifier == nil {
		return
	}

	url := strings.TrimRight(e.config.Verification.BaseURL, "/") + "/verify-email?code=" + token
	html, err := notify.VerifyEmailHTML(account.Name, url)
	if err != nil {
		log.Print("goAccount: verification template render failed")
		return
	}

	msg := notify.Message{
		To:      account.Email,
		Subject: "Verify your email",
		HTML:    html,
	}
	if err := e.notifier.Send(ctx, msg); err != nil {
		log.Print("goAccount: verification mail send failed")
	}
}

func mapTicketError(err error, invalid, attempts, unavailable error) error {
	switch {
	case errors.Is(err, errTicketAttemptsExceeded):
		return attempts
	case errors.Is(err, errTicketRedisUnavailable):
		return unavailable
	default:
		return invalid
	}
}
