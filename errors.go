package goAccount

import "errors"

var (
	// ErrValidation is an exported constant or variable used by the account engine.
	ErrValidation = errors.New("invalid request")
	// ErrInvalidCredentials is an exported constant or variable used by the account engine.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountNotFound is an exported constant or variable used by the account engine.
	ErrAccountNotFound = errors.New("account not found")
	// ErrAccountExists is an exported constant or variable used by the account engine.
	ErrAccountExists = errors.New("account already exists")
	// ErrAccountInactive is an exported constant or variable used by the account engine.
	ErrAccountInactive = errors.New("account inactive")
	// ErrAccountSuspended is an exported constant or variable used by the account engine.
	ErrAccountSuspended = errors.New("account suspended")
	// ErrAccountUnverified is an exported constant or variable used by the account engine.
	ErrAccountUnverified = errors.New("account email not verified")
	// ErrTokenMissing is an exported constant or variable used by the account engine.
	ErrTokenMissing = errors.New("token missing")
	// ErrTokenInvalid is an exported constant or variable used by the account engine.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrRefreshInvalid is an exported constant or variable used by the account engine.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrRefreshReuse is an exported constant or variable used by the account engine.
	ErrRefreshReuse = errors.New("refresh token reuse detected")
	// ErrVerificationInvalid is an exported constant or variable used by the account engine.
	ErrVerificationInvalid = errors.New("email verification challenge invalid")
	// ErrVerificationAttempts is an exported constant or variable used by the account engine.
	ErrVerificationAttempts = errors.New("email verification attempts exceeded")
	// ErrVerificationDisabled is an exported constant or variable used by the account engine.
	ErrVerificationDisabled = errors.New("email verification disabled")
	// ErrVerificationUnavailable is an exported constant or variable used by the account engine.
	ErrVerificationUnavailable = errors.New("email verification backend unavailable")
	// ErrRecoveryDisabled is an exported constant or variable used by the account engine.
	ErrRecoveryDisabled = errors.New("password recovery disabled")
	// ErrOTPExpired is an exported constant or variable used by the account engine.
	ErrOTPExpired = errors.New("recovery otp expired")
	// ErrOTPMismatch is an exported constant or variable used by the account engine.
	ErrOTPMismatch = errors.New("recovery otp mismatch")
	// ErrResetTicketInvalid is an exported constant or variable used by the account engine.
	ErrResetTicketInvalid = errors.New("password reset ticket invalid")
	// ErrResetAttempts is an exported constant or variable used by the account engine.
	ErrResetAttempts = errors.New("password reset attempts exceeded")
	// ErrPasswordMismatch is an exported constant or variable used by the account engine.
	ErrPasswordMismatch = errors.New("password and confirmation do not match")
	// ErrUploadFailed is an exported constant or variable used by the account engine.
	ErrUploadFailed = errors.New("avatar upload failed")
	// ErrAvatarStoreNotConfigured is an exported constant or variable used by the account engine.
	ErrAvatarStoreNotConfigured = errors.New("avatar store not configured")
	// ErrDigestMismatch is returned by [AccountStore.SwapRefreshDigest]
	// implementations when the stored digest no longer matches prev.
	ErrDigestMismatch = errors.New("refresh digest mismatch")
	// ErrStoreUnavailable is an exported constant or variable used by the account engine.
	ErrStoreUnavailable = errors.New("account store unavailable")
	// ErrEngineNotReady is an exported constant or variable used by the account engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
