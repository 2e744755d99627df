package internaldefs

import (
	goAccount "github.com/MrEthical07/goAccount"
)

// CounterDef defines a public type used by goAccount APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   goAccount.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by goAccount APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   goAccount.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the account engine.
var CounterDefs = []CounterDef{
	{ID: goAccount.MetricLoginSuccess, Name: "goaccount_login_success_total", Help: "Successful login attempts."},
	{ID: goAccount.MetricLoginFailure, Name: "goaccount_login_failure_total", Help: "Failed login attempts."},
	{ID: goAccount.MetricLogout, Name: "goaccount_logout_total", Help: "Logout operations."},
	{ID: goAccount.MetricRefreshSuccess, Name: "goaccount_refresh_success_total", Help: "Successful refresh operations."},
	{ID: goAccount.MetricRefreshFailure, Name: "goaccount_refresh_failure_total", Help: "Failed refresh operations."},
	{ID: goAccount.MetricRefreshReuseDetected, Name: "goaccount_refresh_reuse_detected_total", Help: "Detected refresh token reuses."},
	{ID: goAccount.MetricRegisterSuccess, Name: "goaccount_register_success_total", Help: "Successful registrations."},
	{ID: goAccount.MetricRegisterDuplicate, Name: "goaccount_register_duplicate_total", Help: "Registration attempts rejected as duplicate."},
	{ID: goAccount.MetricRegisterFailure, Name: "goaccount_register_failure_total", Help: "Failed registrations."},
	{ID: goAccount.MetricVerificationRequest, Name: "goaccount_email_verification_request_total", Help: "Email verification requests."},
	{ID: goAccount.MetricVerificationSuccess, Name: "goaccount_email_verification_success_total", Help: "Successful email verifications."},
	{ID: goAccount.MetricVerificationFailure, Name: "goaccount_email_verification_failure_total", Help: "Failed email verifications."},
	{ID: goAccount.MetricRecoveryRequest, Name: "goaccount_recovery_request_total", Help: "Password recovery requests."},
	{ID: goAccount.MetricRecoveryRequestFailure, Name: "goaccount_recovery_request_failure_total", Help: "Failed password recovery requests."},
	{ID: goAccount.MetricRecoveryOTPSuccess, Name: "goaccount_recovery_otp_success_total", Help: "Successful recovery OTP verifications."},
	{ID: goAccount.MetricRecoveryOTPFailure, Name: "goaccount_recovery_otp_failure_total", Help: "Failed recovery OTP verifications."},
	{ID: goAccount.MetricResetSuccess, Name: "goaccount_password_reset_success_total", Help: "Successful password resets."},
	{ID: goAccount.MetricResetFailure, Name: "goaccount_password_reset_failure_total", Help: "Failed password resets."},
	{ID: goAccount.MetricProfileUpdate, Name: "goaccount_profile_update_total", Help: "Profile update operations."},
	{ID: goAccount.MetricAvatarUpload, Name: "goaccount_avatar_upload_total", Help: "Avatar upload operations."},
}

// HistogramDefs is an exported constant or variable used by the account engine.
var HistogramDefs = []HistogramDef{
	{ID: goAccount.MetricValidateLatency, Name: "goaccount_validate_latency_seconds", Help: "Validate latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the account engine.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the account engine.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
