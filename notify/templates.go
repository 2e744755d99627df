package notify

import (
	"html/template"
	"strconv"
	"strings"
	"time"
)

var verifyEmailTemplate = template.Must(template.New("verify").Parse(`<p>Dear {{.Name}},</p>
<p>Thank you for registering. Please confirm your email address to activate your account.</p>
<a href="{{.URL}}" style="color:#fff;background:#071263;margin-top:10px;padding:20px;display:inline-block;text-decoration:none">
    Verify Email
</a>`))

var recoveryOTPTemplate = template.Must(template.New("recovery").Parse(`<p>Dear {{.Name}},</p>
<p>You requested a password reset. Use the following code to continue:</p>
<div style="background:yellow;font-size:20px;padding:20px;text-align:center;font-weight:800">
    {{.OTP}}
</div>
<p>This code is valid for {{.ExpiresIn}} only. Enter it to proceed with resetting your password.</p>
<br>
<p>Thanks</p>`))

// VerifyEmailHTML renders the account verification message body. url must
// already carry the single-use verification token.
func VerifyEmailHTML(name, url string) (string, error) {
	var b strings.Builder
	err := verifyEmailTemplate.Execute(&b, struct {
		Name string
		URL  string
	}{Name: name, URL: url})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// RecoveryOTPHTML renders the password recovery message body carrying the
// one-time code and its validity window.
func RecoveryOTPHTML(name, otp string, ttl time.Duration) (string, error) {
	var b strings.Builder
	err := recoveryOTPTemplate.Execute(&b, struct {
		Name      string
		OTP       string
		ExpiresIn string
	}{Name: name, OTP: otp, ExpiresIn: formatTTL(ttl)})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

func formatTTL(ttl time.Duration) string {
	if ttl <= 0 {
		return "a limited time"
	}
	if ttl >= 2*time.Hour && ttl%time.Hour == 0 {
		return strconv.Itoa(int(ttl/time.Hour)) + " hours"
	}
	minutes := int(ttl / time.Minute)
	if minutes <= 1 {
		return "1 minute"
	}
	return strconv.Itoa(minutes) + " minutes"
}
