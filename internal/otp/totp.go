package otp

import (
	"crypto/subtle"
	"time"
)

// Defaults shared by every authenticator app we interoperate with.
const (
	// DefaultPeriod is the time step in seconds.
	DefaultPeriod = 30
	// DefaultDigits is the code length.
	DefaultDigits = 6
	// DefaultWindow is the number of adjacent time steps accepted on either
	// side of the current one during verification.
	DefaultWindow = 1
)

// TimeCounter derives the RFC 6238 moving counter for time t:
// floor(unix seconds / period). A non-positive period falls back to
// DefaultPeriod; a pre-1970 clock clamps to counter 0. At 30-second steps
// the counter cannot overflow uint64 before the year 2554.
func TimeCounter(t time.Time, period int) uint64 {
	if period < 1 {
		period = DefaultPeriod
	}
	unix := t.Unix()
	if unix < 0 {
		return 0
	}
	return uint64(unix) / uint64(period)
}

// TOTP computes the code for secret at time t.
func TOTP(secret []byte, t time.Time, period, digits int) (string, error) {
	return HOTP(secret, TimeCounter(t, period), digits)
}

// VerifyTOTP reports whether code is valid for secret at time t, accepting
// codes from up to window time steps on either side of the current one to
// tolerate clock drift.
//
// An empty or non-numeric code is rejected before any cryptographic work.
// The current step is checked first since it matches in the overwhelmingly
// common case; candidate comparison is constant-time. A failed
// verification is an ordinary outcome, so the result is a plain boolean.
func VerifyTOTP(code string, secret []byte, t time.Time, period, digits, window int) bool {
	if !allDigits(code) {
		return false
	}
	if window < 0 {
		window = 0
	}

	base := TimeCounter(t, period)
	if hotpMatches(code, secret, base, digits) {
		return true
	}
	for i := uint64(1); i <= uint64(window); i++ {
		if base >= i && hotpMatches(code, secret, base-i, digits) {
			return true
		}
		if hotpMatches(code, secret, base+i, digits) {
			return true
		}
	}

	return false
}

func hotpMatches(code string, secret []byte, counter uint64, digits int) bool {
	want, err := HOTP(secret, counter, digits)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(code), []byte(want)) == 1
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
