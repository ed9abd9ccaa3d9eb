package otp

import (
	"testing"
	"time"

	pq "github.com/pquerna/otp"
	pqtotp "github.com/pquerna/otp/totp"
)

func TestTimeCounter(t *testing.T) {
	tests := []struct {
		name   string
		unix   int64
		period int
		want   uint64
	}{
		{name: "RFC 6238 first step", unix: 59, period: 30, want: 1},
		{name: "Step boundary", unix: 60, period: 30, want: 2},
		{name: "Just before boundary", unix: 29, period: 30, want: 0},
		{name: "Epoch", unix: 0, period: 30, want: 0},
		{name: "Pre-epoch clamps to zero", unix: -100, period: 30, want: 0},
		{name: "Zero period uses default", unix: 90, period: 0, want: 3},
		{name: "Custom period", unix: 120, period: 60, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TimeCounter(time.Unix(tt.unix, 0), tt.period)
			if got != tt.want {
				t.Errorf("TimeCounter(%d, %d) = %d, want %d", tt.unix, tt.period, got, tt.want)
			}
		})
	}
}

func TestTOTPMatchesHOTP(t *testing.T) {
	now := time.Unix(1700000000, 0)

	fromTOTP, err := TOTP(rfc4226Secret, now, DefaultPeriod, DefaultDigits)
	if err != nil {
		t.Fatal(err)
	}
	fromHOTP, err := HOTP(rfc4226Secret, TimeCounter(now, DefaultPeriod), DefaultDigits)
	if err != nil {
		t.Fatal(err)
	}
	if fromTOTP != fromHOTP {
		t.Errorf("TOTP %q != HOTP at derived counter %q", fromTOTP, fromHOTP)
	}
}

func TestTOTPDeterministic(t *testing.T) {
	now := time.Unix(1700000000, 0)
	a, err := TOTP(rfc4226Secret, now, DefaultPeriod, DefaultDigits)
	if err != nil {
		t.Fatal(err)
	}
	b, err := TOTP(rfc4226Secret, now, DefaultPeriod, DefaultDigits)
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("TOTP not deterministic: %q != %q", a, b)
	}
}

func TestVerifyWindowBoundary(t *testing.T) {
	// now sits 15 seconds into its time step, so now-29 falls in the
	// previous step and now-61 two steps back.
	now := time.Unix(1700000025, 0)

	prev, err := TOTP(rfc4226Secret, now.Add(-29*time.Second), DefaultPeriod, DefaultDigits)
	if err != nil {
		t.Fatal(err)
	}
	stale, err := TOTP(rfc4226Secret, now.Add(-61*time.Second), DefaultPeriod, DefaultDigits)
	if err != nil {
		t.Fatal(err)
	}

	if !VerifyTOTP(prev, rfc4226Secret, now, DefaultPeriod, DefaultDigits, 1) {
		t.Error("code from previous step rejected with window 1")
	}
	cur, err := TOTP(rfc4226Secret, now, DefaultPeriod, DefaultDigits)
	if err != nil {
		t.Fatal(err)
	}
	ahead, err := TOTP(rfc4226Secret, now.Add(31*time.Second), DefaultPeriod, DefaultDigits)
	if err != nil {
		t.Fatal(err)
	}

	// Guard against the (astronomically unlikely, but deterministic)
	// case of the stale code colliding with one inside the window.
	if stale != prev && stale != cur && stale != ahead &&
		VerifyTOTP(stale, rfc4226Secret, now, DefaultPeriod, DefaultDigits, 1) {
		t.Error("code from two steps back accepted with window 1")
	}
	if prev != cur && VerifyTOTP(prev, rfc4226Secret, now, DefaultPeriod, DefaultDigits, 0) {
		t.Error("code from previous step accepted with window 0")
	}

	// A client clock running ahead is tolerated symmetrically.
	if !VerifyTOTP(ahead, rfc4226Secret, now, DefaultPeriod, DefaultDigits, 1) {
		t.Error("code from next step rejected with window 1")
	}
}

func TestVerifyCurrentCode(t *testing.T) {
	now := time.Unix(1700000025, 0)
	code, err := TOTP(rfc4226Secret, now, DefaultPeriod, DefaultDigits)
	if err != nil {
		t.Fatal(err)
	}

	if !VerifyTOTP(code, rfc4226Secret, now, DefaultPeriod, DefaultDigits, DefaultWindow) {
		t.Error("current code rejected")
	}
	if VerifyTOTP(code, rfc4226Secret, now.Add(120*time.Second), DefaultPeriod, DefaultDigits, DefaultWindow) {
		t.Error("code accepted 120 seconds later")
	}
}

func TestVerifyMalformedInput(t *testing.T) {
	now := time.Unix(1700000025, 0)

	tests := []struct {
		name string
		code string
	}{
		{name: "Empty", code: ""},
		{name: "Letters", code: "abc123"},
		{name: "Embedded space", code: "123 45"},
		{name: "Trailing letter", code: "12345a"},
		{name: "Unicode digit lookalike", code: "12345٠"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if VerifyTOTP(tt.code, rfc4226Secret, now, DefaultPeriod, DefaultDigits, DefaultWindow) {
				t.Errorf("VerifyTOTP(%q) = true, want false", tt.code)
			}
		})
	}

	// Malformed input must short-circuit even with no usable secret.
	if VerifyTOTP("not-a-code", nil, now, DefaultPeriod, DefaultDigits, DefaultWindow) {
		t.Error("VerifyTOTP with nil secret and malformed code = true")
	}
}

func TestVerifyNegativeWindow(t *testing.T) {
	// A negative window behaves like window 0 rather than wrapping.
	now := time.Unix(1700000025, 0)
	code, err := TOTP(rfc4226Secret, now, DefaultPeriod, DefaultDigits)
	if err != nil {
		t.Fatal(err)
	}
	if !VerifyTOTP(code, rfc4226Secret, now, DefaultPeriod, DefaultDigits, -1) {
		t.Error("current code rejected with negative window")
	}
}

// TestTOTPInteropPquerna cross-checks our engine against the pquerna/otp
// implementation, the de facto interop reference for Go authenticator
// code. Any divergence here would break real authenticator apps.
func TestTOTPInteropPquerna(t *testing.T) {
	secrets := [][]byte{
		rfc4226Secret,
		{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06},
		[]byte("another shared secret"),
	}
	instants := []int64{59, 1111111109, 1234567890, 1700000000, 2000000000}

	for _, secret := range secrets {
		encoded := EncodeBase32(secret)
		for _, unix := range instants {
			now := time.Unix(unix, 0)

			ours, err := TOTP(secret, now, DefaultPeriod, DefaultDigits)
			if err != nil {
				t.Fatal(err)
			}
			theirs, err := pqtotp.GenerateCodeCustom(encoded, now, pqtotp.ValidateOpts{
				Period: DefaultPeriod,
				Digits: pq.DigitsSix,
			})
			if err != nil {
				t.Fatalf("pquerna GenerateCodeCustom: %v", err)
			}
			if ours != theirs {
				t.Errorf("secret %x at %d: ours %q, pquerna %q", secret, unix, ours, theirs)
			}
		}
	}
}
