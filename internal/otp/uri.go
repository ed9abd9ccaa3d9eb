package otp

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// KeyParams describes one provisioned key: the fields serialized into, and
// parsed back out of, an otpauth:// URI.
type KeyParams struct {
	Issuer    string
	Account   string
	Secret    string // base32-encoded, inserted into the URI verbatim
	Algorithm string // defaults to "SHA1"
	Digits    int    // defaults to DefaultDigits
	Period    int    // defaults to DefaultPeriod
}

func (p KeyParams) withDefaults() KeyParams {
	if p.Algorithm == "" {
		p.Algorithm = "SHA1"
	}
	if p.Digits == 0 {
		p.Digits = DefaultDigits
	}
	if p.Period == 0 {
		p.Period = DefaultPeriod
	}
	return p
}

// BuildProvisioningURI serializes p into the otpauth URI consumed by
// authenticator QR scanners:
//
//	otpauth://totp/{issuer}:{account}?secret=...&issuer=...&algorithm=SHA1&digits=6&period=30
//
// Issuer and account are percent-encoded; the secret is already base32 and
// therefore URI-safe. The query string is assembled by hand because the
// parameter order above is part of the wire format, and url.Values would
// reorder it alphabetically.
func BuildProvisioningURI(p KeyParams) string {
	p = p.withDefaults()
	return fmt.Sprintf("otpauth://totp/%s:%s?secret=%s&issuer=%s&algorithm=%s&digits=%d&period=%d",
		url.PathEscape(p.Issuer), url.PathEscape(p.Account),
		p.Secret, url.PathEscape(p.Issuer), p.Algorithm, p.Digits, p.Period)
}

// ParseProvisioningURI extracts key parameters from an otpauth://totp URI,
// such as one scanned out of another app's QR code. Labels of the form
// "issuer:account" are split; a label-only issuer is used when the issuer
// query parameter is absent. Missing algorithm, digits, and period fall
// back to the defaults.
func ParseProvisioningURI(raw string) (KeyParams, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return KeyParams{}, fmt.Errorf("invalid otpauth URI: %w", err)
	}
	if u.Scheme != "otpauth" {
		return KeyParams{}, fmt.Errorf("not an otpauth URI: scheme %q", u.Scheme)
	}
	if u.Host != "totp" {
		return KeyParams{}, fmt.Errorf("unsupported otpauth type %q", u.Host)
	}

	q := u.Query()
	secret := q.Get("secret")
	if secret == "" {
		return KeyParams{}, fmt.Errorf("otpauth URI has no secret")
	}

	label := strings.TrimPrefix(u.Path, "/")
	issuer := q.Get("issuer")
	account := label
	if i := strings.LastIndex(label, ":"); i >= 0 {
		if issuer == "" {
			issuer = label[:i]
		}
		account = label[i+1:]
	}

	p := KeyParams{
		Issuer:    issuer,
		Account:   account,
		Secret:    secret,
		Algorithm: q.Get("algorithm"),
		Digits:    intParam(q.Get("digits")),
		Period:    intParam(q.Get("period")),
	}
	return p.withDefaults(), nil
}

func intParam(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
