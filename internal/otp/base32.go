package otp

import (
	"fmt"
	"strings"
)

// base32Alphabet is the RFC 4648 alphabet shared by authenticator apps.
const base32Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"

// base32Values maps an input byte to its 5-bit value, or -1 for bytes
// outside the alphabet. Lowercase letters map to the same values as their
// uppercase forms.
var base32Values = func() (t [256]int8) {
	for i := range t {
		t[i] = -1
	}
	for i := 0; i < len(base32Alphabet); i++ {
		c := base32Alphabet[i]
		t[c] = int8(i)
		if c >= 'A' && c <= 'Z' {
			t[c+'a'-'A'] = int8(i)
		}
	}
	return t
}()

// EncodeBase32 encodes src into the unpadded base32 form expected by
// authenticator apps. Bits are consumed most-significant first; a final
// partial group is left-shifted to fill 5 bits. No '=' padding is emitted.
func EncodeBase32(src []byte) string {
	if len(src) == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow((len(src)*8 + 4) / 5)

	var buf uint32
	var bits uint
	for _, c := range src {
		buf = buf<<8 | uint32(c)
		bits += 8
		for bits >= 5 {
			bits -= 5
			b.WriteByte(base32Alphabet[buf>>bits&0x1F])
		}
	}
	if bits > 0 {
		b.WriteByte(base32Alphabet[buf<<(5-bits)&0x1F])
	}

	return b.String()
}

// DecodeBase32 is the lenient decoder: input is case-insensitive, '='
// padding is ignored, and any character outside the alphabet is skipped
// rather than rejected. Trailing bits that do not fill a whole byte are
// discarded. It never fails; callers that need rejection of malformed
// input should use DecodeBase32Strict.
func DecodeBase32(s string) []byte {
	out := make([]byte, 0, len(s)*5/8)

	var buf uint32
	var bits uint
	for i := 0; i < len(s); i++ {
		v := base32Values[s[i]]
		if v < 0 {
			// Padding and foreign characters alike are skipped.
			continue
		}
		buf = buf<<5 | uint32(v)
		bits += 5
		if bits >= 8 {
			bits -= 8
			out = append(out, byte(buf>>bits))
		}
	}

	return out
}

// DecodeBase32Strict decodes like DecodeBase32 but fails with
// ErrInvalidBase32 on any character outside the alphabet. Trailing '='
// padding is still accepted and stripped, since padded secrets are common
// in the wild.
func DecodeBase32Strict(s string) ([]byte, error) {
	s = strings.TrimRight(s, "=")

	out := make([]byte, 0, len(s)*5/8)

	var buf uint32
	var bits uint
	for i := 0; i < len(s); i++ {
		v := base32Values[s[i]]
		if v < 0 {
			return nil, fmt.Errorf("%w: %q at position %d", ErrInvalidBase32, s[i], i)
		}
		buf = buf<<5 | uint32(v)
		bits += 5
		if bits >= 8 {
			bits -= 8
			out = append(out, byte(buf>>bits))
		}
	}

	return out, nil
}
