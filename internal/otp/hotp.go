package otp

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
)

// HOTP computes the RFC 4226 code for the given secret and counter.
// The counter is serialized as 8 big-endian bytes and authenticated with
// HMAC-SHA1; the digest is dynamically truncated to a 31-bit integer and
// reduced mod 10^digits. The result is always exactly digits characters,
// left-padded with zeros.
//
// Identical inputs always yield the identical code. Any non-empty key
// length is accepted (HMAC permits keys shorter than its block size).
func HOTP(secret []byte, counter uint64, digits int) (string, error) {
	if len(secret) == 0 {
		return "", ErrEmptySecret
	}
	if digits < 1 || digits > 8 {
		return "", ErrInvalidDigits
	}

	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(sha1.New, secret)
	mac.Write(msg[:])
	digest := mac.Sum(nil)

	// Dynamic truncation per RFC 4226 §5.3: the low nibble of the last
	// digest byte selects a 4-byte window, whose top bit is masked off.
	offset := digest[len(digest)-1] & 0x0F
	code := binary.BigEndian.Uint32(digest[offset:offset+4]) & 0x7FFFFFFF

	mod := uint32(1)
	for i := 0; i < digits; i++ {
		mod *= 10
	}

	return fmt.Sprintf("%0*d", digits, code%mod), nil
}
