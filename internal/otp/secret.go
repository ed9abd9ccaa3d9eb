package otp

import (
	"crypto/rand"
	"fmt"
	"io"
)

// DefaultSecretLength is the recommended secret size in bytes (160 bits,
// matching the HMAC-SHA1 block the RFC 4226 test vectors use). Anything
// below 16 bytes is considered too weak for new enrollments.
const DefaultSecretLength = 20

// Generator produces cryptographically random shared secrets. The random
// source is an explicit dependency so tests can substitute a deterministic
// reader and so no package ever patches a process-global source.
type Generator struct {
	// Rand is the entropy source. It must be cryptographically secure;
	// Generate fails rather than fall back when it is absent or broken.
	Rand io.Reader
}

// Generate returns length random bytes from the configured source.
// It returns ErrSecretLength for a non-positive length and
// ErrRandomUnavailable when the source is nil or cannot satisfy the read.
// There is deliberately no fallback to a non-cryptographic generator.
func (g Generator) Generate(length int) ([]byte, error) {
	if length < 1 {
		return nil, ErrSecretLength
	}
	if g.Rand == nil {
		return nil, ErrRandomUnavailable
	}

	secret := make([]byte, length)
	if _, err := io.ReadFull(g.Rand, secret); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRandomUnavailable, err)
	}

	return secret, nil
}

// GenerateSecret returns length random bytes from crypto/rand.
func GenerateSecret(length int) ([]byte, error) {
	return Generator{Rand: rand.Reader}.Generate(length)
}
