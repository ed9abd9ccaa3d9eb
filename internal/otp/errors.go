package otp

import "errors"

// Errors returned by the otp package.
var (
	// ErrRandomUnavailable indicates no cryptographically secure random
	// source could be read. Enrollment must abort; there is no fallback.
	ErrRandomUnavailable = errors.New("otp: secure random source unavailable")

	// ErrSecretLength indicates a requested secret length below one byte.
	ErrSecretLength = errors.New("otp: secret length must be at least 1 byte")

	// ErrEmptySecret indicates a zero-length HMAC key was supplied.
	ErrEmptySecret = errors.New("otp: secret must not be empty")

	// ErrInvalidDigits indicates a code length outside the 1..8 range.
	ErrInvalidDigits = errors.New("otp: digits must be between 1 and 8")

	// ErrInvalidBase32 indicates input to the strict decoder contained a
	// character outside the RFC 4648 base32 alphabet.
	ErrInvalidBase32 = errors.New("otp: invalid base32 character")
)
