// Package otp implements the one-time password primitives used by the
// twofa enrollment and login flows: RFC 4226 HOTP, RFC 6238 TOTP, the
// unpadded base32 secret encoding understood by authenticator apps, secret
// generation, and the otpauth:// provisioning URI format.
//
// Every function in this package is pure and safe for concurrent use. The
// two effectful inputs, the random source for secret generation and the
// clock for counter derivation, are explicit parameters rather than ambient
// package state. Verification failure is an expected outcome and is
// reported as a plain boolean, not an error.
package otp
