// Package enroll drives the two-factor enrollment lifecycle: a fresh
// secret lives only in memory from Begin until the user proves possession
// of their authenticator by confirming a first code, and only then is it
// committed to the credential store. Abandoned enrollments leave no trace.
package enroll

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/docketwell/twofa/internal/credstore"
	"github.com/docketwell/twofa/internal/otp"
	"github.com/docketwell/twofa/internal/secure"
)

// Errors returned by the enrollment service. Confirm deliberately folds
// every verification failure into ErrInvalidCode so callers cannot build
// an oracle out of the error text.
var (
	ErrInvalidCode  = errors.New("enroll: invalid code")
	ErrNoEnrollment = errors.New("enroll: no pending enrollment for account")
	ErrNoAccount    = errors.New("enroll: account identifier must not be empty")
)

// DefaultPendingTTL bounds how long an unconfirmed enrollment is kept.
const DefaultPendingTTL = 10 * time.Minute

// Config tunes a Service. Zero values select the defaults used by every
// mainstream authenticator app.
type Config struct {
	// Issuer names the organization shown in authenticator apps.
	Issuer string
	// SecretLength is the generated secret size in bytes (default 20).
	SecretLength int
	// Period is the TOTP time step in seconds (default 30).
	Period int
	// Digits is the code length (default 6).
	Digits int
	// Window is the clock-drift tolerance in time steps (default 1).
	Window int
	// PendingTTL is how long an unconfirmed enrollment survives
	// (default DefaultPendingTTL).
	PendingTTL time.Duration
	// Generator supplies secret entropy. Zero value uses crypto/rand.
	Generator otp.Generator
	// Now is the clock, injectable for tests. Defaults to time.Now.
	Now func() time.Time
}

type pendingKey struct {
	secret  []byte
	created time.Time
}

// Service manages enrollments against a credential store. Safe for
// concurrent use.
type Service struct {
	store credstore.Store
	cfg   Config
	now   func() time.Time

	mu      sync.Mutex
	pending map[string]*pendingKey
}

// Enrollment is what Begin hands back for provisioning: the encoded
// secret for manual entry and the otpauth URI for QR rendering. Neither
// has been persisted yet.
type Enrollment struct {
	Account string
	Secret  string
	URI     string
}

// NewService returns a Service over store with cfg's zero values filled.
func NewService(store credstore.Store, cfg Config) *Service {
	if cfg.SecretLength == 0 {
		cfg.SecretLength = otp.DefaultSecretLength
	}
	if cfg.Period == 0 {
		cfg.Period = otp.DefaultPeriod
	}
	if cfg.Digits == 0 {
		cfg.Digits = otp.DefaultDigits
	}
	if cfg.Window == 0 {
		cfg.Window = otp.DefaultWindow
	}
	if cfg.PendingTTL == 0 {
		cfg.PendingTTL = DefaultPendingTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:   store,
		cfg:     cfg,
		now:     now,
		pending: make(map[string]*pendingKey),
	}
}

// Begin starts (or restarts) an enrollment for account: it generates a
// fresh secret and parks it in memory, replacing and zeroing any earlier
// pending secret for the same account. Nothing is persisted until Confirm
// succeeds.
func (s *Service) Begin(account string) (Enrollment, error) {
	if account == "" {
		return Enrollment{}, ErrNoAccount
	}

	secret, err := s.generate()
	if err != nil {
		return Enrollment{}, err
	}
	encoded := otp.EncodeBase32(secret)
	uri := otp.BuildProvisioningURI(otp.KeyParams{
		Issuer:  s.cfg.Issuer,
		Account: account,
		Secret:  encoded,
		Digits:  s.cfg.Digits,
		Period:  s.cfg.Period,
	})

	s.mu.Lock()
	if old, ok := s.pending[account]; ok {
		secure.ZeroBytes(old.secret)
	}
	s.pending[account] = &pendingKey{secret: secret, created: s.now()}
	s.mu.Unlock()

	return Enrollment{Account: account, Secret: encoded, URI: uri}, nil
}

// Confirm verifies the first code against the pending secret and, on
// success, commits the enrollment to the store and zeroes the in-memory
// copy. A wrong, malformed, or expired code yields ErrInvalidCode with no
// further detail.
func (s *Service) Confirm(ctx context.Context, account, code string) error {
	p, secret, err := s.takePendingSecret(account)
	if err != nil {
		return err
	}
	defer secure.ZeroBytes(secret)

	if !otp.VerifyTOTP(code, secret, s.now(), s.cfg.Period, s.cfg.Digits, s.cfg.Window) {
		return ErrInvalidCode
	}

	meta := credstore.Meta{
		Issuer:    s.cfg.Issuer,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Put(ctx, account, otp.EncodeBase32(secret), meta); err != nil {
		return fmt.Errorf("commit enrollment: %w", err)
	}

	s.mu.Lock()
	if cur, ok := s.pending[account]; ok && cur == p {
		secure.ZeroBytes(cur.secret)
		delete(s.pending, account)
	}
	s.mu.Unlock()

	return nil
}

// Abandon drops any pending enrollment for account without touching the
// store.
func (s *Service) Abandon(account string) {
	s.mu.Lock()
	if p, ok := s.pending[account]; ok {
		secure.ZeroBytes(p.secret)
		delete(s.pending, account)
	}
	s.mu.Unlock()
}

// VerifyLogin checks a login-time code against the stored secret for
// account. An unknown account, an undecodable stored secret, and a wrong
// code are all reported identically as false so the result leaks nothing
// about which check failed; the error is reserved for store I/O failures.
func (s *Service) VerifyLogin(ctx context.Context, account, code string) (bool, error) {
	encoded, err := s.store.Get(ctx, account)
	if errors.Is(err, credstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	secret, err := otp.DecodeBase32Strict(encoded)
	if err != nil {
		// A corrupt stored secret surfaces through the audit sweep, not
		// through the login path.
		return false, nil
	}
	defer secure.ZeroBytes(secret)

	return otp.VerifyTOTP(code, secret, s.now(), s.cfg.Period, s.cfg.Digits, s.cfg.Window), nil
}

// takePendingSecret returns the live pending entry for account together
// with a private copy of its secret, expiring stale entries on the way.
func (s *Service) takePendingSecret(account string) (*pendingKey, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.pending[account]
	if ok && s.now().Sub(p.created) > s.cfg.PendingTTL {
		secure.ZeroBytes(p.secret)
		delete(s.pending, account)
		ok = false
	}
	if !ok {
		return nil, nil, ErrNoEnrollment
	}
	return p, bytes.Clone(p.secret), nil
}

func (s *Service) generate() ([]byte, error) {
	gen := s.cfg.Generator
	if gen.Rand == nil {
		return otp.GenerateSecret(s.cfg.SecretLength)
	}
	return gen.Generate(s.cfg.SecretLength)
}
