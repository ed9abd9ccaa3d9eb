package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	pqotp "github.com/pquerna/otp"
	"golang.org/x/term"

	"github.com/docketwell/twofa/internal/credstore"
	"github.com/docketwell/twofa/internal/enroll"
	"github.com/docketwell/twofa/internal/otp"
	"github.com/docketwell/twofa/internal/qrcode"
	"github.com/docketwell/twofa/internal/secure"
)

// VersionInfo contains build information set via ldflags.
type VersionInfo struct {
	Version string
	Commit  string
	Date    string
}

// App wires the CLI to the enrollment service and credential store. All
// effectful dependencies are injectable for testing.
type App struct {
	Store  credstore.Store
	Enroll *enroll.Service

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Exit   func(int)
	Now    func() time.Time

	// ReadSecret prompts for a secret without echoing it.
	ReadSecret func() ([]byte, error)
	// WriteFile persists QR images; swappable in tests.
	WriteFile func(path string, data []byte, perm os.FileMode) error

	VersionInfo VersionInfo
}

// NewApp builds an App over the given store with default OS-backed
// dependencies.
func NewApp(store credstore.Store, svc *enroll.Service, info VersionInfo) *App {
	return &App{
		Store:       store,
		Enroll:      svc,
		Stdin:       os.Stdin,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
		Exit:        os.Exit,
		Now:         time.Now,
		ReadSecret:  func() ([]byte, error) { return term.ReadPassword(int(syscall.Stdin)) },
		WriteFile:   os.WriteFile,
		VersionInfo: info,
	}
}

// ShowVersion displays version information.
func (a *App) ShowVersion() {
	fmt.Fprintf(a.Stdout, "twofa version %s (%s) built on %s\n",
		a.VersionInfo.Version, a.VersionInfo.Commit, a.VersionInfo.Date)
}

// EnrollAccount runs the full enrollment flow: generate, display the
// provisioning URI (and optionally a QR image), then demand a first code
// before anything is stored.
func (a *App) EnrollAccount(ctx context.Context, account, qrPath string) error {
	enr, err := a.Enroll.Begin(account)
	if err != nil {
		return fmt.Errorf("start enrollment: %w", err)
	}

	fmt.Fprintf(a.Stdout, "🔐 Enrolling %s\n\n", account)
	fmt.Fprintf(a.Stdout, "Scan this URI with your authenticator app:\n  %s\n\n", enr.URI)
	fmt.Fprintf(a.Stdout, "Or enter the secret manually:\n  %s\n\n", enr.Secret)

	if qrPath != "" {
		pngBytes, err := qrcode.RenderPNG(enr.URI, qrcode.DefaultSize)
		if err != nil {
			a.Enroll.Abandon(account)
			return fmt.Errorf("render QR code: %w", err)
		}
		if err := a.WriteFile(qrPath, pngBytes, 0o600); err != nil {
			a.Enroll.Abandon(account)
			return fmt.Errorf("write QR code: %w", err)
		}
		fmt.Fprintf(a.Stdout, "QR code written to %s\n\n", qrPath)
	}

	fmt.Fprint(a.Stdout, "Enter the 6-digit code shown by your authenticator: ")
	code, err := a.readLine()
	if err != nil {
		a.Enroll.Abandon(account)
		return fmt.Errorf("read code: %w", err)
	}

	if err := a.Enroll.Confirm(ctx, account, strings.TrimSpace(code)); err != nil {
		a.Enroll.Abandon(account)
		if errors.Is(err, enroll.ErrInvalidCode) {
			return fmt.Errorf("invalid code, try again; enrollment not saved")
		}
		return fmt.Errorf("confirm enrollment: %w", err)
	}

	fmt.Fprintln(a.Stdout, "✅ Two-factor enrollment confirmed")
	return nil
}

// ShowCode prints the current code for an enrolled account. This is the
// operator recovery path; normal logins go through VerifyCode.
func (a *App) ShowCode(ctx context.Context, account string) error {
	encoded, err := a.Store.Get(ctx, account)
	if err != nil {
		if errors.Is(err, credstore.ErrNotFound) {
			return fmt.Errorf("no enrollment for %s", account)
		}
		return err
	}

	secret, err := otp.DecodeBase32Strict(encoded)
	if err != nil {
		return fmt.Errorf("stored secret for %s is corrupt, run -audit", account)
	}
	defer secure.ZeroBytes(secret)

	now := a.Now()
	code, err := otp.TOTP(secret, now, otp.DefaultPeriod, otp.DefaultDigits)
	if err != nil {
		return err
	}

	remaining := otp.DefaultPeriod - now.Unix()%otp.DefaultPeriod
	fmt.Fprintf(a.Stdout, "%s (valid for %ds)\n", code, remaining)
	return nil
}

// VerifyCode checks a submitted code for an account. The failure message
// is deliberately uniform: it reveals neither whether the account exists
// nor why the code was rejected.
func (a *App) VerifyCode(ctx context.Context, account, code string) error {
	ok, err := a.Enroll.VerifyLogin(ctx, account, code)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("invalid code, try again")
	}
	fmt.Fprintln(a.Stdout, "✅ Code verified")
	return nil
}

// ListEntries prints every stored enrollment.
func (a *App) ListEntries(ctx context.Context) error {
	entries, err := a.Store.List(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.Stdout, "No enrollments")
		return nil
	}
	for _, e := range entries {
		line := e.Account
		if e.Meta.Issuer != "" {
			line += "  issuer=" + e.Meta.Issuer
		}
		if e.Meta.Label != "" {
			line += "  label=" + e.Meta.Label
		}
		if !e.Meta.CreatedAt.IsZero() {
			line += "  enrolled=" + e.Meta.CreatedAt.Format("2006-01-02")
		}
		fmt.Fprintln(a.Stdout, line)
	}
	return nil
}

// DeleteEntry removes an enrollment.
func (a *App) DeleteEntry(ctx context.Context, account string) error {
	if err := a.Store.Delete(ctx, account); err != nil {
		if errors.Is(err, credstore.ErrNotFound) {
			return fmt.Errorf("no enrollment for %s", account)
		}
		return err
	}
	fmt.Fprintf(a.Stdout, "✅ Enrollment for %s removed\n", account)
	return nil
}

// ImportURI stores an enrollment from an existing otpauth:// URI, e.g.
// one exported by another authenticator. The URI is parsed with the otp
// library most Go tools emit, and the secret is validated before storage.
func (a *App) ImportURI(ctx context.Context, uri string) error {
	key, err := pqotp.NewKeyFromURL(uri)
	if err != nil {
		return fmt.Errorf("parse otpauth URI: %w", err)
	}
	if key.Type() != "totp" {
		return fmt.Errorf("unsupported otpauth type %q, only totp is supported", key.Type())
	}
	account := key.AccountName()
	if account == "" {
		return fmt.Errorf("otpauth URI has no account name")
	}

	secret := strings.ToUpper(strings.TrimRight(key.Secret(), "="))
	raw, err := otp.DecodeBase32Strict(secret)
	if err != nil {
		return fmt.Errorf("secret in URI is not valid base32: %w", err)
	}
	secure.ZeroBytes(raw)

	meta := credstore.Meta{
		Issuer:    key.Issuer(),
		Label:     "imported",
		CreatedAt: a.Now().UTC(),
	}
	if err := a.Store.Put(ctx, account, secret, meta); err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "✅ Imported enrollment for %s\n", account)
	return nil
}

// ImportQRFile imports an enrollment from a QR image file.
func (a *App) ImportQRFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open QR image: %w", err)
	}
	defer f.Close()

	uri, err := qrcode.DecodeProvisioningPNG(f)
	if err != nil {
		return err
	}
	return a.ImportURI(ctx, uri)
}

// ImportManualSecret prompts (without echo) for a base32 secret and
// stores it for account.
func (a *App) ImportManualSecret(ctx context.Context, account string) error {
	if account == "" {
		return fmt.Errorf("account is required, use -account")
	}

	fmt.Fprint(a.Stdout, "Enter base32 secret (input hidden): ")
	input, err := a.ReadSecret()
	fmt.Fprintln(a.Stdout)
	if err != nil {
		return fmt.Errorf("read secret: %w", err)
	}
	defer secure.ZeroBytes(input)

	secret := strings.ToUpper(strings.TrimSpace(string(input)))
	secret = strings.TrimRight(secret, "=")
	raw, err := otp.DecodeBase32Strict(secret)
	if err != nil {
		return fmt.Errorf("not a valid base32 secret: %w", err)
	}
	secure.ZeroBytes(raw)

	meta := credstore.Meta{Label: "manual import", CreatedAt: a.Now().UTC()}
	if err := a.Store.Put(ctx, account, secret, meta); err != nil {
		return err
	}
	fmt.Fprintf(a.Stdout, "✅ Imported enrollment for %s\n", account)
	return nil
}

// RunAudit sweeps the store for unreadable, malformed, or weak secrets.
func (a *App) RunAudit(ctx context.Context) error {
	problems, err := credstore.Audit(ctx, a.Store, 4)
	if err != nil {
		return err
	}
	if len(problems) == 0 {
		fmt.Fprintln(a.Stdout, "✅ All enrollments healthy")
		return nil
	}
	for _, p := range problems {
		fmt.Fprintf(a.Stderr, "❌ %s: %v\n", p.Account, p.Err)
	}
	return fmt.Errorf("%d enrollment(s) need attention", len(problems))
}

func (a *App) readLine() (string, error) {
	line, err := bufio.NewReader(a.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
