package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/docketwell/twofa/internal/credstore"
	"github.com/docketwell/twofa/internal/enroll"
)

// Version information (set by ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run(os.Args, nil))
}

// run is the testable entrypoint. A non-nil app skips store setup, which
// lets tests inject an in-memory store.
func run(args []string, app *App) int {
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.Usage = func() { printUsage(fs.Output()) }

	var (
		showVersion = fs.Bool("version", false, "Show version information")
		dbPath      = fs.String("db", defaultDBPath(), "Path to the enrollment database")
		issuer      = fs.String("issuer", defaultIssuer(), "Issuer name shown in authenticator apps")
		account     = fs.String("account", "", "Account identifier (usually an email address)")

		doEnroll = fs.Bool("enroll", false, "Enroll the account and confirm with a first code")
		qrPath   = fs.String("qr", "", "With -enroll: write the provisioning QR code to this PNG file; with -import: read it")
		doCode   = fs.Bool("code", false, "Print the current code for the account")
		verify   = fs.String("verify", "", "Verify the given code for the account")
		doList   = fs.Bool("list", false, "List enrollments")
		doDelete = fs.Bool("delete", false, "Delete the account's enrollment")
		doImport = fs.Bool("import", false, "Import an enrollment from -uri, -qr, or a prompted secret")
		uri      = fs.String("uri", "", "With -import: an otpauth:// URI to import")
		doAudit  = fs.Bool("audit", false, "Check every stored enrollment for problems")
	)

	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	if app == nil {
		built, cleanup, err := buildApp(*dbPath, *issuer)
		if err != nil {
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			return 1
		}
		defer cleanup()
		app = built
	}

	if *showVersion {
		app.ShowVersion()
		return 0
	}

	ctx := context.Background()
	var err error
	switch {
	case *doEnroll:
		err = requireAccount(*account, func() error {
			return app.EnrollAccount(ctx, *account, *qrPath)
		})
	case *doCode:
		err = requireAccount(*account, func() error {
			return app.ShowCode(ctx, *account)
		})
	case *verify != "":
		err = requireAccount(*account, func() error {
			return app.VerifyCode(ctx, *account, *verify)
		})
	case *doList:
		err = app.ListEntries(ctx)
	case *doDelete:
		err = requireAccount(*account, func() error {
			return app.DeleteEntry(ctx, *account)
		})
	case *doImport && *uri != "":
		err = app.ImportURI(ctx, *uri)
	case *doImport && *qrPath != "":
		err = app.ImportQRFile(ctx, *qrPath)
	case *doImport:
		err = app.ImportManualSecret(ctx, *account)
	case *doAudit:
		err = app.RunAudit(ctx)
	default:
		printUsage(app.Stderr)
		return 2
	}

	if err != nil {
		fmt.Fprintf(app.Stderr, "❌ %v\n", err)
		return 1
	}
	return 0
}

func requireAccount(account string, fn func() error) error {
	if account == "" {
		return fmt.Errorf("account is required, use -account")
	}
	return fn()
}

// buildApp opens the SQLite store (creating the database and its
// encryption key on first use) and assembles the default App.
func buildApp(dbPath, issuer string) (*App, func(), error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o700); err != nil {
		return nil, nil, fmt.Errorf("create data directory: %w", err)
	}

	key, err := credstore.LoadOrCreateKey(dbPath + ".key")
	if err != nil {
		return nil, nil, err
	}
	store, err := credstore.OpenSQLite(dbPath, key)
	if err != nil {
		return nil, nil, err
	}

	svc := enroll.NewService(store, enroll.Config{Issuer: issuer})
	app := NewApp(store, svc, VersionInfo{Version: version, Commit: commit, Date: date})
	return app, func() { store.Close() }, nil
}

func defaultDBPath() string {
	if p := os.Getenv("TWOFA_DB"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "twofa.db"
	}
	return filepath.Join(home, ".twofa", "twofa.db")
}

func defaultIssuer() string {
	if issuer := os.Getenv("TWOFA_ISSUER"); issuer != "" {
		return issuer
	}
	return "Docketwell"
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: twofa [options]")
	fmt.Fprintln(w, "\nCommands:")
	fmt.Fprintln(w, "  -enroll -account EMAIL [-qr out.png]   Enroll an account; confirms with a first code")
	fmt.Fprintln(w, "  -code -account EMAIL                   Print the current code for an account")
	fmt.Fprintln(w, "  -verify CODE -account EMAIL            Verify a submitted code")
	fmt.Fprintln(w, "  -list                                  List enrollments")
	fmt.Fprintln(w, "  -delete -account EMAIL                 Remove an enrollment")
	fmt.Fprintln(w, "  -import -uri URI                       Import from an otpauth:// URI")
	fmt.Fprintln(w, "  -import -qr in.png                     Import from a QR image")
	fmt.Fprintln(w, "  -import -account EMAIL                 Import a manually entered secret")
	fmt.Fprintln(w, "  -audit                                 Check stored enrollments for problems")
	fmt.Fprintln(w, "  -version                               Show version information")
	fmt.Fprintln(w, "\nOptions:")
	fmt.Fprintln(w, "  -db PATH      Enrollment database (default $TWOFA_DB or ~/.twofa/twofa.db)")
	fmt.Fprintln(w, "  -issuer NAME  Issuer shown in authenticator apps (default $TWOFA_ISSUER or Docketwell)")
	fmt.Fprintln(w, "\nExamples:")
	fmt.Fprintln(w, "  twofa -enroll -account jane@example.com -qr enroll.png")
	fmt.Fprintln(w, "  twofa -verify 123456 -account jane@example.com")
	fmt.Fprintln(w, "  twofa -code -account jane@example.com")
}
