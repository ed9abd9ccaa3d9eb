package credstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // pure-Go sqlite driver

	"github.com/docketwell/twofa/internal/secure"
)

const schema = `
CREATE TABLE IF NOT EXISTS enrollments (
	account    TEXT PRIMARY KEY,
	secret     BLOB NOT NULL,
	meta       BLOB NOT NULL,
	updated_at INTEGER NOT NULL
) WITHOUT ROWID;
`

// SQLiteStore is the file-backed Store used by the CLI. Secrets are
// sealed before they touch the database; metadata travels as compressed
// JSON blobs.
type SQLiteStore struct {
	db     *sql.DB
	sealer *sealer
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens (creating if necessary) the enrollment database at
// path, sealed under key. Close the store when done.
func OpenSQLite(path string, key []byte) (*SQLiteStore, error) {
	s, err := newSealer(key)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("credstore: open %s: %w", path, err)
	}
	// The driver serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent Puts.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("credstore: init schema: %w", err)
	}

	return &SQLiteStore{db: db, sealer: s}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Get returns the base32-encoded secret for account.
func (s *SQLiteStore) Get(ctx context.Context, account string) (string, error) {
	var box []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT secret FROM enrollments WHERE account = ?`, account).Scan(&box)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("credstore: get %q: %w", account, err)
	}

	plain, err := s.sealer.open(account, box)
	if err != nil {
		return "", err
	}
	encoded := string(plain)
	secure.ZeroBytes(plain)
	return encoded, nil
}

// Put stores or replaces the enrollment for account.
func (s *SQLiteStore) Put(ctx context.Context, account, encodedSecret string, meta Meta) error {
	metaBlob, err := encodeMeta(meta)
	if err != nil {
		return fmt.Errorf("credstore: put %q: %w", account, err)
	}
	box, err := s.sealer.seal(account, []byte(encodedSecret))
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO enrollments (account, secret, meta, updated_at)
		VALUES (?, ?, ?, unixepoch())
		ON CONFLICT(account) DO UPDATE SET
			secret = excluded.secret,
			meta = excluded.meta,
			updated_at = excluded.updated_at`,
		account, box, metaBlob)
	if err != nil {
		return fmt.Errorf("credstore: put %q: %w", account, err)
	}
	return nil
}

// Delete removes the enrollment for account.
func (s *SQLiteStore) Delete(ctx context.Context, account string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM enrollments WHERE account = ?`, account)
	if err != nil {
		return fmt.Errorf("credstore: delete %q: %w", account, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("credstore: delete %q: %w", account, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all enrollments ordered by account.
func (s *SQLiteStore) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT account, meta FROM enrollments ORDER BY account`)
	if err != nil {
		return nil, fmt.Errorf("credstore: list: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var metaBlob []byte
		if err := rows.Scan(&e.Account, &metaBlob); err != nil {
			return nil, fmt.Errorf("credstore: list: %w", err)
		}
		if e.Meta, err = decodeMeta(metaBlob); err != nil {
			return nil, fmt.Errorf("credstore: list %q: %w", e.Account, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("credstore: list: %w", err)
	}
	return entries, nil
}
