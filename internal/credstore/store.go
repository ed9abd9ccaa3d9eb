// Package credstore persists enrolled two-factor secrets keyed by account
// identifier. Secrets enter and leave the store in their base32-encoded
// form; at rest they are sealed with an AEAD so a copied database file is
// useless without the key file.
package credstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no enrollment exists for an account.
var ErrNotFound = errors.New("credstore: no enrollment for account")

// Meta carries the non-secret attributes of an enrollment.
type Meta struct {
	Issuer    string    `json:"issuer"`
	Label     string    `json:"label,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Entry is one stored enrollment as reported by List. The secret itself is
// never included; use Get.
type Entry struct {
	Account string
	Meta    Meta
}

// Store is the credential store contract the enrollment and login flows
// are wired through. Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the base32-encoded secret for account, or ErrNotFound.
	Get(ctx context.Context, account string) (string, error)
	// Put stores or replaces the secret and metadata for account.
	Put(ctx context.Context, account, encodedSecret string, meta Meta) error
	// Delete removes the enrollment for account, or returns ErrNotFound.
	Delete(ctx context.Context, account string) error
	// List returns every enrollment's account and metadata.
	List(ctx context.Context) ([]Entry, error)
}
