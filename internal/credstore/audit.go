package credstore

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/docketwell/twofa/internal/otp"
)

// minSecretBytes is the interoperability floor for stored secrets;
// anything shorter is flagged by the audit as too weak.
const minSecretBytes = 16

// Problem reports one enrollment that failed an audit check.
type Problem struct {
	Account string
	Err     error
}

// Audit sweeps every stored enrollment and verifies that its secret can be
// retrieved, strictly base32-decodes, and meets the minimum length. Checks
// run with bounded parallelism. The returned problems are sorted by
// account; a non-nil error means the sweep itself could not complete.
func Audit(ctx context.Context, store Store, concurrency int) ([]Problem, error) {
	entries, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	if concurrency < 1 {
		concurrency = 4
	}

	var (
		mu       sync.Mutex
		problems []Problem
	)
	report := func(account string, err error) {
		mu.Lock()
		problems = append(problems, Problem{Account: account, Err: err})
		mu.Unlock()
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, e := range entries {
		e := e
		g.Go(func() error {
			encoded, err := store.Get(ctx, e.Account)
			if err != nil {
				report(e.Account, err)
				return nil
			}
			raw, err := otp.DecodeBase32Strict(encoded)
			if err != nil {
				report(e.Account, err)
				return nil
			}
			if len(raw) < minSecretBytes {
				report(e.Account, fmt.Errorf("secret is %d bytes, below the %d-byte floor", len(raw), minSecretBytes))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(problems, func(i, j int) bool { return problems[i].Account < problems[j].Account })
	return problems, nil
}
