package fetcher

import (
	"context"
	"errors"
)

// ErrNotFound reports a 404. Backfill probes archive URLs that legitimately
// do not exist (future months, pre-history dates) and needs to tell that
// apart from a transport failure.
var ErrNotFound = errors.New("fetcher: not found")

// Fetcher downloads remote portal data. Report archives are small enough
// (tens of KB to a few MB) that everything moves as in-memory byte slices.
type Fetcher interface {
	// Get fetches the URL and returns the full response body.
	Get(ctx context.Context, url string) ([]byte, error)

	// ListDirectory fetches a directory listing page and returns its HTML.
	ListDirectory(ctx context.Context, url string) (string, error)
}
