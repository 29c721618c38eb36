package ingest

import (
	"context"
	"time"

	"github.com/gridwatch/nemsync/internal/fetcher"
	"github.com/gridwatch/nemsync/internal/store"
)

// Result is the outcome of one source sync.
type Result struct {
	Rows    int64      // records upserted
	Skipped int        // malformed rows dropped by the parser
	Cursor  *time.Time // newest publication stamp fully persisted, nil = nothing new
}

// Source is one monitored portal publication. Sync discovers files published
// after the cursor, downloads them, parses them, and upserts the records.
// A nil cursor means first run: only the latest file is taken, so a fresh
// deployment does not replay the portal's whole current directory.
type Source interface {
	Name() string
	Table() string

	// Interval is the expected settlement cadence of the table's rows,
	// used for completeness diagnostics.
	Interval() time.Duration

	Sync(ctx context.Context, f fetcher.Fetcher, st store.Store, cursor *time.Time) (*Result, error)
}

// DayFetcher is a Source that can also load one whole market day from the
// portal's archive, for backfill.
type DayFetcher interface {
	Source
	SyncDay(ctx context.Context, f fetcher.Fetcher, st store.Store, day time.Time) (*Result, error)
}

// Sources returns the full monitored set in a stable order.
func Sources(baseURL string) []Source {
	return []Source{
		NewDispatchSCADASource(baseURL),
		NewDispatchPriceSource(baseURL),
		NewTradingPriceSource(baseURL),
		NewPublicPriceSource(baseURL),
		NewPasaSource(baseURL, false),
		NewPasaSource(baseURL, true),
		NewBidBandSource(baseURL),
	}
}
