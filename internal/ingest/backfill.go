package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gridwatch/nemsync/internal/fetcher"
	"github.com/gridwatch/nemsync/internal/nemweb"
	"github.com/gridwatch/nemsync/internal/store"
)

// DefaultBackfillDelay spaces archive downloads so a long backfill does not
// hammer the portal.
const DefaultBackfillDelay = 2 * time.Second

// Backfiller fills historical holes one market day at a time. Days are
// fetched sequentially, oldest first, with a delay between requests. The
// upserts are idempotent, so a partially completed or repeated backfill is
// harmless.
type Backfiller struct {
	fetch fetcher.Fetcher
	store store.Store
	delay time.Duration
}

func NewBackfiller(f fetcher.Fetcher, st store.Store, delay time.Duration) *Backfiller {
	if delay <= 0 {
		delay = DefaultBackfillDelay
	}
	return &Backfiller{fetch: f, store: st, delay: delay}
}

// BackfillReport summarizes one source's backfill.
type BackfillReport struct {
	Source     string `json:"source"`
	DaysFilled int    `json:"days_filled"`
	Rows       int64  `json:"rows"`
	Skipped    int    `json:"skipped"`
}

// MissingDays returns the market days inside the lookback window with no
// rows at all in the source's table.
func (b *Backfiller) MissingDays(ctx context.Context, src DayFetcher, lookback time.Duration) ([]time.Time, error) {
	end := time.Now().In(nemweb.MarketTime).Truncate(24 * time.Hour)
	start := end.Add(-lookback)
	return b.store.MissingDays(ctx, src.Table(), start, end)
}

// Fill loads every missing day for a source within the lookback window.
// Cancellation between days stops cleanly; the days already written stay.
func (b *Backfiller) Fill(ctx context.Context, src DayFetcher, lookback time.Duration) (*BackfillReport, error) {
	log := zap.L().With(zap.String("source", src.Name()))

	days, err := b.MissingDays(ctx, src, lookback)
	if err != nil {
		return nil, err
	}
	log.Info("backfill planned",
		zap.Int("missing_days", len(days)),
		zap.Duration("lookback", lookback),
	)

	report := &BackfillReport{Source: src.Name()}
	for i, day := range days {
		if i > 0 {
			select {
			case <-ctx.Done():
				return report, ctx.Err()
			case <-time.After(b.delay):
			}
		}

		res, err := src.SyncDay(ctx, b.fetch, b.store, day)
		if err != nil {
			return report, err
		}
		if res.Rows > 0 {
			report.DaysFilled++
		}
		report.Rows += res.Rows
		report.Skipped += res.Skipped
		log.Info("day backfilled",
			zap.Time("day", day),
			zap.Int64("rows", res.Rows),
		)
	}
	return report, nil
}

// FillAll backfills every given source in turn. A failed source is logged
// and skipped so one broken archive does not block the rest; cancellation
// stops the pass.
func (b *Backfiller) FillAll(ctx context.Context, fetchers []DayFetcher, lookback time.Duration) error {
	for _, df := range fetchers {
		report, err := b.Fill(ctx, df, lookback)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			zap.L().Warn("backfill failed",
				zap.String("source", df.Name()),
				zap.Error(err),
			)
			continue
		}
		if report.DaysFilled > 0 {
			zap.L().Info("backfill complete",
				zap.String("source", report.Source),
				zap.Int("days_filled", report.DaysFilled),
				zap.Int64("rows", report.Rows),
			)
		}
	}
	return nil
}

// DayFetchers filters the monitored set down to the sources that support
// archive backfill.
func DayFetchers(sources []Source) []DayFetcher {
	var out []DayFetcher
	for _, src := range sources {
		if df, ok := src.(DayFetcher); ok {
			out = append(out, df)
		}
	}
	return out
}
