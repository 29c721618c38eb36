package ingest

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/gridwatch/nemsync/internal/fetcher"
	"github.com/gridwatch/nemsync/internal/nemweb"
	"github.com/gridwatch/nemsync/internal/store"
)

// BidBandSource ingests the daily energy bid stack. One archive per market
// day, published next morning.
type BidBandSource struct {
	base string
}

func NewBidBandSource(base string) *BidBandSource {
	return &BidBandSource{base: base}
}

func (s *BidBandSource) Name() string            { return nemweb.ReportBidmove.Name }
func (s *BidBandSource) Table() string           { return store.TableBidBands }
func (s *BidBandSource) Interval() time.Duration { return 24 * time.Hour }

func (s *BidBandSource) ingest(ctx context.Context, st store.Store, archive []byte) (int64, int, error) {
	recs, skipped, err := nemweb.ParseBidBands(archive)
	if err != nil {
		return 0, 0, err
	}
	rows, err := st.UpsertBidBands(ctx, recs)
	if err != nil {
		return 0, skipped, &PersistenceError{Source: s.Name(), Table: s.Table(), Err: err}
	}
	return rows, skipped, nil
}

func (s *BidBandSource) Sync(ctx context.Context, f fetcher.Fetcher, st store.Store, cursor *time.Time) (*Result, error) {
	return syncCurrent(ctx, f, s.Name(), s.base, nemweb.ReportBidmove, cursor,
		func(ctx context.Context, archive []byte) (int64, int, error) {
			return s.ingest(ctx, st, archive)
		})
}

// SyncDay loads the bid archive for one market day.
func (s *BidBandSource) SyncDay(ctx context.Context, f fetcher.Fetcher, st store.Store, day time.Time) (*Result, error) {
	url := nemweb.BidmoveArchiveURL(s.base, day)
	archive, err := f.Get(ctx, url)
	if err != nil {
		if errors.Is(err, fetcher.ErrNotFound) {
			zap.L().Warn("bid archive not published",
				zap.String("source", s.Name()),
				zap.Time("day", day),
			)
			return &Result{}, nil
		}
		return nil, &FetchError{Source: s.Name(), URL: url, Err: err}
	}

	rows, skipped, err := s.ingest(ctx, st, archive)
	if err != nil {
		return nil, err
	}
	return &Result{Rows: rows, Skipped: skipped}, nil
}
