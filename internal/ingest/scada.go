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

// DispatchSCADASource ingests per-unit metered output, published every five
// minutes.
type DispatchSCADASource struct {
	base string
}

func NewDispatchSCADASource(base string) *DispatchSCADASource {
	return &DispatchSCADASource{base: base}
}

func (s *DispatchSCADASource) Name() string            { return nemweb.ReportDispatchSCADA.Name }
func (s *DispatchSCADASource) Table() string           { return store.TableDispatch }
func (s *DispatchSCADASource) Interval() time.Duration { return 5 * time.Minute }

func (s *DispatchSCADASource) Sync(ctx context.Context, f fetcher.Fetcher, st store.Store, cursor *time.Time) (*Result, error) {
	return syncCurrent(ctx, f, s.Name(), s.base, nemweb.ReportDispatchSCADA, cursor,
		func(ctx context.Context, archive []byte) (int64, int, error) {
			return s.ingest(ctx, st, archive)
		})
}

func (s *DispatchSCADASource) ingest(ctx context.Context, st store.Store, archive []byte) (int64, int, error) {
	recs, skipped, err := nemweb.ParseDispatchSCADA(archive)
	if err != nil {
		return 0, 0, err
	}
	n, err := st.UpsertDispatch(ctx, recs)
	if err != nil {
		return 0, skipped, &PersistenceError{Source: s.Name(), Table: s.Table(), Err: err}
	}
	return n, skipped, nil
}

// SyncDay loads one market day from the daily archive. The archive holds
// the day's five-minute reports as nested ZIPs.
func (s *DispatchSCADASource) SyncDay(ctx context.Context, f fetcher.Fetcher, st store.Store, day time.Time) (*Result, error) {
	url := nemweb.DispatchSCADAArchiveURL(s.base, day)
	archive, err := f.Get(ctx, url)
	if err != nil {
		if errors.Is(err, fetcher.ErrNotFound) {
			zap.L().Warn("daily archive not published",
				zap.String("source", s.Name()),
				zap.Time("day", day),
			)
			return &Result{}, nil
		}
		return nil, &FetchError{Source: s.Name(), URL: url, Err: err}
	}

	inner, err := nemweb.InnerArchives(archive, func(string) bool { return true })
	if err != nil {
		return nil, err
	}

	res := &Result{}
	if len(inner) == 0 {
		// Some archive vintages hold the day's CSV directly.
		rows, skipped, err := s.ingest(ctx, st, archive)
		if err != nil {
			return nil, err
		}
		res.Rows, res.Skipped = rows, skipped
		return res, nil
	}

	for _, nested := range inner {
		rows, skipped, err := s.ingest(ctx, st, nested)
		if err != nil {
			return nil, err
		}
		res.Rows += rows
		res.Skipped += skipped
	}
	return res, nil
}
