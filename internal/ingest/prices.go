package ingest

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gridwatch/nemsync/internal/fetcher"
	"github.com/gridwatch/nemsync/internal/nemweb"
	"github.com/gridwatch/nemsync/internal/store"
)

// DispatchPriceSource ingests five-minute regional reference prices and
// interconnector flows. Both come out of the same DISPATCHIS archive, so one
// download feeds two tables.
type DispatchPriceSource struct {
	base string
}

func NewDispatchPriceSource(base string) *DispatchPriceSource {
	return &DispatchPriceSource{base: base}
}

func (s *DispatchPriceSource) Name() string            { return nemweb.ReportDispatchIS.Name }
func (s *DispatchPriceSource) Table() string           { return store.TablePrices }
func (s *DispatchPriceSource) Interval() time.Duration { return 5 * time.Minute }

func (s *DispatchPriceSource) Sync(ctx context.Context, f fetcher.Fetcher, st store.Store, cursor *time.Time) (*Result, error) {
	return syncCurrent(ctx, f, s.Name(), s.base, nemweb.ReportDispatchIS, cursor,
		func(ctx context.Context, archive []byte) (int64, int, error) {
			prices, skippedP, err := nemweb.ParseDispatchPrices(archive)
			if err != nil {
				return 0, 0, err
			}
			flows, skippedI, err := nemweb.ParseInterconnectors(archive)
			if err != nil {
				return 0, 0, err
			}

			rows, err := st.UpsertPrices(ctx, prices)
			if err != nil {
				return 0, skippedP, &PersistenceError{Source: s.Name(), Table: store.TablePrices, Err: err}
			}
			n, err := st.UpsertInterconnectors(ctx, flows)
			if err != nil {
				return rows, skippedP + skippedI, &PersistenceError{Source: s.Name(), Table: store.TableInterconnectors, Err: err}
			}
			return rows + n, skippedP + skippedI, nil
		})
}

// TradingPriceSource ingests half-hourly trading prices.
type TradingPriceSource struct {
	base string
}

func NewTradingPriceSource(base string) *TradingPriceSource {
	return &TradingPriceSource{base: base}
}

func (s *TradingPriceSource) Name() string            { return nemweb.ReportTradingIS.Name }
func (s *TradingPriceSource) Table() string           { return store.TablePrices }
func (s *TradingPriceSource) Interval() time.Duration { return 30 * time.Minute }

func (s *TradingPriceSource) Sync(ctx context.Context, f fetcher.Fetcher, st store.Store, cursor *time.Time) (*Result, error) {
	return syncCurrent(ctx, f, s.Name(), s.base, nemweb.ReportTradingIS, cursor,
		func(ctx context.Context, archive []byte) (int64, int, error) {
			recs, skipped, err := nemweb.ParseTradingPrices(archive)
			if err != nil {
				return 0, 0, err
			}
			rows, err := st.UpsertPrices(ctx, recs)
			if err != nil {
				return 0, skipped, &PersistenceError{Source: s.Name(), Table: s.Table(), Err: err}
			}
			return rows, skipped, nil
		})
}

// PublicPriceSource ingests the archival settlement price series. These
// trail dispatch by a day or two but carry the authoritative figures, so the
// merged series prefers them wherever both exist.
type PublicPriceSource struct {
	base string
}

func NewPublicPriceSource(base string) *PublicPriceSource {
	return &PublicPriceSource{base: base}
}

func (s *PublicPriceSource) Name() string            { return nemweb.ReportPublicPrices.Name }
func (s *PublicPriceSource) Table() string           { return store.TablePrices }
func (s *PublicPriceSource) Interval() time.Duration { return 5 * time.Minute }

func (s *PublicPriceSource) ingest(ctx context.Context, st store.Store, archive []byte) (int64, int, error) {
	recs, skipped, err := nemweb.ParsePublicPrices(archive)
	if err != nil {
		return 0, 0, err
	}
	rows, err := st.UpsertPrices(ctx, recs)
	if err != nil {
		return 0, skipped, &PersistenceError{Source: s.Name(), Table: s.Table(), Err: err}
	}
	return rows, skipped, nil
}

func (s *PublicPriceSource) Sync(ctx context.Context, f fetcher.Fetcher, st store.Store, cursor *time.Time) (*Result, error) {
	return syncCurrent(ctx, f, s.Name(), s.base, nemweb.ReportPublicPrices, cursor,
		func(ctx context.Context, archive []byte) (int64, int, error) {
			return s.ingest(ctx, st, archive)
		})
}

// SyncDay loads one market day of settlement prices. Recent days are still
// in the current directory; older days live inside the monthly archive as
// nested daily ZIPs.
func (s *PublicPriceSource) SyncDay(ctx context.Context, f fetcher.Fetcher, st store.Store, day time.Time) (*Result, error) {
	dirURL := s.base + nemweb.ReportPublicPrices.CurrentDir
	html, err := f.ListDirectory(ctx, dirURL)
	if err != nil {
		return nil, &FetchError{Source: s.Name(), URL: dirURL, Err: err}
	}

	want := day.Format("20060102") + "0000"
	for _, file := range nemweb.ReportPublicPrices.ListFiles(html) {
		if !strings.Contains(file.Name, want) {
			continue
		}
		url := nemweb.ReportPublicPrices.FileURL(s.base, file.Name)
		archive, err := f.Get(ctx, url)
		if err != nil {
			return nil, &FetchError{Source: s.Name(), URL: url, Err: err}
		}
		rows, skipped, err := s.ingest(ctx, st, archive)
		if err != nil {
			return nil, err
		}
		return &Result{Rows: rows, Skipped: skipped}, nil
	}

	// Fall back to the monthly archive.
	url := nemweb.PublicPricesArchiveURL(s.base, day)
	archive, err := f.Get(ctx, url)
	if err != nil {
		if errors.Is(err, fetcher.ErrNotFound) {
			zap.L().Warn("monthly archive not published",
				zap.String("source", s.Name()),
				zap.Time("day", day),
			)
			return &Result{}, nil
		}
		return nil, &FetchError{Source: s.Name(), URL: url, Err: err}
	}

	inner, err := nemweb.InnerArchives(archive, func(name string) bool {
		return nemweb.PublicPricesInnerName(name, day)
	})
	if err != nil {
		return nil, err
	}
	if len(inner) == 0 {
		return &Result{}, nil
	}

	rows, skipped, err := s.ingest(ctx, st, inner[0])
	if err != nil {
		return nil, err
	}
	return &Result{Rows: rows, Skipped: skipped}, nil
}
