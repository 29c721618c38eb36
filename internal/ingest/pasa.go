package ingest

import (
	"context"
	"time"

	"github.com/gridwatch/nemsync/internal/fetcher"
	"github.com/gridwatch/nemsync/internal/model"
	"github.com/gridwatch/nemsync/internal/nemweb"
	"github.com/gridwatch/nemsync/internal/store"
)

// PasaSource ingests regional adequacy forecasts. Two publications share the
// format: the pre-dispatch horizon covers the next trading day at half-hour
// resolution, the short-term horizon the next seven days.
type PasaSource struct {
	base    string
	horizon model.PasaHorizon
	report  nemweb.Report
}

// NewPasaSource builds the pre-dispatch source, or the short-term one when
// shortTerm is set.
func NewPasaSource(base string, shortTerm bool) *PasaSource {
	s := &PasaSource{base: base, horizon: model.PasaPreDispatch, report: nemweb.ReportPDPASA}
	if shortTerm {
		s.horizon = model.PasaShortTerm
		s.report = nemweb.ReportSTPASA
	}
	return s
}

func (s *PasaSource) Name() string            { return s.report.Name }
func (s *PasaSource) Table() string           { return store.TablePasa }
func (s *PasaSource) Interval() time.Duration { return 30 * time.Minute }

func (s *PasaSource) Sync(ctx context.Context, f fetcher.Fetcher, st store.Store, cursor *time.Time) (*Result, error) {
	return syncCurrent(ctx, f, s.Name(), s.base, s.report, cursor,
		func(ctx context.Context, archive []byte) (int64, int, error) {
			recs, skipped, err := nemweb.ParsePasa(archive, s.horizon)
			if err != nil {
				return 0, 0, err
			}
			rows, err := st.UpsertPasa(ctx, recs)
			if err != nil {
				return 0, skipped, &PersistenceError{Source: s.Name(), Table: s.Table(), Err: err}
			}
			return rows, skipped, nil
		})
}
