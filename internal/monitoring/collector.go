package monitoring

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/gridwatch/nemsync/internal/gaps"
	"github.com/gridwatch/nemsync/internal/ingest"
	"github.com/gridwatch/nemsync/internal/store"
)

// TableHealth is one table's freshness and continuity within the lookback
// window.
type TableHealth struct {
	Table    string     `json:"table"`
	Latest   *time.Time `json:"latest,omitempty"`
	StaleFor float64    `json:"stale_for_mins"`
	Gaps     int        `json:"gaps"`
	Missing  int        `json:"missing_intervals"`
}

// MetricsSnapshot holds a point-in-time view of feed health.
type MetricsSnapshot struct {
	Tables []TableHealth `json:"tables"`

	// Ingest run outcomes within the lookback window.
	RunsTotal    int `json:"runs_total"`
	RunsComplete int `json:"runs_complete"`
	RunsFailed   int `json:"runs_failed"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// IngestLogQuerier abstracts the ingest log methods needed by the collector.
type IngestLogQuerier interface {
	Recent(ctx context.Context, limit int) ([]ingest.LogEntry, error)
}

// Collector gathers feed-health metrics from the store and ingest log.
type Collector struct {
	store     store.Store
	ingestLog IngestLogQuerier
	detector  *gaps.Detector
	intervals map[string]time.Duration
}

// NewCollector creates a metrics collector. Sources supply the expected
// settlement cadence per table; tables fed by several sources take the
// tightest cadence.
func NewCollector(st store.Store, log IngestLogQuerier, detector *gaps.Detector, sources []ingest.Source) *Collector {
	intervals := make(map[string]time.Duration)
	for _, src := range sources {
		cur, ok := intervals[src.Table()]
		if !ok || src.Interval() < cur {
			intervals[src.Table()] = src.Interval()
		}
	}
	return &Collector{store: st, ingestLog: log, detector: detector, intervals: intervals}
}

// Collect gathers a snapshot of feed health over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	now := time.Now().UTC()
	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   now,
	}
	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)

	for table, interval := range c.intervals {
		// Bid bands settle daily; the lookback window is too short to
		// say anything about their continuity.
		if interval >= 24*time.Hour {
			continue
		}

		health := TableHealth{Table: table}

		cov, err := c.store.Coverage(ctx, table)
		if err != nil {
			return nil, eris.Wrapf(err, "monitoring: coverage for %s", table)
		}
		if cov.Latest != nil {
			health.Latest = cov.Latest
			health.StaleFor = now.Sub(cov.Latest.UTC()).Minutes()
		}

		report, err := c.detector.Detect(ctx, table, interval, cutoff, now)
		if err != nil {
			return nil, eris.Wrapf(err, "monitoring: gaps for %s", table)
		}
		health.Gaps = report.TotalGaps
		for _, g := range report.Gaps {
			health.Missing += g.MissingIntervals
		}

		snap.Tables = append(snap.Tables, health)
	}
	sort.Slice(snap.Tables, func(i, j int) bool { return snap.Tables[i].Table < snap.Tables[j].Table })

	if c.ingestLog != nil {
		entries, err := c.ingestLog.Recent(ctx, 500)
		if err != nil {
			return nil, eris.Wrap(err, "monitoring: recent ingest runs")
		}
		for _, e := range entries {
			if e.StartedAt.Before(cutoff) {
				continue
			}
			snap.RunsTotal++
			switch e.Status {
			case "complete":
				snap.RunsComplete++
			case "failed":
				snap.RunsFailed++
			}
		}
	}

	return snap, nil
}
