package monitoring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridwatch/nemsync/internal/config"
	"github.com/gridwatch/nemsync/internal/fetcher"
	"github.com/gridwatch/nemsync/internal/gaps"
	"github.com/gridwatch/nemsync/internal/ingest"
	"github.com/gridwatch/nemsync/internal/model"
	"github.com/gridwatch/nemsync/internal/store"
)

type fakeStore struct {
	store.Store
	latest *time.Time
	stamps []time.Time
}

func (f *fakeStore) Coverage(_ context.Context, table string) (*model.Coverage, error) {
	return &model.Coverage{Table: table, Latest: f.latest}, nil
}

func (f *fakeStore) DistinctTimestamps(_ context.Context, _ string, _, _ time.Time) ([]time.Time, error) {
	return f.stamps, nil
}

type fakeLog struct {
	entries []ingest.LogEntry
}

func (f *fakeLog) Recent(_ context.Context, _ int) ([]ingest.LogEntry, error) {
	return f.entries, nil
}

type fakeSource struct {
	table    string
	interval time.Duration
}

func (s *fakeSource) Name() string            { return s.table }
func (s *fakeSource) Table() string           { return s.table }
func (s *fakeSource) Interval() time.Duration { return s.interval }
func (s *fakeSource) Sync(context.Context, fetcher.Fetcher, store.Store, *time.Time) (*ingest.Result, error) {
	return nil, nil
}

func TestCollector_Collect(t *testing.T) {
	now := time.Now().UTC()
	latest := now.Add(-45 * time.Minute)
	st := &fakeStore{
		latest: &latest,
		// A 10-minute hole in a 5-minute series.
		stamps: []time.Time{
			now.Add(-30 * time.Minute),
			now.Add(-25 * time.Minute),
			now.Add(-15 * time.Minute),
		},
	}
	log := &fakeLog{entries: []ingest.LogEntry{
		{Source: "dispatch_scada", Status: "complete", StartedAt: now.Add(-10 * time.Minute)},
		{Source: "trading_price", Status: "failed", StartedAt: now.Add(-5 * time.Minute)},
		{Source: "old_run", Status: "failed", StartedAt: now.Add(-48 * time.Hour)},
	}}
	sources := []ingest.Source{
		&fakeSource{table: store.TableDispatch, interval: 5 * time.Minute},
		&fakeSource{table: store.TableBidBands, interval: 24 * time.Hour},
	}

	c := NewCollector(st, log, gaps.NewDetector(st), sources)
	snap, err := c.Collect(context.Background(), 6)
	require.NoError(t, err)

	// Daily tables are excluded from continuity checks.
	require.Len(t, snap.Tables, 1)
	tbl := snap.Tables[0]
	assert.Equal(t, store.TableDispatch, tbl.Table)
	assert.Equal(t, 1, tbl.Gaps)
	assert.Equal(t, 1, tbl.Missing)
	assert.InDelta(t, 45.0, tbl.StaleFor, 1.0)

	// Runs outside the lookback window are ignored.
	assert.Equal(t, 2, snap.RunsTotal)
	assert.Equal(t, 1, snap.RunsFailed)
}

func TestAlerter_Evaluate(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{StaleAfterMins: 30})
	latest := time.Now().UTC().Add(-time.Hour)

	snap := &MetricsSnapshot{
		Tables: []TableHealth{
			{Table: "nem.dispatch_data", Latest: &latest, StaleFor: 60, Gaps: 2, Missing: 5},
			{Table: "nem.price_data", Latest: &latest, StaleFor: 5},
		},
		RunsTotal:     10,
		RunsFailed:    1,
		LookbackHours: 6,
	}

	alerts := a.Evaluate(snap)
	require.Len(t, alerts, 3)

	types := make(map[AlertType]bool)
	for _, al := range alerts {
		types[al.Type] = true
	}
	assert.True(t, types[AlertFeedStale])
	assert.True(t, types[AlertFeedGap])
	assert.True(t, types[AlertIngestFailure])
}

func TestAlerter_EvaluateHealthy(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{StaleAfterMins: 30})
	latest := time.Now().UTC()

	snap := &MetricsSnapshot{
		Tables:     []TableHealth{{Table: "nem.dispatch_data", Latest: &latest, StaleFor: 3}},
		RunsTotal:  10,
		RunsFailed: 0,
	}
	assert.Empty(t, a.Evaluate(snap))
}

func TestAlerter_SendAlerts(t *testing.T) {
	var received atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	a := NewAlerter(config.MonitoringConfig{WebhookURL: srv.URL})
	sent := a.SendAlerts(context.Background(), []Alert{
		{Type: AlertFeedStale, Severity: "high", Message: "stale"},
		{Type: AlertFeedGap, Severity: "medium", Message: "gap"},
	})
	assert.Equal(t, 2, sent)
	assert.Equal(t, int32(2), received.Load())
}

func TestAlerter_SendAlertsNoWebhook(t *testing.T) {
	a := NewAlerter(config.MonitoringConfig{})
	assert.Zero(t, a.SendAlerts(context.Background(), []Alert{{Type: AlertFeedGap}}))
}
