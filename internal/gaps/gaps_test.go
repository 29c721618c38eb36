package gaps

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridwatch/nemsync/internal/store"
)

func stamps(base time.Time, minutes ...int) []time.Time {
	ts := make([]time.Time, len(minutes))
	for i, m := range minutes {
		ts[i] = base.Add(time.Duration(m) * time.Minute)
	}
	return ts
}

func TestFindGaps(t *testing.T) {
	base := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)

	// 10:20, 10:25, 10:30, 10:50, 10:55 -> one gap of three missing intervals
	ts := stamps(base, 20, 25, 30, 50, 55)
	found := FindGaps(ts, 5*time.Minute, DefaultEpsilon)

	require.Len(t, found, 1)
	assert.Equal(t, base.Add(30*time.Minute), found[0].Start)
	assert.Equal(t, base.Add(50*time.Minute), found[0].End)
	assert.Equal(t, 3, found[0].MissingIntervals)
}

func TestFindGaps_FullCoverage(t *testing.T) {
	base := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)
	found := FindGaps(stamps(base, 0, 5, 10, 15), 5*time.Minute, DefaultEpsilon)
	assert.Empty(t, found)
}

func TestFindGaps_JitterWithinEpsilon(t *testing.T) {
	base := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)
	ts := []time.Time{
		base,
		base.Add(5*time.Minute + 3*time.Second),
		base.Add(10*time.Minute + 4*time.Second),
	}
	found := FindGaps(ts, 5*time.Minute, DefaultEpsilon)
	assert.Empty(t, found)
}

func TestFindGaps_SingleMissingInterval(t *testing.T) {
	base := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)
	found := FindGaps(stamps(base, 0, 10), 5*time.Minute, DefaultEpsilon)
	require.Len(t, found, 1)
	assert.Equal(t, 1, found[0].MissingIntervals)
}

func TestFindGaps_FewerThanTwoTimestamps(t *testing.T) {
	base := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)
	assert.Empty(t, FindGaps(nil, 5*time.Minute, DefaultEpsilon))
	assert.Empty(t, FindGaps(stamps(base, 0), 5*time.Minute, DefaultEpsilon))
}

type fakeStore struct {
	store.Store
	ts []time.Time
}

func (f *fakeStore) DistinctTimestamps(_ context.Context, _ string, _, _ time.Time) ([]time.Time, error) {
	return f.ts, nil
}

func TestDetect(t *testing.T) {
	base := time.Date(2025, time.January, 15, 10, 0, 0, 0, time.UTC)
	d := NewDetector(&fakeStore{ts: stamps(base, 20, 25, 30, 50, 55)})

	report, err := d.Detect(context.Background(), store.TableDispatch, 5*time.Minute, base, base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, store.TableDispatch, report.Table)
	assert.Equal(t, 1, report.TotalGaps)
	require.Len(t, report.Gaps, 1)
	assert.Equal(t, 3, report.Gaps[0].MissingIntervals)
}

func TestDetect_EmptyWindow(t *testing.T) {
	d := NewDetector(&fakeStore{})
	report, err := d.Detect(context.Background(), store.TablePrices, 5*time.Minute, time.Now().Add(-time.Hour), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, report.TotalGaps)
	assert.Empty(t, report.Gaps)
}
