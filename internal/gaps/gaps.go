// Package gaps diagnoses data completeness: it walks the distinct stored
// timestamps of a table and reports every span where expected settlement
// intervals are missing.
package gaps

import (
	"context"
	"math"
	"time"

	"github.com/gridwatch/nemsync/internal/model"
	"github.com/gridwatch/nemsync/internal/store"
)

// DefaultEpsilon absorbs publication clock jitter when comparing deltas
// against the expected interval.
const DefaultEpsilon = 5 * time.Second

// Detector finds holes in stored time series.
type Detector struct {
	store   store.Store
	epsilon time.Duration
}

func NewDetector(st store.Store) *Detector {
	return &Detector{store: st, epsilon: DefaultEpsilon}
}

// Detect reports the gaps in a table over [start, end) given its expected
// settlement cadence. An empty Gaps slice means full coverage.
func (d *Detector) Detect(ctx context.Context, table string, expected time.Duration, start, end time.Time) (*model.GapReport, error) {
	ts, err := d.store.DistinctTimestamps(ctx, table, start, end)
	if err != nil {
		return nil, err
	}

	report := &model.GapReport{
		Table:       table,
		WindowStart: start,
		WindowEnd:   end,
		Gaps:        FindGaps(ts, expected, d.epsilon),
	}
	report.TotalGaps = len(report.Gaps)
	return report, nil
}

// FindGaps scans sorted timestamps for consecutive deltas strictly greater
// than expected+epsilon. Each such delta yields one gap whose
// MissingIntervals is the number of absent slots strictly between the two
// stored timestamps: round(delta/expected) − 1.
func FindGaps(ts []time.Time, expected, epsilon time.Duration) []model.Gap {
	var found []model.Gap
	for i := 1; i < len(ts); i++ {
		delta := ts[i].Sub(ts[i-1])
		if delta <= expected+epsilon {
			continue
		}
		missing := int(math.Round(float64(delta)/float64(expected))) - 1
		found = append(found, model.Gap{
			Start:            ts[i-1],
			End:              ts[i],
			MissingIntervals: missing,
		})
	}
	return found
}
