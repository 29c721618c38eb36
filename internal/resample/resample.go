// Package resample answers range queries at a granularity chosen by window
// length and merges differently-provenanced price series.
package resample

import (
	"sort"
	"time"
)

// Window-length thresholds and their bucket widths. Callers never pick a
// granularity; the window does.
const (
	rawThreshold = 48 * time.Hour
	halfHourMax  = 7 * 24 * time.Hour
	hourMax      = 30 * 24 * time.Hour
	dayMax       = 90 * 24 * time.Hour
	week         = 7 * 24 * time.Hour
)

// BucketWidth returns the aggregation bucket for a query window. Zero means
// pass-through: the native 5-minute data is returned unaggregated. Upper
// bounds are inclusive: an exactly 7-day window still gets 30-minute buckets.
func BucketWidth(window time.Duration) time.Duration {
	switch {
	case window < rawThreshold:
		return 0
	case window <= halfHourMax:
		return 30 * time.Minute
	case window <= hourMax:
		return time.Hour
	case window <= dayMax:
		return 24 * time.Hour
	default:
		return week
	}
}

// Sample is one timestamped row of named numeric columns. It is the common
// currency between the typed store records and the aggregated output.
type Sample struct {
	Ts     time.Time          `json:"ts"`
	Values map[string]float64 `json:"values"`
}

// Downsample groups samples into window-relative buckets of the given width
// (bucket i covers [start+i*width, start+(i+1)*width)) and averages each
// column. Buckets with no underlying samples are omitted; output is sorted
// ascending by bucket start. A zero width returns the input sorted.
func Downsample(samples []Sample, start time.Time, width time.Duration) []Sample {
	if width <= 0 {
		out := make([]Sample, len(samples))
		copy(out, samples)
		sort.Slice(out, func(i, j int) bool { return out[i].Ts.Before(out[j].Ts) })
		return out
	}

	type acc struct {
		sums   map[string]float64
		counts map[string]int
	}
	buckets := make(map[int64]*acc)

	for _, s := range samples {
		if s.Ts.Before(start) {
			continue
		}
		idx := int64(s.Ts.Sub(start) / width)
		a, ok := buckets[idx]
		if !ok {
			a = &acc{sums: make(map[string]float64), counts: make(map[string]int)}
			buckets[idx] = a
		}
		for col, v := range s.Values {
			a.sums[col] += v
			a.counts[col]++
		}
	}

	idxs := make([]int64, 0, len(buckets))
	for idx := range buckets {
		idxs = append(idxs, idx)
	}
	sort.Slice(idxs, func(i, j int) bool { return idxs[i] < idxs[j] })

	out := make([]Sample, 0, len(idxs))
	for _, idx := range idxs {
		a := buckets[idx]
		values := make(map[string]float64, len(a.sums))
		for col, sum := range a.sums {
			values[col] = sum / float64(a.counts[col])
		}
		out = append(out, Sample{
			Ts:     start.Add(time.Duration(idx) * width),
			Values: values,
		})
	}
	return out
}

// Resample picks the bucket width from the window and downsamples.
func Resample(samples []Sample, start, end time.Time) []Sample {
	return Downsample(samples, start, BucketWidth(end.Sub(start)))
}
