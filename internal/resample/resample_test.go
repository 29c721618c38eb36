package resample

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridwatch/nemsync/internal/model"
)

func TestBucketWidth(t *testing.T) {
	tests := []struct {
		window time.Duration
		want   time.Duration
	}{
		{time.Hour, 0},
		{47 * time.Hour, 0},
		{48 * time.Hour, 30 * time.Minute},
		{3 * 24 * time.Hour, 30 * time.Minute},
		{7 * 24 * time.Hour, 30 * time.Minute},
		{7*24*time.Hour + time.Minute, time.Hour},
		{10 * 24 * time.Hour, time.Hour},
		{30 * 24 * time.Hour, time.Hour},
		{30*24*time.Hour + time.Minute, 24 * time.Hour},
		{90 * 24 * time.Hour, 24 * time.Hour},
		{91 * 24 * time.Hour, 7 * 24 * time.Hour},
		{365 * 24 * time.Hour, 7 * 24 * time.Hour},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, BucketWidth(tt.window), "window %v", tt.window)
	}
}

func uniformSamples(start time.Time, interval time.Duration, n int) []Sample {
	samples := make([]Sample, n)
	for i := range n {
		samples[i] = Sample{
			Ts:     start.Add(time.Duration(i) * interval),
			Values: map[string]float64{"v": float64(i)},
		}
	}
	return samples
}

func TestResample_ShortWindowPassesThrough(t *testing.T) {
	start := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	end := start.Add(47 * time.Hour)
	samples := uniformSamples(start, 5*time.Minute, 12)

	out := Resample(samples, start, end)
	require.Len(t, out, 12)
	assert.Equal(t, samples[0].Ts, out[0].Ts)
	assert.Equal(t, 0.0, out[0].Values["v"])
}

func TestResample_TenDaysHourlyBuckets(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(10 * 24 * time.Hour)
	// Uniform 5-min data across the full window: 2880 samples
	samples := uniformSamples(start, 5*time.Minute, 10*24*12)

	out := Resample(samples, start, end)
	// 10 days of hourly buckets
	require.Len(t, out, 240)
	assert.Equal(t, start, out[0].Ts)
	assert.Equal(t, start.Add(time.Hour), out[1].Ts)

	// First hour holds samples 0..11, mean 5.5
	assert.InDelta(t, 5.5, out[0].Values["v"], 1e-9)
}

func TestDownsample_WindowRelativeNotCalendarAligned(t *testing.T) {
	// Window starting at 00:10 puts bucket boundaries at 00:10, 01:10, ...
	start := time.Date(2025, time.January, 1, 0, 10, 0, 0, time.UTC)
	samples := []Sample{
		{Ts: start.Add(55 * time.Minute), Values: map[string]float64{"v": 1}},
		{Ts: start.Add(65 * time.Minute), Values: map[string]float64{"v": 3}},
	}

	out := Downsample(samples, start, time.Hour)
	require.Len(t, out, 2)
	assert.Equal(t, start, out[0].Ts)
	assert.Equal(t, start.Add(time.Hour), out[1].Ts)
	assert.Equal(t, 1.0, out[0].Values["v"])
	assert.Equal(t, 3.0, out[1].Values["v"])
}

func TestDownsample_EmptyBucketsOmitted(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	samples := []Sample{
		{Ts: start, Values: map[string]float64{"v": 1}},
		// Nothing for hours 1..4
		{Ts: start.Add(5 * time.Hour), Values: map[string]float64{"v": 9}},
	}

	out := Downsample(samples, start, time.Hour)
	require.Len(t, out, 2)
	assert.Equal(t, start, out[0].Ts)
	assert.Equal(t, start.Add(5*time.Hour), out[1].Ts)
}

func TestDownsample_MeansPerColumn(t *testing.T) {
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	samples := []Sample{
		{Ts: start, Values: map[string]float64{"rrp": 80, "totaldemand": 7000}},
		{Ts: start.Add(5 * time.Minute), Values: map[string]float64{"rrp": 100, "totaldemand": 7400}},
	}

	out := Downsample(samples, start, 30*time.Minute)
	require.Len(t, out, 1)
	assert.Equal(t, 90.0, out[0].Values["rrp"])
	assert.Equal(t, 7200.0, out[0].Values["totaldemand"])
}

func TestMergePrices_ArchivalWins(t *testing.T) {
	d1 := time.Date(2025, time.January, 15, 0, 30, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)

	public := []model.PriceRecord{
		{SettlementDate: d1, Region: "NSW", Price: 50, PriceType: model.PricePublic},
	}
	dispatch := []model.PriceRecord{
		{SettlementDate: d1, Region: "NSW", Price: 55, PriceType: model.PriceDispatch},
		{SettlementDate: d2, Region: "NSW", Price: 58, PriceType: model.PriceDispatch},
	}

	merged := MergePrices(public, dispatch)
	require.Len(t, merged, 2)
	assert.Equal(t, 50.0, merged[0].Price)
	assert.Equal(t, 58.0, merged[1].Price)
	assert.Equal(t, model.PriceMerged, merged[0].PriceType)
	assert.Equal(t, model.PriceMerged, merged[1].PriceType)
}

func TestMergePrices_AbsentFromBothStaysAbsent(t *testing.T) {
	merged := MergePrices(nil, nil)
	assert.Empty(t, merged)
}
