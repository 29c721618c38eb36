package model

import "time"

// DailyMetricRecord is one derived market metric for a region and calendar
// day. Kind is a fuel source for capture metrics or a spread label
// ("tb2_spread", "tb4_spread", "tb8_spread"). Derived, recomputable, never
// hand-edited.
type DailyMetricRecord struct {
	Region       string    `json:"region"`
	Day          time.Time `json:"day"`
	Kind         string    `json:"kind"`
	CapturePrice *float64  `json:"capture_price,omitempty"`
	CaptureRate  *float64  `json:"capture_rate,omitempty"`
	Spread       *float64  `json:"spread,omitempty"`
}

// Gap is a span of expected-but-missing settlement intervals. Start and End
// are the stored timestamps bounding the hole; MissingIntervals counts the
// absent slots strictly between them.
type Gap struct {
	Start            time.Time `json:"start"`
	End              time.Time `json:"end"`
	MissingIntervals int       `json:"missing_intervals"`
}

// GapReport is the completeness diagnosis for one table over a query window.
// Computed per request, never persisted. An empty Gaps slice means full
// coverage.
type GapReport struct {
	Table       string    `json:"table"`
	WindowStart time.Time `json:"window_start"`
	WindowEnd   time.Time `json:"window_end"`
	Gaps        []Gap     `json:"gaps"`
	TotalGaps   int       `json:"total_gaps"`
}
