// Package metrics derives per-day market statistics from stored records:
// capture price and capture rate per fuel source, and top-minus-bottom
// price-block spreads. Everything here is recomputable from raw data; the
// calculator holds no state of its own.
package metrics

import (
	"sort"
	"time"

	"github.com/gridwatch/nemsync/internal/model"
)

// DispatchInterval is the native settlement cadence.
const DispatchInterval = 5 * time.Minute

// SpreadHours are the price-block widths reported as tb spreads.
var SpreadHours = []int{2, 4, 8}

// TimeWeightedAvg is the day's average price. Settlement intervals are
// uniform, so the time weighting reduces to an arithmetic mean.
func TimeWeightedAvg(prices []model.PriceRecord) (float64, bool) {
	if len(prices) == 0 {
		return 0, false
	}
	var sum float64
	for _, p := range prices {
		sum += p.Price
	}
	return sum / float64(len(prices)), true
}

// CapturePrice is the generation-weighted average price a set of dispatch
// records earned: Σ(generation_i × price_i) / Σ generation_i. Intervals with
// no price are excluded rather than priced at zero. Returns false when no
// interval has both price and generation, or net generation is zero.
func CapturePrice(gen []model.DispatchRecord, priceAt map[int64]float64) (float64, bool) {
	var revenue, volume float64
	for _, g := range gen {
		price, ok := priceAt[g.SettlementDate.UnixNano()]
		if !ok {
			continue
		}
		revenue += g.SCADAValue * price
		volume += g.SCADAValue
	}
	if volume == 0 {
		return 0, false
	}
	return revenue / volume, true
}

// TBSpread sorts a day's interval prices descending and returns the average
// of the top N-hours'-worth of intervals minus the average of the bottom
// N-hours'-worth. Returns false when the day holds fewer than one block's
// worth of intervals on each side.
func TBSpread(prices []float64, hours int) (float64, bool) {
	block := hours * int(time.Hour/DispatchInterval)
	if block <= 0 || len(prices) < 2*block {
		return 0, false
	}

	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Sort(sort.Reverse(sort.Float64Slice(sorted)))

	var top, bottom float64
	for i := range block {
		top += sorted[i]
		bottom += sorted[len(sorted)-1-i]
	}
	return (top - bottom) / float64(block), true
}
