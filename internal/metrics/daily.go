package metrics

import (
	"context"
	"sort"
	"time"

	"github.com/rotisserie/eris"

	"github.com/gridwatch/nemsync/internal/model"
	"github.com/gridwatch/nemsync/internal/resample"
	"github.com/gridwatch/nemsync/internal/store"
)

// Calculator computes daily metrics from the store.
type Calculator struct {
	store store.Store
}

func NewCalculator(st store.Store) *Calculator {
	return &Calculator{store: st}
}

// ComputeDaily derives the metric set for one region and market day: a
// capture price/rate record per fuel source with metered output that day,
// plus one spread record per block width. day marks the start of the
// 24-hour window in market time.
func (c *Calculator) ComputeDaily(ctx context.Context, region string, day time.Time) ([]model.DailyMetricRecord, error) {
	if !model.ValidRegion(region) {
		return nil, eris.Errorf("metrics: unknown region %q", region)
	}
	start := day
	end := day.Add(24 * time.Hour)

	// Archival prices win over dispatch where both exist.
	public, err := c.store.PriceRange(ctx, region, model.PricePublic, start, end)
	if err != nil {
		return nil, err
	}
	dispatch, err := c.store.PriceRange(ctx, region, model.PriceDispatch, start, end)
	if err != nil {
		return nil, err
	}
	prices := resample.MergePrices(public, dispatch)

	twap, ok := TimeWeightedAvg(prices)
	if !ok {
		// No prices for the day: nothing is computable.
		return nil, nil
	}

	priceAt := make(map[int64]float64, len(prices))
	priceVals := make([]float64, len(prices))
	for i, p := range prices {
		priceAt[p.SettlementDate.UnixNano()] = p.Price
		priceVals[i] = p.Price
	}

	records := make([]model.DailyMetricRecord, 0, len(SpreadHours))

	gens, err := c.store.Generators(ctx)
	if err != nil {
		return nil, err
	}
	fuelByDUID := make(map[string]string)
	var regionDUIDs []string
	for _, g := range gens {
		if g.Region != region || g.FuelSource == "" {
			continue
		}
		fuelByDUID[g.DUID] = g.FuelSource
		regionDUIDs = append(regionDUIDs, g.DUID)
	}

	if len(regionDUIDs) > 0 {
		output, err := c.store.DispatchRange(ctx, regionDUIDs, start, end)
		if err != nil {
			return nil, err
		}

		byFuel := make(map[string][]model.DispatchRecord)
		for _, rec := range output {
			fuel := fuelByDUID[rec.DUID]
			byFuel[fuel] = append(byFuel[fuel], rec)
		}

		fuels := make([]string, 0, len(byFuel))
		for fuel := range byFuel {
			fuels = append(fuels, fuel)
		}
		sort.Strings(fuels)

		for _, fuel := range fuels {
			price, ok := CapturePrice(byFuel[fuel], priceAt)
			if !ok {
				continue
			}
			rate := price / twap
			records = append(records, model.DailyMetricRecord{
				Region:       region,
				Day:          day,
				Kind:         fuel,
				CapturePrice: &price,
				CaptureRate:  &rate,
			})
		}
	}

	for _, hours := range SpreadHours {
		spread, ok := TBSpread(priceVals, hours)
		if !ok {
			continue
		}
		records = append(records, model.DailyMetricRecord{
			Region: region,
			Day:    day,
			Kind:   spreadKind(hours),
			Spread: &spread,
		})
	}

	return records, nil
}

func spreadKind(hours int) string {
	switch hours {
	case 2:
		return "tb2_spread"
	case 4:
		return "tb4_spread"
	case 8:
		return "tb8_spread"
	default:
		return "tb_spread"
	}
}
