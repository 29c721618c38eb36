package resample

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/gridwatch/nemsync/internal/model"
	"github.com/gridwatch/nemsync/internal/store"
)

// Service answers multi-resolution range queries against the store.
type Service struct {
	store store.Store
}

func NewService(st store.Store) *Service {
	return &Service{store: st}
}

// Query returns the rows of a table over [start, end), aggregated at the
// width the window dictates. filter narrows to one entity: a DUID for
// dispatch data, a region for prices and PASA, an interconnector ID for
// flows. Empty filter means all entities blended per bucket.
func (s *Service) Query(ctx context.Context, table, filter string, start, end time.Time) ([]Sample, error) {
	var samples []Sample

	switch table {
	case store.TableDispatch:
		var duids []string
		if filter != "" {
			duids = []string{filter}
		}
		recs, err := s.store.DispatchRange(ctx, duids, start, end)
		if err != nil {
			return nil, err
		}
		samples = FromDispatch(recs)

	case store.TablePrices:
		recs, err := s.store.PriceRange(ctx, filter, model.PriceDispatch, start, end)
		if err != nil {
			return nil, err
		}
		samples = FromPrices(recs)

	case store.TableInterconnectors:
		var ids []string
		if filter != "" {
			ids = []string{filter}
		}
		recs, err := s.store.InterconnectorRange(ctx, ids, start, end)
		if err != nil {
			return nil, err
		}
		samples = FromInterconnectors(recs)

	case store.TablePasa:
		recs, err := s.store.PasaRange(ctx, model.PasaShortTerm, filter, start, end)
		if err != nil {
			return nil, err
		}
		samples = FromPasa(recs)

	default:
		return nil, eris.Errorf("resample: table %s is not a time series", table)
	}

	return Resample(samples, start, end), nil
}

// MergedPrices resolves the archival and near-real-time price series for a
// region over [start, end) and aggregates the result.
func (s *Service) MergedPrices(ctx context.Context, region string, start, end time.Time) ([]Sample, error) {
	public, err := s.store.PriceRange(ctx, region, model.PricePublic, start, end)
	if err != nil {
		return nil, err
	}
	dispatch, err := s.store.PriceRange(ctx, region, model.PriceDispatch, start, end)
	if err != nil {
		return nil, err
	}

	merged := MergePrices(public, dispatch)
	return Resample(FromPrices(merged), start, end), nil
}

// FromDispatch converts dispatch records to samples.
func FromDispatch(recs []model.DispatchRecord) []Sample {
	samples := make([]Sample, len(recs))
	for i, r := range recs {
		samples[i] = Sample{
			Ts:     r.SettlementDate,
			Values: map[string]float64{"scadavalue": r.SCADAValue},
		}
	}
	return samples
}

// FromPrices converts price records to samples.
func FromPrices(recs []model.PriceRecord) []Sample {
	samples := make([]Sample, len(recs))
	for i, r := range recs {
		samples[i] = Sample{
			Ts: r.SettlementDate,
			Values: map[string]float64{
				"rrp":         r.Price,
				"totaldemand": r.TotalDemand,
			},
		}
	}
	return samples
}

// FromInterconnectors converts interconnector records to samples.
func FromInterconnectors(recs []model.InterconnectorRecord) []Sample {
	samples := make([]Sample, len(recs))
	for i, r := range recs {
		samples[i] = Sample{
			Ts: r.SettlementDate,
			Values: map[string]float64{
				"meteredmwflow": r.MeteredMWFlow,
				"mwflow":        r.MWFlow,
				"exportlimit":   r.ExportLimit,
				"importlimit":   r.ImportLimit,
			},
		}
	}
	return samples
}

// FromPasa converts reserve-adequacy forecasts to samples keyed by forecast
// interval.
func FromPasa(recs []model.PasaForecastRecord) []Sample {
	samples := make([]Sample, len(recs))
	for i, r := range recs {
		samples[i] = Sample{
			Ts: r.IntervalDateTime,
			Values: map[string]float64{
				"demand10":         r.Demand10,
				"demand50":         r.Demand50,
				"demand90":         r.Demand90,
				"agg_capacity":     r.AggCapacity,
				"agg_availability": r.AggAvailability,
				"surplus_reserve":  r.SurplusReserve,
			},
		}
	}
	return samples
}
