package store

import (
	"context"
	"time"

	"github.com/gridwatch/nemsync/internal/model"
)

// Logical table names. The Postgres store maps them into the nem schema;
// the SQLite store uses them as-is.
const (
	TableDispatch        = "dispatch_data"
	TablePrices          = "price_data"
	TableInterconnectors = "interconnector_data"
	TableBidBands        = "bid_data"
	TablePasa            = "pasa_data"
	TableGenerators      = "generator_info"
)

// Tables lists every time-series table, for coverage and gap reporting.
var Tables = []string{
	TableDispatch,
	TablePrices,
	TableInterconnectors,
	TableBidBands,
	TablePasa,
}

// Store defines the persistence interface for market data.
//
// All writes are idempotent upserts on each table's natural key: replaying a
// batch changes nothing, and a re-published row fully overwrites the stored
// one. Range reads are half-open [start, end) and return rows in ascending
// timestamp order.
type Store interface {
	// Writes
	UpsertDispatch(ctx context.Context, recs []model.DispatchRecord) (int64, error)
	UpsertPrices(ctx context.Context, recs []model.PriceRecord) (int64, error)
	UpsertInterconnectors(ctx context.Context, recs []model.InterconnectorRecord) (int64, error)
	UpsertBidBands(ctx context.Context, recs []model.BidBandRecord) (int64, error)
	UpsertPasa(ctx context.Context, recs []model.PasaForecastRecord) (int64, error)
	UpsertGenerators(ctx context.Context, recs []model.GeneratorInfo) (int64, error)

	// Reads
	DispatchRange(ctx context.Context, duids []string, start, end time.Time) ([]model.DispatchRecord, error)
	PriceRange(ctx context.Context, region string, priceType model.PriceType, start, end time.Time) ([]model.PriceRecord, error)
	InterconnectorRange(ctx context.Context, ids []string, start, end time.Time) ([]model.InterconnectorRecord, error)
	PasaRange(ctx context.Context, horizon model.PasaHorizon, region string, start, end time.Time) ([]model.PasaForecastRecord, error)
	BidBandsForDay(ctx context.Context, day time.Time) ([]model.BidBandRecord, error)
	Generators(ctx context.Context) ([]model.GeneratorInfo, error)

	// Introspection
	DistinctTimestamps(ctx context.Context, table string, start, end time.Time) ([]time.Time, error)
	Coverage(ctx context.Context, table string) (*model.Coverage, error)
	MissingDays(ctx context.Context, table string, start, end time.Time) ([]time.Time, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// tsColumn is the timestamp column used for range and coverage queries on
// each table. PASA rows are keyed by forecast interval, not publication time.
func tsColumn(table string) string {
	if table == TablePasa {
		return "interval_datetime"
	}
	return "settlementdate"
}
