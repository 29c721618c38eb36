package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/gridwatch/nemsync/internal/db"
	"github.com/gridwatch/nemsync/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need direct
// query access (e.g., the ingest cycle log).
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE SCHEMA IF NOT EXISTS nem;

CREATE TABLE IF NOT EXISTS nem.dispatch_data (
	settlementdate TIMESTAMPTZ NOT NULL,
	duid           TEXT NOT NULL,
	scadavalue     DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (settlementdate, duid)
);

CREATE TABLE IF NOT EXISTS nem.price_data (
	settlementdate TIMESTAMPTZ NOT NULL,
	regionid       TEXT NOT NULL,
	rrp            DOUBLE PRECISION NOT NULL,
	totaldemand    DOUBLE PRECISION NOT NULL DEFAULT 0,
	price_type     TEXT NOT NULL,
	PRIMARY KEY (settlementdate, regionid, price_type)
);

CREATE TABLE IF NOT EXISTS nem.interconnector_data (
	settlementdate   TIMESTAMPTZ NOT NULL,
	interconnectorid TEXT NOT NULL,
	meteredmwflow    DOUBLE PRECISION NOT NULL,
	mwflow           DOUBLE PRECISION NOT NULL,
	exportlimit      DOUBLE PRECISION NOT NULL DEFAULT 0,
	importlimit      DOUBLE PRECISION NOT NULL DEFAULT 0,
	PRIMARY KEY (settlementdate, interconnectorid)
);

CREATE TABLE IF NOT EXISTS nem.bid_data (
	settlementdate TIMESTAMPTZ NOT NULL,
	duid           TEXT NOT NULL,
	bidtype        TEXT NOT NULL,
	bandno         INTEGER NOT NULL,
	price          DOUBLE PRECISION NOT NULL,
	volume         DOUBLE PRECISION NOT NULL,
	PRIMARY KEY (settlementdate, duid, bidtype, bandno)
);

CREATE TABLE IF NOT EXISTS nem.pasa_data (
	run_datetime      TIMESTAMPTZ NOT NULL,
	interval_datetime TIMESTAMPTZ NOT NULL,
	regionid          TEXT NOT NULL,
	horizon           TEXT NOT NULL,
	demand10          DOUBLE PRECISION NOT NULL,
	demand50          DOUBLE PRECISION NOT NULL,
	demand90          DOUBLE PRECISION NOT NULL,
	reservereq        DOUBLE PRECISION NOT NULL DEFAULT 0,
	capacityreq       DOUBLE PRECISION NOT NULL DEFAULT 0,
	agg_capacity      DOUBLE PRECISION NOT NULL DEFAULT 0,
	agg_availability  DOUBLE PRECISION NOT NULL DEFAULT 0,
	surplus_reserve   DOUBLE PRECISION NOT NULL DEFAULT 0,
	lor_condition     INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (run_datetime, interval_datetime, regionid, horizon)
);

CREATE TABLE IF NOT EXISTS nem.generator_info (
	duid            TEXT PRIMARY KEY,
	station_name    TEXT NOT NULL DEFAULT '',
	region          TEXT NOT NULL DEFAULT '',
	fuel_source     TEXT NOT NULL DEFAULT '',
	technology_type TEXT NOT NULL DEFAULT '',
	capacity_mw     DOUBLE PRECISION NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS nem.ingest_log (
	id           TEXT PRIMARY KEY,
	source       TEXT NOT NULL,
	status       TEXT NOT NULL,
	started_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	completed_at TIMESTAMPTZ,
	rows_synced  BIGINT NOT NULL DEFAULT 0,
	rows_skipped BIGINT NOT NULL DEFAULT 0,
	cursor_ts    TIMESTAMPTZ,
	error        TEXT
);

CREATE INDEX IF NOT EXISTS idx_dispatch_duid ON nem.dispatch_data(duid, settlementdate);
CREATE INDEX IF NOT EXISTS idx_price_region ON nem.price_data(regionid, price_type, settlementdate);
CREATE INDEX IF NOT EXISTS idx_interconnector_id ON nem.interconnector_data(interconnectorid, settlementdate);
CREATE INDEX IF NOT EXISTS idx_pasa_region ON nem.pasa_data(regionid, horizon, interval_datetime);
CREATE INDEX IF NOT EXISTS idx_ingest_log_source ON nem.ingest_log(source, started_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func qualify(table string) string {
	return "nem." + table
}

func (s *PostgresStore) UpsertDispatch(ctx context.Context, recs []model.DispatchRecord) (int64, error) {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = []any{r.SettlementDate, r.DUID, r.SCADAValue}
	}
	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        qualify(TableDispatch),
		Columns:      []string{"settlementdate", "duid", "scadavalue"},
		ConflictKeys: []string{"settlementdate", "duid"},
	}, rows)
}

func (s *PostgresStore) UpsertPrices(ctx context.Context, recs []model.PriceRecord) (int64, error) {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = []any{r.SettlementDate, r.Region, r.Price, r.TotalDemand, string(r.PriceType)}
	}
	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        qualify(TablePrices),
		Columns:      []string{"settlementdate", "regionid", "rrp", "totaldemand", "price_type"},
		ConflictKeys: []string{"settlementdate", "regionid", "price_type"},
	}, rows)
}

func (s *PostgresStore) UpsertInterconnectors(ctx context.Context, recs []model.InterconnectorRecord) (int64, error) {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = []any{r.SettlementDate, r.InterconnectorID, r.MeteredMWFlow, r.MWFlow, r.ExportLimit, r.ImportLimit}
	}
	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        qualify(TableInterconnectors),
		Columns:      []string{"settlementdate", "interconnectorid", "meteredmwflow", "mwflow", "exportlimit", "importlimit"},
		ConflictKeys: []string{"settlementdate", "interconnectorid"},
	}, rows)
}

func (s *PostgresStore) UpsertBidBands(ctx context.Context, recs []model.BidBandRecord) (int64, error) {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = []any{r.SettlementDate, r.DUID, r.BidType, r.BandNo, r.Price, r.Volume}
	}
	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        qualify(TableBidBands),
		Columns:      []string{"settlementdate", "duid", "bidtype", "bandno", "price", "volume"},
		ConflictKeys: []string{"settlementdate", "duid", "bidtype", "bandno"},
	}, rows)
}

func (s *PostgresStore) UpsertPasa(ctx context.Context, recs []model.PasaForecastRecord) (int64, error) {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = []any{
			r.RunDateTime, r.IntervalDateTime, r.RegionID, string(r.Horizon),
			r.Demand10, r.Demand50, r.Demand90,
			r.ReserveReq, r.CapacityReq, r.AggCapacity, r.AggAvailability,
			r.SurplusReserve, r.LORCondition,
		}
	}
	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table: qualify(TablePasa),
		Columns: []string{
			"run_datetime", "interval_datetime", "regionid", "horizon",
			"demand10", "demand50", "demand90",
			"reservereq", "capacityreq", "agg_capacity", "agg_availability",
			"surplus_reserve", "lor_condition",
		},
		ConflictKeys: []string{"run_datetime", "interval_datetime", "regionid", "horizon"},
	}, rows)
}

func (s *PostgresStore) UpsertGenerators(ctx context.Context, recs []model.GeneratorInfo) (int64, error) {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = []any{r.DUID, r.StationName, r.Region, r.FuelSource, r.TechnologyType, r.CapacityMW}
	}
	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        qualify(TableGenerators),
		Columns:      []string{"duid", "station_name", "region", "fuel_source", "technology_type", "capacity_mw"},
		ConflictKeys: []string{"duid"},
	}, rows)
}

func (s *PostgresStore) DispatchRange(ctx context.Context, duids []string, start, end time.Time) ([]model.DispatchRecord, error) {
	query := `SELECT settlementdate, duid, scadavalue FROM nem.dispatch_data
		 WHERE settlementdate >= $1 AND settlementdate < $2`
	args := []any{start, end}
	if len(duids) > 0 {
		query += ` AND duid = ANY($3)`
		args = append(args, duids)
	}
	query += ` ORDER BY settlementdate, duid`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: dispatch range")
	}
	defer rows.Close()

	var recs []model.DispatchRecord
	for rows.Next() {
		var r model.DispatchRecord
		if err := rows.Scan(&r.SettlementDate, &r.DUID, &r.SCADAValue); err != nil {
			return nil, eris.Wrap(err, "postgres: scan dispatch row")
		}
		recs = append(recs, r)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: dispatch range iterate")
}

func (s *PostgresStore) PriceRange(ctx context.Context, region string, priceType model.PriceType, start, end time.Time) ([]model.PriceRecord, error) {
	query := `SELECT settlementdate, regionid, rrp, totaldemand, price_type FROM nem.price_data
		 WHERE settlementdate >= $1 AND settlementdate < $2 AND price_type = $3`
	args := []any{start, end, string(priceType)}
	if region != "" {
		query += ` AND regionid = $4`
		args = append(args, region)
	}
	query += ` ORDER BY settlementdate, regionid`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: price range")
	}
	defer rows.Close()

	var recs []model.PriceRecord
	for rows.Next() {
		var r model.PriceRecord
		var pt string
		if err := rows.Scan(&r.SettlementDate, &r.Region, &r.Price, &r.TotalDemand, &pt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan price row")
		}
		r.PriceType = model.PriceType(pt)
		recs = append(recs, r)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: price range iterate")
}

func (s *PostgresStore) InterconnectorRange(ctx context.Context, ids []string, start, end time.Time) ([]model.InterconnectorRecord, error) {
	query := `SELECT settlementdate, interconnectorid, meteredmwflow, mwflow, exportlimit, importlimit
		 FROM nem.interconnector_data
		 WHERE settlementdate >= $1 AND settlementdate < $2`
	args := []any{start, end}
	if len(ids) > 0 {
		query += ` AND interconnectorid = ANY($3)`
		args = append(args, ids)
	}
	query += ` ORDER BY settlementdate, interconnectorid`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: interconnector range")
	}
	defer rows.Close()

	var recs []model.InterconnectorRecord
	for rows.Next() {
		var r model.InterconnectorRecord
		if err := rows.Scan(&r.SettlementDate, &r.InterconnectorID, &r.MeteredMWFlow, &r.MWFlow, &r.ExportLimit, &r.ImportLimit); err != nil {
			return nil, eris.Wrap(err, "postgres: scan interconnector row")
		}
		recs = append(recs, r)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: interconnector range iterate")
}

func (s *PostgresStore) PasaRange(ctx context.Context, horizon model.PasaHorizon, region string, start, end time.Time) ([]model.PasaForecastRecord, error) {
	// Only the latest forecast run for each interval is of interest.
	query := `SELECT DISTINCT ON (interval_datetime, regionid)
		run_datetime, interval_datetime, regionid, horizon,
		demand10, demand50, demand90,
		reservereq, capacityreq, agg_capacity, agg_availability,
		surplus_reserve, lor_condition
	 FROM nem.pasa_data
	 WHERE interval_datetime >= $1 AND interval_datetime < $2 AND horizon = $3`
	args := []any{start, end, string(horizon)}
	if region != "" {
		query += ` AND regionid = $4`
		args = append(args, region)
	}
	query += ` ORDER BY interval_datetime, regionid, run_datetime DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: pasa range")
	}
	defer rows.Close()

	var recs []model.PasaForecastRecord
	for rows.Next() {
		var r model.PasaForecastRecord
		var h string
		if err := rows.Scan(
			&r.RunDateTime, &r.IntervalDateTime, &r.RegionID, &h,
			&r.Demand10, &r.Demand50, &r.Demand90,
			&r.ReserveReq, &r.CapacityReq, &r.AggCapacity, &r.AggAvailability,
			&r.SurplusReserve, &r.LORCondition,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan pasa row")
		}
		r.Horizon = model.PasaHorizon(h)
		recs = append(recs, r)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: pasa range iterate")
}

func (s *PostgresStore) BidBandsForDay(ctx context.Context, day time.Time) ([]model.BidBandRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT settlementdate, duid, bidtype, bandno, price, volume FROM nem.bid_data
		 WHERE settlementdate >= $1 AND settlementdate < $2
		 ORDER BY duid, bandno`,
		day, day.AddDate(0, 0, 1),
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: bid bands for day")
	}
	defer rows.Close()

	var recs []model.BidBandRecord
	for rows.Next() {
		var r model.BidBandRecord
		if err := rows.Scan(&r.SettlementDate, &r.DUID, &r.BidType, &r.BandNo, &r.Price, &r.Volume); err != nil {
			return nil, eris.Wrap(err, "postgres: scan bid row")
		}
		recs = append(recs, r)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: bid bands iterate")
}

func (s *PostgresStore) Generators(ctx context.Context) ([]model.GeneratorInfo, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT duid, station_name, region, fuel_source, technology_type, capacity_mw
		 FROM nem.generator_info ORDER BY duid`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: generators")
	}
	defer rows.Close()

	var recs []model.GeneratorInfo
	for rows.Next() {
		var r model.GeneratorInfo
		if err := rows.Scan(&r.DUID, &r.StationName, &r.Region, &r.FuelSource, &r.TechnologyType, &r.CapacityMW); err != nil {
			return nil, eris.Wrap(err, "postgres: scan generator row")
		}
		recs = append(recs, r)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: generators iterate")
}

func (s *PostgresStore) DistinctTimestamps(ctx context.Context, table string, start, end time.Time) ([]time.Time, error) {
	col := tsColumn(table)
	query := fmt.Sprintf(
		`SELECT DISTINCT %s FROM %s WHERE %s >= $1 AND %s < $2 ORDER BY %s`,
		col, qualify(table), col, col, col,
	)
	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: distinct timestamps for %s", table)
	}
	defer rows.Close()

	var ts []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, eris.Wrap(err, "postgres: scan timestamp")
		}
		ts = append(ts, t)
	}
	return ts, eris.Wrapf(rows.Err(), "postgres: distinct timestamps iterate for %s", table)
}

func (s *PostgresStore) Coverage(ctx context.Context, table string) (*model.Coverage, error) {
	col := tsColumn(table)
	query := fmt.Sprintf(
		`SELECT MIN(%s), MAX(%s), COUNT(*), COUNT(DISTINCT %s::date) FROM %s`,
		col, col, col, qualify(table),
	)

	cov := &model.Coverage{Table: table}
	err := s.pool.QueryRow(ctx, query).Scan(&cov.Earliest, &cov.Latest, &cov.TotalRecords, &cov.DaysWithData)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: coverage for %s", table)
	}
	return cov, nil
}

func (s *PostgresStore) MissingDays(ctx context.Context, table string, start, end time.Time) ([]time.Time, error) {
	col := tsColumn(table)
	query := fmt.Sprintf(
		`SELECT d::date FROM generate_series($1::date, $2::date, '1 day') AS d
		 WHERE NOT EXISTS (
			SELECT 1 FROM %s WHERE %s::date = d::date
		 )
		 ORDER BY d`,
		qualify(table), col,
	)
	rows, err := s.pool.Query(ctx, query, start, end)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: missing days for %s", table)
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, eris.Wrap(err, "postgres: scan missing day")
		}
		days = append(days, d)
	}
	return days, eris.Wrapf(rows.Err(), "postgres: missing days iterate for %s", table)
}
