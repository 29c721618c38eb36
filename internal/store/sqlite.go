package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/gridwatch/nemsync/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It serves
// single-node deployments and local development; the Postgres store is the
// production path.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS dispatch_data (
	settlementdate DATETIME NOT NULL,
	duid           TEXT NOT NULL,
	scadavalue     REAL NOT NULL,
	PRIMARY KEY (settlementdate, duid)
);

CREATE TABLE IF NOT EXISTS price_data (
	settlementdate DATETIME NOT NULL,
	regionid       TEXT NOT NULL,
	rrp            REAL NOT NULL,
	totaldemand    REAL NOT NULL DEFAULT 0,
	price_type     TEXT NOT NULL,
	PRIMARY KEY (settlementdate, regionid, price_type)
);

CREATE TABLE IF NOT EXISTS interconnector_data (
	settlementdate   DATETIME NOT NULL,
	interconnectorid TEXT NOT NULL,
	meteredmwflow    REAL NOT NULL,
	mwflow           REAL NOT NULL,
	exportlimit      REAL NOT NULL DEFAULT 0,
	importlimit      REAL NOT NULL DEFAULT 0,
	PRIMARY KEY (settlementdate, interconnectorid)
);

CREATE TABLE IF NOT EXISTS bid_data (
	settlementdate DATETIME NOT NULL,
	duid           TEXT NOT NULL,
	bidtype        TEXT NOT NULL,
	bandno         INTEGER NOT NULL,
	price          REAL NOT NULL,
	volume         REAL NOT NULL,
	PRIMARY KEY (settlementdate, duid, bidtype, bandno)
);

CREATE TABLE IF NOT EXISTS pasa_data (
	run_datetime      DATETIME NOT NULL,
	interval_datetime DATETIME NOT NULL,
	regionid          TEXT NOT NULL,
	horizon           TEXT NOT NULL,
	demand10          REAL NOT NULL,
	demand50          REAL NOT NULL,
	demand90          REAL NOT NULL,
	reservereq        REAL NOT NULL DEFAULT 0,
	capacityreq       REAL NOT NULL DEFAULT 0,
	agg_capacity      REAL NOT NULL DEFAULT 0,
	agg_availability  REAL NOT NULL DEFAULT 0,
	surplus_reserve   REAL NOT NULL DEFAULT 0,
	lor_condition     INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (run_datetime, interval_datetime, regionid, horizon)
);

CREATE TABLE IF NOT EXISTS generator_info (
	duid            TEXT PRIMARY KEY,
	station_name    TEXT NOT NULL DEFAULT '',
	region          TEXT NOT NULL DEFAULT '',
	fuel_source     TEXT NOT NULL DEFAULT '',
	technology_type TEXT NOT NULL DEFAULT '',
	capacity_mw     REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS ingest_log (
	id           TEXT PRIMARY KEY,
	source       TEXT NOT NULL,
	status       TEXT NOT NULL,
	started_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	completed_at DATETIME,
	rows_synced  INTEGER NOT NULL DEFAULT 0,
	rows_skipped INTEGER NOT NULL DEFAULT 0,
	cursor_ts    DATETIME,
	error        TEXT
);

CREATE INDEX IF NOT EXISTS idx_dispatch_duid ON dispatch_data(duid, settlementdate);
CREATE INDEX IF NOT EXISTS idx_price_region ON price_data(regionid, price_type, settlementdate);
CREATE INDEX IF NOT EXISTS idx_pasa_region ON pasa_data(regionid, horizon, interval_datetime);
CREATE INDEX IF NOT EXISTS idx_ingest_log_source ON ingest_log(source, started_at DESC);
`

// sqliteTimeLayout is the canonical text form timestamps are bound as. The
// driver's default time encoding is not understood by SQLite's date
// functions, so MIN/MAX and date() over DATETIME columns misbehave unless we
// bind text SQLite itself can parse.
const sqliteTimeLayout = "2006-01-02 15:04:05"

func sqliteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseSqliteTime(s string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, s)
}

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for the ingest cycle log.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// upsertBatch runs one INSERT ... ON CONFLICT DO UPDATE per row inside a
// single transaction. SQLite has no COPY; a prepared statement in one tx is
// the equivalent bulk path.
func (s *SQLiteStore) upsertBatch(ctx context.Context, table string, columns, keys []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = "?"
	}
	keySet := make(map[string]bool, len(keys))
	for _, k := range keys {
		keySet[k] = true
	}
	var setClauses []string
	for _, c := range columns {
		if !keySet[c] {
			setClauses = append(setClauses, fmt.Sprintf("%s = excluded.%s", c, c))
		}
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) DO UPDATE SET %s",
		table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(keys, ", "),
		strings.Join(setClauses, ", "),
	)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: prepare upsert for %s", table)
	}
	defer stmt.Close() //nolint:errcheck

	var total int64
	for _, row := range rows {
		res, err := stmt.ExecContext(ctx, row...)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert row into %s", table)
		}
		n, _ := res.RowsAffected()
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit tx")
	}
	return total, nil
}

func (s *SQLiteStore) UpsertDispatch(ctx context.Context, recs []model.DispatchRecord) (int64, error) {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = []any{sqliteTime(r.SettlementDate), r.DUID, r.SCADAValue}
	}
	return s.upsertBatch(ctx, TableDispatch,
		[]string{"settlementdate", "duid", "scadavalue"},
		[]string{"settlementdate", "duid"}, rows)
}

func (s *SQLiteStore) UpsertPrices(ctx context.Context, recs []model.PriceRecord) (int64, error) {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = []any{sqliteTime(r.SettlementDate), r.Region, r.Price, r.TotalDemand, string(r.PriceType)}
	}
	return s.upsertBatch(ctx, TablePrices,
		[]string{"settlementdate", "regionid", "rrp", "totaldemand", "price_type"},
		[]string{"settlementdate", "regionid", "price_type"}, rows)
}

func (s *SQLiteStore) UpsertInterconnectors(ctx context.Context, recs []model.InterconnectorRecord) (int64, error) {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = []any{sqliteTime(r.SettlementDate), r.InterconnectorID, r.MeteredMWFlow, r.MWFlow, r.ExportLimit, r.ImportLimit}
	}
	return s.upsertBatch(ctx, TableInterconnectors,
		[]string{"settlementdate", "interconnectorid", "meteredmwflow", "mwflow", "exportlimit", "importlimit"},
		[]string{"settlementdate", "interconnectorid"}, rows)
}

func (s *SQLiteStore) UpsertBidBands(ctx context.Context, recs []model.BidBandRecord) (int64, error) {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = []any{sqliteTime(r.SettlementDate), r.DUID, r.BidType, r.BandNo, r.Price, r.Volume}
	}
	return s.upsertBatch(ctx, TableBidBands,
		[]string{"settlementdate", "duid", "bidtype", "bandno", "price", "volume"},
		[]string{"settlementdate", "duid", "bidtype", "bandno"}, rows)
}

func (s *SQLiteStore) UpsertPasa(ctx context.Context, recs []model.PasaForecastRecord) (int64, error) {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = []any{
			sqliteTime(r.RunDateTime), sqliteTime(r.IntervalDateTime), r.RegionID, string(r.Horizon),
			r.Demand10, r.Demand50, r.Demand90,
			r.ReserveReq, r.CapacityReq, r.AggCapacity, r.AggAvailability,
			r.SurplusReserve, r.LORCondition,
		}
	}
	return s.upsertBatch(ctx, TablePasa,
		[]string{
			"run_datetime", "interval_datetime", "regionid", "horizon",
			"demand10", "demand50", "demand90",
			"reservereq", "capacityreq", "agg_capacity", "agg_availability",
			"surplus_reserve", "lor_condition",
		},
		[]string{"run_datetime", "interval_datetime", "regionid", "horizon"}, rows)
}

func (s *SQLiteStore) UpsertGenerators(ctx context.Context, recs []model.GeneratorInfo) (int64, error) {
	rows := make([][]any, len(recs))
	for i, r := range recs {
		rows[i] = []any{r.DUID, r.StationName, r.Region, r.FuelSource, r.TechnologyType, r.CapacityMW}
	}
	return s.upsertBatch(ctx, TableGenerators,
		[]string{"duid", "station_name", "region", "fuel_source", "technology_type", "capacity_mw"},
		[]string{"duid"}, rows)
}

func (s *SQLiteStore) DispatchRange(ctx context.Context, duids []string, start, end time.Time) ([]model.DispatchRecord, error) {
	query := `SELECT settlementdate, duid, scadavalue FROM dispatch_data
		 WHERE settlementdate >= ? AND settlementdate < ?`
	args := []any{sqliteTime(start), sqliteTime(end)}
	if len(duids) > 0 {
		query += ` AND duid IN (` + placeholderList(len(duids)) + `)`
		for _, d := range duids {
			args = append(args, d)
		}
	}
	query += ` ORDER BY settlementdate, duid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: dispatch range")
	}
	defer rows.Close() //nolint:errcheck

	var recs []model.DispatchRecord
	for rows.Next() {
		var r model.DispatchRecord
		if err := rows.Scan(&r.SettlementDate, &r.DUID, &r.SCADAValue); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan dispatch row")
		}
		recs = append(recs, r)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: dispatch range iterate")
}

func (s *SQLiteStore) PriceRange(ctx context.Context, region string, priceType model.PriceType, start, end time.Time) ([]model.PriceRecord, error) {
	query := `SELECT settlementdate, regionid, rrp, totaldemand, price_type FROM price_data
		 WHERE settlementdate >= ? AND settlementdate < ? AND price_type = ?`
	args := []any{sqliteTime(start), sqliteTime(end), string(priceType)}
	if region != "" {
		query += ` AND regionid = ?`
		args = append(args, region)
	}
	query += ` ORDER BY settlementdate, regionid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: price range")
	}
	defer rows.Close() //nolint:errcheck

	var recs []model.PriceRecord
	for rows.Next() {
		var r model.PriceRecord
		var pt string
		if err := rows.Scan(&r.SettlementDate, &r.Region, &r.Price, &r.TotalDemand, &pt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan price row")
		}
		r.PriceType = model.PriceType(pt)
		recs = append(recs, r)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: price range iterate")
}

func (s *SQLiteStore) InterconnectorRange(ctx context.Context, ids []string, start, end time.Time) ([]model.InterconnectorRecord, error) {
	query := `SELECT settlementdate, interconnectorid, meteredmwflow, mwflow, exportlimit, importlimit
		 FROM interconnector_data WHERE settlementdate >= ? AND settlementdate < ?`
	args := []any{sqliteTime(start), sqliteTime(end)}
	if len(ids) > 0 {
		query += ` AND interconnectorid IN (` + placeholderList(len(ids)) + `)`
		for _, id := range ids {
			args = append(args, id)
		}
	}
	query += ` ORDER BY settlementdate, interconnectorid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: interconnector range")
	}
	defer rows.Close() //nolint:errcheck

	var recs []model.InterconnectorRecord
	for rows.Next() {
		var r model.InterconnectorRecord
		if err := rows.Scan(&r.SettlementDate, &r.InterconnectorID, &r.MeteredMWFlow, &r.MWFlow, &r.ExportLimit, &r.ImportLimit); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan interconnector row")
		}
		recs = append(recs, r)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: interconnector range iterate")
}

func (s *SQLiteStore) PasaRange(ctx context.Context, horizon model.PasaHorizon, region string, start, end time.Time) ([]model.PasaForecastRecord, error) {
	// Latest forecast run per (interval, region).
	query := `SELECT run_datetime, interval_datetime, regionid, horizon,
		demand10, demand50, demand90,
		reservereq, capacityreq, agg_capacity, agg_availability,
		surplus_reserve, lor_condition
	 FROM pasa_data p
	 WHERE interval_datetime >= ? AND interval_datetime < ? AND horizon = ?
	   AND run_datetime = (
		SELECT MAX(run_datetime) FROM pasa_data
		WHERE interval_datetime = p.interval_datetime
		  AND regionid = p.regionid AND horizon = p.horizon
	   )`
	args := []any{sqliteTime(start), sqliteTime(end), string(horizon)}
	if region != "" {
		query += ` AND regionid = ?`
		args = append(args, region)
	}
	query += ` ORDER BY interval_datetime, regionid`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: pasa range")
	}
	defer rows.Close() //nolint:errcheck

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
			return nil, eris.Wrap(err, "sqlite: scan pasa row")
		}
		r.Horizon = model.PasaHorizon(h)
		recs = append(recs, r)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: pasa range iterate")
}

func (s *SQLiteStore) BidBandsForDay(ctx context.Context, day time.Time) ([]model.BidBandRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT settlementdate, duid, bidtype, bandno, price, volume FROM bid_data
		 WHERE settlementdate >= ? AND settlementdate < ?
		 ORDER BY duid, bandno`,
		sqliteTime(day), sqliteTime(day.AddDate(0, 0, 1)),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: bid bands for day")
	}
	defer rows.Close() //nolint:errcheck

	var recs []model.BidBandRecord
	for rows.Next() {
		var r model.BidBandRecord
		if err := rows.Scan(&r.SettlementDate, &r.DUID, &r.BidType, &r.BandNo, &r.Price, &r.Volume); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan bid row")
		}
		recs = append(recs, r)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: bid bands iterate")
}

func (s *SQLiteStore) Generators(ctx context.Context) ([]model.GeneratorInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT duid, station_name, region, fuel_source, technology_type, capacity_mw
		 FROM generator_info ORDER BY duid`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: generators")
	}
	defer rows.Close() //nolint:errcheck

	var recs []model.GeneratorInfo
	for rows.Next() {
		var r model.GeneratorInfo
		if err := rows.Scan(&r.DUID, &r.StationName, &r.Region, &r.FuelSource, &r.TechnologyType, &r.CapacityMW); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan generator row")
		}
		recs = append(recs, r)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: generators iterate")
}

func (s *SQLiteStore) DistinctTimestamps(ctx context.Context, table string, start, end time.Time) ([]time.Time, error) {
	col := tsColumn(table)
	query := fmt.Sprintf(
		`SELECT DISTINCT %s FROM %s WHERE %s >= ? AND %s < ? ORDER BY %s`,
		col, table, col, col, col,
	)
	rows, err := s.db.QueryContext(ctx, query, sqliteTime(start), sqliteTime(end))
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: distinct timestamps for %s", table)
	}
	defer rows.Close() //nolint:errcheck

	var ts []time.Time
	for rows.Next() {
		var t time.Time
		if err := rows.Scan(&t); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan timestamp")
		}
		ts = append(ts, t)
	}
	return ts, eris.Wrapf(rows.Err(), "sqlite: distinct timestamps iterate for %s", table)
}

func (s *SQLiteStore) Coverage(ctx context.Context, table string) (*model.Coverage, error) {
	col := tsColumn(table)
	query := fmt.Sprintf(
		`SELECT MIN(%s), MAX(%s), COUNT(*), COUNT(DISTINCT date(%s)) FROM %s`,
		col, col, col, table,
	)

	// MIN/MAX strip the column's declared type, so the driver hands the raw
	// text back; parse it ourselves.
	cov := &model.Coverage{Table: table}
	var earliest, latest sql.NullString
	err := s.db.QueryRowContext(ctx, query).Scan(&earliest, &latest, &cov.TotalRecords, &cov.DaysWithData)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: coverage for %s", table)
	}
	if earliest.Valid {
		t, err := parseSqliteTime(earliest.String)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: coverage earliest for %s", table)
		}
		cov.Earliest = &t
	}
	if latest.Valid {
		t, err := parseSqliteTime(latest.String)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: coverage latest for %s", table)
		}
		cov.Latest = &t
	}
	return cov, nil
}

func (s *SQLiteStore) MissingDays(ctx context.Context, table string, start, end time.Time) ([]time.Time, error) {
	col := tsColumn(table)
	query := fmt.Sprintf(`SELECT DISTINCT date(%s) FROM %s WHERE %s >= ? AND %s < ?`, col, table, col, col)
	rows, err := s.db.QueryContext(ctx, query, sqliteTime(start), sqliteTime(end))
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: missing days for %s", table)
	}
	defer rows.Close() //nolint:errcheck

	present := make(map[string]bool)
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan day")
		}
		present[d] = true
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "sqlite: missing days iterate for %s", table)
	}

	var days []time.Time
	for d := start.UTC().Truncate(24 * time.Hour); d.Before(end); d = d.AddDate(0, 0, 1) {
		if !present[d.Format("2006-01-02")] {
			days = append(days, d)
		}
	}
	return days, nil
}

func placeholderList(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
