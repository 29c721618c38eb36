package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/gridwatch/nemsync/internal/db"
)

// LogEntry represents a row in nem.ingest_log.
type LogEntry struct {
	ID          string     `json:"id"`
	Source      string     `json:"source"`
	Status      string     `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	RowsSynced  int64      `json:"rows_synced"`
	RowsSkipped int64      `json:"rows_skipped"`
	Cursor      *time.Time `json:"cursor,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Log provides read/write access to the nem.ingest_log table. Each source
// run gets one row; the cursor column records the newest publication stamp
// the run fully persisted, and only rows with status complete move it.
type Log struct {
	pool db.Pool
}

func NewLog(pool db.Pool) *Log {
	return &Log{pool: pool}
}

// Cursor returns the cursor of the most recent successful run for a source.
// Nil means the source has never completed a run.
func (l *Log) Cursor(ctx context.Context, source string) (*time.Time, error) {
	var t time.Time
	err := l.pool.QueryRow(ctx,
		`SELECT cursor_ts FROM nem.ingest_log
		 WHERE source = $1 AND status = 'complete' AND cursor_ts IS NOT NULL
		 ORDER BY started_at DESC LIMIT 1`,
		source,
	).Scan(&t)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "ingestlog: cursor for %s", source)
	}
	return &t, nil
}

// Start records the beginning of a source run and returns its ID.
func (l *Log) Start(ctx context.Context, source string) (string, error) {
	id := uuid.New().String()
	_, err := l.pool.Exec(ctx,
		`INSERT INTO nem.ingest_log (id, source, status, started_at)
		 VALUES ($1, $2, 'running', now())`,
		id, source,
	)
	if err != nil {
		return "", eris.Wrapf(err, "ingestlog: start run for %s", source)
	}
	return id, nil
}

// Complete marks a run as successful and advances the source's cursor.
func (l *Log) Complete(ctx context.Context, runID string, rows int64, skipped int64, cursor *time.Time) error {
	_, err := l.pool.Exec(ctx,
		`UPDATE nem.ingest_log
		 SET status = 'complete', completed_at = now(), rows_synced = $1, rows_skipped = $2, cursor_ts = $3
		 WHERE id = $4`,
		rows, skipped, cursor, runID,
	)
	return eris.Wrapf(err, "ingestlog: complete run %s", runID)
}

// Fail marks a run as failed with an error message. The cursor stays where
// the last successful run left it.
func (l *Log) Fail(ctx context.Context, runID string, errMsg string) error {
	_, err := l.pool.Exec(ctx,
		`UPDATE nem.ingest_log
		 SET status = 'failed', completed_at = now(), error = $1
		 WHERE id = $2`,
		errMsg, runID,
	)
	return eris.Wrapf(err, "ingestlog: fail run %s", runID)
}

// Recent returns the latest entries across all sources, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]LogEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.pool.Query(ctx,
		`SELECT id, source, status, started_at, completed_at, rows_synced, rows_skipped, cursor_ts, error
		 FROM nem.ingest_log ORDER BY started_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "ingestlog: recent")
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var e LogEntry
		var errStr *string
		if err := rows.Scan(&e.ID, &e.Source, &e.Status, &e.StartedAt, &e.CompletedAt, &e.RowsSynced, &e.RowsSkipped, &e.Cursor, &errStr); err != nil {
			return nil, eris.Wrap(err, "ingestlog: scan entry")
		}
		if errStr != nil {
			e.Error = *errStr
		}
		entries = append(entries, e)
	}
	return entries, eris.Wrap(rows.Err(), "ingestlog: recent iterate")
}
