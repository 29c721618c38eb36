package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/gridwatch/nemsync/internal/fetcher"
	"github.com/gridwatch/nemsync/internal/ingest"
	"github.com/gridwatch/nemsync/internal/store"
)

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		path := cfg.Store.SQLitePath
		if path == "" {
			path = "nemsync.db"
		}
		s, err := store.NewSQLite(path)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			return nil, err
		}
		return s, nil
	case "postgres":
		s, err := store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initFetcher() fetcher.Fetcher {
	limiters := fetcher.DefaultRateLimiters()
	if cfg.Portal.RequestsPerSec > 0 {
		rps := rate.Limit(cfg.Portal.RequestsPerSec)
		for host := range limiters {
			limiters[host] = rate.NewLimiter(rps, int(cfg.Portal.RequestsPerSec))
		}
	}
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:    cfg.Portal.UserAgent,
		Timeout:      time.Duration(cfg.Portal.TimeoutSecs) * time.Second,
		MaxRetries:   cfg.Portal.MaxRetries,
		RateLimiters: limiters,
	})
}

// initIngestLog builds the run log. Run bookkeeping and cursors live in
// Postgres only, so ingestion commands need the postgres driver.
func initIngestLog(st store.Store) (*ingest.Log, error) {
	pg, ok := st.(*store.PostgresStore)
	if !ok {
		return nil, eris.New("ingestion requires the postgres store driver")
	}
	return ingest.NewLog(pg.Pool()), nil
}
