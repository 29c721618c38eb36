// Package api exposes the stored market data over HTTP: multi-resolution
// history, merged price series, daily market metrics, coverage and gap
// reports, and ingestion status.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/gridwatch/nemsync/internal/gaps"
	"github.com/gridwatch/nemsync/internal/ingest"
	"github.com/gridwatch/nemsync/internal/metrics"
	"github.com/gridwatch/nemsync/internal/model"
	"github.com/gridwatch/nemsync/internal/nemweb"
	"github.com/gridwatch/nemsync/internal/resample"
	"github.com/gridwatch/nemsync/internal/store"
)

// StatusReader reports the most recent ingestion cycle. Satisfied by the
// orchestrator; nil when the API runs without the ingestion loop.
type StatusReader interface {
	LastCycle() *ingest.CycleSummary
}

// Server answers query requests against the store.
type Server struct {
	store     store.Store
	query     *resample.Service
	daily     *metrics.Calculator
	detector  *gaps.Detector
	ingestLog *ingest.Log
	status    StatusReader
	intervals map[string]time.Duration
}

// Options carries the optional ingestion-side collaborators. A query-only
// deployment leaves them nil.
type Options struct {
	IngestLog *ingest.Log
	Status    StatusReader
}

func NewServer(st store.Store, sources []ingest.Source, opts Options) *Server {
	intervals := make(map[string]time.Duration)
	for _, src := range sources {
		cur, ok := intervals[src.Table()]
		if !ok || src.Interval() < cur {
			intervals[src.Table()] = src.Interval()
		}
	}
	return &Server{
		store:     st,
		query:     resample.NewService(st),
		daily:     metrics.NewCalculator(st),
		detector:  gaps.NewDetector(st),
		ingestLog: opts.IngestLog,
		status:    opts.Status,
		intervals: intervals,
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/history/{table}", s.handleHistory)
		r.Get("/prices/merged", s.handleMergedPrices)
		r.Get("/metrics/daily", s.handleDailyMetrics)
		r.Get("/gaps/{table}", s.handleGaps)
		r.Get("/coverage", s.handleCoverage)
		r.Get("/status", s.handleStatus)
	})
	return r
}

// ListenAndServe runs the server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, port int) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		zap.L().Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	zap.L().Info("starting api server", zap.Int("port", port))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "api: listen")
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "store unreachable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	table, ok := resolveTable(chi.URLParam(r, "table"))
	if !ok {
		respondError(w, http.StatusNotFound, "unknown table")
		return
	}

	start, end, err := timeRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := r.URL.Query().Get("filter")
	if region := r.URL.Query().Get("region"); region != "" {
		filter = model.NormalizeRegion(region)
	}

	samples, err := s.query.Query(r.Context(), table, filter, start, end)
	if err != nil {
		zap.L().Error("history query failed", zap.String("table", table), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"table":      table,
		"start":      start,
		"end":        end,
		"resolution": resample.BucketWidth(end.Sub(start)).String(),
		"samples":    samples,
	})
}

func (s *Server) handleMergedPrices(w http.ResponseWriter, r *http.Request) {
	region := model.NormalizeRegion(r.URL.Query().Get("region"))
	if !model.ValidRegion(region) {
		respondError(w, http.StatusBadRequest, "unknown region")
		return
	}

	start, end, err := timeRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	samples, err := s.query.MergedPrices(r.Context(), region, start, end)
	if err != nil {
		zap.L().Error("merged price query failed", zap.String("region", region), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "query failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"region":  region,
		"start":   start,
		"end":     end,
		"samples": samples,
	})
}

func (s *Server) handleDailyMetrics(w http.ResponseWriter, r *http.Request) {
	region := model.NormalizeRegion(r.URL.Query().Get("region"))
	if !model.ValidRegion(region) {
		respondError(w, http.StatusBadRequest, "unknown region")
		return
	}

	day, err := time.ParseInLocation("2006-01-02", r.URL.Query().Get("day"), nemweb.MarketTime)
	if err != nil {
		respondError(w, http.StatusBadRequest, "day must be YYYY-MM-DD")
		return
	}

	records, err := s.daily.ComputeDaily(r.Context(), region, day)
	if err != nil {
		zap.L().Error("daily metrics failed", zap.String("region", region), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "computation failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"region":  region,
		"day":     day.Format("2006-01-02"),
		"metrics": records,
	})
}

func (s *Server) handleGaps(w http.ResponseWriter, r *http.Request) {
	table, ok := resolveTable(chi.URLParam(r, "table"))
	if !ok {
		respondError(w, http.StatusNotFound, "unknown table")
		return
	}
	expected, ok := s.intervals[table]
	if !ok {
		respondError(w, http.StatusBadRequest, "table has no expected cadence")
		return
	}

	start, end, err := timeRange(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.detector.Detect(r.Context(), table, expected, start, end)
	if err != nil {
		zap.L().Error("gap scan failed", zap.String("table", table), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "scan failed")
		return
	}
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleCoverage(w http.ResponseWriter, r *http.Request) {
	var out []*model.Coverage
	for _, table := range store.Tables {
		cov, err := s.store.Coverage(r.Context(), table)
		if err != nil {
			zap.L().Error("coverage failed", zap.String("table", table), zap.Error(err))
			respondError(w, http.StatusInternalServerError, "coverage failed")
			return
		}
		out = append(out, cov)
	}
	respondJSON(w, http.StatusOK, map[string]any{"tables": out})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{}
	if s.status != nil {
		out["last_cycle"] = s.status.LastCycle()
	}
	if s.ingestLog != nil {
		entries, err := s.ingestLog.Recent(r.Context(), 20)
		if err != nil {
			zap.L().Error("status query failed", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "status failed")
			return
		}
		out["recent_runs"] = entries
	}
	respondJSON(w, http.StatusOK, out)
}

// resolveTable maps the short path names onto store tables.
func resolveTable(name string) (string, bool) {
	switch name {
	case "dispatch":
		return store.TableDispatch, true
	case "prices":
		return store.TablePrices, true
	case "interconnectors":
		return store.TableInterconnectors, true
	case "pasa":
		return store.TablePasa, true
	}
	return "", false
}

// timeRange reads start/end query params as RFC 3339. End defaults to now,
// start to 24 hours before end.
func timeRange(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()

	end := time.Now().In(nemweb.MarketTime)
	if v := q.Get("end"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, eris.New("end must be RFC 3339")
		}
		end = t
	}

	start := end.Add(-24 * time.Hour)
	if v := q.Get("start"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return time.Time{}, time.Time{}, eris.New("start must be RFC 3339")
		}
		start = t
	}

	if !start.Before(end) {
		return time.Time{}, time.Time{}, eris.New("start must be before end")
	}
	return start, end, nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
