package ingest

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gridwatch/nemsync/internal/fetcher"
	"github.com/gridwatch/nemsync/internal/store"
)

const (
	// DefaultCycleInterval matches the portal's dispatch publication cadence.
	DefaultCycleInterval = 5 * time.Minute

	// DefaultMaxConcurrent bounds how many sources sync at once within a
	// cycle. The portal rate limiter throttles further below this.
	DefaultMaxConcurrent = 3
)

// SourceResult is one source's outcome within a cycle.
type SourceResult struct {
	Source  string     `json:"source"`
	Rows    int64      `json:"rows"`
	Skipped int        `json:"skipped"`
	Cursor  *time.Time `json:"cursor,omitempty"`
	Err     error      `json:"-"`
}

// CycleSummary aggregates one pass over all sources.
type CycleSummary struct {
	StartedAt time.Time      `json:"started_at"`
	Duration  time.Duration  `json:"duration"`
	Results   []SourceResult `json:"results"`
}

// Failed returns the names of sources that errored this cycle.
func (s *CycleSummary) Failed() []string {
	var out []string
	for _, r := range s.Results {
		if r.Err != nil {
			out = append(out, r.Source)
		}
	}
	return out
}

// Orchestrator drives the ingestion loop: every interval it runs one cycle,
// syncing each source from its cursor. Sources fail independently; a broken
// source never blocks the others, and its cursor holds position until a
// later cycle succeeds. Cycles never overlap: a slow cycle absorbs the
// ticks it misses.
type Orchestrator struct {
	sources  []Source
	fetch    fetcher.Fetcher
	store    store.Store
	log      *Log
	interval time.Duration
	maxConc  int

	mu   sync.Mutex
	last *CycleSummary
}

// OrchestratorOptions tunes the loop. Zero values take defaults.
type OrchestratorOptions struct {
	Interval      time.Duration
	MaxConcurrent int
}

func NewOrchestrator(sources []Source, f fetcher.Fetcher, st store.Store, log *Log, opts OrchestratorOptions) *Orchestrator {
	if opts.Interval <= 0 {
		opts.Interval = DefaultCycleInterval
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	return &Orchestrator{
		sources:  sources,
		fetch:    f,
		store:    st,
		log:      log,
		interval: opts.Interval,
		maxConc:  opts.MaxConcurrent,
	}
}

// LastCycle returns the most recent cycle summary, or nil before the first
// cycle finishes.
func (o *Orchestrator) LastCycle() *CycleSummary {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

// Run executes cycles until ctx is cancelled. The first cycle starts
// immediately. A cancellation between cycles returns right away; one during
// a cycle lets the cycle run to completion before the loop exits, so a
// shutdown never tears a persist mid-flight.
func (o *Orchestrator) Run(ctx context.Context) error {
	log := zap.L().With(zap.String("component", "ingest.orchestrator"))
	log.Info("starting ingestion loop",
		zap.Duration("interval", o.interval),
		zap.Int("sources", len(o.sources)),
		zap.Int("max_concurrent", o.maxConc),
	)

	ticker := time.NewTicker(o.interval)
	defer ticker.Stop()

	// Cancellation is observed here at the loop, not inside the cycle body.
	cycleCtx := context.WithoutCancel(ctx)

	o.runCycle(cycleCtx, log)
	for {
		select {
		case <-ctx.Done():
			log.Info("ingestion loop stopped")
			return ctx.Err()
		case <-ticker.C:
			o.runCycle(cycleCtx, log)
		}
	}
}

// RunCycle executes a single pass over all sources and returns its summary.
func (o *Orchestrator) RunCycle(ctx context.Context) *CycleSummary {
	log := zap.L().With(zap.String("component", "ingest.orchestrator"))
	return o.runCycle(ctx, log)
}

func (o *Orchestrator) runCycle(ctx context.Context, log *zap.Logger) *CycleSummary {
	summary := &CycleSummary{
		StartedAt: time.Now(),
		Results:   make([]SourceResult, len(o.sources)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.maxConc)
	for i, src := range o.sources {
		g.Go(func() error {
			summary.Results[i] = o.syncSource(gctx, src)
			// Source failures are isolated; never cancel siblings.
			return nil
		})
	}
	_ = g.Wait()

	summary.Duration = time.Since(summary.StartedAt)

	var rows int64
	for _, r := range summary.Results {
		rows += r.Rows
	}
	log.Info("cycle complete",
		zap.Int64("rows", rows),
		zap.Strings("failed", summary.Failed()),
		zap.Duration("took", summary.Duration),
	)

	o.mu.Lock()
	o.last = summary
	o.mu.Unlock()
	return summary
}

func (o *Orchestrator) syncSource(ctx context.Context, src Source) SourceResult {
	log := zap.L().With(zap.String("source", src.Name()))
	out := SourceResult{Source: src.Name()}

	cursor, err := o.log.Cursor(ctx, src.Name())
	if err != nil {
		log.Error("cursor lookup failed", zap.Error(err))
		out.Err = err
		return out
	}

	runID, err := o.log.Start(ctx, src.Name())
	if err != nil {
		log.Error("run log failed", zap.Error(err))
		out.Err = err
		return out
	}

	res, err := src.Sync(ctx, o.fetch, o.store, cursor)
	if err != nil {
		log.Error("sync failed", zap.Error(err))
		if ferr := o.log.Fail(ctx, runID, err.Error()); ferr != nil {
			log.Error("run log failed", zap.Error(ferr))
		}
		out.Err = err
		return out
	}

	// A quiet cycle keeps the existing cursor so catch-up stays anchored.
	newCursor := res.Cursor
	if newCursor == nil {
		newCursor = cursor
	}
	if err := o.log.Complete(ctx, runID, res.Rows, int64(res.Skipped), newCursor); err != nil {
		log.Error("run log failed", zap.Error(err))
		out.Err = err
		return out
	}

	if res.Rows > 0 || res.Skipped > 0 {
		log.Info("source synced",
			zap.Int64("rows", res.Rows),
			zap.Int("skipped", res.Skipped),
		)
	}
	out.Rows = res.Rows
	out.Skipped = res.Skipped
	out.Cursor = newCursor
	return out
}
